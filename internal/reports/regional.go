package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmers-project/dmersetl/internal/spatial"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// RegionSummary aggregates one region's incidents and shelter capacity
// over a range.
type RegionSummary struct {
	Region          string
	TotalIncidents  int
	AvgSeverity     float64
	AvgResponseTime float64
	Categories      CategoryCounts

	TotalShelters    int
	TotalCapacity    int
	AvgOccupancyRate float64

	// IncidentSpreadKM is the mean great-circle distance from the region
	// center to its incidents, a rough measure of how scattered the load is.
	IncidentSpreadKM float64
}

// RegionalAnalysis aggregates incident and shelter facts per region for
// [start, end], ordered by incident volume.
func (r *Reports) RegionalAnalysis(ctx context.Context, start, end time.Time) ([]RegionSummary, error) {
	startKey, endKey := warehouse.DateKey(start), warehouse.DateKey(end)

	query := r.driver.Rebind(`
		SELECT dr.area_name,
		       COALESCE(SUM(f.total_incidents), 0),
		       COALESCE(AVG(f.avg_severity), 0),
		       COALESCE(AVG(f.avg_response_time_minutes), 0),
		       COALESCE(SUM(f.fire_incidents), 0),
		       COALESCE(SUM(f.flood_incidents), 0),
		       COALESCE(SUM(f.accident_incidents), 0),
		       COALESCE(SUM(f.violence_incidents), 0),
		       COALESCE(SUM(f.medical_incidents), 0),
		       COALESCE(SUM(f.natural_incidents), 0),
		       COALESCE(SUM(f.other_incidents), 0)
		FROM fact_incident_daily f
		JOIN dim_region dr ON dr.region_key = f.region_key
		WHERE f.date_key >= ? AND f.date_key <= ?
		GROUP BY dr.area_name
		ORDER BY SUM(f.total_incidents) DESC`)

	rows, err := r.db.QueryContext(ctx, query, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query regional incidents: %w", err)
	}
	defer rows.Close()

	var summaries []RegionSummary
	index := make(map[string]int)
	for rows.Next() {
		var s RegionSummary
		if err := rows.Scan(&s.Region, &s.TotalIncidents, &s.AvgSeverity, &s.AvgResponseTime,
			&s.Categories.Fire, &s.Categories.Flood, &s.Categories.Accident,
			&s.Categories.Violence, &s.Categories.Medical, &s.Categories.Natural,
			&s.Categories.Other); err != nil {
			return nil, fmt.Errorf("failed to scan region summary: %w", err)
		}
		index[s.Region] = len(summaries)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.addShelterContext(ctx, summaries, index, startKey, endKey); err != nil {
		return nil, err
	}
	if err := r.addIncidentSpread(ctx, summaries, index, startKey, endKey); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *Reports) addShelterContext(ctx context.Context, summaries []RegionSummary, index map[string]int, startKey, endKey string) error {
	query := r.driver.Rebind(`
		SELECT dr.area_name,
		       COALESCE(SUM(f.total_shelters), 0),
		       COALESCE(SUM(f.total_capacity), 0),
		       COALESCE(AVG(f.avg_occupancy_rate), 0)
		FROM fact_shelter_utilization f
		JOIN dim_region dr ON dr.region_key = f.region_key
		WHERE f.date_key >= ? AND f.date_key <= ?
		GROUP BY dr.area_name`)

	rows, err := r.db.QueryContext(ctx, query, startKey, endKey)
	if err != nil {
		return fmt.Errorf("failed to query shelter context: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var region string
		var shelters, capacity int
		var occupancy float64
		if err := rows.Scan(&region, &shelters, &capacity, &occupancy); err != nil {
			return fmt.Errorf("failed to scan shelter context: %w", err)
		}
		if i, ok := index[region]; ok {
			summaries[i].TotalShelters = shelters
			summaries[i].TotalCapacity = capacity
			summaries[i].AvgOccupancyRate = occupancy
		}
	}
	return rows.Err()
}

// addIncidentSpread computes the mean distance from each region's center
// to the incidents recorded there in the range. Regions without a stored
// center keep a zero spread.
func (r *Reports) addIncidentSpread(ctx context.Context, summaries []RegionSummary, index map[string]int, startKey, endKey string) error {
	query := r.driver.Rebind(`
		SELECT dr.area_name, dr.center_lat, dr.center_lon, di.lat, di.lon
		FROM dim_incident di
		JOIN dim_region dr ON dr.area_code = di.reporter_area
		WHERE di.created_date_key >= ? AND di.created_date_key <= ?`)

	rows, err := r.db.QueryContext(ctx, query, startKey, endKey)
	if err != nil {
		return fmt.Errorf("failed to query incident locations: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for rows.Next() {
		var region string
		var centerLat, centerLon sql.NullFloat64
		var lat, lon float64
		if err := rows.Scan(&region, &centerLat, &centerLon, &lat, &lon); err != nil {
			return fmt.Errorf("failed to scan incident location: %w", err)
		}
		if !centerLat.Valid || !centerLon.Valid {
			continue
		}
		sums[region] += spatial.HaversineKM(centerLat.Float64, centerLon.Float64, lat, lon)
		counts[region]++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for region, sum := range sums {
		if i, ok := index[region]; ok && counts[region] > 0 {
			summaries[i].IncidentSpreadKM = sum / float64(counts[region])
		}
	}
	return nil
}
