package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// InventorySummary aggregates one region's stock facts over a range.
// Values are per-day averages since inventory facts repeat current state
// across the range.
type InventorySummary struct {
	Region          string
	AvgTotalItems   float64
	AvgLowStock     float64
	AvgOutOfStock   float64
	AvgFoodWater    float64
	AvgMedical      float64
	AvgHygiene      float64
	AvgClothing     float64
	AvgTools        float64
	AvgOccupancyPct float64
}

// InventoryAnalysis returns per-region stock levels for [start, end] with
// shelter occupancy for context.
func (r *Reports) InventoryAnalysis(ctx context.Context, start, end time.Time) ([]InventorySummary, error) {
	startKey, endKey := warehouse.DateKey(start), warehouse.DateKey(end)

	query := r.driver.Rebind(`
		SELECT dr.area_name,
		       COALESCE(AVG(f.total_items), 0),
		       COALESCE(AVG(f.low_stock_items), 0),
		       COALESCE(AVG(f.out_of_stock_items), 0),
		       COALESCE(AVG(f.food_water_items), 0),
		       COALESCE(AVG(f.medical_items), 0),
		       COALESCE(AVG(f.hygiene_items), 0),
		       COALESCE(AVG(f.clothing_items), 0),
		       COALESCE(AVG(f.tool_items), 0)
		FROM fact_inventory f
		JOIN dim_region dr ON dr.region_key = f.region_key
		WHERE f.date_key >= ? AND f.date_key <= ?
		GROUP BY dr.area_name
		ORDER BY dr.area_name`)

	rows, err := r.db.QueryContext(ctx, query, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory analysis: %w", err)
	}
	defer rows.Close()

	var summaries []InventorySummary
	index := make(map[string]int)
	for rows.Next() {
		var s InventorySummary
		if err := rows.Scan(&s.Region, &s.AvgTotalItems, &s.AvgLowStock, &s.AvgOutOfStock,
			&s.AvgFoodWater, &s.AvgMedical, &s.AvgHygiene, &s.AvgClothing, &s.AvgTools); err != nil {
			return nil, fmt.Errorf("failed to scan inventory summary: %w", err)
		}
		index[s.Region] = len(summaries)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query = r.driver.Rebind(`
		SELECT dr.area_name, COALESCE(AVG(f.avg_occupancy_rate), 0)
		FROM fact_shelter_utilization f
		JOIN dim_region dr ON dr.region_key = f.region_key
		WHERE f.date_key >= ? AND f.date_key <= ?
		GROUP BY dr.area_name`)

	occRows, err := r.db.QueryContext(ctx, query, startKey, endKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupancy context: %w", err)
	}
	defer occRows.Close()

	for occRows.Next() {
		var region string
		var occupancy float64
		if err := occRows.Scan(&region, &occupancy); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy context: %w", err)
		}
		if i, ok := index[region]; ok {
			summaries[i].AvgOccupancyPct = occupancy
		}
	}
	return summaries, occRows.Err()
}
