package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// TrendPoint is one day's incident load across all regions.
type TrendPoint struct {
	Date              string
	TotalIncidents    int
	NewIncidents      int
	ResolvedIncidents int
	AvgSeverity       float64
	AvgResponseTime   float64
}

// TrendsReport is the daily incident series for a range.
type TrendsReport struct {
	Points            []TrendPoint
	TotalIncidents    int
	AvgDailyIncidents float64
}

// IncidentTrends returns the daily series for [start, end]. Per-day
// severity and response-time averages are weighted by each region's
// incident count so large regions dominate proportionally.
func (r *Reports) IncidentTrends(ctx context.Context, start, end time.Time) (TrendsReport, error) {
	query := r.driver.Rebind(`
		SELECT date_key,
		       SUM(total_incidents),
		       SUM(new_incidents),
		       SUM(resolved_incidents),
		       SUM(avg_severity * total_incidents),
		       SUM(avg_response_time_minutes * total_incidents)
		FROM fact_incident_daily
		WHERE date_key >= ? AND date_key <= ?
		GROUP BY date_key
		ORDER BY date_key`)

	rows, err := r.db.QueryContext(ctx, query, warehouse.DateKey(start), warehouse.DateKey(end))
	if err != nil {
		return TrendsReport{}, fmt.Errorf("failed to query incident trends: %w", err)
	}
	defer rows.Close()

	var report TrendsReport
	for rows.Next() {
		var p TrendPoint
		var weightedSeverity, weightedResponse float64
		if err := rows.Scan(&p.Date, &p.TotalIncidents, &p.NewIncidents,
			&p.ResolvedIncidents, &weightedSeverity, &weightedResponse); err != nil {
			return TrendsReport{}, fmt.Errorf("failed to scan trend point: %w", err)
		}
		if p.TotalIncidents > 0 {
			p.AvgSeverity = weightedSeverity / float64(p.TotalIncidents)
			p.AvgResponseTime = weightedResponse / float64(p.TotalIncidents)
		}
		report.Points = append(report.Points, p)
		report.TotalIncidents += p.TotalIncidents
	}
	if err := rows.Err(); err != nil {
		return TrendsReport{}, err
	}

	if len(report.Points) > 0 {
		report.AvgDailyIncidents = float64(report.TotalIncidents) / float64(len(report.Points))
	}
	return report, nil
}
