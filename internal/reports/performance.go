package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// UnitPerformance aggregates one unit's response facts over a range.
type UnitPerformance struct {
	UnitName        string
	UnitType        string
	HomeArea        string
	TotalDispatches int
	AvgDispatchTime float64
	AvgResponseTime float64
	AvgOnSceneTime  float64
	SuccessRate     float64 // percent of dispatches with a SUCCESS outcome
}

// ResponsePerformance returns per-unit response metrics for [start, end],
// busiest units first.
func (r *Reports) ResponsePerformance(ctx context.Context, start, end time.Time) ([]UnitPerformance, error) {
	query := r.driver.Rebind(`
		SELECT du.unit_name, du.unit_type, du.home_area,
		       COUNT(*),
		       COALESCE(AVG(f.dispatch_time_minutes), 0),
		       COALESCE(AVG(f.response_time_minutes), 0),
		       COALESCE(AVG(f.on_scene_time_minutes), 0),
		       SUM(CASE WHEN f.outcome = 'SUCCESS' THEN 1 ELSE 0 END)
		FROM fact_response f
		JOIN dim_unit du ON du.unit_key = f.unit_key
		WHERE f.date_key >= ? AND f.date_key <= ?
		GROUP BY du.unit_name, du.unit_type, du.home_area
		ORDER BY COUNT(*) DESC`)

	rows, err := r.db.QueryContext(ctx, query, warehouse.DateKey(start), warehouse.DateKey(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query response performance: %w", err)
	}
	defer rows.Close()

	var units []UnitPerformance
	for rows.Next() {
		var u UnitPerformance
		var successes int
		if err := rows.Scan(&u.UnitName, &u.UnitType, &u.HomeArea, &u.TotalDispatches,
			&u.AvgDispatchTime, &u.AvgResponseTime, &u.AvgOnSceneTime, &successes); err != nil {
			return nil, fmt.Errorf("failed to scan unit performance: %w", err)
		}
		if u.TotalDispatches > 0 {
			u.SuccessRate = float64(successes) / float64(u.TotalDispatches) * 100
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
