// Package reports queries the star schema for operational summaries. All
// reads go through the fact tables; reports never touch the operational
// store.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmers-project/dmersetl/internal/adapter"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// Reports runs read-only queries against the warehouse.
type Reports struct {
	db     *sql.DB
	driver adapter.Driver
	logger *slog.Logger
}

// New builds a report runner over an open warehouse connection.
func New(db *sql.DB, driver adapter.Driver, logger *slog.Logger) *Reports {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reports{db: db, driver: driver, logger: logger}
}

// CategoryCounts breaks incidents down by category.
type CategoryCounts struct {
	Fire     int
	Flood    int
	Accident int
	Violence int
	Medical  int
	Natural  int
	Other    int
}

// RegionCount pairs a region with its incident count.
type RegionCount struct {
	Region    string
	Incidents int
}

// Dashboard summarizes today against the trailing week.
type Dashboard struct {
	Date               string
	TodayIncidents     int
	TodayNew           int
	TodayResolved      int
	WeeklyIncidents    int
	WeeklyDailyAverage float64
	TopRegions         []RegionCount
	Categories         CategoryCounts
}

// DashboardSummary reports today's incident load and the trailing
// seven-day trend.
func (r *Reports) DashboardSummary(ctx context.Context, now time.Time) (Dashboard, error) {
	today := warehouse.DateKey(now)
	weekAgo := warehouse.DateKey(now.AddDate(0, 0, -7))

	d := Dashboard{Date: today}

	query := r.driver.Rebind(`
		SELECT COALESCE(SUM(total_incidents), 0),
		       COALESCE(SUM(new_incidents), 0),
		       COALESCE(SUM(resolved_incidents), 0),
		       COALESCE(SUM(fire_incidents), 0),
		       COALESCE(SUM(flood_incidents), 0),
		       COALESCE(SUM(accident_incidents), 0),
		       COALESCE(SUM(violence_incidents), 0),
		       COALESCE(SUM(medical_incidents), 0),
		       COALESCE(SUM(natural_incidents), 0),
		       COALESCE(SUM(other_incidents), 0)
		FROM fact_incident_daily
		WHERE date_key = ?`)

	err := r.db.QueryRowContext(ctx, query, today).Scan(
		&d.TodayIncidents, &d.TodayNew, &d.TodayResolved,
		&d.Categories.Fire, &d.Categories.Flood, &d.Categories.Accident,
		&d.Categories.Violence, &d.Categories.Medical, &d.Categories.Natural,
		&d.Categories.Other)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to query today's facts: %w", err)
	}

	query = r.driver.Rebind(`
		SELECT COALESCE(SUM(total_incidents), 0)
		FROM fact_incident_daily
		WHERE date_key >= ? AND date_key <= ?`)

	if err := r.db.QueryRowContext(ctx, query, weekAgo, today).Scan(&d.WeeklyIncidents); err != nil {
		return Dashboard{}, fmt.Errorf("failed to query weekly facts: %w", err)
	}
	d.WeeklyDailyAverage = float64(d.WeeklyIncidents) / 7

	query = r.driver.Rebind(`
		SELECT dr.area_name, SUM(f.total_incidents) AS incidents
		FROM fact_incident_daily f
		JOIN dim_region dr ON dr.region_key = f.region_key
		WHERE f.date_key = ?
		GROUP BY dr.area_name
		ORDER BY incidents DESC
		LIMIT 5`)

	rows, err := r.db.QueryContext(ctx, query, today)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to query regional breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Region, &rc.Incidents); err != nil {
			return Dashboard{}, fmt.Errorf("failed to scan regional breakdown: %w", err)
		}
		d.TopRegions = append(d.TopRegions, rc)
	}
	return d, rows.Err()
}
