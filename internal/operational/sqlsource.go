package operational

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmers-project/dmersetl/internal/adapter"
)

// SQLSource reads operational records from the record-keeper's database.
// All queries are SELECTs; the pipeline has no write access to this store.
type SQLSource struct {
	db     *sql.DB
	driver adapter.Driver
	logger *slog.Logger
}

// NewSQLSource wraps an open operational database connection.
func NewSQLSource(db *sql.DB, driver adapter.Driver, logger *slog.Logger) *SQLSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLSource{db: db, driver: driver, logger: logger}
}

// dayBounds converts an inclusive [start, end] calendar-day range into a
// half-open UTC timestamp interval.
func dayBounds(start, end time.Time) (time.Time, time.Time) {
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	hi := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return lo, hi
}

// Areas returns all operational areas.
func (s *SQLSource) Areas(ctx context.Context) ([]Area, error) {
	query := s.driver.Rebind(`SELECT code, name, center_lat, center_lon FROM area ORDER BY code`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %w", err)
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		var a Area
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&a.Code, &a.Name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		if lat.Valid {
			a.CenterLat = &lat.Float64
		}
		if lon.Valid {
			a.CenterLon = &lon.Float64
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// Units returns all responder units.
func (s *SQLSource) Units(ctx context.Context) ([]ResponderUnit, error) {
	query := s.driver.Rebind(`SELECT unit_id, name, unit_type, home_area, capacity FROM responder_unit ORDER BY name`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query responder units: %w", err)
	}
	defer rows.Close()

	var units []ResponderUnit
	for rows.Next() {
		var u ResponderUnit
		if err := rows.Scan(&u.ID, &u.Name, &u.Type, &u.HomeArea, &u.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan responder unit: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// IncidentsCreatedBetween returns incidents created on any day in [start, end].
func (s *SQLSource) IncidentsCreatedBetween(ctx context.Context, start, end time.Time) ([]Incident, error) {
	lo, hi := dayBounds(start, end)

	query := s.driver.Rebind(`
		SELECT i.incident_id, i.created_at, i.dispatched_at, i.resolved_at,
		       i.category, i.severity, i.status, i.priority_score,
		       i.lat, i.lon, a.code, u.role
		FROM incident i
		JOIN area a ON a.id = i.area_id
		JOIN app_user u ON u.id = i.reported_by_id
		WHERE i.created_at >= ? AND i.created_at < ?
		ORDER BY i.created_at`)

	rows, err := s.db.QueryContext(ctx, query, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		var in Incident
		var dispatched, resolved sql.NullTime
		if err := rows.Scan(&in.ID, &in.CreatedAt, &dispatched, &resolved,
			&in.Category, &in.Severity, &in.Status, &in.PriorityScore,
			&in.Lat, &in.Lon, &in.AreaCode, &in.ReporterRole); err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		if dispatched.Valid {
			in.DispatchedAt = &dispatched.Time
		}
		if resolved.Valid {
			in.ResolvedAt = &resolved.Time
		}
		incidents = append(incidents, in)
	}

	s.logger.Debug("extracted incidents", "count", len(incidents), "from", lo, "to", hi)
	return incidents, rows.Err()
}

// DispatchesAssignedBetween returns dispatches assigned on any day in
// [start, end], with the incident's creation time and area denormalized.
func (s *SQLSource) DispatchesAssignedBetween(ctx context.Context, start, end time.Time) ([]Dispatch, error) {
	lo, hi := dayBounds(start, end)

	query := s.driver.Rebind(`
		SELECT d.dispatch_id, d.incident_id, d.unit_id, d.assigned_at,
		       d.arrived_at, d.cleared_at, d.outcome,
		       i.created_at, a.code
		FROM dispatch d
		JOIN incident i ON i.incident_id = d.incident_id
		JOIN area a ON a.id = i.area_id
		WHERE d.assigned_at >= ? AND d.assigned_at < ?
		ORDER BY d.assigned_at`)

	rows, err := s.db.QueryContext(ctx, query, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []Dispatch
	for rows.Next() {
		var d Dispatch
		var arrived, cleared sql.NullTime
		var outcome sql.NullString
		if err := rows.Scan(&d.ID, &d.IncidentID, &d.UnitID, &d.AssignedAt,
			&arrived, &cleared, &outcome, &d.IncidentCreatedAt, &d.IncidentAreaCode); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		if arrived.Valid {
			d.ArrivedAt = &arrived.Time
		}
		if cleared.Valid {
			d.ClearedAt = &cleared.Time
		}
		if outcome.Valid {
			d.Outcome = outcome.String
		}
		dispatches = append(dispatches, d)
	}

	s.logger.Debug("extracted dispatches", "count", len(dispatches), "from", lo, "to", hi)
	return dispatches, rows.Err()
}

// Shelters returns the current state of all shelters.
func (s *SQLSource) Shelters(ctx context.Context) ([]Shelter, error) {
	query := s.driver.Rebind(`
		SELECT sh.shelter_id, sh.name, sh.shelter_type, sh.status, a.code,
		       sh.max_occupancy, sh.current_occupancy
		FROM shelter sh
		JOIN area a ON a.id = sh.area_id
		ORDER BY sh.name`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelters: %w", err)
	}
	defer rows.Close()

	var shelters []Shelter
	for rows.Next() {
		var sh Shelter
		if err := rows.Scan(&sh.ID, &sh.Name, &sh.Type, &sh.Status, &sh.AreaCode,
			&sh.MaxOccupancy, &sh.CurrentOccupancy); err != nil {
			return nil, fmt.Errorf("failed to scan shelter: %w", err)
		}
		shelters = append(shelters, sh)
	}
	return shelters, rows.Err()
}

// StockLevels returns current stock records, denormalized with the item
// category and shelter area.
func (s *SQLSource) StockLevels(ctx context.Context) ([]StockRecord, error) {
	query := s.driver.Rebind(`
		SELECT st.shelter_id, a.code, it.category,
		       st.quantity, st.reserved_quantity, it.min_stock_level
		FROM shelter_stock st
		JOIN shelter sh ON sh.shelter_id = st.shelter_id
		JOIN area a ON a.id = sh.area_id
		JOIN item it ON it.item_id = st.item_id`)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var stocks []StockRecord
	for rows.Next() {
		var st StockRecord
		if err := rows.Scan(&st.ShelterID, &st.AreaCode, &st.ItemCategory,
			&st.Quantity, &st.ReservedQuantity, &st.MinStockLevel); err != nil {
			return nil, fmt.Errorf("failed to scan stock record: %w", err)
		}
		stocks = append(stocks, st)
	}
	return stocks, rows.Err()
}

var _ Source = (*SQLSource)(nil)
