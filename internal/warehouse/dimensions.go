package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a dimension lookup matches no row.
var ErrNotFound = errors.New("warehouse: not found")

// Dimension rows are first-write-wins: every Ensure inserts with
// ON CONFLICT DO NOTHING, so the snapshot taken when an entity first enters
// the warehouse is never rewritten by later runs.

// EnsureDate inserts a date dimension row if the day is not present yet.
func (s *Store) EnsureDate(ctx context.Context, d DimDate) (bool, error) {
	query := s.driver.Rebind(`
		INSERT INTO dim_date (date_key, year, quarter, month, month_name,
			week_of_year, day_of_year, day_of_month, day_of_week, day_name,
			is_weekend, is_holiday)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (date_key) DO NOTHING`)

	res, err := s.q.ExecContext(ctx, query,
		d.DateKey, d.Year, d.Quarter, d.Month, d.MonthName,
		d.WeekOfYear, d.DayOfYear, d.DayOfMonth, d.DayOfWeek, d.DayName,
		d.IsWeekend, d.IsHoliday)
	if err != nil {
		return false, fmt.Errorf("failed to ensure date dimension %s: %w", d.DateKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetDate returns one date dimension row.
func (s *Store) GetDate(ctx context.Context, dateKey string) (DimDate, error) {
	query := s.driver.Rebind(`
		SELECT date_key, year, quarter, month, month_name, week_of_year,
			day_of_year, day_of_month, day_of_week, day_name, is_weekend, is_holiday
		FROM dim_date WHERE date_key = ?`)

	var d DimDate
	err := s.q.QueryRowContext(ctx, query, dateKey).Scan(
		&d.DateKey, &d.Year, &d.Quarter, &d.Month, &d.MonthName, &d.WeekOfYear,
		&d.DayOfYear, &d.DayOfMonth, &d.DayOfWeek, &d.DayName, &d.IsWeekend, &d.IsHoliday)
	if errors.Is(err, sql.ErrNoRows) {
		return DimDate{}, fmt.Errorf("date dimension %s: %w", dateKey, ErrNotFound)
	}
	if err != nil {
		return DimDate{}, fmt.Errorf("failed to get date dimension %s: %w", dateKey, err)
	}
	return d, nil
}

// EnsureRegion inserts a region dimension row for the area if missing and
// returns its key.
func (s *Store) EnsureRegion(ctx context.Context, r DimRegion) (string, bool, error) {
	key := r.RegionKey
	if key == "" {
		key = uuid.NewString()
	}

	query := s.driver.Rebind(`
		INSERT INTO dim_region (region_key, area_code, area_name, region_type, center_lat, center_lon)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (area_code) DO NOTHING`)

	res, err := s.q.ExecContext(ctx, query,
		key, r.AreaCode, r.AreaName, r.RegionType, r.CenterLat, r.CenterLon)
	if err != nil {
		return "", false, fmt.Errorf("failed to ensure region dimension %s: %w", r.AreaCode, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return key, true, nil
	}

	existing, err := s.RegionKeyByCode(ctx, r.AreaCode)
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// RegionKeyByCode looks up the dimension key for an area code.
func (s *Store) RegionKeyByCode(ctx context.Context, areaCode string) (string, error) {
	query := s.driver.Rebind(`SELECT region_key FROM dim_region WHERE area_code = ?`)

	var key string
	err := s.q.QueryRowContext(ctx, query, areaCode).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("region dimension %s: %w", areaCode, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up region %s: %w", areaCode, err)
	}
	return key, nil
}

// ListRegions returns all region dimension rows.
func (s *Store) ListRegions(ctx context.Context) ([]DimRegion, error) {
	query := `SELECT region_key, area_code, area_name, region_type, center_lat, center_lon
		FROM dim_region ORDER BY area_code`

	rows, err := s.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []DimRegion
	for rows.Next() {
		var r DimRegion
		var regionType sql.NullString
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&r.RegionKey, &r.AreaCode, &r.AreaName, &regionType, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		r.RegionType = regionType.String
		if lat.Valid {
			r.CenterLat = &lat.Float64
		}
		if lon.Valid {
			r.CenterLon = &lon.Float64
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// EnsureIncident inserts an incident dimension row if missing and returns
// its key.
func (s *Store) EnsureIncident(ctx context.Context, d DimIncident) (string, bool, error) {
	key := d.IncidentKey
	if key == "" {
		key = uuid.NewString()
	}

	query := s.driver.Rebind(`
		INSERT INTO dim_incident (incident_key, incident_id, category, severity,
			status, priority_score, lat, lon, created_date_key, resolved_date_key,
			reporter_role, reporter_area)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (incident_id) DO NOTHING`)

	res, err := s.q.ExecContext(ctx, query,
		key, d.IncidentID, d.Category, d.Severity,
		d.Status, d.PriorityScore, d.Lat, d.Lon, d.CreatedDateKey, d.ResolvedDateKey,
		d.ReporterRole, d.ReporterArea)
	if err != nil {
		return "", false, fmt.Errorf("failed to ensure incident dimension %s: %w", d.IncidentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return key, true, nil
	}

	existing, err := s.IncidentKeyByID(ctx, d.IncidentID)
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// IncidentKeyByID looks up the dimension key for an operational incident ID.
func (s *Store) IncidentKeyByID(ctx context.Context, incidentID string) (string, error) {
	query := s.driver.Rebind(`SELECT incident_key FROM dim_incident WHERE incident_id = ?`)

	var key string
	err := s.q.QueryRowContext(ctx, query, incidentID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("incident dimension %s: %w", incidentID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up incident %s: %w", incidentID, err)
	}
	return key, nil
}

// EnsureUnit inserts a unit dimension row if missing and returns its key.
func (s *Store) EnsureUnit(ctx context.Context, u DimUnit) (string, bool, error) {
	key := u.UnitKey
	if key == "" {
		key = uuid.NewString()
	}

	query := s.driver.Rebind(`
		INSERT INTO dim_unit (unit_key, unit_id, unit_name, unit_type, home_area, capacity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (unit_id) DO NOTHING`)

	res, err := s.q.ExecContext(ctx, query,
		key, u.UnitID, u.UnitName, u.UnitType, u.HomeArea, u.Capacity)
	if err != nil {
		return "", false, fmt.Errorf("failed to ensure unit dimension %s: %w", u.UnitID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return key, true, nil
	}

	existing, err := s.UnitKeyByID(ctx, u.UnitID)
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// UnitKeyByID looks up the dimension key for an operational unit ID.
func (s *Store) UnitKeyByID(ctx context.Context, unitID string) (string, error) {
	query := s.driver.Rebind(`SELECT unit_key FROM dim_unit WHERE unit_id = ?`)

	var key string
	err := s.q.QueryRowContext(ctx, query, unitID).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("unit dimension %s: %w", unitID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up unit %s: %w", unitID, err)
	}
	return key, nil
}
