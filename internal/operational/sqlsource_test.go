package operational

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmers-project/dmersetl/internal/adapter"
)

func newMockSource(t *testing.T) (*SQLSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLSource(db, adapter.DriverSQLite, nil), mock
}

func TestDayBounds(t *testing.T) {
	start := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 1, 0, 0, 0, time.UTC)

	lo, hi := dayBounds(start, end)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), lo)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), hi)
}

func TestAreasScansNullCenters(t *testing.T) {
	source, mock := newMockSource(t)

	mock.ExpectQuery(`SELECT code, name, center_lat, center_lon FROM area`).
		WillReturnRows(sqlmock.NewRows([]string{"code", "name", "center_lat", "center_lon"}).
			AddRow("NORTH", "North District", 52.5, 13.4).
			AddRow("SOUTH", "South District", nil, nil))

	areas, err := source.Areas(context.Background())
	require.NoError(t, err)
	require.Len(t, areas, 2)

	assert.Equal(t, "NORTH", areas[0].Code)
	require.NotNil(t, areas[0].CenterLat)
	assert.Equal(t, 52.5, *areas[0].CenterLat)

	assert.Nil(t, areas[1].CenterLat)
	assert.Nil(t, areas[1].CenterLon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentsCreatedBetweenUsesHalfOpenBounds(t *testing.T) {
	source, mock := newMockSource(t)

	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	dispatched := created.Add(10 * time.Minute)

	mock.ExpectQuery(`SELECT i.incident_id, i.created_at`).
		WithArgs(
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		).
		WillReturnRows(sqlmock.NewRows([]string{
			"incident_id", "created_at", "dispatched_at", "resolved_at",
			"category", "severity", "status", "priority_score",
			"lat", "lon", "code", "role",
		}).AddRow("INC-001", created, dispatched, nil,
			"FIRE", 3, "DISPATCHED", 7.5, 52.51, 13.41, "NORTH", "CITIZEN"))

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	incidents, err := source.IncidentsCreatedBetween(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, incidents, 1)

	in := incidents[0]
	assert.Equal(t, "INC-001", in.ID)
	require.NotNil(t, in.DispatchedAt)
	assert.Equal(t, dispatched, *in.DispatchedAt)
	assert.Nil(t, in.ResolvedAt)
	assert.Equal(t, "NORTH", in.AreaCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchesAssignedBetweenDenormalizesIncident(t *testing.T) {
	source, mock := newMockSource(t)

	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	assigned := created.Add(10 * time.Minute)

	mock.ExpectQuery(`SELECT d.dispatch_id, d.incident_id`).
		WillReturnRows(sqlmock.NewRows([]string{
			"dispatch_id", "incident_id", "unit_id", "assigned_at",
			"arrived_at", "cleared_at", "outcome", "created_at", "code",
		}).AddRow("DSP-001", "INC-001", "UNIT-1", assigned, nil, nil, nil, created, "NORTH"))

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	dispatches, err := source.DispatchesAssignedBetween(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, dispatches, 1)

	d := dispatches[0]
	assert.Equal(t, created, d.IncidentCreatedAt)
	assert.Equal(t, "NORTH", d.IncidentAreaCode)
	assert.Empty(t, d.Outcome)
	assert.Nil(t, d.ArrivedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStockRecordAvailability(t *testing.T) {
	tests := []struct {
		name      string
		rec       StockRecord
		available int
		low       bool
	}{
		{"plenty", StockRecord{Quantity: 100, ReservedQuantity: 20, MinStockLevel: 10}, 80, false},
		{"at threshold", StockRecord{Quantity: 15, ReservedQuantity: 5, MinStockLevel: 10}, 10, true},
		{"over-reserved", StockRecord{Quantity: 5, ReservedQuantity: 10, MinStockLevel: 0}, 0, true},
		{"empty", StockRecord{Quantity: 0, MinStockLevel: 5}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Available(); got != tt.available {
				t.Errorf("Available() = %d, want %d", got, tt.available)
			}
			if got := tt.rec.IsLowStock(); got != tt.low {
				t.Errorf("IsLowStock() = %v, want %v", got, tt.low)
			}
		})
	}
}

func TestDispatchedOrLater(t *testing.T) {
	for _, status := range []string{StatusDispatched, StatusOngoing, StatusResolved, StatusClosed} {
		if !DispatchedOrLater(status) {
			t.Errorf("DispatchedOrLater(%s) = false", status)
		}
	}
	for _, status := range []string{StatusNew, StatusTriaged, ""} {
		if DispatchedOrLater(status) {
			t.Errorf("DispatchedOrLater(%s) = true", status)
		}
	}
}
