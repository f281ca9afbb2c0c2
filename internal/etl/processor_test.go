package etl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmers-project/dmersetl/internal/adapter"
	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/testutil"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

func newTestStore(t *testing.T) *warehouse.Store {
	t.Helper()
	ctx := context.Background()

	logger := testutil.NewTestLogger(t)
	db, err := adapter.Open(ctx, adapter.Config{Driver: adapter.DriverSQLite, Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := warehouse.NewStore(db, adapter.DriverSQLite, logger)
	require.NoError(t, store.Migrate(ctx))
	return store
}

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// northSource returns a source with one region, one unit and one dispatched
// incident on 2026-03-10.
func northSource() *operational.MemorySource {
	created := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	dispatched := created.Add(10 * time.Minute)

	return &operational.MemorySource{
		AreaRecords: []operational.Area{
			{Code: "NORTH", Name: "North District", CenterLat: ptr(52.5), CenterLon: ptr(13.4)},
		},
		UnitRecords: []operational.ResponderUnit{
			{ID: "UNIT-1", Name: "Engine 1", Type: "FIRE", HomeArea: "NORTH", Capacity: 6},
		},
		IncidentRecords: []operational.Incident{
			{
				ID:           "INC-001",
				CreatedAt:    created,
				DispatchedAt: &dispatched,
				Category:     operational.CategoryFire,
				Severity:     3,
				Status:       operational.StatusDispatched,
				Lat:          52.51,
				Lon:          13.41,
				AreaCode:     "NORTH",
				ReporterRole: "CITIZEN",
			},
		},
		DispatchRecords: []operational.Dispatch{
			{
				ID:                "DSP-001",
				IncidentID:        "INC-001",
				UnitID:            "UNIT-1",
				AssignedAt:        dispatched,
				ArrivedAt:         ptr(dispatched.Add(8 * time.Minute)),
				ClearedAt:         ptr(dispatched.Add(38 * time.Minute)),
				Outcome:           "SUCCESS",
				IncidentCreatedAt: created,
				IncidentAreaCode:  "NORTH",
			},
		},
		ShelterRecords: []operational.Shelter{
			{ID: "SH-1", Name: "North Hall", Type: operational.ShelterEmergency,
				Status: operational.ShelterStatusActive, AreaCode: "NORTH",
				MaxOccupancy: 200, CurrentOccupancy: 50},
		},
		StockRecords: []operational.StockRecord{
			{ShelterID: "SH-1", AreaCode: "NORTH", ItemCategory: operational.ItemFood,
				Quantity: 100, ReservedQuantity: 20, MinStockLevel: 10},
			{ShelterID: "SH-1", AreaCode: "NORTH", ItemCategory: operational.ItemMedical,
				Quantity: 0, ReservedQuantity: 0, MinStockLevel: 5},
		},
	}
}

func testDay() (time.Time, time.Time) {
	d := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return d, d
}

func TestRunSingleDay(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	ctx := context.Background()

	p := New(store, source,
		WithLogger(testutil.NewTestLogger(t)),
		WithClock(fixedClock(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC))))

	start, end := testDay()
	result, err := p.Run(ctx, start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	// 1 date + 1 region + 1 incident + 1 unit
	assert.Equal(t, 4, result.DimsCreated)
	assert.Equal(t, 0, result.DispatchesSkipped)

	var total, maxSev, minSev int
	var avgSev, avgResp, totalResp float64
	err = store.DB().QueryRow(`
		SELECT total_incidents, max_severity, min_severity, avg_severity,
			avg_response_time_minutes, total_response_time_minutes
		FROM fact_incident_daily`).
		Scan(&total, &maxSev, &minSev, &avgSev, &avgResp, &totalResp)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 3, maxSev)
	assert.Equal(t, 3, minSev)
	assert.InDelta(t, 3.0, avgSev, 1e-9)
	assert.InDelta(t, 10.0, avgResp, 1e-9)
	assert.InDelta(t, 10.0, totalResp, 1e-9)

	var dispatch, response, onScene, totalTime float64
	var outcome string
	err = store.DB().QueryRow(`
		SELECT dispatch_time_minutes, response_time_minutes, on_scene_time_minutes,
			total_response_time_minutes, outcome
		FROM fact_response`).
		Scan(&dispatch, &response, &onScene, &totalTime, &outcome)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, dispatch, 1e-9)
	assert.InDelta(t, 8.0, response, 1e-9)
	assert.InDelta(t, 30.0, onScene, 1e-9)
	assert.InDelta(t, 48.0, totalTime, 1e-9)
	assert.Equal(t, "SUCCESS", outcome)

	var shelterRows, occupancy int
	err = store.DB().QueryRow(`SELECT COUNT(*), MAX(total_occupancy) FROM fact_shelter_utilization`).
		Scan(&shelterRows, &occupancy)
	require.NoError(t, err)
	assert.Equal(t, 1, shelterRows)
	assert.Equal(t, 50, occupancy)

	var totalItems, outOfStock int
	err = store.DB().QueryRow(`SELECT MAX(total_items), MAX(out_of_stock_items) FROM fact_inventory`).
		Scan(&totalItems, &outOfStock)
	require.NoError(t, err)
	assert.Equal(t, 100, totalItems)
	assert.Equal(t, 1, outOfStock)

	runs, err := store.ListRecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, warehouse.RunStatusSucceeded, runs[0].Status)
}

func TestRunIdempotentAndSnapshotPreserved(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	ctx := context.Background()

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	_, err := p.Run(ctx, start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	// The incident progresses upstream; rerunning must keep the dimension
	// snapshot but refresh facts.
	source.IncidentRecords[0].Status = operational.StatusClosed
	result, err := p.Run(ctx, start, end, warehouse.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DimsCreated)

	var dimStatus string
	err = store.DB().QueryRow(`SELECT status FROM dim_incident WHERE incident_id = 'INC-001'`).Scan(&dimStatus)
	require.NoError(t, err)
	assert.Equal(t, operational.StatusDispatched, dimStatus)

	var factRows, closed int
	err = store.DB().QueryRow(`SELECT COUNT(*), MAX(closed_incidents) FROM fact_incident_daily`).
		Scan(&factRows, &closed)
	require.NoError(t, err)
	assert.Equal(t, 1, factRows)
	assert.Equal(t, 1, closed)
}

func TestRunAbsenceMeansNoRow(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	source.AreaRecords = append(source.AreaRecords,
		operational.Area{Code: "SOUTH", Name: "South District"})

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	_, err := p.Run(context.Background(), start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	// SOUTH had no incidents, so it gets no daily fact row at all.
	var rows int
	err = store.DB().QueryRow(`SELECT COUNT(*) FROM fact_incident_daily`).Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestRunSkipsDispatchWithUnknownIncident(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	source.DispatchRecords = append(source.DispatchRecords, operational.Dispatch{
		ID:                "DSP-GHOST",
		IncidentID:        "INC-MISSING",
		UnitID:            "UNIT-1",
		AssignedAt:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		IncidentCreatedAt: time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
		IncidentAreaCode:  "NORTH",
	})

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	result, err := p.Run(context.Background(), start, end, warehouse.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DispatchesSkipped)

	var rows int
	err = store.DB().QueryRow(`SELECT COUNT(*) FROM fact_response`).Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestRunResponseFactsUseWarehouseDimensions(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	ctx := context.Background()

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	_, err := p.Run(ctx, start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	// The unit and area are retired upstream. Their dimension rows remain,
	// so their dispatches must still refresh response facts. A dispatch to a
	// unit the warehouse never saw is still skipped.
	source.UnitRecords = nil
	source.AreaRecords = nil
	source.DispatchRecords[0].Outcome = "PARTIAL"
	source.DispatchRecords = append(source.DispatchRecords, operational.Dispatch{
		ID:                "DSP-GHOST",
		IncidentID:        "INC-001",
		UnitID:            "UNIT-MISSING",
		AssignedAt:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		IncidentCreatedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		IncidentAreaCode:  "NORTH",
	})

	result, err := p.Run(ctx, start, end, warehouse.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DispatchesSkipped)

	var rows int
	var outcome string
	err = store.DB().QueryRow(`SELECT COUNT(*), MAX(outcome) FROM fact_response`).Scan(&rows, &outcome)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, "PARTIAL", outcome)
}

func TestRunSourceErrorRollsBack(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	source.Err = errors.New("operational database unreachable")

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	_, err := p.Run(context.Background(), start, end, warehouse.TriggerManual)
	require.Error(t, err)

	// Nothing committed.
	for _, table := range []string{"dim_region", "dim_incident", "fact_incident_daily"} {
		var rows int
		require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&rows))
		assert.Zero(t, rows, table)
	}

	// The audit row survives the rollback.
	runs, err := store.ListRecentRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, warehouse.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "unreachable")
}

func TestRunClampsNegativeDeltas(t *testing.T) {
	store := newTestStore(t)
	source := northSource()
	// Upstream clock skew: dispatched before created.
	early := source.IncidentRecords[0].CreatedAt.Add(-5 * time.Minute)
	source.IncidentRecords[0].DispatchedAt = &early
	source.DispatchRecords = nil

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start, end := testDay()
	_, err := p.Run(context.Background(), start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	var avgResp float64
	err = store.DB().QueryRow(`SELECT avg_response_time_minutes FROM fact_incident_daily`).Scan(&avgResp)
	require.NoError(t, err)
	assert.Zero(t, avgResp)
}

func TestRunRepeatsStateFactsAcrossRange(t *testing.T) {
	store := newTestStore(t)
	source := northSource()

	p := New(store, source, WithLogger(testutil.NewTestLogger(t)))

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	_, err := p.Run(context.Background(), start, end, warehouse.TriggerManual)
	require.NoError(t, err)

	var shelterRows, inventoryRows int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM fact_shelter_utilization`).Scan(&shelterRows))
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM fact_inventory`).Scan(&inventoryRows))
	assert.Equal(t, 3, shelterRows)
	assert.Equal(t, 3, inventoryRows)
}

func TestRunRejectsInvertedRange(t *testing.T) {
	store := newTestStore(t)
	p := New(store, northSource(), WithLogger(testutil.NewTestLogger(t)))

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := p.Run(context.Background(), start, start.AddDate(0, 0, -1), warehouse.TriggerManual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid range")
}

func TestRunDefaultRange(t *testing.T) {
	store := newTestStore(t)
	source := northSource()

	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	p := New(store, source,
		WithLogger(testutil.NewTestLogger(t)),
		WithClock(fixedClock(now)))

	result, err := p.Run(context.Background(), time.Time{}, time.Time{}, warehouse.TriggerScheduled)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC), result.RangeStart)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), result.RangeEnd)

	// 31 date rows plus region, incident and unit.
	assert.Equal(t, 34, result.DimsCreated)
}
