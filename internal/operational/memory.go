package operational

import (
	"context"
	"time"
)

// MemorySource is an in-memory Source for tests. Records are returned as
// stored; the date filters apply the same inclusive-day bounds as the SQL
// implementation. Setting Err makes every method fail with it.
type MemorySource struct {
	AreaRecords     []Area
	UnitRecords     []ResponderUnit
	IncidentRecords []Incident
	DispatchRecords []Dispatch
	ShelterRecords  []Shelter
	StockRecords    []StockRecord
	Err             error
}

func (m *MemorySource) Areas(ctx context.Context) ([]Area, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.AreaRecords, nil
}

func (m *MemorySource) Units(ctx context.Context) ([]ResponderUnit, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.UnitRecords, nil
}

func (m *MemorySource) IncidentsCreatedBetween(ctx context.Context, start, end time.Time) ([]Incident, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	lo, hi := dayBounds(start, end)
	var out []Incident
	for _, in := range m.IncidentRecords {
		if !in.CreatedAt.Before(lo) && in.CreatedAt.Before(hi) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *MemorySource) DispatchesAssignedBetween(ctx context.Context, start, end time.Time) ([]Dispatch, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	lo, hi := dayBounds(start, end)
	var out []Dispatch
	for _, d := range m.DispatchRecords {
		if !d.AssignedAt.Before(lo) && d.AssignedAt.Before(hi) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemorySource) Shelters(ctx context.Context) ([]Shelter, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ShelterRecords, nil
}

func (m *MemorySource) StockLevels(ctx context.Context) ([]StockRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.StockRecords, nil
}

var _ Source = (*MemorySource)(nil)
