package operational

import (
	"context"
	"time"
)

// Source is the read interface the pipeline consumes. Date parameters are
// inclusive calendar days; implementations must interpret them in UTC.
type Source interface {
	// Areas returns all known operational areas.
	Areas(ctx context.Context) ([]Area, error)

	// Units returns all responder units.
	Units(ctx context.Context) ([]ResponderUnit, error)

	// IncidentsCreatedBetween returns incidents created on any day in
	// [start, end].
	IncidentsCreatedBetween(ctx context.Context, start, end time.Time) ([]Incident, error)

	// DispatchesAssignedBetween returns dispatches assigned on any day in
	// [start, end], with incident fields denormalized.
	DispatchesAssignedBetween(ctx context.Context, start, end time.Time) ([]Dispatch, error)

	// Shelters returns the current state of all shelters.
	Shelters(ctx context.Context) ([]Shelter, error)

	// StockLevels returns current stock records across all shelters.
	StockLevels(ctx context.Context) ([]StockRecord, error)
}
