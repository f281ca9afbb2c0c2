// Package operational exposes the emergency-management record store as a
// read-only input to the warehouse pipeline. The entities here mirror the
// operational CRUD application, which owns them; this package never writes.
package operational

import "time"

// Incident categories.
const (
	CategoryFire     = "FIRE"
	CategoryFlood    = "FLOOD"
	CategoryAccident = "ACCIDENT"
	CategoryViolence = "VIOLENCE"
	CategoryMedical  = "MEDICAL"
	CategoryNatural  = "NATURAL"
	CategoryOther    = "OTHER"
)

// Incident lifecycle statuses, in order.
const (
	StatusNew        = "NEW"
	StatusTriaged    = "TRIAGED"
	StatusDispatched = "DISPATCHED"
	StatusOngoing    = "ONGOING"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
)

// Shelter types counted by the utilization facts.
const (
	ShelterEmergency = "EMERGENCY"
	ShelterTemporary = "TEMPORARY"
	ShelterMedical   = "MEDICAL"
)

// ShelterStatusActive marks a shelter currently hosting occupants.
const ShelterStatusActive = "ACTIVE"

// Stock item categories counted by the inventory facts.
const (
	ItemFood     = "FOOD"
	ItemMedical  = "MEDICAL"
	ItemHygiene  = "HYGIENE"
	ItemClothing = "CLOTHING"
	ItemTools    = "TOOLS"
)

// Area is a geographic operational area.
type Area struct {
	Code      string
	Name      string
	CenterLat *float64
	CenterLon *float64
}

// Incident is an operational incident record. DispatchedAt and ResolvedAt
// are maintained by the upstream writer; the pipeline reads them as-is.
type Incident struct {
	ID            string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
	ResolvedAt    *time.Time
	Category      string
	Severity      int
	Status        string
	PriorityScore float64
	Lat           float64
	Lon           float64
	AreaCode      string
	ReporterRole  string
}

// ResponderUnit is an emergency response unit.
type ResponderUnit struct {
	ID       string
	Name     string
	Type     string
	HomeArea string
	Capacity int
}

// Dispatch assigns a unit to an incident. IncidentCreatedAt and
// IncidentAreaCode are denormalized from the incident at read time so the
// aggregator can compute timing deltas without a second lookup.
type Dispatch struct {
	ID                string
	IncidentID        string
	UnitID            string
	AssignedAt        time.Time
	ArrivedAt         *time.Time
	ClearedAt         *time.Time
	Outcome           string
	IncidentCreatedAt time.Time
	IncidentAreaCode  string
}

// Shelter is an emergency shelter. Occupancy reflects current state only;
// the operational store keeps no per-day history.
type Shelter struct {
	ID               string
	Name             string
	Type             string
	Status           string
	AreaCode         string
	MaxOccupancy     int
	CurrentOccupancy int
}

// StockRecord is one shelter's stock level for one item, denormalized with
// the item category and the shelter's area.
type StockRecord struct {
	ShelterID        string
	AreaCode         string
	ItemCategory     string
	Quantity         int
	ReservedQuantity int
	MinStockLevel    int
}

// Available returns the quantity not held in reservation.
func (s StockRecord) Available() int {
	if n := s.Quantity - s.ReservedQuantity; n > 0 {
		return n
	}
	return 0
}

// IsLowStock reports whether available stock is at or below the item's
// minimum threshold.
func (s StockRecord) IsLowStock() bool {
	return s.Available() <= s.MinStockLevel
}

// DispatchedOrLater reports whether an incident has progressed at least to
// dispatch. Only such incidents contribute to response-time aggregates.
func DispatchedOrLater(status string) bool {
	switch status {
	case StatusDispatched, StatusOngoing, StatusResolved, StatusClosed:
		return true
	}
	return false
}
