// Package warehouse owns the dimensional star schema: dimension and fact
// tables, the run audit log, and the single-writer run lock.
package warehouse

import "time"

// DateKeyLayout is the canonical format for date dimension keys.
const DateKeyLayout = "2006-01-02"

// DateKey formats a timestamp's UTC calendar day as a dimension key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// DimDate is one calendar day. The key is the day itself, so rows are
// immutable once written.
type DimDate struct {
	DateKey    string
	Year       int
	Quarter    int
	Month      int
	MonthName  string
	WeekOfYear int
	DayOfYear  int
	DayOfMonth int
	DayOfWeek  int // Monday = 0 .. Sunday = 6
	DayName    string
	IsWeekend  bool
	IsHoliday  bool
}

// NewDimDate derives the calendar attributes for a day.
func NewDimDate(t time.Time) DimDate {
	t = t.UTC()
	_, week := t.ISOWeek()
	dow := (int(t.Weekday()) + 6) % 7
	return DimDate{
		DateKey:    DateKey(t),
		Year:       t.Year(),
		Quarter:    (int(t.Month())-1)/3 + 1,
		Month:      int(t.Month()),
		MonthName:  t.Month().String(),
		WeekOfYear: week,
		DayOfYear:  t.YearDay(),
		DayOfMonth: t.Day(),
		DayOfWeek:  dow,
		DayName:    t.Weekday().String(),
		IsWeekend:  dow >= 5,
	}
}

// DimRegion is a geographic area. Attributes are snapshotted the first time
// the area is seen; later upstream edits do not rewrite the row.
type DimRegion struct {
	RegionKey  string
	AreaCode   string
	AreaName   string
	RegionType string
	CenterLat  *float64
	CenterLon  *float64
}

// RegionTypeOperational is the region type assigned to areas loaded from
// the operational store.
const RegionTypeOperational = "OPERATIONAL"

// DimIncident is an incident snapshot taken the first time the incident
// enters the warehouse.
type DimIncident struct {
	IncidentKey     string
	IncidentID      string
	Category        string
	Severity        int
	Status          string
	PriorityScore   float64
	Lat             float64
	Lon             float64
	CreatedDateKey  string
	ResolvedDateKey *string
	ReporterRole    string
	ReporterArea    string
}

// DimUnit is a responder unit snapshot.
type DimUnit struct {
	UnitKey  string
	UnitID   string
	UnitName string
	UnitType string
	HomeArea string
	Capacity int
}

// FactIncidentDaily aggregates incidents created on one day in one region.
// A row exists only for (day, region) pairs that had incidents.
type FactIncidentDaily struct {
	DateKey   string
	RegionKey string

	TotalIncidents    int
	NewIncidents      int
	ResolvedIncidents int
	ClosedIncidents   int

	AvgSeverity float64
	MaxSeverity int
	MinSeverity int

	FireIncidents     int
	FloodIncidents    int
	AccidentIncidents int
	ViolenceIncidents int
	MedicalIncidents  int
	NaturalIncidents  int
	OtherIncidents    int

	AvgResponseTimeMinutes   float64
	TotalResponseTimeMinutes float64
}

// FactResponse records one unit's response to one incident. Timing deltas
// are zero when the prerequisite timestamp is missing. Casualties,
// fatalities, distance and utilization are placeholders until the upstream
// store captures situation-report and tracking data.
type FactResponse struct {
	DateKey     string
	IncidentKey string
	UnitKey     string
	RegionKey   string

	DispatchTimeMinutes      float64
	ResponseTimeMinutes      float64
	OnSceneTimeMinutes       float64
	TotalResponseTimeMinutes float64

	Outcome              string
	Casualties           int
	Fatalities           int
	UnitDistanceKM       float64
	UnitUtilizationHours float64
}

// FactShelterUtilization aggregates shelter state per day and region.
type FactShelterUtilization struct {
	DateKey   string
	RegionKey string

	TotalShelters    int
	ActiveShelters   int
	TotalCapacity    int
	TotalOccupancy   int
	AvgOccupancyRate float64

	EmergencyShelters int
	TemporaryShelters int
	MedicalShelters   int
}

// FactInventory aggregates stock levels per day and region. Distribution,
// restock and expiry counters stay zero until the operational store keeps
// stock transaction history.
type FactInventory struct {
	DateKey   string
	RegionKey string

	TotalItems      int
	LowStockItems   int
	OutOfStockItems int

	FoodWaterItems int
	MedicalItems   int
	HygieneItems   int
	ClothingItems  int
	ToolItems      int

	ItemsDistributed int
	ItemsRestocked   int
	ItemsExpired     int
}

// Run statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// Run triggers.
const (
	TriggerManual    = "MANUAL"
	TriggerScheduled = "SCHEDULED"
)

// Run is one pipeline execution recorded in the audit log. Rows are written
// outside the load transaction so failed runs remain visible.
type Run struct {
	ID                string
	TriggeredBy       string
	Status            string
	RangeStart        string
	RangeEnd          string
	StartedAt         time.Time
	FinishedAt        *time.Time
	DimsCreated       int
	FactsUpserted     int
	DispatchesSkipped int
	Error             string
}
