package etl

import (
	"context"
	"time"

	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// buildIncidentDailyFacts aggregates the run's incidents per day and
// region. Day/region pairs with no incidents get no row: absence means no
// data, a zero row would claim a quiet day was observed.
func (p *Processor) buildIncidentDailyFacts(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	type grain struct {
		dateKey  string
		areaCode string
	}

	groups := make(map[grain][]operational.Incident)
	for _, in := range st.incidents {
		g := grain{dateKey: warehouse.DateKey(in.CreatedAt), areaCode: in.AreaCode}
		groups[g] = append(groups[g], in)
	}

	upserted := 0
	for g, incidents := range groups {
		regionKey, ok := st.regionKeys[g.areaCode]
		if !ok {
			p.logger.Warn("incident area has no region dimension, skipping daily fact",
				"area", g.areaCode, "date", g.dateKey)
			continue
		}

		fact := p.aggregateIncidentDay(incidents)
		fact.DateKey = g.dateKey
		fact.RegionKey = regionKey

		if err := ts.UpsertIncidentDaily(ctx, fact); err != nil {
			return err
		}
		upserted++
	}

	st.factsUpserted += upserted
	p.metrics.RowsUpserted("fact_incident_daily", upserted)
	p.logger.Debug("incident daily facts written", "rows", upserted)
	return nil
}

func (p *Processor) aggregateIncidentDay(incidents []operational.Incident) warehouse.FactIncidentDaily {
	var f warehouse.FactIncidentDaily
	f.TotalIncidents = len(incidents)

	var severitySum int
	var responseSum float64
	var responseCount int

	for i, in := range incidents {
		switch in.Status {
		case operational.StatusNew:
			f.NewIncidents++
		case operational.StatusResolved:
			f.ResolvedIncidents++
		case operational.StatusClosed:
			f.ClosedIncidents++
		}

		severitySum += in.Severity
		if i == 0 || in.Severity > f.MaxSeverity {
			f.MaxSeverity = in.Severity
		}
		if i == 0 || in.Severity < f.MinSeverity {
			f.MinSeverity = in.Severity
		}

		switch in.Category {
		case operational.CategoryFire:
			f.FireIncidents++
		case operational.CategoryFlood:
			f.FloodIncidents++
		case operational.CategoryAccident:
			f.AccidentIncidents++
		case operational.CategoryViolence:
			f.ViolenceIncidents++
		case operational.CategoryMedical:
			f.MedicalIncidents++
		case operational.CategoryNatural:
			f.NaturalIncidents++
		default:
			f.OtherIncidents++
		}

		if operational.DispatchedOrLater(in.Status) && in.DispatchedAt != nil {
			rt := p.clampMinutes(*in.DispatchedAt, in.CreatedAt, "response_time", in.ID)
			responseSum += rt
			responseCount++
		}
	}

	if f.TotalIncidents > 0 {
		f.AvgSeverity = float64(severitySum) / float64(f.TotalIncidents)
	}
	if responseCount > 0 {
		f.AvgResponseTimeMinutes = responseSum / float64(responseCount)
		f.TotalResponseTimeMinutes = responseSum
	}
	return f
}
