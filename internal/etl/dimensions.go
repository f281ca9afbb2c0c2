package etl

import (
	"context"
	"time"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// buildDimensions populates the four dimension tables for the range and
// fills the run state's key caches for the fact phase.
func (p *Processor) buildDimensions(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	if err := p.buildDateDimension(ctx, ts, st, start, end); err != nil {
		return err
	}
	if err := p.buildRegionDimension(ctx, ts, st); err != nil {
		return err
	}
	if err := p.buildIncidentDimension(ctx, ts, st, start, end); err != nil {
		return err
	}
	return p.buildUnitDimension(ctx, ts, st)
}

func (p *Processor) buildDateDimension(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	return eachDay(start, end, func(day time.Time) error {
		created, err := ts.EnsureDate(ctx, warehouse.NewDimDate(day))
		if err != nil {
			return err
		}
		if created {
			st.dimsCreated++
		}
		return nil
	})
}

func (p *Processor) buildRegionDimension(ctx context.Context, ts *warehouse.Store, st *runState) error {
	areas, err := p.source.Areas(ctx)
	if err != nil {
		return err
	}

	for _, area := range areas {
		key, created, err := ts.EnsureRegion(ctx, warehouse.DimRegion{
			AreaCode:   area.Code,
			AreaName:   area.Name,
			RegionType: warehouse.RegionTypeOperational,
			CenterLat:  area.CenterLat,
			CenterLon:  area.CenterLon,
		})
		if err != nil {
			return err
		}
		if created {
			st.dimsCreated++
		}
		st.regionKeys[area.Code] = key
	}

	p.logger.Debug("region dimension loaded", "regions", len(areas))
	return nil
}

func (p *Processor) buildIncidentDimension(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	incidents, err := p.source.IncidentsCreatedBetween(ctx, start, end)
	if err != nil {
		return err
	}
	st.incidents = incidents

	for _, in := range incidents {
		// A resolution date can fall outside the load range; make sure its
		// date row exists before the incident references it.
		var resolvedKey *string
		if in.ResolvedAt != nil {
			rk := warehouse.DateKey(*in.ResolvedAt)
			created, err := ts.EnsureDate(ctx, warehouse.NewDimDate(*in.ResolvedAt))
			if err != nil {
				return err
			}
			if created {
				st.dimsCreated++
			}
			resolvedKey = &rk
		}

		key, created, err := ts.EnsureIncident(ctx, warehouse.DimIncident{
			IncidentID:      in.ID,
			Category:        in.Category,
			Severity:        in.Severity,
			Status:          in.Status,
			PriorityScore:   in.PriorityScore,
			Lat:             in.Lat,
			Lon:             in.Lon,
			CreatedDateKey:  warehouse.DateKey(in.CreatedAt),
			ResolvedDateKey: resolvedKey,
			ReporterRole:    in.ReporterRole,
			ReporterArea:    in.AreaCode,
		})
		if err != nil {
			return err
		}
		if created {
			st.dimsCreated++
		}
		st.incidentKeys[in.ID] = key
	}

	p.logger.Debug("incident dimension loaded", "incidents", len(incidents))
	return nil
}

func (p *Processor) buildUnitDimension(ctx context.Context, ts *warehouse.Store, st *runState) error {
	units, err := p.source.Units(ctx)
	if err != nil {
		return err
	}

	for _, unit := range units {
		key, created, err := ts.EnsureUnit(ctx, warehouse.DimUnit{
			UnitID:   unit.ID,
			UnitName: unit.Name,
			UnitType: unit.Type,
			HomeArea: unit.HomeArea,
			Capacity: unit.Capacity,
		})
		if err != nil {
			return err
		}
		if created {
			st.dimsCreated++
		}
		st.unitKeys[unit.ID] = key
	}

	p.logger.Debug("unit dimension loaded", "units", len(units))
	return nil
}
