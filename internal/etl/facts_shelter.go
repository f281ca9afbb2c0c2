package etl

import (
	"context"
	"time"

	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// buildShelterFacts samples current shelter state per region and writes the
// same aggregate for every day in the range. The operational store keeps no
// occupancy history, so the current snapshot is the best available value
// for each day.
func (p *Processor) buildShelterFacts(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	shelters, err := p.source.Shelters(ctx)
	if err != nil {
		return err
	}

	byArea := make(map[string][]operational.Shelter)
	for _, sh := range shelters {
		byArea[sh.AreaCode] = append(byArea[sh.AreaCode], sh)
	}

	upserted := 0
	for areaCode, regionShelters := range byArea {
		regionKey, ok := st.regionKeys[areaCode]
		if !ok {
			p.logger.Warn("shelter area has no region dimension, skipping", "area", areaCode)
			continue
		}

		fact := aggregateShelters(regionShelters)
		fact.RegionKey = regionKey

		err := eachDay(start, end, func(day time.Time) error {
			fact.DateKey = warehouse.DateKey(day)
			if err := ts.UpsertShelterUtilization(ctx, fact); err != nil {
				return err
			}
			upserted++
			return nil
		})
		if err != nil {
			return err
		}
	}

	st.factsUpserted += upserted
	p.metrics.RowsUpserted("fact_shelter_utilization", upserted)
	p.logger.Debug("shelter utilization facts written", "rows", upserted)
	return nil
}

func aggregateShelters(shelters []operational.Shelter) warehouse.FactShelterUtilization {
	var f warehouse.FactShelterUtilization
	f.TotalShelters = len(shelters)

	for _, sh := range shelters {
		if sh.Status == operational.ShelterStatusActive {
			f.ActiveShelters++
		}
		f.TotalCapacity += sh.MaxOccupancy
		f.TotalOccupancy += sh.CurrentOccupancy

		switch sh.Type {
		case operational.ShelterEmergency:
			f.EmergencyShelters++
		case operational.ShelterTemporary:
			f.TemporaryShelters++
		case operational.ShelterMedical:
			f.MedicalShelters++
		}
	}

	if f.TotalCapacity > 0 {
		f.AvgOccupancyRate = float64(f.TotalOccupancy) / float64(f.TotalCapacity) * 100
	}
	return f
}
