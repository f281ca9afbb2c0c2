package etl

import (
	"context"
	"errors"
	"time"

	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// buildResponseFacts writes one fact per dispatch assigned in the range.
// A dispatch whose incident or unit has no dimension row is skipped with a
// warning rather than failing the run.
func (p *Processor) buildResponseFacts(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	dispatches, err := p.source.DispatchesAssignedBetween(ctx, start, end)
	if err != nil {
		return err
	}

	upserted := 0
	for _, d := range dispatches {
		incidentKey, err := p.resolveIncidentKey(ctx, ts, st, d.IncidentID)
		if errors.Is(err, warehouse.ErrNotFound) {
			p.skipDispatch(st, d.ID, "incident", d.IncidentID)
			continue
		}
		if err != nil {
			return err
		}

		unitKey, err := p.resolveUnitKey(ctx, ts, st, d.UnitID)
		if errors.Is(err, warehouse.ErrNotFound) {
			p.skipDispatch(st, d.ID, "unit", d.UnitID)
			continue
		}
		if err != nil {
			return err
		}

		regionKey, err := p.resolveRegionKey(ctx, ts, st, d.IncidentAreaCode)
		if errors.Is(err, warehouse.ErrNotFound) {
			p.skipDispatch(st, d.ID, "region", d.IncidentAreaCode)
			continue
		}
		if err != nil {
			return err
		}

		fact := warehouse.FactResponse{
			DateKey:     warehouse.DateKey(d.AssignedAt),
			IncidentKey: incidentKey,
			UnitKey:     unitKey,
			RegionKey:   regionKey,
			Outcome:     d.Outcome,

			DispatchTimeMinutes: p.clampMinutes(d.AssignedAt, d.IncidentCreatedAt, "dispatch_time", d.ID),
		}
		if d.ArrivedAt != nil {
			fact.ResponseTimeMinutes = p.clampMinutes(*d.ArrivedAt, d.AssignedAt, "response_time", d.ID)
		}
		if d.ClearedAt != nil && d.ArrivedAt != nil {
			fact.OnSceneTimeMinutes = p.clampMinutes(*d.ClearedAt, *d.ArrivedAt, "on_scene_time", d.ID)
		}
		if d.ClearedAt != nil {
			fact.TotalResponseTimeMinutes = p.clampMinutes(*d.ClearedAt, d.IncidentCreatedAt, "total_response_time", d.ID)
		}

		if err := ts.UpsertResponse(ctx, fact); err != nil {
			return err
		}
		upserted++
	}

	st.factsUpserted += upserted
	p.metrics.RowsUpserted("fact_response", upserted)
	p.logger.Debug("response facts written", "rows", upserted, "skipped", st.dispatchesSkipped)
	return nil
}

// Key resolution checks the run cache first, then the warehouse: a
// dispatch in range can reference an incident loaded by an earlier run, or
// a unit or area retired upstream whose dimension row remains.

func (p *Processor) resolveIncidentKey(ctx context.Context, ts *warehouse.Store, st *runState, incidentID string) (string, error) {
	if key, ok := st.incidentKeys[incidentID]; ok {
		return key, nil
	}
	key, err := ts.IncidentKeyByID(ctx, incidentID)
	if err != nil {
		return "", err
	}
	st.incidentKeys[incidentID] = key
	return key, nil
}

func (p *Processor) resolveUnitKey(ctx context.Context, ts *warehouse.Store, st *runState, unitID string) (string, error) {
	if key, ok := st.unitKeys[unitID]; ok {
		return key, nil
	}
	key, err := ts.UnitKeyByID(ctx, unitID)
	if err != nil {
		return "", err
	}
	st.unitKeys[unitID] = key
	return key, nil
}

func (p *Processor) resolveRegionKey(ctx context.Context, ts *warehouse.Store, st *runState, areaCode string) (string, error) {
	if key, ok := st.regionKeys[areaCode]; ok {
		return key, nil
	}
	key, err := ts.RegionKeyByCode(ctx, areaCode)
	if err != nil {
		return "", err
	}
	st.regionKeys[areaCode] = key
	return key, nil
}

func (p *Processor) skipDispatch(st *runState, dispatchID, missing, ref string) {
	st.dispatchesSkipped++
	p.metrics.DispatchSkipped()
	p.logger.Warn("dispatch missing dimension, skipping response fact",
		"dispatch", dispatchID, "dimension", missing, "ref", ref)
}
