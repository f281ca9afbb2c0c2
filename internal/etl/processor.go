// Package etl drives the warehouse load: dimensions first, then facts,
// then aggregation refresh, all inside one transaction per run.
//
// Dimension rows keep the snapshot taken when an entity first enters the
// warehouse; later upstream edits are not folded back in. An incident
// resolved outside the load range gets its resolution day's date row
// created on demand instead of failing the run.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/dmers-project/dmersetl/internal/metrics"
	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// Processor runs the extract-transform-load pipeline.
type Processor struct {
	store   *warehouse.Store
	source  operational.Source
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	lockRetries uint64
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the processor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(p *Processor) { p.metrics = r }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New builds a Processor over a warehouse store and an operational source.
func New(store *warehouse.Store, source operational.Source, opts ...Option) *Processor {
	p := &Processor{
		store:       store,
		source:      source,
		logger:      slog.New(slog.DiscardHandler),
		metrics:     metrics.Nop{},
		now:         time.Now,
		lockRetries: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result summarizes a completed run.
type Result struct {
	RunID             string
	RangeStart        time.Time
	RangeEnd          time.Time
	DimsCreated       int
	FactsUpserted     int
	DispatchesSkipped int
	Duration          time.Duration
}

// runState tracks one load attempt. State is rebuilt from scratch on every
// attempt so a retried transaction never trusts work that was rolled back.
type runState struct {
	regionKeys   map[string]string // area code -> region key
	incidentKeys map[string]string // incident ID -> incident key
	unitKeys     map[string]string // unit ID -> unit key
	incidents    []operational.Incident

	dimsCreated       int
	factsUpserted     int
	dispatchesSkipped int
}

func newRunState() *runState {
	return &runState{
		regionKeys:   make(map[string]string),
		incidentKeys: make(map[string]string),
		unitKeys:     make(map[string]string),
	}
}

// Run loads the inclusive [start, end] day range. Zero start and end select
// the default trailing window. The whole load happens in one transaction
// under the warehouse run lock; on failure nothing is committed and the run
// is recorded as failed.
func (p *Processor) Run(ctx context.Context, start, end time.Time, trigger string) (Result, error) {
	if start.IsZero() || end.IsZero() {
		start, end = DefaultRange(p.now())
	}
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return Result{}, fmt.Errorf("invalid range: end %s before start %s",
			warehouse.DateKey(end), warehouse.DateKey(start))
	}

	run := warehouse.Run{
		ID:          uuid.NewString(),
		TriggeredBy: trigger,
		Status:      warehouse.RunStatusRunning,
		RangeStart:  warehouse.DateKey(start),
		RangeEnd:    warehouse.DateKey(end),
		StartedAt:   p.now().UTC(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return Result{}, err
	}
	p.metrics.RunStarted()

	p.logger.Info("starting pipeline run",
		"run_id", run.ID, "trigger", trigger,
		"start", run.RangeStart, "end", run.RangeEnd)

	var st *runState
	backoff := retry.WithMaxRetries(p.lockRetries, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		st = newRunState()
		err := p.runOnce(ctx, st, start, end)
		if errors.Is(err, warehouse.ErrLockBusy) {
			p.logger.Warn("run lock busy, retrying", "run_id", run.ID)
			return retry.RetryableError(err)
		}
		return err
	})

	duration := p.now().UTC().Sub(run.StartedAt)
	finished := run.StartedAt.Add(duration)
	run.FinishedAt = &finished

	if err != nil {
		run.Status = warehouse.RunStatusFailed
		run.Error = err.Error()
		if logErr := p.store.CompleteRun(ctx, run); logErr != nil {
			p.logger.Error("failed to record run failure", "run_id", run.ID, "error", logErr)
		}
		p.metrics.RunCompleted(run.Status, duration)
		p.logger.Error("pipeline run failed", "run_id", run.ID, "error", err)
		return Result{}, fmt.Errorf("run %s failed: %w", run.ID, err)
	}

	run.Status = warehouse.RunStatusSucceeded
	run.DimsCreated = st.dimsCreated
	run.FactsUpserted = st.factsUpserted
	run.DispatchesSkipped = st.dispatchesSkipped
	if err := p.store.CompleteRun(ctx, run); err != nil {
		p.logger.Error("failed to record run completion", "run_id", run.ID, "error", err)
	}
	p.metrics.RunCompleted(run.Status, duration)

	p.logger.Info("pipeline run completed",
		"run_id", run.ID,
		"dims_created", st.dimsCreated,
		"facts_upserted", st.factsUpserted,
		"dispatches_skipped", st.dispatchesSkipped,
		"duration", duration)

	return Result{
		RunID:             run.ID,
		RangeStart:        start,
		RangeEnd:          end,
		DimsCreated:       st.dimsCreated,
		FactsUpserted:     st.factsUpserted,
		DispatchesSkipped: st.dispatchesSkipped,
		Duration:          duration,
	}, nil
}

// runOnce is one transactional load attempt.
func (p *Processor) runOnce(ctx context.Context, st *runState, start, end time.Time) error {
	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := p.store.AcquireRunLock(ctx, tx); err != nil {
		return err
	}

	ts := p.store.WithTx(tx)

	if err := p.buildDimensions(ctx, ts, st, start, end); err != nil {
		return fmt.Errorf("dimension phase: %w", err)
	}
	if err := p.buildFacts(ctx, ts, st, start, end); err != nil {
		return fmt.Errorf("fact phase: %w", err)
	}
	if err := p.refreshAggregations(ctx, ts, start, end); err != nil {
		return fmt.Errorf("aggregation phase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

func (p *Processor) buildFacts(ctx context.Context, ts *warehouse.Store, st *runState, start, end time.Time) error {
	if err := p.buildIncidentDailyFacts(ctx, ts, st, start, end); err != nil {
		return err
	}
	if err := p.buildResponseFacts(ctx, ts, st, start, end); err != nil {
		return err
	}
	if err := p.buildShelterFacts(ctx, ts, st, start, end); err != nil {
		return err
	}
	return p.buildInventoryFacts(ctx, ts, st, start, end)
}

// refreshAggregations is reserved for summary tables and materialized
// views; the base fact tables carry all reporting today.
func (p *Processor) refreshAggregations(ctx context.Context, ts *warehouse.Store, start, end time.Time) error {
	p.logger.Debug("no aggregations to refresh")
	return nil
}

// clampMinutes converts a timestamp delta to minutes, flooring at zero.
// Negative deltas mean the upstream clock skewed; they are logged and
// flattened rather than poisoning averages.
func (p *Processor) clampMinutes(later, earlier time.Time, what, id string) float64 {
	m := later.Sub(earlier).Minutes()
	if m < 0 {
		p.logger.Debug("negative timing delta clamped to zero", "metric", what, "id", id, "minutes", m)
		return 0
	}
	return m
}

// eachDay calls fn for every day in the inclusive range.
func eachDay(start, end time.Time, fn func(day time.Time) error) error {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}
