// Package schedule runs the pipeline on recurring daily, weekly and
// monthly jobs and serves the metrics endpoint while the daemon is up.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/dmers-project/dmersetl/internal/etl"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// Config carries job times as HH:MM strings in the given location.
type Config struct {
	DailyAt   string
	WeeklyAt  string
	MonthlyAt string
	Timezone  string
}

// Scheduler owns the recurring pipeline jobs.
type Scheduler struct {
	processor *etl.Processor
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// New builds the three recurring jobs. The daily job loads today, the
// weekly job reloads the current week and the monthly job reloads the
// current month, so late-arriving updates get folded in.
func New(processor *etl.Processor, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	s := &Scheduler{
		processor: processor,
		scheduler: gocron.NewScheduler(loc),
		logger:    logger,
	}
	// Jobs share one warehouse lock; queue them instead of overlapping.
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(1).Day().At(cfg.DailyAt).Do(s.runDaily); err != nil {
		return nil, fmt.Errorf("failed to schedule daily job: %w", err)
	}
	if _, err := s.scheduler.Every(1).Week().Monday().At(cfg.WeeklyAt).Do(s.runWeekly); err != nil {
		return nil, fmt.Errorf("failed to schedule weekly job: %w", err)
	}
	if _, err := s.scheduler.Every(1).Month(1).At(cfg.MonthlyAt).Do(s.runMonthly); err != nil {
		return nil, fmt.Errorf("failed to schedule monthly job: %w", err)
	}

	return s, nil
}

// Run starts the jobs and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "jobs", len(s.scheduler.Jobs()))
	s.scheduler.StartAsync()

	<-ctx.Done()

	s.logger.Info("scheduler stopping")
	s.scheduler.Stop()
	return nil
}

func (s *Scheduler) runDaily() {
	start, end := etl.DayOf(time.Now())
	s.runJob("daily", start, end)
}

func (s *Scheduler) runWeekly() {
	start, end := etl.WeekOf(time.Now())
	s.runJob("weekly", start, end)
}

func (s *Scheduler) runMonthly() {
	start, end := etl.MonthOf(time.Now())
	s.runJob("monthly", start, end)
}

func (s *Scheduler) runJob(name string, start, end time.Time) {
	s.logger.Info("scheduled job starting", "job", name)
	if _, err := s.processor.Run(context.Background(), start, end, warehouse.TriggerScheduled); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
	}
}
