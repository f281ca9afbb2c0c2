package commands

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/dmers-project/dmersetl/internal/adapter"
	"github.com/dmers-project/dmersetl/internal/cli/config"
	"github.com/dmers-project/dmersetl/internal/etl"
	"github.com/dmers-project/dmersetl/internal/metrics"
	"github.com/dmers-project/dmersetl/internal/operational"
	"github.com/dmers-project/dmersetl/internal/warehouse"
)

// Deps provides commands with the configuration and logger the root
// command loaded.
type Deps struct {
	Config func() *config.Config
	Logger func() *slog.Logger
}

func driverOf(db config.DB) adapter.Driver {
	if db.Driver == "" {
		return adapter.DriverSQLite
	}
	return adapter.Driver(db.Driver)
}

// openWarehouse connects to the warehouse and brings the schema up to date.
func (d *Deps) openWarehouse(ctx context.Context) (*warehouse.Store, error) {
	cfg := d.Config()

	db, err := adapter.Open(ctx, cfg.Warehouse.AdapterConfig(), d.Logger())
	if err != nil {
		return nil, err
	}

	store := warehouse.NewStore(db, driverOf(cfg.Warehouse), d.Logger())
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// openSource connects to the operational database read-only.
func (d *Deps) openSource(ctx context.Context) (*operational.SQLSource, *sql.DB, error) {
	cfg := d.Config()

	db, err := adapter.Open(ctx, cfg.Source.AdapterConfig(), d.Logger())
	if err != nil {
		return nil, nil, err
	}
	return operational.NewSQLSource(db, driverOf(cfg.Source), d.Logger()), db, nil
}

func (d *Deps) newProcessor(store *warehouse.Store, source operational.Source, rec metrics.Recorder) *etl.Processor {
	opts := []etl.Option{etl.WithLogger(d.Logger())}
	if rec != nil {
		opts = append(opts, etl.WithMetrics(rec))
	}
	return etl.New(store, source, opts...)
}
