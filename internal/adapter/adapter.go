// Package adapter opens database/sql connections for the supported engines
// (sqlite, postgres) and papers over their placeholder syntax.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver identifies a supported database engine.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config holds connection settings for a database.
type Config struct {
	Driver   Driver
	Path     string // sqlite file path, or ":memory:"
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// GooseDialect returns the goose migration dialect for the driver.
func (d Driver) GooseDialect() string {
	if d == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Rebind rewrites ? placeholders to the engine's native form. SQL in this
// repository is written with ? and rebound for postgres.
func (d Driver) Rebind(query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var driverName, dsn string
	switch cfg.Driver {
	case DriverSQLite, "":
		driverName = "sqlite"
		dsn = sqliteDSN(cfg.Path)
	case DriverPostgres:
		driverName = "pgx"
		dsn = postgresDSN(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	logger.Debug("opening database", "driver", driverName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}

	// An in-memory sqlite database exists per connection; pin the pool to a
	// single connection so every statement sees the same database.
	if driverName == "sqlite" && (cfg.Path == "" || cfg.Path == ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	return db, nil
}

// sqliteDSN enables foreign keys and a busy timeout so a second writer
// waits for the run lock instead of failing immediately.
func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// postgresDSN builds a key=value connection string.
func postgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}
