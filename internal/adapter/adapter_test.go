package adapter

import (
	"context"
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver Driver
		query  string
		want   string
	}{
		{"sqlite passthrough", DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbering", DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres no placeholders", DriverPostgres, "SELECT 1", "SELECT 1"},
		{"postgres many", DriverPostgres, "INSERT INTO t VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.driver.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGooseDialect(t *testing.T) {
	if got := DriverSQLite.GooseDialect(); got != "sqlite3" {
		t.Errorf("sqlite dialect = %q", got)
	}
	if got := DriverPostgres.GooseDialect(); got != "postgres" {
		t.Errorf("postgres dialect = %q", got)
	}
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(Config{
		Host:     "db.example.com",
		Port:     5433,
		Database: "dmers",
		Username: "etl",
		Password: "secret",
		SSLMode:  "require",
	})

	for _, part := range []string{"host=db.example.com", "port=5433", "dbname=dmers", "sslmode=require", "user=etl", "password=secret"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}
}

func TestPostgresDSNDefaults(t *testing.T) {
	dsn := postgresDSN(Config{Database: "dmers"})

	for _, part := range []string{"host=localhost", "port=5432", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("dsn %q missing %q", dsn, part)
		}
	}
	if strings.Contains(dsn, "user=") || strings.Contains(dsn, "password=") {
		t.Errorf("dsn %q should omit empty credentials", dsn)
	}
}

func TestOpenInMemorySQLite(t *testing.T) {
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer db.Close()

	var one int
	if err := db.QueryRow("SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if one != 1 {
		t.Errorf("got %d, want 1", one)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
