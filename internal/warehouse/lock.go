package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmers-project/dmersetl/internal/adapter"
)

// ErrLockBusy means another run holds the warehouse write lock.
var ErrLockBusy = errors.New("warehouse: run lock held by another process")

// advisoryLockKey identifies the pipeline's postgres advisory lock.
const advisoryLockKey int64 = 0x444d455253 // "DMERS"

// AcquireRunLock takes the single-writer lock inside tx. On postgres it is
// a transaction-scoped advisory lock, released automatically at
// commit/rollback. On sqlite it updates the singleton etl_lock row, which
// takes the write lock for the rest of the transaction; a second writer
// fails once the connection's busy timeout elapses.
//
// Returns ErrLockBusy when the lock is contended; callers retry around the
// whole transaction.
func (s *Store) AcquireRunLock(ctx context.Context, tx *sql.Tx) error {
	if s.driver == adapter.DriverPostgres {
		var acquired bool
		err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock($1)`, advisoryLockKey).Scan(&acquired)
		if err != nil {
			return fmt.Errorf("failed to acquire advisory lock: %w", err)
		}
		if !acquired {
			return ErrLockBusy
		}
		return nil
	}

	_, err := tx.ExecContext(ctx, `UPDATE etl_lock SET acquired_at = ? WHERE id = 1`, time.Now().UTC())
	if err != nil {
		if isSQLiteBusy(err) {
			return ErrLockBusy
		}
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
