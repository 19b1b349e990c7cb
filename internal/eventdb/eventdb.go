// Package eventdb persists accepted wildlife detections and detector
// statistics snapshots to SQLite. The camera writes from a single process;
// WAL mode plus a short busy-retry loop covers the occasional overlap with
// API reads.
package eventdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle. Schema management goes through the migration
// helpers in migrate.go, not through ad hoc DDL.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies the connection
// pragmas. It does not touch the schema; call MigrateUp before first use.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	// WAL keeps API reads from blocking the capture loop's writes. The
	// busy timeout is a backstop under the retry loop.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	return &DB{db}, nil
}

const (
	busyMaxAttempts  = 5
	busyInitialDelay = 10 * time.Millisecond
)

// retryOnBusy retries fn with exponential backoff while it reports a
// SQLITE_BUSY condition. Other errors fail immediately.
func retryOnBusy(fn func() error) error {
	delay := busyInitialDelay
	var err error
	for attempt := 0; attempt < busyMaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
