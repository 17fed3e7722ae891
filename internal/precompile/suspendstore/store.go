// Package suspendstore persists the precompile suspension ledger (spec
// §4.8): packages that recently failed to compile and should be skipped
// on implicit, post-mutation precompile runs until explicitly cleared.
package suspendstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the suspended-package SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the suspension database at dbPath. If the
// existing database has an incompatible schema, it is deleted and
// recreated, matching the teacher's schema-mismatch recovery.
func Open(dbPath string) (*Store, error) {
	store, err := openDB(dbPath)
	if err != nil {
		if strings.Contains(err.Error(), "no such column") ||
			strings.Contains(err.Error(), "no such table") ||
			strings.Contains(err.Error(), "SQL logic error") {
			if removeErr := os.Remove(dbPath); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("remove incompatible suspension db: %w", removeErr)
			}
			os.Remove(dbPath + "-wal")
			os.Remove(dbPath + "-shm")
			return openDB(dbPath)
		}
		return nil, err
	}
	return store, nil
}

func openDB(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create suspension db directory: %w", err)
	}

	escapedPath := strings.ReplaceAll(dbPath, " ", "%20")
	db, err := sql.Open("sqlite", "file:"+escapedPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open suspension db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn within a transaction.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Suspend records that pkgUUID failed to compile for the given project
// and runtime version, at failedAt.
func (s *Store) Suspend(ctx context.Context, projectPath, runtimeVersion, pkgUUID string, failedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suspended (project_path, runtime_version, pkg_uuid, failed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_path, runtime_version, pkg_uuid)
		DO UPDATE SET failed_at = excluded.failed_at
	`, projectPath, runtimeVersion, pkgUUID, failedAt.UTC())
	if err != nil {
		return fmt.Errorf("suspend %s: %w", pkgUUID, err)
	}
	return nil
}

// Suspended returns the set of package uuids currently suspended for the
// given project and runtime version.
func (s *Store) Suspended(ctx context.Context, projectPath, runtimeVersion string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pkg_uuid FROM suspended WHERE project_path = ? AND runtime_version = ?
	`, projectPath, runtimeVersion)
	if err != nil {
		return nil, fmt.Errorf("query suspended: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, fmt.Errorf("scan suspended row: %w", err)
		}
		out[uuid] = struct{}{}
	}
	return out, rows.Err()
}

// Clear removes every suspension recorded for the given project and
// runtime version. Called only when the user invokes precompile directly
// (spec §4.8) — never by auto-precompile after another operation.
func (s *Store) Clear(ctx context.Context, projectPath, runtimeVersion string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM suspended WHERE project_path = ? AND runtime_version = ?
	`, projectPath, runtimeVersion)
	if err != nil {
		return fmt.Errorf("clear suspended: %w", err)
	}
	return nil
}
