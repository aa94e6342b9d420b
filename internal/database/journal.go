package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// FileName is the journal database file name inside the data directory.
const FileName = "autonet.db"

// Journal provides SQLite-based storage for login attempts.
// Only attempts are stored; connectivity probes that found the network
// online are not recorded.
type Journal struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Journal behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so that `history` can read
	// while the monitor writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the journal in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Journal, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("journal not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check journal path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := j.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (j *Journal) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS login_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		verified_by TEXT NOT NULL DEFAULT '',
		version_mismatch INTEGER NOT NULL DEFAULT 0,
		probe_attempts INTEGER NOT NULL DEFAULT 0,
		driver_source TEXT NOT NULL DEFAULT '',
		account TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_started ON login_attempts(started_at);
	CREATE INDEX IF NOT EXISTS idx_attempts_outcome ON login_attempts(outcome);
	`

	_, err := j.db.ExecContext(context.Background(), schema)
	return err
}

// RecordAttempt stores a finished attempt, sets its ID and returns it.
func (j *Journal) RecordAttempt(ctx context.Context, a *model.Attempt) (int64, error) {
	query := `
	INSERT INTO login_attempts
		(started_at, duration_ms, outcome, verified_by, version_mismatch, probe_attempts, driver_source, account, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := j.db.ExecContext(ctx, query,
		a.StartedAt.UTC().Format(time.RFC3339Nano),
		a.Duration.Milliseconds(),
		a.Outcome.String(),
		string(a.VerifiedBy),
		boolToInt(a.VersionMismatch),
		a.ProbeAttempts,
		a.DriverSource,
		a.Account,
		a.ErrorMessage,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read attempt id: %w", err)
	}
	a.ID = id
	return id, nil
}

// RecentAttempts returns up to limit attempts, newest first.
// A limit of zero or less returns every attempt.
func (j *Journal) RecentAttempts(ctx context.Context, limit int) ([]model.Attempt, error) {
	query := `
	SELECT id, started_at, duration_ms, outcome, verified_by, version_mismatch, probe_attempts, driver_source, account, error
	FROM login_attempts
	ORDER BY started_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var results []model.Attempt
	for rows.Next() {
		var (
			a          model.Attempt
			startedAt  string
			durationMS int64
			outcome    string
			verifiedBy string
			mismatch   int
		)

		err := rows.Scan(
			&a.ID,
			&startedAt,
			&durationMS,
			&outcome,
			&verifiedBy,
			&mismatch,
			&a.ProbeAttempts,
			&a.DriverSource,
			&a.Account,
			&a.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}

		a.StartedAt = parseTimestamp(startedAt)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.VerifiedBy = model.Verification(verifiedBy)
		a.VersionMismatch = mismatch != 0
		if a.Outcome, err = model.ParseOutcome(outcome); err != nil {
			// Rows written by a newer version keep their place in history.
			a.Outcome = model.OutcomeUnexpectedError
		}

		results = append(results, a)
	}

	return results, rows.Err()
}

// OutcomeCounts returns the number of recorded attempts per outcome.
// Outcomes that never occurred are absent from the map.
func (j *Journal) OutcomeCounts(ctx context.Context) (map[model.Outcome]int, error) {
	query := `
	SELECT outcome, COUNT(*) FROM login_attempts
	GROUP BY outcome
	`

	rows, err := j.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Outcome]int)
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}

		outcome, err := model.ParseOutcome(name)
		if err != nil {
			outcome = model.OutcomeUnexpectedError
		}
		counts[outcome] += count
	}

	return counts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Written by RecordAttempt
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
