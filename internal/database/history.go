package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sstiscan/internal/model"
)

// FileName is the name of the history database inside the data directory.
const FileName = "sstiscan.db"

var (
	// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false
	// and no database exists yet.
	ErrDatabaseNotFound = errors.New("database not found")

	// ErrScanNotFound is returned when no stored scan has the requested ID.
	ErrScanNotFound = errors.New("scan not found")
)

// HistoryDB stores scan results in SQLite.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	// Read-only commands set it to false so that listing history never
	// leaves an empty database behind.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scan_results (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		method TEXT NOT NULL,
		vulnerable INTEGER NOT NULL DEFAULT 0,
		aborted INTEGER NOT NULL DEFAULT 0,
		payload TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		result_json TEXT NOT NULL,
		outcome_summary TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_target ON scan_results(target);
	CREATE INDEX IF NOT EXISTS idx_results_started ON scan_results(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// storedTimeFormat sorts lexically in chronological order.
const storedTimeFormat = "2006-01-02 15:04:05.000000"

// SaveScanResult stores result. Saving the same ID twice replaces the row.
func (hdb *HistoryDB) SaveScanResult(ctx context.Context, result *model.ScanResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	summary := map[string]int{
		model.OutcomeEvaluated.String(): result.Count(model.OutcomeEvaluated),
		model.OutcomeReflected.String(): result.Count(model.OutcomeReflected),
		model.OutcomeNotFound.String():  result.Count(model.OutcomeNotFound),
		model.OutcomeError.String():     result.Count(model.OutcomeError),
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // a map[string]int always marshals

	query := `
	INSERT OR REPLACE INTO scan_results
		(id, target, method, vulnerable, aborted, payload, started_at, duration_ms, result_json, outcome_summary)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = hdb.db.ExecContext(ctx, query,
		result.ID,
		result.Target,
		result.Method,
		result.Vulnerable,
		result.Aborted,
		result.Payload,
		result.StartedAt.UTC().Format(storedTimeFormat),
		result.Duration().Milliseconds(),
		string(resultJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan result: %w", err)
	}

	return nil
}

// ListTargets returns every target that has at least one stored scan.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM scan_results
	ORDER BY target
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// ScanMetadata contains summary information about a stored scan.
// It is used for listing history without loading the full result.
type ScanMetadata struct {
	// ID is the scan's UUID.
	ID string `json:"id"`

	// Target is the scanned URL.
	Target string `json:"target"`

	// Method is the HTTP method used.
	Method string `json:"method"`

	// Vulnerable and Aborted mirror the stored result.
	Vulnerable bool `json:"vulnerable"`
	Aborted    bool `json:"aborted"`

	// Payload is the triggering payload of a vulnerable scan.
	Payload string `json:"payload,omitempty"`

	// StartedAt is when the scan began, in UTC.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the scan took.
	Duration time.Duration `json:"duration"`

	// OutcomeSummary counts attempts per outcome name.
	OutcomeSummary map[string]int `json:"outcome_summary"`
}

// GetHistory returns metadata for stored scans, newest first.
// An empty target returns scans of every target.
func (hdb *HistoryDB) GetHistory(ctx context.Context, target string) ([]ScanMetadata, error) {
	query := `
	SELECT id, target, method, vulnerable, aborted, payload, started_at, duration_ms, outcome_summary
	FROM scan_results
	`
	args := make([]any, 0, 1)
	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanMetadata
	for rows.Next() {
		var meta ScanMetadata
		var payload, summaryJSON sql.NullString
		var startedAt string
		var durationMS int64

		if err := rows.Scan(
			&meta.ID,
			&meta.Target,
			&meta.Method,
			&meta.Vulnerable,
			&meta.Aborted,
			&payload,
			&startedAt,
			&durationMS,
			&summaryJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Payload = payload.String
		meta.StartedAt = parseTimestamp(startedAt)
		meta.Duration = time.Duration(durationMS) * time.Millisecond

		meta.OutcomeSummary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &meta.OutcomeSummary); err != nil {
				meta.OutcomeSummary = make(map[string]int)
			}
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetByID returns the stored scan with the given ID.
// It returns ErrScanNotFound when there is none.
func (hdb *HistoryDB) GetByID(ctx context.Context, id string) (*model.ScanResult, error) {
	query := `
	SELECT result_json FROM scan_results
	WHERE id = ?
	`

	var resultJSON string
	err := hdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}

	var result model.ScanResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse scan result: %w", err)
	}

	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",  // SQLite default datetime format; fractions are accepted
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
	time.RFC3339Nano,
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
