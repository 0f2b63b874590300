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

	"github.com/nao1215/websummary/internal/model"
)

// FileName is the name of the SQLite file inside the data directory.
const FileName = "websummary.db"

// storedTimeFormat has a fixed width so started_at sorts as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000Z"

// ErrDatabaseNotFound is returned by Open when the database file is missing
// and CreateIfNotExists is false.
var ErrDatabaseNotFound = errors.New("database not found")

// CrawlDB stores finished crawl reports.
//
// Design decision: We store each report twice. The summary columns make
// history listings cheap, and the JSON column keeps the full report
// (keywords, social links, failures) without a table per list.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// mode=rwc allows modernc.org/sqlite to create the file.
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per finished crawl run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		domain TEXT NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		pages_visited INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		discovered_links INTEGER NOT NULL,
		bandwidth_bytes INTEGER NOT NULL,
		images INTEGER NOT NULL,
		interrupted INTEGER NOT NULL DEFAULT 0,
		truncated INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport archives a finished report. Saving the same RunID twice
// replaces the earlier row.
func (cdb *CrawlDB) SaveReport(ctx context.Context, report *model.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO runs (run_id, seed_url, domain, started_at, elapsed_ms, pages_visited, pages_failed,
		discovered_links, bandwidth_bytes, images, interrupted, truncated, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		seed_url = excluded.seed_url,
		domain = excluded.domain,
		started_at = excluded.started_at,
		elapsed_ms = excluded.elapsed_ms,
		pages_visited = excluded.pages_visited,
		pages_failed = excluded.pages_failed,
		discovered_links = excluded.discovered_links,
		bandwidth_bytes = excluded.bandwidth_bytes,
		images = excluded.images,
		interrupted = excluded.interrupted,
		truncated = excluded.truncated,
		report_json = excluded.report_json
	`

	_, err = cdb.db.ExecContext(ctx, query,
		report.RunID,
		report.SeedURL,
		report.Domain,
		report.StartedAt.UTC().Format(storedTimeFormat),
		report.Elapsed.Milliseconds(),
		report.PagesVisited,
		report.PagesFailed,
		report.DiscoveredLinks,
		report.BandwidthBytes,
		report.Images,
		boolToInt(report.Interrupted),
		boolToInt(report.Truncated),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetReport retrieves an archived report by run ID.
// It returns nil without error if no such run exists.
func (cdb *CrawlDB) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	query := `SELECT report_json FROM runs WHERE run_id = ?`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// LatestReport retrieves the most recent report for a domain.
// It returns nil without error if the domain has no runs.
func (cdb *CrawlDB) LatestReport(ctx context.Context, domain string) (*model.Report, error) {
	query := `
	SELECT run_id FROM runs
	WHERE domain = ?
	ORDER BY started_at DESC
	LIMIT 1
	`

	var runID string
	err := cdb.db.QueryRowContext(ctx, query, domain).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	return cdb.GetReport(ctx, runID)
}

// ListDomains returns every domain with at least one archived run.
func (cdb *CrawlDB) ListDomains(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT domain FROM runs ORDER BY domain`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, domain)
	}

	return domains, rows.Err()
}

// RunMetadata contains summary information about an archived run.
// This is used for displaying history without loading the full report.
type RunMetadata struct {
	RunID           string
	SeedURL         string
	Domain          string
	StartedAt       time.Time
	Elapsed         time.Duration
	PagesVisited    int
	PagesFailed     int
	DiscoveredLinks int
	BandwidthBytes  int64
	Images          int
	Interrupted     bool
	Truncated       bool
}

// ListRuns returns run metadata, newest first. An empty domain lists
// every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, domain string) ([]RunMetadata, error) {
	query := `
	SELECT run_id, seed_url, domain, started_at, elapsed_ms, pages_visited, pages_failed,
		discovered_links, bandwidth_bytes, images, interrupted, truncated
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0, 1)
	if domain != "" {
		query += " AND domain = ?"
		args = append(args, domain)
	}
	query += " ORDER BY started_at DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var startedAt string
		var elapsedMS int64
		var interrupted, truncated int

		if err := rows.Scan(
			&meta.RunID,
			&meta.SeedURL,
			&meta.Domain,
			&startedAt,
			&elapsedMS,
			&meta.PagesVisited,
			&meta.PagesFailed,
			&meta.DiscoveredLinks,
			&meta.BandwidthBytes,
			&meta.Images,
			&interrupted,
			&truncated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		meta.Interrupted = interrupted != 0
		meta.Truncated = truncated != 0
		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteRun removes an archived run. It reports whether a row was deleted.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, runID string) (bool, error) {
	result, err := cdb.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete run: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeFormat,          // Format written by SaveReport
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
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
