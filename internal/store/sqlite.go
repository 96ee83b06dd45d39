package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)
)

// schema defines the tables for status history and analytics persistence.
// Version is tracked in the schema_versions table.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS status_checks (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    overall_status   TEXT NOT NULL DEFAULT '',
    indicator        TEXT NOT NULL DEFAULT 'none',
    availability     REAL NOT NULL DEFAULT 0.0,
    total_services   INTEGER NOT NULL DEFAULT 0,
    operational      INTEGER NOT NULL DEFAULT 0,
    response_time_ms REAL NOT NULL DEFAULT 0.0,
    from_cache       INTEGER NOT NULL DEFAULT 0,
    checked_at       DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_checks_checked_at ON status_checks(checked_at DESC);

CREATE TABLE IF NOT EXISTS service_metrics (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    service     TEXT NOT NULL,
    metric      TEXT NOT NULL,
    value       REAL NOT NULL DEFAULT 0.0,
    timestamp   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_service_metrics_lookup ON service_metrics(service, metric, timestamp ASC);
`,
	},
	// Migration 2: anomaly history
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS anomalies (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    service     TEXT NOT NULL DEFAULT '',
    metric      TEXT NOT NULL DEFAULT '',
    value       REAL NOT NULL DEFAULT 0.0,
    expected    REAL NOT NULL DEFAULT 0.0,
    z_score     REAL NOT NULL DEFAULT 0.0,
    severity    TEXT NOT NULL DEFAULT 'low',
    confidence  REAL NOT NULL DEFAULT 0.0,
    description TEXT NOT NULL DEFAULT '',
    detected_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anomalies_detected_at ON anomalies(detected_at DESC);
CREATE INDEX IF NOT EXISTS idx_anomalies_service     ON anomalies(service);
CREATE INDEX IF NOT EXISTS idx_anomalies_severity    ON anomalies(severity);
`,
	},
	// Migration 3: forecast history
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS forecasts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    service         TEXT NOT NULL DEFAULT '',
    metric          TEXT NOT NULL DEFAULT '',
    horizon_seconds INTEGER NOT NULL DEFAULT 0,
    predicted       REAL NOT NULL DEFAULT 0.0,
    slope           REAL NOT NULL DEFAULT 0.0,
    intercept       REAL NOT NULL DEFAULT 0.0,
    r_squared       REAL NOT NULL DEFAULT 0.0,
    confidence      REAL NOT NULL DEFAULT 0.0,
    unreliable      INTEGER NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forecasts_service ON forecasts(service, created_at DESC);
`,
	},
}

// sqliteStore is the SQLite-backed implementation of Store.
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path and
// runs all pending schema migrations. Pass ":memory:" for an in-memory store.
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// Enable WAL mode for better concurrency and performance.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &sqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// migrate applies any unapplied migrations in order.
func (s *sqliteStore) migrate() error {
	// Ensure schema_versions table exists before reading from it.
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_versions (
        version    INTEGER PRIMARY KEY,
        applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if count > 0 {
			continue // already applied
		}

		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}

		if _, err := s.db.Exec(`INSERT INTO schema_versions(version) VALUES(?)`, m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// ─── Metric samples ──────────────────────────────────────────────────────────

func (s *sqliteStore) AppendSample(ctx context.Context, rec *MetricSample) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO service_metrics(service, metric, value, timestamp)
        VALUES(?,?,?,?)
    `, rec.Service, rec.Metric, rec.Value, rec.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (s *sqliteStore) History(ctx context.Context, service, metric string, since time.Time) ([]*MetricSample, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, service, metric, value, timestamp
        FROM service_metrics
        WHERE service = ? AND metric = ? AND timestamp >= ?
        ORDER BY timestamp ASC
    `, service, metric, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var result []*MetricSample
	for rows.Next() {
		rec := &MetricSample{}
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Service, &rec.Metric, &rec.Value, &ts); err != nil {
			return nil, err
		}
		rec.Timestamp, _ = parseTime(ts)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *sqliteStore) Services(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT service FROM service_metrics ORDER BY service ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

// ─── Status checks ───────────────────────────────────────────────────────────

func (s *sqliteStore) AppendStatusCheck(ctx context.Context, rec *StatusCheckRecord) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO status_checks(overall_status, indicator, availability, total_services, operational, response_time_ms, from_cache, checked_at)
        VALUES(?,?,?,?,?,?,?,?)
    `, rec.OverallStatus, rec.Indicator, rec.Availability, rec.TotalServices,
		rec.Operational, rec.ResponseTimeMS, boolToInt(rec.FromCache), rec.CheckedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (s *sqliteStore) RecentStatusChecks(ctx context.Context, limit int) ([]*StatusCheckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, overall_status, indicator, availability, total_services, operational, response_time_ms, from_cache, checked_at
        FROM status_checks ORDER BY checked_at DESC LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStatusChecks(rows)
}

func (s *sqliteStore) AvailabilityTrend(ctx context.Context, from, to time.Time) ([]*StatusCheckRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, overall_status, indicator, availability, total_services, operational, response_time_ms, from_cache, checked_at
        FROM status_checks
        WHERE checked_at >= ? AND checked_at <= ?
        ORDER BY checked_at ASC
    `, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStatusChecks(rows)
}

func scanStatusChecks(rows *sql.Rows) ([]*StatusCheckRecord, error) {
	var result []*StatusCheckRecord
	for rows.Next() {
		rec := &StatusCheckRecord{}
		var ts string
		var fromCache int
		if err := rows.Scan(&rec.ID, &rec.OverallStatus, &rec.Indicator, &rec.Availability,
			&rec.TotalServices, &rec.Operational, &rec.ResponseTimeMS, &fromCache, &ts); err != nil {
			return nil, err
		}
		rec.FromCache = fromCache != 0
		rec.CheckedAt, _ = parseTime(ts)
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ─── Anomalies ───────────────────────────────────────────────────────────────

func (s *sqliteStore) AppendAnomaly(ctx context.Context, rec *AnomalyRecord) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO anomalies(service, metric, value, expected, z_score, severity, confidence, description, detected_at)
        VALUES(?,?,?,?,?,?,?,?,?)
    `, rec.Service, rec.Metric, rec.Value, rec.Expected, rec.ZScore,
		rec.Severity, rec.Confidence, rec.Description, rec.DetectedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert anomaly: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (s *sqliteStore) QueryAnomalies(ctx context.Context, q AnomalyQuery) ([]*AnomalyRecord, error) {
	query := `SELECT id, service, metric, value, expected, z_score, severity, confidence, description, detected_at FROM anomalies WHERE 1=1`
	var args []any

	if q.Service != "" {
		query += ` AND service = ?`
		args = append(args, q.Service)
	}
	if q.Metric != "" {
		query += ` AND metric = ?`
		args = append(args, q.Metric)
	}
	if q.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, q.Severity)
	}
	if !q.From.IsZero() {
		query += ` AND detected_at >= ?`
		args = append(args, q.From.UTC())
	}
	if !q.To.IsZero() {
		query += ` AND detected_at <= ?`
		args = append(args, q.To.UTC())
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY detected_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var result []*AnomalyRecord
	for rows.Next() {
		rec := &AnomalyRecord{}
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Service, &rec.Metric, &rec.Value, &rec.Expected,
			&rec.ZScore, &rec.Severity, &rec.Confidence, &rec.Description, &ts); err != nil {
			return nil, err
		}
		rec.DetectedAt, _ = parseTime(ts)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *sqliteStore) AnomalySummary(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT severity, COUNT(*) FROM anomalies
        WHERE detected_at >= ? AND detected_at <= ?
        GROUP BY severity
    `, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		summary[severity] = count
	}
	return summary, rows.Err()
}

// ─── Forecasts ───────────────────────────────────────────────────────────────

func (s *sqliteStore) AppendForecast(ctx context.Context, rec *ForecastRecord) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO forecasts(service, metric, horizon_seconds, predicted, slope, intercept, r_squared, confidence, unreliable, created_at)
        VALUES(?,?,?,?,?,?,?,?,?,?)
    `, rec.Service, rec.Metric, rec.HorizonSeconds, rec.Predicted, rec.Slope,
		rec.Intercept, rec.RSquared, rec.Confidence, boolToInt(rec.Unreliable), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert forecast: %w", err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (s *sqliteStore) RecentForecasts(ctx context.Context, service string, limit int) ([]*ForecastRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, service, metric, horizon_seconds, predicted, slope, intercept, r_squared, confidence, unreliable, created_at
        FROM forecasts WHERE service = ? ORDER BY created_at DESC LIMIT ?
    `, service, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ForecastRecord
	for rows.Next() {
		rec := &ForecastRecord{}
		var ts string
		var unreliable int
		if err := rows.Scan(&rec.ID, &rec.Service, &rec.Metric, &rec.HorizonSeconds, &rec.Predicted,
			&rec.Slope, &rec.Intercept, &rec.RSquared, &rec.Confidence, &unreliable, &ts); err != nil {
			return nil, err
		}
		rec.Unreliable = unreliable != 0
		rec.CreatedAt, _ = parseTime(ts)
		result = append(result, rec)
	}
	return result, rows.Err()
}

// ─── Maintenance ─────────────────────────────────────────────────────────────

func (s *sqliteStore) CleanupOldData(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	stmts := []struct {
		sql string
		col string
	}{
		{`DELETE FROM service_metrics WHERE timestamp < ?`, "timestamp"},
		{`DELETE FROM status_checks WHERE checked_at < ?`, "checked_at"},
		{`DELETE FROM anomalies WHERE detected_at < ?`, "detected_at"},
		{`DELETE FROM forecasts WHERE created_at < ?`, "created_at"},
	}
	for _, st := range stmts {
		res, err := s.db.ExecContext(ctx, st.sql, cutoff.UTC())
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", st.col, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *sqliteStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

func (s *sqliteStore) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, table := range []string{"status_checks", "service_metrics", "anomalies", "forecasts"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime handles the timestamp formats SQLite hands back.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}
