package store

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"energy-mix-pipeline/internal/model"
)

var db *sql.DB

// ErrNotInitialized is returned by readers when InitDB was never called.
var ErrNotInitialized = errors.New("store: database not initialized")

// InitDB opens the sqlite database and creates the schema.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			source_id TEXT PRIMARY KEY,
			fetched_at DATETIME,
			body BLOB
		);`,
		`CREATE TABLE IF NOT EXISTS warnings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			grp TEXT,
			year INTEGER,
			metric TEXT,
			kind TEXT,
			message TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS report_rows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			year INTEGER,
			metric TEXT,
			eu27_value REAL,
			usa_value REAL,
			difference REAL,
			status TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS trends (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			grp TEXT,
			metric TEXT,
			start_year INTEGER,
			end_year INTEGER,
			start_value REAL,
			end_value REAL,
			delta REAL,
			direction TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS breaks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			grp TEXT,
			metric TEXT,
			pivot_year INTEGER,
			window_years INTEGER,
			pre_mean REAL,
			post_mean REAL,
			delta REAL,
			pre_years INTEGER,
			post_years INTEGER
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the underlying handle.
func CloseDB() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// Ready reports whether the store can be used.
func Ready() bool { return db != nil }

// ------------------- Runs -------------------

// SaveRun registers a new pipeline run.
func SaveRun(runID string) error {
	if db == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		runID, "pending", now, now)
	return err
}

// UpdateRunStatus moves a run through its lifecycle.
func UpdateRunStatus(runID, status string) error {
	if db == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records a run-fatal error.
func SaveRunError(runID string, runErr error) error {
	if db == nil || runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, runErr.Error(), now)
	return err
}

// RunInfo is the run registry row exposed over the API.
type RunInfo struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Errors    []string  `json:"errors,omitempty"`
}

// ListRuns returns all runs, newest first.
func ListRuns() ([]RunInfo, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its recorded errors.
func GetRun(runID string) (*RunInfo, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	var r RunInfo
	err := db.QueryRow(`SELECT id, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT error_message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		r.Errors = append(r.Errors, msg)
	}
	return &r, rows.Err()
}

// ------------------- Snapshots -------------------

// SaveSnapshot persists the raw bytes of a fetched source table, replacing
// any previous snapshot for the same source id.
func SaveSnapshot(sourceID string, body []byte) error {
	if db == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO snapshots (source_id, fetched_at, body) VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET fetched_at = excluded.fetched_at, body = excluded.body`,
		sourceID, now, body)
	return err
}

// GetSnapshot returns the cached bytes for a source id, or ok=false when no
// snapshot exists.
func GetSnapshot(sourceID string) ([]byte, bool, error) {
	if db == nil {
		return nil, false, nil
	}
	var body []byte
	err := db.QueryRow(`SELECT body FROM snapshots WHERE source_id = ?`, sourceID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// ------------------- Derived tables -------------------

// SaveReport persists the assembled tables of a completed run in one
// transaction.
func SaveReport(runID string, report *model.Report) error {
	if db == nil {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, row := range report.Rows {
		if _, err := tx.Exec(
			`INSERT INTO report_rows (run_id, year, metric, eu27_value, usa_value, difference, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, row.Year, row.Metric, nullable(row.EU27Value), nullable(row.USAValue),
			nullable(row.Difference), row.Status,
		); err != nil {
			return err
		}
	}
	for _, t := range report.Trends {
		if _, err := tx.Exec(
			`INSERT INTO trends (run_id, grp, metric, start_year, end_year, start_value, end_value, delta, direction)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(t.Group), t.Metric, t.StartYear, t.EndYear, t.StartValue, t.EndValue, t.Delta, t.Direction,
		); err != nil {
			return err
		}
	}
	for _, b := range report.Breaks {
		if _, err := tx.Exec(
			`INSERT INTO breaks (run_id, grp, metric, pivot_year, window_years, pre_mean, post_mean, delta, pre_years, post_years)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(b.Group), b.Metric, b.PivotYear, b.WindowYears, b.PrePeriodMean, b.PostPeriodMean,
			b.Delta, b.PreYearCount, b.PostYearCount,
		); err != nil {
			return err
		}
	}
	for _, w := range report.Warnings {
		if _, err := tx.Exec(
			`INSERT INTO warnings (run_id, grp, year, metric, kind, message) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(w.Group), w.Year, w.Metric, w.Kind, w.Message,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// GetReportRows returns the assembled comparison rows of a run.
func GetReportRows(runID string) ([]model.ReportRow, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(
		`SELECT year, metric, eu27_value, usa_value, difference, status
		 FROM report_rows WHERE run_id = ? ORDER BY year, metric`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReportRow
	for rows.Next() {
		var r model.ReportRow
		var eu, us, diff sql.NullFloat64
		if err := rows.Scan(&r.Year, &r.Metric, &eu, &us, &diff, &r.Status); err != nil {
			return nil, err
		}
		r.EU27Value = fromNull(eu)
		r.USAValue = fromNull(us)
		r.Difference = fromNull(diff)
		out = append(out, r)
	}
	return out, rows.Err()
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// GetTrends returns the trend rows of a run.
func GetTrends(runID string) ([]model.TrendResult, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(
		`SELECT grp, metric, start_year, end_year, start_value, end_value, delta, direction
		 FROM trends WHERE run_id = ? ORDER BY grp, metric`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TrendResult
	for rows.Next() {
		var t model.TrendResult
		var group string
		if err := rows.Scan(&group, &t.Metric, &t.StartYear, &t.EndYear, &t.StartValue, &t.EndValue, &t.Delta, &t.Direction); err != nil {
			return nil, err
		}
		t.Group = model.Group(group)
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetWarnings returns the coverage/undefined annotations of a run.
func GetWarnings(runID string) ([]model.Annotation, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(
		`SELECT grp, year, metric, kind, message FROM warnings WHERE run_id = ? ORDER BY grp, year, metric`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Annotation
	for rows.Next() {
		var w model.Annotation
		var group string
		if err := rows.Scan(&group, &w.Year, &w.Metric, &w.Kind, &w.Message); err != nil {
			return nil, err
		}
		w.Group = model.Group(group)
		out = append(out, w)
	}
	return out, rows.Err()
}
