// Package history persists assessment reports, benchmark groups and the
// probe audit trail in a single SQLite file. The store is append-only:
// nothing updates or deletes a saved assessment.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aird-ai/aird/internal/report"
)

// ErrNotFound reports a lookup for an id the store does not hold.
var ErrNotFound = errors.New("not found")

const schemaVersion = 1

// Each statement runs on its own so the schema init does not depend on
// multi-statement exec support.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS _schema (version INTEGER)`,
	`CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		connection_fingerprint TEXT,
		data_product TEXT,
		report_json TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT,
		session_id TEXT,
		query_text TEXT NOT NULL,
		target TEXT,
		factor TEXT,
		requirement TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_conversation (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id TEXT,
		session_id TEXT,
		phase TEXT,
		role TEXT,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS benchmarks (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		labels_json TEXT NOT NULL,
		connections_json TEXT NOT NULL,
		assessment_ids_json TEXT NOT NULL
	)`,
}

// Store wraps the history database. Safe for concurrent use; writes are
// serialised through a single connection.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open creates the parent directory and the schema as needed and returns a
// ready store. Databases written before the data_product column existed are
// upgraded in place.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise history schema: %w", err)
		}
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO _schema (version) VALUES (?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}
	if err := migrateDataProduct(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// migrateDataProduct adds the data_product column to assessments tables
// created before it existed. The probe is the migration check: selecting the
// column fails only when it is missing.
func migrateDataProduct(db *sqlx.DB) error {
	if _, err := db.Exec(`SELECT data_product FROM assessments LIMIT 1`); err == nil {
		return nil
	}
	if _, err := db.Exec(`ALTER TABLE assessments ADD COLUMN data_product TEXT`); err != nil {
		return fmt.Errorf("failed to add data_product column: %w", err)
	}
	return nil
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close releases the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SaveReport persists a report as a new assessment and returns its id. The
// stored row carries the report's own creation time and fingerprint so
// listing does not need to parse the document.
func (s *Store) SaveReport(rep *report.Report, dataProduct string) (string, error) {
	id := uuid.New().String()
	createdAt := rep.CreatedAt
	if createdAt == "" {
		createdAt = nowUTC()
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	var product interface{}
	if dataProduct != "" {
		product = dataProduct
	}
	_, err = s.db.Exec(
		`INSERT INTO assessments (id, created_at, connection_fingerprint, data_product, report_json) VALUES (?, ?, ?, ?, ?)`,
		id, createdAt, rep.ConnectionFingerprint, product, string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save assessment: %w", err)
	}
	return id, nil
}

// Entry is one assessment row as shown by history listings.
type Entry struct {
	ID          string         `json:"id"`
	CreatedAt   string         `json:"created_at"`
	Fingerprint string         `json:"connection_fingerprint"`
	DataProduct string         `json:"data_product,omitempty"`
	Summary     report.Summary `json:"summary"`
}

// ListFilter narrows a history listing. A zero Limit lists 20 entries.
type ListFilter struct {
	Fingerprint string
	DataProduct string
	Limit       int
}

type assessmentRow struct {
	ID          string         `db:"id"`
	CreatedAt   string         `db:"created_at"`
	Fingerprint sql.NullString `db:"connection_fingerprint"`
	DataProduct sql.NullString `db:"data_product"`
	ReportJSON  string         `db:"report_json"`
}

// ListAssessments returns saved assessments newest first.
func (s *Store) ListAssessments(filter ListFilter) ([]Entry, error) {
	query := `SELECT id, created_at, connection_fingerprint, data_product, report_json FROM assessments`
	var conds []string
	var params []interface{}
	if filter.Fingerprint != "" {
		conds = append(conds, `connection_fingerprint = ?`)
		params = append(params, filter.Fingerprint)
	}
	if filter.DataProduct != "" {
		conds = append(conds, `data_product = ?`)
		params = append(params, filter.DataProduct)
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	// rowid breaks created_at ties, so same-second saves list newest first
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	params = append(params, limit)

	var rows []assessmentRow
	if err := s.db.Select(&rows, query, params...); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			ID:          row.ID,
			CreatedAt:   row.CreatedAt,
			Fingerprint: row.Fingerprint.String,
			DataProduct: row.DataProduct.String,
		}
		var rep report.Report
		if err := json.Unmarshal([]byte(row.ReportJSON), &rep); err == nil {
			entry.Summary = rep.Summary
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetReportJSON returns the stored report document exactly as saved.
func (s *Store) GetReportJSON(id string) ([]byte, error) {
	var payload string
	err := s.db.Get(&payload, `SELECT report_json FROM assessments WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment %s: %w", id, err)
	}
	return []byte(payload), nil
}

// GetReport decodes the stored report document.
func (s *Store) GetReport(id string) (*report.Report, error) {
	payload, err := s.GetReportJSON(id)
	if err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("failed to decode assessment %s: %w", id, err)
	}
	return &rep, nil
}

// LatestFor returns the newest assessment for a fingerprint, or nil when the
// fingerprint has no history.
func (s *Store) LatestFor(fingerprint string) (*Entry, error) {
	entries, err := s.ListAssessments(ListFilter{Fingerprint: fingerprint, Limit: 1})
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return &entries[0], nil
}

// PreviousFor returns the newest assessment for a fingerprint other than
// excludeID, for diffing a fresh run against its predecessor.
func (s *Store) PreviousFor(fingerprint, excludeID string) (*Entry, error) {
	var rows []assessmentRow
	err := s.db.Select(&rows,
		`SELECT id, created_at, connection_fingerprint, data_product, report_json
		 FROM assessments WHERE connection_fingerprint = ? AND id != ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		fingerprint, excludeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find previous assessment: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	entry := Entry{
		ID:          rows[0].ID,
		CreatedAt:   rows[0].CreatedAt,
		Fingerprint: rows[0].Fingerprint.String,
		DataProduct: rows[0].DataProduct.String,
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(rows[0].ReportJSON), &rep); err == nil {
		entry.Summary = rep.Summary
	}
	return &entry, nil
}

// BenchmarkRecord links the assessments of one benchmark run.
type BenchmarkRecord struct {
	ID            string   `json:"id"`
	CreatedAt     string   `json:"created_at"`
	Labels        []string `json:"labels"`
	Connections   []string `json:"connections"`
	AssessmentIDs []string `json:"assessment_ids"`
}

// SaveBenchmark persists a benchmark group and returns its id. Connections
// are stored as fingerprints, never raw URIs.
func (s *Store) SaveBenchmark(labels, connections, assessmentIDs []string) (string, error) {
	id := uuid.New().String()
	labelsJSON, _ := json.Marshal(labels)
	connectionsJSON, _ := json.Marshal(connections)
	idsJSON, _ := json.Marshal(assessmentIDs)

	_, err := s.db.Exec(
		`INSERT INTO benchmarks (id, created_at, labels_json, connections_json, assessment_ids_json) VALUES (?, ?, ?, ?, ?)`,
		id, nowUTC(), string(labelsJSON), string(connectionsJSON), string(idsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save benchmark: %w", err)
	}
	return id, nil
}

type benchmarkRow struct {
	ID              string `db:"id"`
	CreatedAt       string `db:"created_at"`
	LabelsJSON      string `db:"labels_json"`
	ConnectionsJSON string `db:"connections_json"`
	IDsJSON         string `db:"assessment_ids_json"`
}

func (r benchmarkRow) record() BenchmarkRecord {
	rec := BenchmarkRecord{ID: r.ID, CreatedAt: r.CreatedAt}
	_ = json.Unmarshal([]byte(r.LabelsJSON), &rec.Labels)
	_ = json.Unmarshal([]byte(r.ConnectionsJSON), &rec.Connections)
	_ = json.Unmarshal([]byte(r.IDsJSON), &rec.AssessmentIDs)
	return rec
}

// ListBenchmarks returns saved benchmark groups newest first.
func (s *Store) ListBenchmarks(limit int) ([]BenchmarkRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []benchmarkRow
	err := s.db.Select(&rows,
		`SELECT id, created_at, labels_json, connections_json, assessment_ids_json
		 FROM benchmarks ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list benchmarks: %w", err)
	}
	records := make([]BenchmarkRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.record())
	}
	return records, nil
}

// GetBenchmark loads one benchmark group by id.
func (s *Store) GetBenchmark(id string) (*BenchmarkRecord, error) {
	var row benchmarkRow
	err := s.db.Get(&row,
		`SELECT id, created_at, labels_json, connections_json, assessment_ids_json
		 FROM benchmarks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("benchmark %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark %s: %w", id, err)
	}
	rec := row.record()
	return &rec, nil
}
