// Package experiment records training runs in an append-only SQLite log so
// results stay comparable across sessions. Records are immutable once
// written; there is no update path by design of the log.
package experiment

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/analytix-ai/analytix-go/core/model"
	pkgerr "github.com/analytix-ai/analytix-go/pkg/errors"
	"github.com/analytix-ai/analytix-go/pkg/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	created_at   TIMESTAMP NOT NULL,
	dataset      TEXT NOT NULL,
	target       TEXT NOT NULL,
	problem_type TEXT NOT NULL,
	model_name   TEXT NOT NULL,
	metrics      TEXT NOT NULL,
	params       TEXT NOT NULL,
	features     INTEGER NOT NULL,
	rows         INTEGER NOT NULL,
	notes        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
`

// Record is one logged training run.
type Record struct {
	ID          string
	CreatedAt   time.Time
	Dataset     string
	Target      string
	ProblemType model.ProblemType
	ModelName   string
	Metrics     map[string]float64
	Params      map[string]float64
	Features    int
	Rows        int
	Notes       string
}

// Filter narrows a Query. Zero values match everything.
type Filter struct {
	Dataset     string
	ModelName   string
	ProblemType model.ProblemType
	Since       time.Time
	Limit       int
}

// Tracker is the append-only run log backed by SQLite. Safe for concurrent
// use; writes are serialized through one mutex because SQLite allows a
// single writer.
type Tracker struct {
	mu     sync.Mutex
	db     *sql.DB
	logger log.Logger
}

// Open creates or opens the tracking database at path. Use ":memory:" for
// an ephemeral tracker in tests.
func Open(path string, logger log.Logger) (*Tracker, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerr.Wrapf(err, "experiment: opening %s", path)
	}
	// One writer at a time keeps SQLite happy under the mutex as well.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, pkgerr.Wrap(err, "experiment: applying pragma")
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerr.Wrap(err, "experiment: creating schema")
	}
	return &Tracker{db: db, logger: logger.WithStage("experiment")}, nil
}

// Close releases the database handle.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Log appends a run and returns its generated ID. The ID and timestamp are
// always assigned here so concurrent callers cannot collide.
func (t *Tracker) Log(rec Record) (string, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return "", pkgerr.Wrap(err, "experiment: encoding metrics")
	}
	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return "", pkgerr.Wrap(err, "experiment: encoding params")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err = t.db.Exec(
		`INSERT INTO runs (id, created_at, dataset, target, problem_type, model_name, metrics, params, features, rows, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt, rec.Dataset, rec.Target, string(rec.ProblemType),
		rec.ModelName, string(metricsJSON), string(paramsJSON), rec.Features, rec.Rows, rec.Notes,
	)
	if err != nil {
		return "", pkgerr.Wrap(err, "experiment: inserting run")
	}

	t.logger.Info().
		Str(log.RunIDKey, rec.ID).
		Str(log.ModelNameKey, rec.ModelName).
		Str("dataset", rec.Dataset).
		Msg("run logged")
	return rec.ID, nil
}

// Get returns one run by ID.
func (t *Tracker) Get(id string) (*Record, error) {
	rows, err := t.db.Query(selectClause+` WHERE id = ?`, id)
	if err != nil {
		return nil, pkgerr.Wrap(err, "experiment: querying run")
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, pkgerr.Newf("experiment: run %s not found", id)
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return rec, rows.Err()
}

const selectClause = `SELECT id, created_at, dataset, target, problem_type, model_name, metrics, params, features, rows, notes FROM runs`

// Query returns runs matching the filter, newest first.
func (t *Tracker) Query(f Filter) ([]Record, error) {
	query := selectClause + ` WHERE 1=1`
	var args []interface{}
	if f.Dataset != "" {
		query += ` AND dataset = ?`
		args = append(args, f.Dataset)
	}
	if f.ModelName != "" {
		query += ` AND model_name = ?`
		args = append(args, f.ModelName)
	}
	if f.ProblemType != "" {
		query += ` AND problem_type = ?`
		args = append(args, string(f.ProblemType))
	}
	if !f.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.Since)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := t.db.Query(query, args...)
	if err != nil {
		return nil, pkgerr.Wrap(err, "experiment: querying runs")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec          Record
		problemType  string
		metricsJSON  string
		paramsJSON   string
	)
	if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Dataset, &rec.Target, &problemType,
		&rec.ModelName, &metricsJSON, &paramsJSON, &rec.Features, &rec.Rows, &rec.Notes); err != nil {
		return nil, pkgerr.Wrap(err, "experiment: scanning run")
	}
	rec.ProblemType = model.ProblemType(problemType)
	if err := json.Unmarshal([]byte(metricsJSON), &rec.Metrics); err != nil {
		return nil, pkgerr.Wrap(err, "experiment: decoding metrics")
	}
	if err := json.Unmarshal([]byte(paramsJSON), &rec.Params); err != nil {
		return nil, pkgerr.Wrap(err, "experiment: decoding params")
	}
	return &rec, nil
}
