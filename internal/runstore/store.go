// Package runstore persists analysis run summaries in SQLite.
package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/embedtrack/internal/subspace"
	"github.com/banshee-data/embedtrack/internal/timeutil"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("runstore: run not found")

// Store is a SQLite-backed run history.
type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// Run is one persisted analysis.
type Run struct {
	ID            string
	Created       time.Time
	Label         string
	Source        string // input file path or synthesizer description
	SampleRate    float64
	NumericDomain string
	Mode          string
	Delays        []int
	K             int
	ConfigJSON    string
	Summary       subspace.Summary
	Artifacts     []Artifact
}

// Artifact is a file written for a run.
type Artifact struct {
	Kind string // png, html, csv, ...
	Path string
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema. Use ":memory:" for a private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// One connection: every :memory: connection is a separate database, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{DB: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Insert stores r, assigning a new UUID and creation time when unset, and
// returns the run id.
func (s *Store) Insert(r *Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Created.IsZero() {
		r.Created = s.clock.Now()
	}
	delays, err := json.Marshal(r.Delays)
	if err != nil {
		return "", fmt.Errorf("failed to encode delays: %w", err)
	}
	config := r.ConfigJSON
	if config == "" {
		config = "{}"
	}
	var orth sql.NullFloat64
	if r.Summary.BasesRecorded {
		orth = sql.NullFloat64{Float64: r.Summary.MaxOrthogonality, Valid: true}
	}

	tx, err := s.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, created_unix_ns, label, source, sample_rate, numeric_domain, mode,
			delays_json, k, config_json, samples, warmup, interrupted,
			mean_distance, min_distance, max_distance, mean_radius, max_orthogonality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Created.UnixNano(), r.Label, r.Source, r.SampleRate, r.NumericDomain, r.Mode,
		string(delays), r.K, config, r.Summary.Samples, r.Summary.Warmup, r.Summary.Interrupted,
		r.Summary.MeanDistance, r.Summary.MinDistance, r.Summary.MaxDistance, r.Summary.MeanRadius, orth,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	for _, a := range r.Artifacts {
		if _, err := tx.Exec(`INSERT INTO run_artifacts (run_id, kind, path) VALUES (?, ?, ?)`, r.ID, a.Kind, a.Path); err != nil {
			return "", fmt.Errorf("failed to insert artifact %s: %w", a.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return r.ID, nil
}

const runColumns = `run_id, created_unix_ns, label, source, sample_rate, numeric_domain, mode,
	delays_json, k, config_json, samples, warmup, interrupted,
	mean_distance, min_distance, max_distance, mean_radius, max_orthogonality`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r       Run
		created int64
		delays  string
		orth    sql.NullFloat64
	)
	err := row.Scan(&r.ID, &created, &r.Label, &r.Source, &r.SampleRate, &r.NumericDomain, &r.Mode,
		&delays, &r.K, &r.ConfigJSON, &r.Summary.Samples, &r.Summary.Warmup, &r.Summary.Interrupted,
		&r.Summary.MeanDistance, &r.Summary.MinDistance, &r.Summary.MaxDistance, &r.Summary.MeanRadius, &orth)
	if err != nil {
		return nil, err
	}
	r.Created = time.Unix(0, created)
	if err := json.Unmarshal([]byte(delays), &r.Delays); err != nil {
		return nil, fmt.Errorf("run %s has malformed delays: %w", r.ID, err)
	}
	r.Summary.BasesRecorded = orth.Valid
	r.Summary.MaxOrthogonality = orth.Float64
	return &r, nil
}

// Get returns the run with the given id, including its artifacts ordered
// by path.
func (s *Store) Get(id string) (*Run, error) {
	r, err := scanRun(s.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	rows, err := s.Query(`SELECT kind, path FROM run_artifacts WHERE run_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Kind, &a.Path); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		r.Artifacts = append(r.Artifacts, a)
	}
	return r, rows.Err()
}

// List returns up to limit runs, newest first. A non-positive limit returns
// every run. Artifacts are not loaded.
func (s *Store) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_unix_ns DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and its artifacts.
func (s *Store) Delete(id string) error {
	res, err := s.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
