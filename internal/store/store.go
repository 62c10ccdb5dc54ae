// Package store records run summaries in Postgres for cross-model
// comparison.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/signalnine/genbench/internal/result"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Run is one stored run summary.
type Run struct {
	RunID           string
	Model           string
	StartedAt       time.Time
	FinishedAt      time.Time
	GenerationScore float64
	TaskScores      map[string]float64
	Failures        int
}

type Store struct {
	db *sql.DB
}

// Migrate applies the embedded migrations. Already-current schemas are not
// an error.
func Migrate(pgURL string) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, pgURL)
	if err != nil {
		return fmt.Errorf("failed to init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// Open migrates the schema and connects.
func Open(ctx context.Context, pgURL string) (*Store, error) {
	if pgURL == "" {
		return nil, fmt.Errorf("no database url configured")
	}
	if err := Migrate(pgURL); err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", pgURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun inserts the summary of doc, replacing an earlier row with the
// same run id.
func (s *Store) SaveRun(ctx context.Context, doc *result.Document) error {
	scores, err := json.Marshal(doc.TaskScores)
	if err != nil {
		return fmt.Errorf("marshaling task scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, model, started_at, finished_at, generation_score, task_scores, failures)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			model = EXCLUDED.model,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			generation_score = EXCLUDED.generation_score,
			task_scores = EXCLUDED.task_scores,
			failures = EXCLUDED.failures`,
		doc.RunID, doc.Model, doc.StartedAt, doc.FinishedAt, doc.GenerationScore, string(scores), len(doc.Failures),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", doc.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs first. An empty model lists all.
func (s *Store) ListRuns(ctx context.Context, model string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, model, started_at, finished_at, generation_score, task_scores, failures
		FROM runs
		WHERE $1 = '' OR model = $1
		ORDER BY started_at DESC
		LIMIT $2`, model, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r      Run
			scores []byte
		)
		if err := rows.Scan(&r.RunID, &r.Model, &r.StartedAt, &r.FinishedAt, &r.GenerationScore, &scores, &r.Failures); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(scores, &r.TaskScores); err != nil {
			return nil, fmt.Errorf("run %s: parsing task scores: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
