// Package store provides optional PostgreSQL persistence for pipeline runs
// and their intermediate artifacts. The pipeline works without it; runs are
// recorded only when a database URL is configured.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Artifact step names, one per pipeline stage output.
const (
	StepJobRecord   = "job_record"
	StepSlotPlans   = "slot_plans"
	StepExperiences = "experiences"
	StepSkills      = "skills"
	StepProfile     = "profile"
	StepCoverLetter = "cover_letter"
	StepResume      = "resume"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// Run is one pipeline run record.
type Run struct {
	ID          uuid.UUID  `json:"id"`
	JobTitle    string     `json:"job_title"`
	CompanyName string     `json:"company_name"`
	SourceURL   string     `json:"source_url"`
	Language    string     `json:"language"`
	Status      string     `json:"status"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the runs and artifacts tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job_title     TEXT NOT NULL DEFAULT '',
			company_name  TEXT NOT NULL DEFAULT '',
			source_url    TEXT NOT NULL DEFAULT '',
			language      TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL DEFAULT 'running',
			state         TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at  TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS run_artifacts (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			run_id      UUID NOT NULL REFERENCES pipeline_runs(id) ON DELETE CASCADE,
			step        TEXT NOT NULL,
			content     JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, step)
		);`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateRun creates a new pipeline run record and returns its ID.
func (s *Store) CreateRun(ctx context.Context, jobTitle, companyName, sourceURL, language string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO pipeline_runs (job_title, company_name, source_url, language, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id`,
		jobTitle, companyName, sourceURL, language,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SetRunState records the orchestrator state a run has reached.
func (s *Store) SetRunState(ctx context.Context, runID uuid.UUID, state string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pipeline_runs SET state = $1 WHERE id = $2`,
		state, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to set run state: %w", err)
	}
	return nil
}

// CompleteRun marks a pipeline run as finished with the given status.
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE pipeline_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a pipeline run, replacing any
// previous artifact for the same step.
func (s *Store) SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE SET content = $3, created_at = NOW()`,
		runID, step, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step. Returns nil
// without error when the artifact does not exist.
func (s *Store) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}

// GetRun retrieves a pipeline run by ID. Returns nil without error when
// the run does not exist.
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, job_title, company_name, source_url, language, status, state, created_at, completed_at
		 FROM pipeline_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.JobTitle, &run.CompanyName, &run.SourceURL, &run.Language,
		&run.Status, &run.State, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent pipeline runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_title, company_name, source_url, language, status, state, created_at, completed_at
		 FROM pipeline_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.JobTitle, &run.CompanyName, &run.SourceURL,
			&run.Language, &run.Status, &run.State, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
