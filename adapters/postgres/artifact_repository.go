package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"golm/domain/core"
	"golm/ports"
)

// artifactRepository implements ports.ArtifactRepository on Postgres.
// Artifact payloads are stored as JSON, one row per artifact.
type artifactRepository struct {
	db *sqlx.DB
}

// NewArtifactRepository creates an artifact repository
func NewArtifactRepository(db *sqlx.DB) ports.ArtifactRepository {
	return &artifactRepository{db: db}
}

// Migrate creates the repository tables if they do not exist
func Migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		runtime_ms BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS analysis_artifacts (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES analysis_runs(id),
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_run ON analysis_artifacts(run_id);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate artifact schema: %w", err)
	}
	return nil
}

// SaveRun inserts the run header
func (r *artifactRepository) SaveRun(ctx context.Context, run ports.RunRecord) error {
	query := `INSERT INTO analysis_runs (id, dataset, runtime_ms, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query,
		run.ID.String(), run.Dataset, run.RuntimeMs, run.CreatedAt.Time())
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveArtifacts inserts every artifact of a run in one transaction
func (r *artifactRepository) SaveArtifacts(ctx context.Context, runID core.RunID, artifacts []core.Artifact) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO analysis_artifacts (id, run_id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	for _, a := range artifacts {
		payload, err := json.Marshal(a.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", a.Kind, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			a.ID.String(), runID.String(), string(a.Kind), payload, a.CreatedAt.Time()); err != nil {
			return fmt.Errorf("failed to save %s artifact: %w", a.Kind, err)
		}
	}
	return tx.Commit()
}

// GetArtifacts loads the artifacts of a run in insertion order
func (r *artifactRepository) GetArtifacts(ctx context.Context, runID core.RunID) ([]core.Artifact, error) {
	query := `SELECT id, kind, payload, created_at FROM analysis_artifacts
		WHERE run_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}
	defer rows.Close()

	var out []core.Artifact
	for rows.Next() {
		var (
			id        string
			kind      string
			payload   []byte
			createdAt time.Time
		)
		if err := rows.Scan(&id, &kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		var decoded interface{}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", kind, err)
		}
		out = append(out, core.Artifact{
			ID:        core.ID(id),
			Kind:      core.ArtifactKind(kind),
			Payload:   decoded,
			CreatedAt: core.NewTimestamp(createdAt),
		})
	}
	return out, rows.Err()
}
