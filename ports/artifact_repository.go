package ports

import (
	"context"

	"golm/domain/core"
)

// RunRecord is the persisted header of one analysis run
type RunRecord struct {
	ID        core.RunID     `json:"id" db:"id"`
	Dataset   string         `json:"dataset" db:"dataset"`
	RuntimeMs int64          `json:"runtime_ms" db:"runtime_ms"`
	CreatedAt core.Timestamp `json:"created_at" db:"created_at"`
}

// ArtifactRepository persists analysis artifacts per run. Persistence is
// optional; a nil repository means results live only in memory.
type ArtifactRepository interface {
	SaveRun(ctx context.Context, run RunRecord) error
	SaveArtifacts(ctx context.Context, runID core.RunID, artifacts []core.Artifact) error
	GetArtifacts(ctx context.Context, runID core.RunID) ([]core.Artifact, error)
}
