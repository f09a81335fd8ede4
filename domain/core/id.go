package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	ArtifactID ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id ArtifactID) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// Artifact represents any output of an analysis run
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	ArtifactDescriptives  ArtifactKind = "descriptives"
	ArtifactModelSummary  ArtifactKind = "model_summary"
	ArtifactMarginalMeans ArtifactKind = "marginal_means"
	ArtifactContrasts     ArtifactKind = "contrasts"
	ArtifactSimpleSlopes  ArtifactKind = "simple_slopes"
	ArtifactPlotTable     ArtifactKind = "plot_table"
	// ArtifactRunManifest captures audit metadata for a run (inputs, counts, runtime).
	ArtifactRunManifest ArtifactKind = "run_manifest"
)

// NewArtifact wraps a payload with identity and creation time
func NewArtifact(kind ArtifactKind, payload interface{}) Artifact {
	return Artifact{
		ID:        NewID(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: Now(),
	}
}
