package app

import (
	"context"
	"fmt"
	"time"

	"golm/domain/core"
	"golm/domain/report"
	"golm/domain/table"
	"golm/internal"
	"golm/internal/analysis"
	"golm/ports"
)

// DescriptivesQuery selects the variables to summarize, optionally within
// every combination of the grouping factors
type DescriptivesQuery struct {
	Vars    []string
	GroupBy []string
}

// ContrastQuery configures pairwise contrasts over one marginal-means grid
type ContrastQuery struct {
	Reverse bool
	Adjust  analysis.Adjustment
}

// EMMQuery requests one estimated-marginal-means grid, with optional
// pairwise contrasts and a plot-ready table
type EMMQuery struct {
	Factors   []string
	By        string
	Contrasts *ContrastQuery
	PlotTitle string // empty disables the plot table
}

// AnalysisRequest describes one complete batch analysis over a prepared
// dataset. The run is all-or-nothing: any failing step aborts it.
type AnalysisRequest struct {
	DatasetName  string
	Dataset      *table.Table
	Descriptives *DescriptivesQuery
	Model        *analysis.ModelSpec
	WithVIF      bool
	EMMeans      []EMMQuery
	Slopes       []analysis.SlopesRequest
	Confidence   float64
}

// AnalysisResult is the artifact bundle of one run
type AnalysisResult struct {
	RunID     core.RunID      `json:"run_id"`
	Artifacts []core.Artifact `json:"artifacts"`
	RuntimeMs int64           `json:"runtime_ms"`
}

// RunManifest captures audit metadata for a run
type RunManifest struct {
	RunID         core.RunID     `json:"run_id"`
	Dataset       string         `json:"dataset"`
	Rows          int            `json:"rows"`
	ArtifactCount map[string]int `json:"artifact_count"`
	Confidence    float64        `json:"confidence"`
	CreatedAt     core.Timestamp `json:"created_at"`
}

// AnalysisService runs the pipeline: descriptives, model fit, marginal
// means, contrasts, simple slopes. Persistence is optional.
type AnalysisService struct {
	preparer  *analysis.Preparer
	describer *analysis.Describer
	fitter    *analysis.Fitter
	repo      ports.ArtifactRepository
	log       *internal.Logger
}

// NewAnalysisService creates an analysis service. repo may be nil.
func NewAnalysisService(repo ports.ArtifactRepository, log *internal.Logger) *AnalysisService {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &AnalysisService{
		preparer:  analysis.NewPreparer(),
		describer: analysis.NewDescriber(),
		fitter:    analysis.NewFitter(),
		repo:      repo,
		log:       log,
	}
}

// Preparer exposes the data-preparation engine for callers assembling a table
func (s *AnalysisService) Preparer() *analysis.Preparer {
	return s.preparer
}

// Run executes the batch analysis
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	start := time.Now()
	runID := core.RunID(core.NewID())
	confidence := req.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	s.log.Info("run %s: dataset=%s rows=%d", runID, req.DatasetName, req.Dataset.Rows())

	var artifacts []core.Artifact

	if req.Descriptives != nil {
		rows, err := s.descriptives(req)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, core.NewArtifact(core.ArtifactDescriptives, rows))
	}

	var model *analysis.Model
	if req.Model != nil {
		m, err := s.fitter.Fit(req.Dataset, *req.Model)
		if err != nil {
			return nil, err
		}
		model = m
		summary := m.Summary(confidence)
		if req.WithVIF {
			vifs, err := m.VIFTable()
			if err != nil {
				return nil, err
			}
			for i := range summary.Coefficients {
				summary.Coefficients[i].VIF = vifs[summary.Coefficients[i].Term]
			}
		}
		s.log.Info("run %s: fitted %s (R2=%.4f, df=%d, excluded=%d)",
			runID, m.Spec.Outcome, m.R2, m.ResidualDF, m.Excluded)
		artifacts = append(artifacts, core.NewArtifact(core.ArtifactModelSummary, summary))
	}

	for _, q := range req.EMMeans {
		if model == nil {
			return nil, errNoModel("marginal means")
		}
		em, err := analysis.EMMeans(model, analysis.EMMRequest{
			Factors:    q.Factors,
			By:         q.By,
			Confidence: confidence,
		})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, core.NewArtifact(core.ArtifactMarginalMeans, em.Rows()))
		if q.Contrasts != nil {
			rows, err := analysis.PairwiseContrasts(em, analysis.ContrastRequest{
				Reverse: q.Contrasts.Reverse,
				Adjust:  q.Contrasts.Adjust,
			})
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, core.NewArtifact(core.ArtifactContrasts, rows))
		}
		if q.PlotTitle != "" {
			artifacts = append(artifacts, core.NewArtifact(core.ArtifactPlotTable, em.PlotTable(q.PlotTitle)))
		}
	}

	for _, q := range req.Slopes {
		if model == nil {
			return nil, errNoModel("simple slopes")
		}
		if q.Confidence == 0 {
			q.Confidence = confidence
		}
		tbl, err := analysis.SimpleSlopes(model, q)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, core.NewArtifact(core.ArtifactSimpleSlopes, tbl))
	}

	counts := map[string]int{}
	for _, a := range artifacts {
		counts[string(a.Kind)]++
	}
	manifest := RunManifest{
		RunID:         runID,
		Dataset:       req.DatasetName,
		Rows:          req.Dataset.Rows(),
		ArtifactCount: counts,
		Confidence:    confidence,
		CreatedAt:     core.Now(),
	}
	artifacts = append(artifacts, core.NewArtifact(core.ArtifactRunManifest, manifest))

	result := &AnalysisResult{
		RunID:     runID,
		Artifacts: artifacts,
		RuntimeMs: time.Since(start).Milliseconds(),
	}

	if s.repo != nil {
		record := ports.RunRecord{
			ID:        runID,
			Dataset:   req.DatasetName,
			RuntimeMs: result.RuntimeMs,
			CreatedAt: core.Now(),
		}
		if err := s.repo.SaveRun(ctx, record); err != nil {
			return nil, err
		}
		if err := s.repo.SaveArtifacts(ctx, runID, artifacts); err != nil {
			return nil, err
		}
		s.log.Debug("run %s: persisted %d artifacts", runID, len(artifacts))
	}

	s.log.Info("run %s: complete in %dms (%d artifacts)", runID, result.RuntimeMs, len(artifacts))
	return result, nil
}

func errNoModel(step string) error {
	return fmt.Errorf("%w: %s requires a fitted model", core.ErrData, step)
}

func (s *AnalysisService) descriptives(req AnalysisRequest) ([]report.DescriptiveRow, error) {
	q := req.Descriptives
	if len(q.GroupBy) > 0 {
		return s.describer.DescribeByGroup(req.Dataset, q.Vars, q.GroupBy)
	}
	return s.describer.Describe(req.Dataset, q.Vars)
}
