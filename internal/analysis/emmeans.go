package analysis

import (
	"fmt"
	"math"
	"strings"

	"golm/domain/core"
	"golm/domain/report"
)

// EMMRequest selects the factor-level grid to evaluate. By, when set, adds
// a stratifying factor producing independent tables that share the fitted
// model and its covariance; nothing is re-estimated per stratum.
type EMMRequest struct {
	Factors    []string
	By         string
	Confidence float64
}

// EMMRow is one evaluated grid point. The design row L is retained so the
// contrast engine can recover covariances between estimates.
type EMMRow struct {
	Combo    []string // level per requested factor, declaration order
	Label    string
	L        []float64
	Estimate float64
	SE       float64
	DF       int
	Lower    float64
	Upper    float64
}

// EMMGroup is one stratum of the grid
type EMMGroup struct {
	ByLevel string
	Rows    []EMMRow
}

// EMMResult is the full estimated-marginal-means grid for one model
type EMMResult struct {
	Factors    []string
	By         string
	Confidence float64
	Groups     []EMMGroup

	model *Model
}

// EMMeans evaluates estimated marginal means for every level combination of
// the requested factors, crossed with the By factor when supplied.
// Covariates are held at their sample means; factors in the model but absent
// from the request are averaged over with equal level weights.
func EMMeans(m *Model, req EMMRequest) (*EMMResult, error) {
	if len(req.Factors) == 0 {
		return nil, fmt.Errorf("%w: no factors requested", core.ErrData)
	}
	confidence := req.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	d := m.design
	for _, f := range req.Factors {
		if _, ok := d.factorLevels[f]; !ok {
			return nil, fmt.Errorf("%w: factor %q is not a predictor of the model", core.ErrData, f)
		}
		if f == req.By {
			return nil, fmt.Errorf("%w: factor %q cannot appear in both the grid and by", core.ErrData, f)
		}
	}
	byLevels := []string{""}
	if req.By != "" {
		levels, ok := d.factorLevels[req.By]
		if !ok {
			return nil, fmt.Errorf("%w: by-factor %q is not a predictor of the model", core.ErrData, req.By)
		}
		byLevels = levels
	}

	crit := m.dist.TCritical(confidence, m.ResidualDF)
	combos := factorGrid(d, req.Factors)

	result := &EMMResult{
		Factors:    req.Factors,
		By:         req.By,
		Confidence: confidence,
		model:      m,
	}
	for _, by := range byLevels {
		group := EMMGroup{ByLevel: by}
		for _, combo := range combos {
			assign := map[string]string{}
			for i, f := range req.Factors {
				assign[f] = combo[i]
			}
			if req.By != "" {
				assign[req.By] = by
			}
			l := d.referenceRow(assign, nil)
			est, se := m.linearEstimate(l)
			group.Rows = append(group.Rows, EMMRow{
				Combo:    combo,
				Label:    strings.Join(combo, ","),
				L:        l,
				Estimate: est,
				SE:       se,
				DF:       m.ResidualDF,
				Lower:    est - crit*se,
				Upper:    est + crit*se,
			})
		}
		result.Groups = append(result.Groups, group)
	}
	return result, nil
}

// linearEstimate evaluates L'beta and sqrt(L' Sigma L) for one design row
func (m *Model) linearEstimate(l []float64) (est, se float64) {
	for j, v := range l {
		est += v * m.Coef[j]
	}
	variance := 0.0
	for i, li := range l {
		for j, lj := range l {
			variance += li * lj * m.cov.At(i, j)
		}
	}
	if variance < 0 {
		variance = 0
	}
	return est, math.Sqrt(variance)
}

// covarianceBetween recovers Cov(L_a'beta, L_b'beta) from the shared
// coefficient covariance matrix
func (m *Model) covarianceBetween(la, lb []float64) float64 {
	c := 0.0
	for i, ai := range la {
		for j, bj := range lb {
			c += ai * bj * m.cov.At(i, j)
		}
	}
	return c
}

// Rows flattens the grid into report rows
func (r *EMMResult) Rows() []report.MarginalMeanRow {
	var out []report.MarginalMeanRow
	for _, g := range r.Groups {
		for _, row := range g.Rows {
			levels := map[string]string{}
			for i, f := range r.Factors {
				levels[f] = row.Combo[i]
			}
			out = append(out, report.MarginalMeanRow{
				Levels:   levels,
				By:       g.ByLevel,
				Estimate: row.Estimate,
				SE:       row.SE,
				DF:       row.DF,
				Lower:    row.Lower,
				Upper:    row.Upper,
			})
		}
	}
	return out
}

// PlotTable shapes the grid for the rendering collaborator
func (r *EMMResult) PlotTable(title string) report.PlotTable {
	tbl := report.PlotTable{
		Title:  title,
		XLabel: strings.Join(r.Factors, " x "),
		YLabel: r.model.Spec.Outcome,
	}
	for _, g := range r.Groups {
		for _, row := range g.Rows {
			tbl.Points = append(tbl.Points, report.PlotPoint{
				Level:    row.Label,
				Group:    g.ByLevel,
				Estimate: row.Estimate,
				SE:       row.SE,
				Lower:    row.Lower,
				Upper:    row.Upper,
			})
		}
	}
	return tbl
}

// factorGrid enumerates level combinations in declaration order, first
// requested factor varying slowest
func factorGrid(d *design, factors []string) [][]string {
	combos := [][]string{{}}
	for _, f := range factors {
		var next [][]string
		for _, c := range combos {
			for _, l := range d.factorLevels[f] {
				next = append(next, append(append([]string(nil), c...), l))
			}
		}
		combos = next
	}
	return combos
}
