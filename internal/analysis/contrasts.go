package analysis

import (
	"fmt"
	"math"
	"sort"

	"golm/domain/core"
	"golm/domain/report"
)

// Adjustment names a multiple-comparison p-value adjustment method
type Adjustment string

const (
	AdjustNone       Adjustment = "none"
	AdjustBonferroni Adjustment = "bonferroni"
	AdjustHolm       Adjustment = "holm"
	AdjustSidak      Adjustment = "sidak"
	AdjustTukey      Adjustment = "tukey"
)

// ContrastRequest configures pairwise contrast computation. Reverse flips
// the sign of every difference consistently; Adjust rescales p-values per
// stratum family.
type ContrastRequest struct {
	Reverse bool
	Adjust  Adjustment
}

// PairwiseContrasts computes every unordered pair of marginal means within
// each stratum. The difference is meanA - meanB in factor-level declaration
// order (B - A when reversed); SE^2 = Var(A) + Var(B) - 2 Cov(A,B) with the
// covariance drawn from the shared coefficient covariance matrix.
func PairwiseContrasts(em *EMMResult, req ContrastRequest) ([]report.ContrastRow, error) {
	adjust := req.Adjust
	if adjust == "" {
		adjust = AdjustNone
	}
	switch adjust {
	case AdjustNone, AdjustBonferroni, AdjustHolm, AdjustSidak, AdjustTukey:
	default:
		return nil, fmt.Errorf("%w: unknown adjustment %q", core.ErrData, adjust)
	}

	m := em.model
	var out []report.ContrastRow
	for _, g := range em.Groups {
		var family []report.ContrastRow
		for i := 0; i < len(g.Rows); i++ {
			for j := i + 1; j < len(g.Rows); j++ {
				a, b := g.Rows[i], g.Rows[j]
				diff := a.Estimate - b.Estimate
				left, right := a.Label, b.Label
				if req.Reverse {
					diff = -diff
					left, right = right, left
				}
				variance := a.SE*a.SE + b.SE*b.SE - 2*m.covarianceBetween(a.L, b.L)
				if variance < 0 {
					variance = 0
				}
				se := math.Sqrt(variance)
				t := math.Inf(1)
				if se > 0 {
					t = diff / se
				}
				family = append(family, report.ContrastRow{
					Left:       left,
					Right:      right,
					By:         g.ByLevel,
					Difference: diff,
					SE:         se,
					T:          t,
					P:          m.dist.TPValue(t, m.ResidualDF),
					Adjustment: string(adjust),
				})
			}
		}
		adjustFamily(family, adjust, len(g.Rows), m.ResidualDF, m.dist)
		out = append(out, family...)
	}
	return out, nil
}

// adjustFamily rewrites the p-values of one stratum family in place.
// k is the number of means the pairs were drawn from.
func adjustFamily(family []report.ContrastRow, adjust Adjustment, k, df int, dist Distributions) {
	mTests := float64(len(family))
	switch adjust {
	case AdjustNone:
	case AdjustBonferroni:
		for i := range family {
			family[i].P = clampP(family[i].P * mTests)
		}
	case AdjustSidak:
		for i := range family {
			family[i].P = clampP(1 - math.Pow(1-family[i].P, mTests))
		}
	case AdjustHolm:
		order := make([]int, len(family))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return family[order[a]].P < family[order[b]].P
		})
		running := 0.0
		for rank, idx := range order {
			adj := family[idx].P * (mTests - float64(rank))
			if adj < running {
				adj = running
			}
			running = adj
			family[idx].P = clampP(adj)
		}
	case AdjustTukey:
		for i := range family {
			q := math.Abs(family[i].T) * math.Sqrt2
			family[i].P = clampP(dist.StudentizedRangeP(q, k, df))
		}
	}
}

func clampP(p float64) float64 {
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}
