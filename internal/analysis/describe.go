package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"golm/domain/core"
	"golm/domain/report"
	"golm/domain/table"
)

// Describer computes per-variable descriptive statistics
type Describer struct{}

// NewDescriber creates a descriptive engine
func NewDescriber() *Describer {
	return &Describer{}
}

// Describe computes summary statistics for each variable over its non-missing
// values. Excluded rows are counted, never hidden.
func (d *Describer) Describe(t *table.Table, vars []string) ([]report.DescriptiveRow, error) {
	rows := make([]report.DescriptiveRow, 0, len(vars))
	for _, v := range vars {
		col, err := t.Column(v)
		if err != nil {
			return nil, err
		}
		if col.IsFactor() {
			return nil, core.NewColumnError(core.ErrNonNumeric, v)
		}
		rows = append(rows, describeColumn(v, nil, col.NonMissing(), col.MissingCount()))
	}
	return rows, nil
}

// DescribeByGroup computes the same statistics independently for every
// non-empty combination of levels across the group factors. Empty
// combinations are omitted.
func (d *Describer) DescribeByGroup(t *table.Table, vars, groupFactors []string) ([]report.DescriptiveRow, error) {
	factors := make([]table.Column, len(groupFactors))
	for i, g := range groupFactors {
		col, err := t.Column(g)
		if err != nil {
			return nil, err
		}
		if !col.IsFactor() {
			return nil, core.NewColumnError(core.ErrNotFactor, g)
		}
		factors[i] = col
	}

	var out []report.DescriptiveRow
	combos := levelCombinations(factors)
	for _, combo := range combos {
		idx := matchingRows(t.Rows(), factors, combo)
		if len(idx) == 0 {
			continue
		}
		groups := map[string]string{}
		for i, g := range groupFactors {
			groups[g] = combo[i]
		}
		for _, v := range vars {
			col, err := t.Column(v)
			if err != nil {
				return nil, err
			}
			if col.IsFactor() {
				return nil, core.NewColumnError(core.ErrNonNumeric, v)
			}
			var obs []float64
			excluded := 0
			for _, r := range idx {
				if col.IsMissing(r) {
					excluded++
					continue
				}
				obs = append(obs, col.Values[r])
			}
			out = append(out, describeColumn(v, groups, obs, excluded))
		}
	}
	return out, nil
}

func describeColumn(name string, groups map[string]string, obs []float64, excluded int) report.DescriptiveRow {
	row := report.DescriptiveRow{Variable: name, Groups: groups, N: len(obs), Excluded: excluded}
	if len(obs) == 0 {
		return row
	}
	row.Mean, _ = stats.Mean(obs)
	row.Median, _ = stats.Median(obs)
	row.Min, _ = stats.Min(obs)
	row.Max, _ = stats.Max(obs)
	if len(obs) > 1 {
		row.SD, _ = stats.StandardDeviationSample(obs)
		row.SE = row.SD / math.Sqrt(float64(len(obs)))
	}
	row.Skewness = sampleSkewness(obs, row.Mean, row.SD)
	row.Kurtosis = sampleKurtosis(obs, row.Mean, row.SD)
	return row
}

// sampleSkewness is the adjusted Fisher-Pearson coefficient G1
func sampleSkewness(obs []float64, mean, sd float64) float64 {
	n := float64(len(obs))
	if n < 3 || sd == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range obs {
		z := (x - mean) / sd
		sum += z * z * z
	}
	return sum * n / ((n - 1) * (n - 2))
}

// sampleKurtosis is the bias-corrected excess kurtosis G2
func sampleKurtosis(obs []float64, mean, sd float64) float64 {
	n := float64(len(obs))
	if n < 4 || sd == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range obs {
		z := (x - mean) / sd
		sum += z * z * z * z
	}
	return sum*n*(n+1)/((n-1)*(n-2)*(n-3)) - 3*(n-1)*(n-1)/((n-2)*(n-3))
}

// levelCombinations enumerates the cartesian product of factor levels in
// declaration order, first factor varying slowest
func levelCombinations(factors []table.Column) [][]string {
	combos := [][]string{{}}
	for _, f := range factors {
		var next [][]string
		for _, c := range combos {
			for _, l := range f.Levels {
				nc := append(append([]string(nil), c...), l)
				next = append(next, nc)
			}
		}
		combos = next
	}
	if len(factors) == 0 {
		return nil
	}
	return combos
}

// matchingRows returns the rows whose factor cells equal the combination.
// Rows with a missing group cell belong to no combination.
func matchingRows(n int, factors []table.Column, combo []string) []int {
	var idx []int
	for r := 0; r < n; r++ {
		match := true
		for i, f := range factors {
			lvl, ok := f.Level(r)
			if !ok || lvl != combo[i] {
				match = false
				break
			}
		}
		if match {
			idx = append(idx, r)
		}
	}
	return idx
}
