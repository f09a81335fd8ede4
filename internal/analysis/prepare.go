package analysis

import (
	"strconv"

	"github.com/montanaflynn/stats"

	"golm/domain/core"
	"golm/domain/table"
)

// LevelDef declares one mapping from a raw value to a factor level.
// Raw is matched against the source cell rendered as text, so numeric codes
// ("1", "2") and existing factor levels both work.
type LevelDef struct {
	Raw   string
	Level string
	Label string
}

// Preparer derives analysis-ready columns from a raw table. Every method
// returns a new table; the input is never mutated.
type Preparer struct{}

// NewPreparer creates a data preparer
func NewPreparer() *Preparer {
	return &Preparer{}
}

// DeriveFactor maps raw values of source onto the declared ordered levels,
// storing the result as target. Raw values outside the declared domain become
// missing, never silently dropped.
func (p *Preparer) DeriveFactor(t *table.Table, source, target string, defs []LevelDef) (*table.Table, error) {
	col, err := t.Column(source)
	if err != nil {
		return nil, err
	}

	var levels, labels []string
	levelIdx := map[string]int{}
	rawToLevel := map[string]int{}
	for _, d := range defs {
		idx, ok := levelIdx[d.Level]
		if !ok {
			idx = len(levels)
			levelIdx[d.Level] = idx
			levels = append(levels, d.Level)
			labels = append(labels, d.Label)
		}
		rawToLevel[d.Raw] = idx
	}

	values := make([]float64, t.Rows())
	missing := make([]bool, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		raw, ok := rawCell(col, i)
		if !ok {
			missing[i] = true
			continue
		}
		idx, ok := rawToLevel[raw]
		if !ok {
			missing[i] = true
			continue
		}
		values[i] = float64(idx)
	}

	derived := table.Column{
		Name:    target,
		Kind:    table.Factor,
		Values:  values,
		Missing: missing,
		Levels:  levels,
		Labels:  labels,
	}
	return t.WithColumn(derived)
}

// Standardize z-scores a numeric column using the full-sample mean and the
// n-1 standard deviation of its non-missing values, storing the result as
// target. Missing cells stay missing. Callers wanting a subgroup
// standardization population pass a pre-filtered table.
func (p *Preparer) Standardize(t *table.Table, source, target string) (*table.Table, error) {
	col, err := t.Column(source)
	if err != nil {
		return nil, err
	}
	if col.IsFactor() {
		return nil, core.NewColumnError(core.ErrNonNumeric, source)
	}

	obs := col.NonMissing()
	if len(obs) < 2 {
		return nil, core.NewColumnError(core.ErrUndefinedStandardization, source)
	}
	mean, _ := stats.Mean(obs)
	sd, _ := stats.StandardDeviationSample(obs)
	if sd == 0 {
		return nil, core.NewColumnError(core.ErrUndefinedStandardization, source)
	}

	values := make([]float64, t.Rows())
	missing := make([]bool, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if col.IsMissing(i) {
			missing[i] = true
			continue
		}
		values[i] = (col.Values[i] - mean) / sd
	}

	derived := table.Column{Name: target, Kind: table.Numeric, Values: values, Missing: missing}
	return t.WithColumn(derived)
}

// Recode applies a deterministic level-to-level mapping to a factor column,
// storing the result as target. Levels absent from the ruleset pass through
// unchanged; missing input passes through as missing.
func (p *Preparer) Recode(t *table.Table, source, target string, rules map[string]string) (*table.Table, error) {
	col, err := t.Column(source)
	if err != nil {
		return nil, err
	}
	if !col.IsFactor() {
		return nil, core.NewColumnError(core.ErrNotFactor, source)
	}

	// Recoded level order follows the source declaration order of the first
	// source level mapping onto each target level.
	var levels []string
	levelIdx := map[string]int{}
	srcToDst := make([]int, len(col.Levels))
	for i, l := range col.Levels {
		dst := l
		if mapped, ok := rules[l]; ok {
			dst = mapped
		}
		idx, ok := levelIdx[dst]
		if !ok {
			idx = len(levels)
			levelIdx[dst] = idx
			levels = append(levels, dst)
		}
		srcToDst[i] = idx
	}

	values := make([]float64, t.Rows())
	missing := make([]bool, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		if col.IsMissing(i) {
			missing[i] = true
			continue
		}
		values[i] = float64(srcToDst[int(col.Values[i])])
	}

	derived := table.Column{Name: target, Kind: table.Factor, Values: values, Missing: missing, Levels: levels}
	return t.WithColumn(derived)
}

// rawCell renders a cell as text for level matching
func rawCell(col table.Column, row int) (string, bool) {
	if col.IsMissing(row) {
		return "", false
	}
	if col.IsFactor() {
		return col.Level(row)
	}
	return strconv.FormatFloat(col.Values[row], 'g', -1, 64), true
}
