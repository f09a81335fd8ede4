package analysis

import (
	"fmt"
	"math"
	"strings"

	"golm/domain/core"
	"golm/domain/table"
)

// TermKind distinguishes main effects from interactions
type TermKind string

const (
	MainEffect  TermKind = "main"
	Interaction TermKind = "interaction"
)

// Term references one source column (main effect) or the elementwise product
// of two or more (interaction). Terms are resolved eagerly against the table
// schema before any fitting happens.
type Term struct {
	Columns []string `json:"columns"`
	Kind    TermKind `json:"kind"`
}

// Main builds a main-effect term
func Main(column string) Term {
	return Term{Columns: []string{column}, Kind: MainEffect}
}

// Interact builds an interaction term
func Interact(columns ...string) Term {
	return Term{Columns: columns, Kind: Interaction}
}

// ModelSpec is the explicit term specification for one linear model
type ModelSpec struct {
	Outcome string `json:"outcome"`
	Terms   []Term `json:"terms"`
}

// atom is one multiplicand of an expanded design column: either a numeric
// source column, or an indicator for one non-reference factor level.
type atom struct {
	column string
	level  int // -1 for numeric columns
}

// designColumn is one column of the expanded design matrix
type designColumn struct {
	name  string
	atoms []atom // empty for the intercept
}

// design holds the expanded matrix metadata shared by the fitter and the
// downstream marginal-means and slopes engines.
type design struct {
	spec           ModelSpec
	columns        []designColumn
	factorLevels   map[string][]string // level order per factor predictor
	covariateMeans map[string]float64  // sample means over complete cases
	covariateSDs   map[string]float64
	keptRows       []int
	excluded       int
}

// buildDesign validates the spec against the table and expands it.
// Categorical predictors use reference-level coding: the first declared
// level is the omitted reference.
func buildDesign(t *table.Table, spec ModelSpec) (*design, []table.Column, table.Column, error) {
	if t.Rows() == 0 {
		return nil, nil, table.Column{}, core.ErrEmptyTable
	}
	outcome, err := t.Column(spec.Outcome)
	if err != nil {
		return nil, nil, table.Column{}, err
	}
	if outcome.IsFactor() {
		return nil, nil, table.Column{}, core.NewColumnError(core.ErrNonNumeric, spec.Outcome)
	}

	// Resolve every term column eagerly, in declaration order.
	var sources []table.Column
	seen := map[string]bool{}
	for _, term := range spec.Terms {
		if len(term.Columns) == 0 {
			return nil, nil, table.Column{}, fmt.Errorf("%w: empty term", core.ErrData)
		}
		if term.Kind == MainEffect && len(term.Columns) != 1 {
			return nil, nil, table.Column{}, fmt.Errorf("%w: main effect %v must reference one column", core.ErrData, term.Columns)
		}
		if term.Kind == Interaction && len(term.Columns) < 2 {
			return nil, nil, table.Column{}, fmt.Errorf("%w: interaction %v needs at least two columns", core.ErrData, term.Columns)
		}
		for _, name := range term.Columns {
			col, err := t.Column(name)
			if err != nil {
				return nil, nil, table.Column{}, err
			}
			if !seen[name] {
				seen[name] = true
				sources = append(sources, col)
			}
		}
	}

	// Complete cases across the outcome and every term column. The excluded
	// count is carried on the model; nothing is dropped silently.
	var kept []int
	for r := 0; r < t.Rows(); r++ {
		if outcome.IsMissing(r) {
			continue
		}
		ok := true
		for _, c := range sources {
			if c.IsMissing(r) {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, r)
		}
	}

	d := &design{
		spec:           spec,
		factorLevels:   map[string][]string{},
		covariateMeans: map[string]float64{},
		covariateSDs:   map[string]float64{},
		keptRows:       kept,
		excluded:       t.Rows() - len(kept),
	}

	for _, c := range sources {
		if c.IsFactor() {
			if len(c.Levels) < 2 {
				return nil, nil, table.Column{}, fmt.Errorf("%w: factor %q has fewer than two levels", core.ErrData, c.Name)
			}
			d.factorLevels[c.Name] = append([]string(nil), c.Levels...)
			continue
		}
		mean, sd := momentsOver(c, kept)
		d.covariateMeans[c.Name] = mean
		d.covariateSDs[c.Name] = sd
	}

	// Expand: intercept first, then each term in declaration order.
	d.columns = append(d.columns, designColumn{name: "(Intercept)"})
	for _, term := range spec.Terms {
		parts := make([][]atom, len(term.Columns))
		for i, name := range term.Columns {
			col, _ := t.Column(name)
			if col.IsFactor() {
				for lvl := 1; lvl < len(col.Levels); lvl++ {
					parts[i] = append(parts[i], atom{column: name, level: lvl})
				}
			} else {
				parts[i] = []atom{{column: name, level: -1}}
			}
		}
		for _, atoms := range crossAtoms(parts) {
			d.columns = append(d.columns, designColumn{name: d.columnName(t, atoms), atoms: atoms})
		}
	}

	return d, sources, outcome, nil
}

// columnName renders an expanded column as name or name[level], joined by ':'
func (d *design) columnName(t *table.Table, atoms []atom) string {
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		if a.level < 0 {
			parts[i] = a.column
		} else {
			parts[i] = fmt.Sprintf("%s[%s]", a.column, d.factorLevels[a.column][a.level])
		}
	}
	return strings.Join(parts, ":")
}

// crossAtoms takes the cartesian product of per-constituent atom choices
func crossAtoms(parts [][]atom) [][]atom {
	combos := [][]atom{{}}
	for _, options := range parts {
		var next [][]atom
		for _, c := range combos {
			for _, o := range options {
				nc := append(append([]atom(nil), c...), o)
				next = append(next, nc)
			}
		}
		combos = next
	}
	return combos
}

// cellValue evaluates one design cell for a data row
func cellValue(col designColumn, src map[string]table.Column, row int) float64 {
	v := 1.0
	for _, a := range col.atoms {
		c := src[a.column]
		if a.level < 0 {
			v *= c.Values[row]
		} else if int(c.Values[row]) != a.level {
			return 0
		}
	}
	return v
}

// referenceRow builds the design row for a hypothetical observation:
// assigned factors contribute exact indicators, unassigned factors are
// averaged with equal level weights, and covariates sit at their sample
// means unless overridden.
func (d *design) referenceRow(factorAssign map[string]string, covariates map[string]float64) []float64 {
	row := make([]float64, len(d.columns))
	for j, col := range d.columns {
		v := 1.0
		for _, a := range col.atoms {
			if a.level < 0 {
				cv, ok := covariates[a.column]
				if !ok {
					cv = d.covariateMeans[a.column]
				}
				v *= cv
				continue
			}
			levels := d.factorLevels[a.column]
			assigned, ok := factorAssign[a.column]
			if !ok {
				// Marginal over an unassigned factor: equal level weights.
				v *= 1 / float64(len(levels))
				continue
			}
			if levels[a.level] != assigned {
				v = 0
			}
		}
		row[j] = v
	}
	return row
}

// levelIndex returns the position of level within the factor's declaration order
func (d *design) levelIndex(factor, level string) (int, error) {
	levels, ok := d.factorLevels[factor]
	if !ok {
		return 0, core.NewColumnError(core.ErrNotFactor, factor)
	}
	for i, l := range levels {
		if l == level {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: level %q of factor %q", core.ErrData, level, factor)
}

// momentsOver computes the mean and n-1 standard deviation over kept rows
func momentsOver(c table.Column, rows []int) (mean, sd float64) {
	if len(rows) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += c.Values[r]
	}
	mean = sum / float64(len(rows))
	if len(rows) < 2 {
		return mean, 0
	}
	ss := 0.0
	for _, r := range rows {
		dv := c.Values[r] - mean
		ss += dv * dv
	}
	return mean, math.Sqrt(ss / float64(len(rows)-1))
}
