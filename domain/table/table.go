package table

import (
	"fmt"
	"math"

	"golm/domain/core"
)

// Kind defines the statistical type of a column
type Kind string

const (
	Numeric Kind = "numeric"
	Factor  Kind = "factor"
)

// Column is a single named variable. Numeric columns store raw values;
// factor columns store level indexes into Levels. A true entry in Missing
// marks the cell as absent regardless of the stored value.
type Column struct {
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Values  []float64 `json:"values"`
	Missing []bool    `json:"missing,omitempty"`
	Levels  []string  `json:"levels,omitempty"` // factor levels in declaration order
	Labels  []string  `json:"labels,omitempty"` // display labels, parallel to Levels
}

// NewNumeric builds a numeric column. NaN values are recorded as missing.
func NewNumeric(name string, values []float64) Column {
	missing := make([]bool, len(values))
	vals := make([]float64, len(values))
	for i, v := range values {
		vals[i] = v
		if math.IsNaN(v) {
			missing[i] = true
			vals[i] = 0
		}
	}
	return Column{Name: name, Kind: Numeric, Values: vals, Missing: missing}
}

// NewFactor builds a factor column from raw string values. Levels are taken
// in order of first appearance; empty strings are recorded as missing.
func NewFactor(name string, values []string) Column {
	var levels []string
	index := map[string]int{}
	vals := make([]float64, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		if v == "" {
			missing[i] = true
			continue
		}
		idx, ok := index[v]
		if !ok {
			idx = len(levels)
			index[v] = idx
			levels = append(levels, v)
		}
		vals[i] = float64(idx)
	}
	return Column{Name: name, Kind: Factor, Values: vals, Missing: missing, Levels: levels}
}

// NewFactorWithLevels builds a factor column with an explicit level order.
// Raw values outside the declared levels are recorded as missing, never dropped.
func NewFactorWithLevels(name string, levels []string, values []string) Column {
	index := map[string]int{}
	for i, l := range levels {
		index[l] = i
	}
	vals := make([]float64, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		idx, ok := index[v]
		if v == "" || !ok {
			missing[i] = true
			continue
		}
		vals[i] = float64(idx)
	}
	return Column{Name: name, Kind: Factor, Values: vals, Missing: missing, Levels: append([]string(nil), levels...)}
}

// IsFactor reports whether the column is categorical
func (c Column) IsFactor() bool {
	return c.Kind == Factor
}

// IsMissing reports whether the cell at row is missing
func (c Column) IsMissing(row int) bool {
	return len(c.Missing) > row && c.Missing[row]
}

// Level returns the level name at row; ok is false for missing cells
func (c Column) Level(row int) (string, bool) {
	if !c.IsFactor() || c.IsMissing(row) {
		return "", false
	}
	idx := int(c.Values[row])
	if idx < 0 || idx >= len(c.Levels) {
		return "", false
	}
	return c.Levels[idx], true
}

// Label returns the display label for a level name, falling back to the level itself
func (c Column) Label(level string) string {
	for i, l := range c.Levels {
		if l == level && i < len(c.Labels) && c.Labels[i] != "" {
			return c.Labels[i]
		}
	}
	return level
}

// NonMissing returns the numeric values of all non-missing cells
func (c Column) NonMissing() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i, v := range c.Values {
		if !c.IsMissing(i) {
			out = append(out, v)
		}
	}
	return out
}

// MissingCount returns the number of missing cells
func (c Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// clone deep-copies the column so derived tables never alias upstream storage
func (c Column) clone() Column {
	out := c
	out.Values = append([]float64(nil), c.Values...)
	out.Missing = append([]bool(nil), c.Missing...)
	out.Levels = append([]string(nil), c.Levels...)
	out.Labels = append([]string(nil), c.Labels...)
	return out
}

// Table is an ordered, immutable collection of equal-length columns.
// Every transformation returns a new Table; inputs are never mutated.
type Table struct {
	cols []Column
	n    int
}

// New builds a table, validating column lengths and name uniqueness
func New(cols ...Column) (*Table, error) {
	if len(cols) == 0 {
		return &Table{}, nil
	}
	n := len(cols[0].Values)
	seen := map[string]bool{}
	for _, c := range cols {
		if len(c.Values) != n {
			return nil, core.NewColumnError(core.ErrLengthMismatch, c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrData, c.Name)
		}
		seen[c.Name] = true
	}
	copied := make([]Column, len(cols))
	for i, c := range cols {
		copied[i] = c.clone()
	}
	return &Table{cols: copied, n: n}, nil
}

// Rows returns the number of records
func (t *Table) Rows() int {
	return t.n
}

// Names returns column names in declaration order
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, err := t.Column(name)
	return err == nil
}

// Column returns the named column
func (t *Table) Column(name string) (Column, error) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, nil
		}
	}
	return Column{}, core.NewColumnError(core.ErrColumnNotFound, name)
}

// WithColumn returns a new table with the column appended, or replaced if a
// column of the same name already exists. The receiver is left untouched.
func (t *Table) WithColumn(c Column) (*Table, error) {
	if t.n > 0 && len(c.Values) != t.n {
		return nil, core.NewColumnError(core.ErrLengthMismatch, c.Name)
	}
	cols := make([]Column, 0, len(t.cols)+1)
	replaced := false
	for _, existing := range t.cols {
		if existing.Name == c.Name {
			cols = append(cols, c.clone())
			replaced = true
		} else {
			cols = append(cols, existing)
		}
	}
	if !replaced {
		cols = append(cols, c.clone())
	}
	n := t.n
	if len(t.cols) == 0 {
		n = len(c.Values)
	}
	return &Table{cols: cols, n: n}, nil
}

// SelectRows returns a new table containing only the given row indexes,
// in the given order
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		nc := c
		nc.Values = make([]float64, len(rows))
		nc.Missing = make([]bool, len(rows))
		nc.Levels = append([]string(nil), c.Levels...)
		nc.Labels = append([]string(nil), c.Labels...)
		for j, r := range rows {
			nc.Values[j] = c.Values[r]
			nc.Missing[j] = c.IsMissing(r)
		}
		cols[i] = nc
	}
	return &Table{cols: cols, n: len(rows)}
}
