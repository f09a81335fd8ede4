package table

import (
	"math"
	"testing"
)

func TestNewNumericMarksNaNMissing(t *testing.T) {
	c := NewNumeric("x", []float64{1, math.NaN(), 3})
	if !c.IsMissing(1) {
		t.Error("NaN cell should be missing")
	}
	if c.IsMissing(0) || c.IsMissing(2) {
		t.Error("finite cells should not be missing")
	}
	if got := c.NonMissing(); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("NonMissing = %v, want [1 3]", got)
	}
}

func TestNewFactorWithLevelsOutOfDomain(t *testing.T) {
	c := NewFactorWithLevels("group", []string{"a", "b"}, []string{"a", "b", "c", "", "a"})

	// Out-of-domain and empty values become missing, never dropped.
	if len(c.Values) != 5 {
		t.Fatalf("column length = %d, want 5", len(c.Values))
	}
	if !c.IsMissing(2) {
		t.Error("out-of-domain value should be missing")
	}
	if !c.IsMissing(3) {
		t.Error("empty value should be missing")
	}
	if lvl, ok := c.Level(4); !ok || lvl != "a" {
		t.Errorf("Level(4) = %q, %v", lvl, ok)
	}
	if c.MissingCount() != 2 {
		t.Errorf("MissingCount = %d, want 2", c.MissingCount())
	}
}

func TestTableValidation(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, err := New(NewNumeric("a", []float64{1, 2}), NewNumeric("b", []float64{1}))
		if err == nil {
			t.Fatal("expected length-mismatch error")
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := New(NewNumeric("a", []float64{1}), NewNumeric("a", []float64{2}))
		if err == nil {
			t.Fatal("expected duplicate-column error")
		}
	})
}

func TestWithColumnDoesNotMutateReceiver(t *testing.T) {
	base, err := New(NewNumeric("x", []float64{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}

	derived, err := base.WithColumn(NewNumeric("z", []float64{4, 5, 6}))
	if err != nil {
		t.Fatal(err)
	}
	if base.Has("z") {
		t.Error("WithColumn mutated the receiver")
	}
	if !derived.Has("z") || derived.Rows() != 3 {
		t.Error("derived table missing new column")
	}

	// Replacing a column leaves the original values intact.
	replaced, err := derived.WithColumn(NewNumeric("x", []float64{9, 9, 9}))
	if err != nil {
		t.Fatal(err)
	}
	orig, _ := base.Column("x")
	if orig.Values[0] != 1 {
		t.Error("replacement leaked into the original table")
	}
	repl, _ := replaced.Column("x")
	if repl.Values[0] != 9 {
		t.Error("replacement not applied")
	}
}

func TestSelectRows(t *testing.T) {
	base, _ := New(
		NewNumeric("x", []float64{10, 20, 30}),
		NewFactor("g", []string{"a", "b", "a"}),
	)
	sub := base.SelectRows([]int{2, 0})
	if sub.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", sub.Rows())
	}
	x, _ := sub.Column("x")
	if x.Values[0] != 30 || x.Values[1] != 10 {
		t.Errorf("x = %v, want [30 10]", x.Values)
	}
	g, _ := sub.Column("g")
	if lvl, _ := g.Level(0); lvl != "a" {
		t.Errorf("g[0] = %q, want a", lvl)
	}
}
