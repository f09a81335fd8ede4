package analysis

import (
	"math"
	"testing"

	"golm/domain/table"
)

func TestDescribeKnownValues(t *testing.T) {
	tbl := numericTable(t, "score", []float64{2, 4, 4, 4, 5, 5, 7, 9})
	rows, err := NewDescriber().Describe(tbl, []string{"score"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]

	if r.N != 8 || r.Excluded != 0 {
		t.Errorf("N = %d excluded = %d", r.N, r.Excluded)
	}
	if r.Mean != 5 {
		t.Errorf("mean = %g, want 5", r.Mean)
	}
	if r.Median != 4.5 {
		t.Errorf("median = %g, want 4.5", r.Median)
	}
	if r.Min != 2 || r.Max != 9 {
		t.Errorf("min/max = %g/%g", r.Min, r.Max)
	}
	wantSD := math.Sqrt(32.0 / 7.0)
	if math.Abs(r.SD-wantSD) > 1e-9 {
		t.Errorf("sd = %g, want %g", r.SD, wantSD)
	}
	if math.Abs(r.SE-wantSD/math.Sqrt(8)) > 1e-9 {
		t.Errorf("se = %g", r.SE)
	}
}

func TestDescribeSymmetricSkewnessZero(t *testing.T) {
	tbl := numericTable(t, "x", []float64{1, 2, 3, 4, 5})
	rows, err := NewDescriber().Describe(tbl, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rows[0].Skewness) > 1e-12 {
		t.Errorf("skewness = %g, want 0", rows[0].Skewness)
	}
}

func TestDescribeReportsExcluded(t *testing.T) {
	tbl := numericTable(t, "x", []float64{1, math.NaN(), 3, math.NaN(), 5})
	rows, err := NewDescriber().Describe(tbl, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].N != 3 || rows[0].Excluded != 2 {
		t.Errorf("N = %d excluded = %d, want 3/2", rows[0].N, rows[0].Excluded)
	}
}

func TestDescribeByGroupOmitsEmptyCombinations(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("y", []float64{1, 2, 3, 4, 5, 6}),
		table.NewFactorWithLevels("a", []string{"x", "y"}, []string{"x", "x", "x", "y", "y", "y"}),
		table.NewFactorWithLevels("b", []string{"p", "q"}, []string{"p", "p", "p", "q", "q", "q"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := NewDescriber().DescribeByGroup(tbl, []string{"y"}, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	// Only (x,p) and (y,q) are populated; empty cells are omitted.
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Groups["a"] != "x" || rows[0].Groups["b"] != "p" {
		t.Errorf("first combo = %v", rows[0].Groups)
	}
	if rows[0].Mean != 2 {
		t.Errorf("mean(x,p) = %g, want 2", rows[0].Mean)
	}
	if rows[1].Mean != 5 {
		t.Errorf("mean(y,q) = %g, want 5", rows[1].Mean)
	}
}

func TestDescribeByGroupIndependentStats(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("y", []float64{10, 20, 30, 40}),
		table.NewFactorWithLevels("g", []string{"a", "b"}, []string{"a", "a", "b", "b"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := NewDescriber().DescribeByGroup(tbl, []string{"y"}, []string{"g"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Mean != 15 || rows[1].Mean != 35 {
		t.Errorf("group means = %g, %g", rows[0].Mean, rows[1].Mean)
	}
	if rows[0].N != 2 || rows[1].N != 2 {
		t.Errorf("group N = %d, %d", rows[0].N, rows[1].N)
	}
}

func TestDescribeRejectsFactor(t *testing.T) {
	tbl, _ := table.New(table.NewFactor("g", []string{"a", "b"}))
	if _, err := NewDescriber().Describe(tbl, []string{"g"}); err == nil {
		t.Fatal("expected error for factor variable")
	}
}
