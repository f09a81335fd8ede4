package analysis

import (
	"math"
	"testing"

	"golm/domain/table"
)

// Four groups of three observations centered on 10, 12, 14, 16, each with
// unit within-group variance (pooled sigma2 = 1 on 8 df).
func abcdModel(t *testing.T) *Model {
	t.Helper()
	tbl, err := table.New(
		table.NewNumeric("y", []float64{
			9, 10, 11,
			11, 12, 13,
			13, 14, 15,
			15, 16, 17,
		}),
		table.NewFactorWithLevels("g", []string{"A", "B", "C", "D"}, []string{
			"A", "A", "A",
			"B", "B", "B",
			"C", "C", "C",
			"D", "D", "D",
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("g")}})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// Balanced 2x2 additive layout: cell means 2, 6, 3, 7.
func twoFactorModel(t *testing.T) *Model {
	t.Helper()
	tbl, err := table.New(
		table.NewNumeric("y", []float64{1, 3, 5, 7, 2, 4, 6, 8}),
		table.NewFactorWithLevels("f", []string{"a", "b"}, []string{"a", "a", "a", "a", "b", "b", "b", "b"}),
		table.NewFactorWithLevels("h", []string{"u", "v"}, []string{"u", "u", "v", "v", "u", "u", "v", "v"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("f"), Main("h")}})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestEMMeansOneFactorEqualsGroupMeans(t *testing.T) {
	m := abcdModel(t)
	em, err := EMMeans(m, EMMRequest{Factors: []string{"g"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(em.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(em.Groups))
	}
	rows := em.Groups[0].Rows
	want := []float64{10, 12, 14, 16}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, r := range rows {
		if math.Abs(r.Estimate-want[i]) > 1e-9 {
			t.Errorf("emmean %s = %g, want %g", r.Label, r.Estimate, want[i])
		}
		// Group mean of 3 observations with sigma2 = 1.
		if math.Abs(r.SE-1/math.Sqrt(3)) > 1e-9 {
			t.Errorf("SE %s = %g, want %g", r.Label, r.SE, 1/math.Sqrt(3))
		}
		if r.DF != 8 {
			t.Errorf("DF = %d, want 8", r.DF)
		}
		if !(r.Lower < r.Estimate && r.Estimate < r.Upper) {
			t.Errorf("CI [%g, %g] does not bracket %g", r.Lower, r.Upper, r.Estimate)
		}
	}
}

func TestEMMeansAveragesUnassignedFactor(t *testing.T) {
	m := twoFactorModel(t)
	em, err := EMMeans(m, EMMRequest{Factors: []string{"f"}})
	if err != nil {
		t.Fatal(err)
	}
	rows := em.Groups[0].Rows
	// Averaging h with equal weights recovers the marginal data means of the
	// balanced layout: 4 for f=a, 5 for f=b.
	if math.Abs(rows[0].Estimate-4) > 1e-9 || math.Abs(rows[1].Estimate-5) > 1e-9 {
		t.Errorf("marginal means = %g, %g, want 4, 5", rows[0].Estimate, rows[1].Estimate)
	}
}

func TestEMMeansByStratification(t *testing.T) {
	m := twoFactorModel(t)
	em, err := EMMeans(m, EMMRequest{Factors: []string{"f"}, By: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if len(em.Groups) != 2 {
		t.Fatalf("strata = %d, want 2", len(em.Groups))
	}
	if em.Groups[0].ByLevel != "u" || em.Groups[1].ByLevel != "v" {
		t.Errorf("strata order = %q, %q", em.Groups[0].ByLevel, em.Groups[1].ByLevel)
	}
	// The layout is perfectly additive, so fitted cell means equal observed
	// cell means.
	cell := map[string]float64{}
	for _, g := range em.Groups {
		for _, r := range g.Rows {
			cell[r.Label+"/"+g.ByLevel] = r.Estimate
		}
	}
	want := map[string]float64{"a/u": 2, "a/v": 6, "b/u": 3, "b/v": 7}
	for k, w := range want {
		if math.Abs(cell[k]-w) > 1e-9 {
			t.Errorf("cell %s = %g, want %g", k, cell[k], w)
		}
	}
}

func TestEMMeansValidation(t *testing.T) {
	m := twoFactorModel(t)

	if _, err := EMMeans(m, EMMRequest{Factors: []string{"missing"}}); err == nil {
		t.Error("expected error for factor not in the model")
	}
	if _, err := EMMeans(m, EMMRequest{Factors: []string{"f"}, By: "f"}); err == nil {
		t.Error("expected error for factor repeated in by")
	}
	if _, err := EMMeans(m, EMMRequest{}); err == nil {
		t.Error("expected error for empty factor list")
	}
}

func TestEMMeansRowsAndPlotTable(t *testing.T) {
	m := abcdModel(t)
	em, err := EMMeans(m, EMMRequest{Factors: []string{"g"}})
	if err != nil {
		t.Fatal(err)
	}

	rows := em.Rows()
	if len(rows) != 4 {
		t.Fatalf("report rows = %d, want 4", len(rows))
	}
	if rows[0].Levels["g"] != "A" {
		t.Errorf("first row level = %q, want A", rows[0].Levels["g"])
	}

	plot := em.PlotTable("group means")
	if plot.Title != "group means" || plot.YLabel != "y" {
		t.Errorf("plot labels = %q / %q", plot.Title, plot.YLabel)
	}
	if len(plot.Points) != 4 || plot.Points[3].Level != "D" {
		t.Errorf("plot points = %+v", plot.Points)
	}
}
