package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golm/domain/core"
	"golm/domain/table"
)

// x = 1..5, y = {2,4,5,4,5}: slope 0.6, intercept 2.2, SSE 2.4 on 3 df.
func regressionFixture(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewNumeric("x", []float64{1, 2, 3, 4, 5}),
		table.NewNumeric("y", []float64{2, 4, 5, 4, 5}),
	)
	require.NoError(t, err)
	return tbl
}

func TestFitSimpleRegression(t *testing.T) {
	m, err := NewFitter().Fit(regressionFixture(t), ModelSpec{
		Outcome: "y",
		Terms:   []Term{Main("x")},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"(Intercept)", "x"}, m.CoefNames)
	assert.InDelta(t, 2.2, m.Coef[0], 1e-12)
	assert.InDelta(t, 0.6, m.Coef[1], 1e-12)
	assert.Equal(t, 5, m.N)
	assert.Equal(t, 0, m.Excluded)
	assert.Equal(t, 3, m.ResidualDF)
	assert.InDelta(t, 0.8, m.Sigma2, 1e-12)
	assert.InDelta(t, 0.6, m.R2, 1e-12)
	assert.InDelta(t, 1-(1-0.6)*4.0/3.0, m.AdjR2, 1e-12)
	assert.InDelta(t, 4.5, m.F, 1e-10)
	assert.Equal(t, 1, m.FDF1)
	assert.Equal(t, 3, m.FDF2)

	sum := m.Summary(0.95)
	slope := sum.Coefficients[1]
	assert.InDelta(t, math.Sqrt(0.08), slope.SE, 1e-12)
	assert.InDelta(t, math.Sqrt(0.88), sum.Coefficients[0].SE, 1e-12)
	assert.Greater(t, slope.Upper, slope.Lower)
	assert.InDelta(t, slope.Estimate, (slope.Lower+slope.Upper)/2, 1e-10)
	assert.InDelta(t, sum.FP, m.FP, 1e-15)
	assert.True(t, m.FP > 0.12 && m.FP < 0.13, "F p = %g", m.FP)
}

func TestFitCollinearityNamesColumn(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("x1", []float64{1, 2, 3, 4, 5}),
		table.NewNumeric("x2", []float64{2, 4, 6, 8, 10}),
		table.NewNumeric("y", []float64{1, 3, 2, 5, 4}),
	)
	require.NoError(t, err)

	_, err = NewFitter().Fit(tbl, ModelSpec{
		Outcome: "y",
		Terms:   []Term{Main("x1"), Main("x2")},
	})
	require.Error(t, err)
	assert.True(t, core.IsCollinearityError(err), "err = %v", err)
	assert.Contains(t, err.Error(), "x2")
}

func TestFitSingularityWhenNoResidualDF(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("x", []float64{1, 2}),
		table.NewNumeric("y", []float64{3, 5}),
	)
	require.NoError(t, err)

	_, err = NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("x")}})
	assert.True(t, core.IsSingularityError(err), "err = %v", err)
}

func TestFitListwiseDeletionReported(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("x", []float64{1, 2, 3, 4, 5, 6}),
		table.NewNumeric("y", []float64{2, 4, math.NaN(), 4, 5, math.NaN()}),
	)
	require.NoError(t, err)

	m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("x")}})
	require.NoError(t, err)
	assert.Equal(t, 4, m.N)
	assert.Equal(t, 2, m.Excluded)
}

func TestFitFactorReferenceCoding(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("y", []float64{1, 3, 10, 12}),
		table.NewFactorWithLevels("g", []string{"ctl", "trt"}, []string{"ctl", "ctl", "trt", "trt"}),
	)
	require.NoError(t, err)

	m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("g")}})
	require.NoError(t, err)
	require.Equal(t, []string{"(Intercept)", "g[trt]"}, m.CoefNames)
	assert.InDelta(t, 2, m.Coef[0], 1e-12) // reference-group mean
	assert.InDelta(t, 9, m.Coef[1], 1e-12) // trt - ctl
}

func TestFitPermutationInvariance(t *testing.T) {
	n := 40
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, n)
	z := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
		z[i] = rng.NormFloat64()
		y[i] = 1 + 2*x[i] - 0.5*z[i] + 0.3*x[i]*z[i] + rng.NormFloat64()
	}
	build := func(order []int) *table.Table {
		px := make([]float64, n)
		pz := make([]float64, n)
		py := make([]float64, n)
		for i, r := range order {
			px[i], pz[i], py[i] = x[r], z[r], y[r]
		}
		tbl, err := table.New(
			table.NewNumeric("x", px),
			table.NewNumeric("z", pz),
			table.NewNumeric("y", py),
		)
		require.NoError(t, err)
		return tbl
	}
	spec := ModelSpec{Outcome: "y", Terms: []Term{Main("x"), Main("z"), Interact("x", "z")}}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	base, err := NewFitter().Fit(build(order), spec)
	require.NoError(t, err)

	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	shuffled, err := NewFitter().Fit(build(order), spec)
	require.NoError(t, err)

	for j := range base.Coef {
		assert.InDelta(t, base.Coef[j], shuffled.Coef[j], 1e-9, "coef %s", base.CoefNames[j])
		assert.InDelta(t, math.Sqrt(base.Cov(j, j)), math.Sqrt(shuffled.Cov(j, j)), 1e-9)
	}
	assert.InDelta(t, base.R2, shuffled.R2, 1e-9)
}

func TestVIFUncorrelatedPredictors(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("x1", []float64{1, 1, -1, -1}),
		table.NewNumeric("x2", []float64{1, -1, 1, -1}),
		table.NewNumeric("y", []float64{1, 2, 3, 5}),
	)
	require.NoError(t, err)

	m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("x1"), Main("x2")}})
	require.NoError(t, err)

	vifs, err := m.VIFTable()
	require.NoError(t, err)
	assert.InDelta(t, 1, vifs["x1"], 1e-9)
	assert.InDelta(t, 1, vifs["x2"], 1e-9)
}

func TestVIFGrowsWithCorrelation(t *testing.T) {
	x1 := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	w := []float64{1, -1, 1, -1, 1, -1, 1, -1}
	y := []float64{2, 1, 4, 3, 6, 5, 8, 7}

	vifAt := func(d float64) float64 {
		x2 := make([]float64, len(x1))
		for i := range x2 {
			x2[i] = x1[i] + d*w[i]
		}
		tbl, err := table.New(
			table.NewNumeric("x1", x1),
			table.NewNumeric("x2", x2),
			table.NewNumeric("y", y),
		)
		require.NoError(t, err)
		m, err := NewFitter().Fit(tbl, ModelSpec{Outcome: "y", Terms: []Term{Main("x1"), Main("x2")}})
		require.NoError(t, err)
		v, err := m.VIF("x2")
		require.NoError(t, err)
		return v
	}

	loose := vifAt(2)
	tight := vifAt(0.25)
	assert.Greater(t, tight, loose, "VIF should grow as predictors converge")
	assert.Greater(t, loose, 1.0)
}
