package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"golm/domain/core"
	"golm/domain/report"
	"golm/domain/table"
)

// Model is a fitted ordinary-least-squares linear model. It carries the
// coefficient vector, the coefficient covariance matrix, and the design
// metadata the marginal-means and slopes engines evaluate against. A Model
// is a value derived from its table; it never mutates upstream data.
type Model struct {
	Spec       ModelSpec
	CoefNames  []string
	Coef       []float64
	N          int
	Excluded   int
	ResidualDF int
	Sigma2     float64
	R2         float64
	AdjR2      float64
	F          float64
	FDF1       int
	FDF2       int
	FP         float64

	cov    *mat.Dense // sigma2 * (X'X)^-1
	x      *mat.Dense // retained for VIF
	design *design
	dist   Distributions
}

// Fitter fits linear models via the QR decomposition of the design matrix.
// Rank deficiency fails with a collinearity error naming the dependent
// columns; collinear columns are never silently dropped.
type Fitter struct {
	dist Distributions
}

// NewFitter creates a model fitter
func NewFitter() *Fitter {
	return &Fitter{dist: NewDistributions()}
}

// Fit estimates outcome ~ terms on the table
func (f *Fitter) Fit(t *table.Table, spec ModelSpec) (*Model, error) {
	d, sources, outcome, err := buildDesign(t, spec)
	if err != nil {
		return nil, err
	}

	n := len(d.keptRows)
	p := len(d.columns)
	if n-p <= 0 {
		return nil, fmt.Errorf("%w: n=%d with %d coefficients", core.ErrSingularity, n, p)
	}

	src := map[string]table.Column{}
	for _, c := range sources {
		src[c.Name] = c
	}

	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i, r := range d.keptRows {
		for j, col := range d.columns {
			x.Set(i, j, cellValue(col, src, r))
		}
		y.SetVec(i, outcome.Values[r])
	}

	var qr mat.QR
	qr.Factorize(x)
	var r mat.Dense
	qr.RTo(&r)

	// Rank check on the R diagonal: a (near-)zero pivot names the columns
	// that are linear combinations of earlier ones.
	maxPivot := 0.0
	for j := 0; j < p; j++ {
		if a := math.Abs(r.At(j, j)); a > maxPivot {
			maxPivot = a
		}
	}
	var dependent []string
	for j := 0; j < p; j++ {
		if math.Abs(r.At(j, j)) <= 1e-10*maxPivot {
			dependent = append(dependent, d.columns[j].name)
		}
	}
	if maxPivot == 0 || len(dependent) > 0 {
		if len(dependent) == 0 {
			dependent = columnNames(d.columns)
		}
		return nil, core.NewCollinearityError(dependent)
	}

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		// A Condition error flags poor conditioning but still carries a
		// usable solution; anything else means rank deficiency.
		if _, conditioned := err.(mat.Condition); !conditioned {
			return nil, core.NewCollinearityError(columnNames(d.columns))
		}
	}

	coef := make([]float64, p)
	for j := 0; j < p; j++ {
		coef[j] = beta.At(j, 0)
	}

	// Residual sums of squares and total sums of squares.
	meanY := mat.Sum(y) / float64(n)
	sse, sst := 0.0, 0.0
	for i := 0; i < n; i++ {
		fitted := 0.0
		for j := 0; j < p; j++ {
			fitted += x.At(i, j) * coef[j]
		}
		resid := y.AtVec(i) - fitted
		sse += resid * resid
		dev := y.AtVec(i) - meanY
		sst += dev * dev
	}

	residDF := n - p
	sigma2 := sse / float64(residDF)

	// (X'X)^-1 = R1^-1 R1^-T from the top p x p triangle of R.
	r1 := r.Slice(0, p, 0, p)
	var rInv mat.Dense
	if err := rInv.Inverse(r1); err != nil {
		return nil, core.NewCollinearityError(columnNames(d.columns))
	}
	var xtxInv mat.Dense
	xtxInv.Mul(&rInv, rInv.T())
	var cov mat.Dense
	cov.Scale(sigma2, &xtxInv)

	m := &Model{
		Spec:       spec,
		CoefNames:  columnNames(d.columns),
		Coef:       coef,
		N:          n,
		Excluded:   d.excluded,
		ResidualDF: residDF,
		Sigma2:     sigma2,
		cov:        &cov,
		x:          x,
		design:     d,
		dist:       f.dist,
	}

	if sst > 0 {
		m.R2 = 1 - sse/sst
		m.AdjR2 = 1 - (1-m.R2)*float64(n-1)/float64(residDF)
	}
	if p > 1 && sst > sse {
		m.FDF1 = p - 1
		m.FDF2 = residDF
		m.F = ((sst - sse) / float64(m.FDF1)) / sigma2
		m.FP = f.dist.FPValue(m.F, m.FDF1, m.FDF2)
	} else if p > 1 {
		m.FDF1 = p - 1
		m.FDF2 = residDF
		m.FP = 1
	}

	return m, nil
}

// Cov returns one entry of the coefficient covariance matrix
func (m *Model) Cov(i, j int) float64 {
	return m.cov.At(i, j)
}

// CoefIndex returns the position of a named coefficient
func (m *Model) CoefIndex(name string) (int, bool) {
	for i, n := range m.CoefNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Summary produces the fitted-model report with confidence intervals at the
// given level (e.g. 0.95)
func (m *Model) Summary(confidence float64) report.ModelSummary {
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}
	crit := m.dist.TCritical(confidence, m.ResidualDF)

	rows := make([]report.CoefficientRow, len(m.Coef))
	for j, b := range m.Coef {
		se := math.Sqrt(m.cov.At(j, j))
		t := b / se
		rows[j] = report.CoefficientRow{
			Term:     m.CoefNames[j],
			Estimate: b,
			SE:       se,
			T:        t,
			P:        m.dist.TPValue(t, m.ResidualDF),
			Lower:    b - crit*se,
			Upper:    b + crit*se,
		}
	}

	return report.ModelSummary{
		Outcome:      m.Spec.Outcome,
		Coefficients: rows,
		N:            m.N,
		Excluded:     m.Excluded,
		ResidualDF:   m.ResidualDF,
		R2:           m.R2,
		AdjR2:        m.AdjR2,
		F:            m.F,
		FDF1:         m.FDF1,
		FDF2:         m.FDF2,
		FP:           m.FP,
		Confidence:   confidence,
	}
}

// VIF computes the variance inflation factor 1/(1-R2_j) for a named design
// column by regressing it on all remaining columns.
func (m *Model) VIF(name string) (float64, error) {
	j, ok := m.CoefIndex(name)
	if !ok {
		return 0, core.NewColumnError(core.ErrColumnNotFound, name)
	}
	if j == 0 {
		return 0, fmt.Errorf("%w: VIF of the intercept is undefined", core.ErrData)
	}

	n, p := m.x.Dims()
	sub := mat.NewDense(n, p-1, nil)
	yj := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		cc := 0
		for c := 0; c < p; c++ {
			if c == j {
				continue
			}
			sub.Set(i, cc, m.x.At(i, c))
			cc++
		}
		yj.SetVec(i, m.x.At(i, j))
	}

	var qr mat.QR
	qr.Factorize(sub)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, yj); err != nil {
		if _, conditioned := err.(mat.Condition); !conditioned {
			return 0, fmt.Errorf("VIF regression for %q failed: %v", name, err)
		}
	}

	meanJ := mat.Sum(yj) / float64(n)
	sse, sst := 0.0, 0.0
	for i := 0; i < n; i++ {
		fitted := 0.0
		for c := 0; c < p-1; c++ {
			fitted += sub.At(i, c) * beta.At(c, 0)
		}
		resid := yj.AtVec(i) - fitted
		sse += resid * resid
		dev := yj.AtVec(i) - meanJ
		sst += dev * dev
	}
	if sst == 0 {
		return 0, fmt.Errorf("%w: column %q is constant", core.ErrData, name)
	}
	r2 := 1 - sse/sst
	if r2 >= 1 {
		return math.Inf(1), nil
	}
	return 1 / (1 - r2), nil
}

// VIFTable computes VIFs for every non-intercept design column
func (m *Model) VIFTable() (map[string]float64, error) {
	out := make(map[string]float64, len(m.CoefNames)-1)
	for _, name := range m.CoefNames[1:] {
		v, err := m.VIF(name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func columnNames(cols []designColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}
