package analysis

import (
	"fmt"
	"math"
	"sort"

	"golm/domain/core"
	"golm/domain/report"
)

// SlopesRequest configures a simple-slopes decomposition of a continuous x
// continuous interaction. At lists the moderator values to probe; when empty
// the sample mean and mean +/- 1 SD are used. JohnsonNeyman additionally
// solves for the moderator values where the slope's confidence bound crosses
// zero.
type SlopesRequest struct {
	Predictor     string
	Moderator     string
	At            []float64
	Confidence    float64
	JohnsonNeyman bool
}

// SimpleSlopes computes the conditional slope of the predictor at each
// moderator value: slope(v) = b_pred + b_int * v, with
// SE^2 = Var(b_pred) + v^2 Var(b_int) + 2v Cov(b_pred, b_int).
func SimpleSlopes(m *Model, req SlopesRequest) (*report.SlopesTable, error) {
	confidence := req.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	predIdx, err := m.mainEffectIndex(req.Predictor)
	if err != nil {
		return nil, err
	}
	intIdx, err := m.interactionIndex(req.Predictor, req.Moderator)
	if err != nil {
		return nil, err
	}

	at := req.At
	if len(at) == 0 {
		mean, ok := m.design.covariateMeans[req.Moderator]
		if !ok {
			return nil, fmt.Errorf("%w: moderator %q is not a continuous predictor", core.ErrData, req.Moderator)
		}
		sd := m.design.covariateSDs[req.Moderator]
		at = []float64{mean - sd, mean, mean + sd}
	}

	b1 := m.Coef[predIdx]
	b3 := m.Coef[intIdx]
	v11 := m.cov.At(predIdx, predIdx)
	v33 := m.cov.At(intIdx, intIdx)
	v13 := m.cov.At(predIdx, intIdx)
	crit := m.dist.TCritical(confidence, m.ResidualDF)

	tbl := &report.SlopesTable{Predictor: req.Predictor, Moderator: req.Moderator}
	for _, v := range at {
		slope := b1 + b3*v
		variance := v11 + v*v*v33 + 2*v*v13
		if variance < 0 {
			variance = 0
		}
		se := math.Sqrt(variance)
		t := math.Inf(1)
		if se > 0 {
			t = slope / se
		}
		tbl.Rows = append(tbl.Rows, report.SimpleSlopeRow{
			ModValue: v,
			Slope:    slope,
			SE:       se,
			T:        t,
			P:        m.dist.TPValue(t, m.ResidualDF),
			Lower:    slope - crit*se,
			Upper:    slope + crit*se,
		})
	}

	if req.JohnsonNeyman {
		tbl.JNBounds = johnsonNeyman(b1, b3, v11, v33, v13, crit)
	}
	return tbl, nil
}

// mainEffectIndex finds the design column holding exactly the single
// numeric atom for the predictor
func (m *Model) mainEffectIndex(pred string) (int, error) {
	for j, col := range m.design.columns {
		if len(col.atoms) == 1 && col.atoms[0].level < 0 && col.atoms[0].column == pred {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: model has no continuous main effect for %q", core.ErrData, pred)
}

// interactionIndex finds the continuous x continuous product column for the
// pair, in either constituent order
func (m *Model) interactionIndex(pred, mod string) (int, error) {
	for j, col := range m.design.columns {
		if len(col.atoms) != 2 {
			continue
		}
		a, b := col.atoms[0], col.atoms[1]
		if a.level >= 0 || b.level >= 0 {
			continue
		}
		if (a.column == pred && b.column == mod) || (a.column == mod && b.column == pred) {
			return j, nil
		}
	}
	return 0, fmt.Errorf("%w: model has no %s:%s interaction", core.ErrData, pred, mod)
}

// johnsonNeyman solves slope(v)^2 = crit^2 * Var(slope(v)) for v, the
// moderator values where the confidence bound touches zero. Zero, one or two
// real roots exist; they are returned in ascending order.
func johnsonNeyman(b1, b3, v11, v33, v13, crit float64) []float64 {
	t2 := crit * crit
	qa := b3*b3 - t2*v33
	qb := 2 * (b1*b3 - t2*v13)
	qc := b1*b1 - t2*v11

	if qa == 0 {
		if qb == 0 {
			return nil
		}
		return []float64{-qc / qb}
	}
	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	roots := []float64{(-qb - sq) / (2 * qa), (-qb + sq) / (2 * qa)}
	sort.Float64s(roots)
	if roots[0] == roots[1] {
		return roots[:1]
	}
	return roots
}
