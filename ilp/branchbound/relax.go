package branchbound

import (
	"errors"
	"math"

	"git.solver4all.com/azaryc2s/flowcover/ilp"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

type relaxStatus int

const (
	relaxOptimal relaxStatus = iota
	relaxInfeasible
	relaxUnbounded
	// relaxFailed means the simplex gave up for numerical reasons; the node
	// has no usable bound but may still hold solutions.
	relaxFailed
)

// relaxation is the LP of one search node.
type relaxation struct {
	status relaxStatus
	obj    float64 // in minimization form
	x      []float64
}

// relax solves the LP relaxation of m under the node bounds. cost is the
// objective in minimization form.
//
// Every variable is shifted to z = x - lb >= 0, fixed variables are
// substituted, each row gets its own slack column (equalities become a <= and
// a >= row) and finite upper bounds become rows of their own, which keeps A
// at full row rank as lp.Simplex requires.
func relax(m *ilp.Model, cost, lb, ub []float64, tol float64) relaxation {
	n := len(m.Vars)
	col := make([]int, n)
	var free []int
	base := 0.0
	for j := 0; j < n; j++ {
		base += cost[j] * lb[j]
		if ub[j]-lb[j] > tol {
			col[j] = len(free)
			free = append(free, j)
		} else {
			col[j] = -1
		}
	}

	type row struct {
		coef map[int]float64
		rhs  float64
		// slack sign: +1 for <=, -1 for >=
		slack float64
	}
	var rows []row
	inRow := make([]bool, len(free))

	addRow := func(coef map[int]float64, rhs, slack float64) {
		for c := range coef {
			inRow[c] = true
		}
		rows = append(rows, row{coef: coef, rhs: rhs, slack: slack})
	}

	for _, c := range m.Constrs {
		coef := make(map[int]float64, len(c.Ind))
		rhs := c.RHS
		for k, j := range c.Ind {
			a := c.Val[k]
			rhs -= a * lb[j]
			if col[j] >= 0 && a != 0 {
				coef[col[j]] += a
			}
		}
		if len(coef) == 0 {
			if !constantHolds(c.Sense, rhs, tol) {
				return relaxation{status: relaxInfeasible}
			}
			continue
		}
		switch c.Sense {
		case ilp.LessEqual:
			addRow(coef, rhs, 1)
		case ilp.GreaterEqual:
			addRow(coef, rhs, -1)
		case ilp.Equal:
			addRow(coef, rhs, 1)
			addRow(coef, rhs, -1)
		}
	}
	for c, j := range free {
		if !math.IsInf(ub[j], 1) {
			addRow(map[int]float64{c: 1}, ub[j]-lb[j], 1)
		}
	}

	// Free columns in no row sit at their lower bound unless they improve the
	// objective without limit.
	x := append([]float64(nil), lb...)
	var lpCols []int
	for c, j := range free {
		if inRow[c] {
			lpCols = append(lpCols, c)
			continue
		}
		if cost[j] < 0 {
			return relaxation{status: relaxUnbounded}
		}
	}
	if len(rows) == 0 {
		return relaxation{status: relaxOptimal, obj: base, x: x}
	}

	lpIdx := make([]int, len(free))
	for i := range lpIdx {
		lpIdx[i] = -1
	}
	for k, c := range lpCols {
		lpIdx[c] = k
	}
	nCols := len(lpCols) + len(rows)
	A := mat.NewDense(len(rows), nCols, nil)
	b := make([]float64, len(rows))
	cvec := make([]float64, nCols)
	for k, c := range lpCols {
		cvec[k] = cost[free[c]]
	}
	for i, r := range rows {
		for c, a := range r.coef {
			A.Set(i, lpIdx[c], a)
		}
		A.Set(i, len(lpCols)+i, r.slack)
		b[i] = r.rhs
	}

	obj, z, err := lp.Simplex(cvec, A, b, tol, nil)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: relaxInfeasible}
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: relaxUnbounded}
	default:
		return relaxation{status: relaxFailed}
	}
	for k, c := range lpCols {
		x[free[c]] = lb[free[c]] + z[k]
	}
	return relaxation{status: relaxOptimal, obj: base + obj, x: x}
}

func constantHolds(sense ilp.Sense, rhs, tol float64) bool {
	switch sense {
	case ilp.LessEqual:
		return 0 <= rhs+tol
	case ilp.GreaterEqual:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}
