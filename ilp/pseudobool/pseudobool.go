// Package pseudobool solves 0-1 models as pseudo-boolean optimization
// problems with gophersat. Every column must be binary; row and objective
// coefficients must become integral after scaling by a power of ten.
package pseudobool

import (
	"context"
	"errors"
	"fmt"
	"math"

	"git.solver4all.com/azaryc2s/flowcover/ilp"
	"github.com/crillab/gophersat/solver"
	log "github.com/sirupsen/logrus"
)

const Name = "pseudobool"

// maxDecimals bounds the power of ten used to make coefficients integral.
const maxDecimals = 6

var (
	// ErrFractionalCoefficient is returned when a coefficient cannot be made
	// integral within maxDecimals decimal places.
	ErrFractionalCoefficient = errors.New("pseudobool: coefficient not representable as integer")

	// ErrNonBinary is returned for models with continuous or general integer
	// columns.
	ErrNonBinary = errors.New("pseudobool: model has non-binary variables")
)

func init() {
	ilp.Register(Name, func(opts ilp.Options) ilp.Solver { return New(opts) })
}

type Solver struct{}

func New(ilp.Options) *Solver { return &Solver{} }

func (s *Solver) Name() string { return Name }

// Solve translates m and minimizes it. gophersat cannot be interrupted: when
// ctx ends first, Solve returns StatusInterrupted and the search goroutine
// runs to completion in the background. No search is started for a ctx that
// has already ended.
func (s *Solver) Solve(ctx context.Context, m *ilp.Model) (*ilp.Result, error) {
	pb, err := Translate(m)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		log.Debugf("pseudobool: not started: %v", err)
		return &ilp.Result{Status: ilp.StatusInterrupted}, nil
	}

	type outcome struct {
		cost  int
		model []bool
	}
	done := make(chan outcome, 1)
	go func() {
		sv := solver.New(pb)
		cost := sv.Minimize()
		var model []bool
		if cost >= 0 {
			model = sv.Model()
		}
		done <- outcome{cost: cost, model: model}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		log.Debugf("pseudobool: interrupted: %v", ctx.Err())
		return &ilp.Result{Status: ilp.StatusInterrupted}, nil
	}
	if out.cost < 0 {
		return &ilp.Result{Status: ilp.StatusInfeasible}, nil
	}

	x := make([]float64, m.NumVars())
	for j := range x {
		if j < len(out.model) && out.model[j] {
			x[j] = 1
		}
	}
	if !m.Feasible(x, 1e-6) {
		return nil, fmt.Errorf("pseudobool: solver model violates the model constraints")
	}
	return &ilp.Result{Status: ilp.StatusOptimal, X: x, Objective: m.ObjectiveValue(x)}, nil
}

// Translate converts m into a gophersat problem. Variable j becomes the
// literal j+1.
func Translate(m *ilp.Model) (*solver.Problem, error) {
	n := m.NumVars()
	var constrs []solver.PBConstr
	// declares every variable, even those in no row
	if n > 0 {
		constrs = append(constrs, solver.PBConstr{Lits: []int{n}, AtLeast: 0})
	}

	for j, v := range m.Vars {
		if v.Type == ilp.Continuous || v.LB < -1e-9 || v.UB > 1+1e-9 {
			return nil, fmt.Errorf("%w: %s is %s in [%g,%g]", ErrNonBinary, v.Name, v.Type, v.LB, v.UB)
		}
		lit := j + 1
		switch {
		case v.LB > v.UB-0.5 && v.LB > 0.5:
			constrs = append(constrs, solver.PropClause(lit))
		case v.UB < 0.5:
			constrs = append(constrs, solver.PropClause(-lit))
		}
	}

	for _, c := range m.Constrs {
		vals := append(append([]float64(nil), c.Val...), c.RHS)
		scale, ok := integralScale(vals)
		if !ok {
			return nil, fmt.Errorf("%w: row %s", ErrFractionalCoefficient, c.Name)
		}
		rhs := int(math.Round(c.RHS * scale))
		mk := func() ([]int, []int) {
			lits := make([]int, len(c.Ind))
			weights := make([]int, len(c.Ind))
			for k, j := range c.Ind {
				lits[k] = int(j) + 1
				weights[k] = int(math.Round(c.Val[k] * scale))
			}
			return lits, weights
		}
		switch c.Sense {
		case ilp.GreaterEqual:
			lits, weights := mk()
			constrs = append(constrs, solver.GtEq(lits, weights, rhs))
		case ilp.LessEqual:
			lits, weights := mk()
			constrs = append(constrs, solver.LtEq(lits, weights, rhs))
		case ilp.Equal:
			lits, weights := mk()
			constrs = append(constrs, solver.GtEq(lits, weights, rhs))
			lits, weights = mk()
			constrs = append(constrs, solver.LtEq(lits, weights, rhs))
		}
	}
	pb := solver.ParsePBConstrs(constrs)

	sign := float64(m.ModelSense)
	if sign == 0 {
		sign = 1
	}
	costs := make([]float64, 0, n)
	for _, v := range m.Vars {
		if v.Obj != 0 {
			costs = append(costs, v.Obj)
		}
	}
	scale, ok := integralScale(costs)
	if !ok {
		return nil, fmt.Errorf("%w: objective", ErrFractionalCoefficient)
	}
	lits := []solver.Lit{}
	weights := []int{}
	for j, v := range m.Vars {
		w := int(math.Round(sign * v.Obj * scale))
		if w == 0 {
			continue
		}
		lit := int32(j + 1)
		if w < 0 {
			// w*x = w + |w|*(not x); the constant does not move the optimum
			lit, w = -lit, -w
		}
		lits = append(lits, solver.IntToLit(lit))
		weights = append(weights, w)
	}
	pb.SetCostFunc(lits, weights)
	return pb, nil
}

// integralScale finds the smallest power of ten turning every value into an
// integer.
func integralScale(vals []float64) (float64, bool) {
	scale := 1.0
	for d := 0; d <= maxDecimals; d++ {
		ok := true
		for _, v := range vals {
			sv := v * scale
			if math.IsNaN(sv) || math.IsInf(sv, 0) || math.Abs(sv) > math.MaxInt32 || math.Abs(sv-math.Round(sv)) > 1e-9*math.Max(1, math.Abs(sv)) {
				ok = false
				break
			}
		}
		if ok {
			return scale, true
		}
		scale *= 10
	}
	return 0, false
}
