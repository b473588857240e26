package ilp

import (
	"context"
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
)

// SolveOptions control a single exact run.
type SolveOptions struct {
	// SkipSolve builds (and possibly writes) the model without solving it.
	SkipSolve bool
	// LPFile, when set, receives the model in CPLEX LP format before solving.
	LPFile string
}

type extractFunc func(x []float64) (flowcover.Selection, flowcover.Assignment)

// SolveCover builds the set cover model of inc, solves it with s and returns
// the evaluated report.
func SolveCover(ctx context.Context, inc *flowcover.Incidence, s Solver, opts SolveOptions) (*flowcover.Solution, error) {
	model, vars, err := BuildCoverModel(inc)
	if err != nil {
		return nil, err
	}
	return solve(ctx, inc, model, s, opts, "cover", func(x []float64) (flowcover.Selection, flowcover.Assignment) {
		return vars.Selection(x), nil
	})
}

// SolveAssignment builds the capacitated assignment model of inc with the
// given penalty, solves it with s and returns the evaluated report.
func SolveAssignment(ctx context.Context, inc *flowcover.Incidence, s Solver, lambda float64, opts SolveOptions) (*flowcover.Solution, error) {
	model, vars, err := BuildAssignmentModel(inc, lambda, nil)
	if err != nil {
		return nil, err
	}
	sol, err := solve(ctx, inc, model, s, opts, "assign", func(x []float64) (flowcover.Selection, flowcover.Assignment) {
		return vars.Selection(x), vars.Assignment(inc, x)
	})
	if err != nil {
		return nil, err
	}
	sol.SetLambda(lambda)
	return sol, nil
}

func solve(ctx context.Context, inc *flowcover.Incidence, model *Model, s Solver, opts SolveOptions, name string, extract extractFunc) (*flowcover.Solution, error) {
	sol := flowcover.NewSolution(name, flowcover.Unsolved)
	if s != nil {
		sol.Backend = s.Name()
	}
	if opts.LPFile != "" {
		if err := WriteLPFile(opts.LPFile, model); err != nil {
			return nil, fmt.Errorf("write model: %w", err)
		}
	}
	if opts.SkipSolve {
		sol.Status = flowcover.NotSolved
		sol.Comment = "solve skipped"
		sol.Fill(inc, nil, nil)
		return sol, nil
	}
	if s == nil {
		return nil, ErrNoBackend
	}

	log.Infof("Solving %s model (%d vars, %d constrs) with %s", model.Name, model.NumVars(), model.NumConstrs(), s.Name())
	startTime := time.Now()
	res, err := s.Solve(ctx, model)
	sol.Time = time.Since(startTime).String()
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", s.Name(), err)
	}
	log.Infof("---OPTIMIZATION DONE--- status=%s nodes=%d time=%s", res.Status, res.Nodes, sol.Time)

	switch res.Status {
	case StatusOptimal:
		sol.Status = flowcover.Optimal
		sol.SetObjective(res.Objective)
		sel, asg := extract(res.X)
		sol.Fill(inc, sel, asg)
		if !sol.Valid() {
			log.Warnf("Solution of %s model failed validation: cover_ok=%t", model.Name, sol.CoverOK)
			sol.Comment = "solver solution failed validation"
		}
	case StatusInfeasible:
		sol.Status = flowcover.Infeasible
		sol.Fill(inc, nil, nil)
	default:
		sol.Status = flowcover.NotSolved
		sol.Comment = fmt.Sprintf("solver stopped: %s", res.Status)
		sol.Fill(inc, nil, nil)
	}
	return sol, nil
}
