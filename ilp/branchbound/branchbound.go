// Package branchbound is a pure Go integer-programming backend: depth-first
// branch and bound over LP relaxations solved with gonum's simplex.
//
// It is meant for the instance sizes of tests and small topologies. Larger
// instances should go through a backend with a dedicated MIP solver.
package branchbound

import (
	"context"
	"fmt"
	"math"

	"git.solver4all.com/azaryc2s/flowcover/ilp"
	log "github.com/sirupsen/logrus"
)

const Name = "branchbound"

const (
	defaultTol = 1e-9
	intTol     = 1e-6
)

func init() {
	ilp.Register(Name, func(opts ilp.Options) ilp.Solver { return New(opts) })
}

type Solver struct {
	nodeLimit int
	tol       float64
}

func New(opts ilp.Options) *Solver {
	tol := opts.Tolerance
	if tol <= 0 {
		tol = defaultTol
	}
	return &Solver{nodeLimit: opts.NodeLimit, tol: tol}
}

func (s *Solver) Name() string { return Name }

type node struct {
	lb, ub []float64
	depth  int
}

// Solve runs the search until optimality is proven, the node limit is
// reached or ctx ends. In the last two cases the best point found so far is
// returned with StatusInterrupted.
func (s *Solver) Solve(ctx context.Context, m *ilp.Model) (*ilp.Result, error) {
	n := m.NumVars()
	sign := float64(m.ModelSense)
	if sign == 0 {
		sign = 1
	}
	cost := make([]float64, n)
	rootLB := make([]float64, n)
	rootUB := make([]float64, n)
	objIntegral := true
	for j, v := range m.Vars {
		if math.IsInf(v.LB, -1) {
			return nil, fmt.Errorf("%w: variable %s has no finite lower bound", ilp.ErrBadModel, v.Name)
		}
		cost[j] = sign * v.Obj
		rootLB[j], rootUB[j] = v.LB, v.UB
		if v.Type != ilp.Continuous {
			rootLB[j], rootUB[j] = math.Ceil(v.LB-intTol), math.Floor(v.UB+intTol)
		}
		if cost[j] != 0 && (v.Type == ilp.Continuous || cost[j] != math.Round(cost[j])) {
			objIntegral = false
		}
	}

	res := &ilp.Result{Status: ilp.StatusInfeasible}
	best := math.Inf(1)
	var bestX []float64
	found := false

	stack := []node{{lb: rootLB, ub: rootUB}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			log.Debugf("branchbound: interrupted after %d nodes: %v", res.Nodes, err)
			res.Status = ilp.StatusInterrupted
			break
		}
		if s.nodeLimit > 0 && res.Nodes >= s.nodeLimit {
			log.Debugf("branchbound: node limit %d reached", s.nodeLimit)
			res.Status = ilp.StatusInterrupted
			break
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.Nodes++

		r := relax(m, cost, nd.lb, nd.ub, s.tol)
		switch r.status {
		case relaxInfeasible:
			continue
		case relaxUnbounded:
			if nd.depth == 0 {
				return &ilp.Result{Status: ilp.StatusUnbounded, Nodes: res.Nodes}, nil
			}
			continue
		case relaxFailed:
			j := firstUnfixed(m, nd)
			if j < 0 {
				if x := nd.lb; m.Feasible(x, intTol) {
					if obj := dot(cost, x); obj < best {
						best, bestX, found = obj, append(make([]float64, 0, len(x)), x...), true
					}
				}
				continue
			}
			mid := math.Floor((nd.lb[j] + nd.ub[j]) / 2)
			stack = append(stack, child(nd, j, mid+1, nd.ub[j]), child(nd, j, nd.lb[j], mid))
			continue
		}

		if bound := r.obj; prune(bound, best, objIntegral) {
			continue
		}
		j, frac := mostFractional(m, r.x)
		if j < 0 {
			x := roundIntegers(m, r.x)
			if !m.Feasible(x, intTol) {
				log.Debugf("branchbound: rounded LP point infeasible at node %d", res.Nodes)
				continue
			}
			if obj := dot(cost, x); obj < best {
				best, bestX, found = obj, x, true
			}
			continue
		}

		down := child(nd, j, nd.lb[j], math.Floor(r.x[j]))
		up := child(nd, j, math.Ceil(r.x[j]), nd.ub[j])
		// the nearer side is explored first
		if frac >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if !found {
		if res.Status == ilp.StatusInterrupted {
			res.Status = ilp.StatusNotSolved
		}
		return res, nil
	}
	if res.Status != ilp.StatusInterrupted {
		res.Status = ilp.StatusOptimal
	}
	res.X = bestX
	res.Objective = m.ObjectiveValue(bestX)
	return res, nil
}

func prune(bound, best float64, objIntegral bool) bool {
	if math.IsInf(best, 1) {
		return false
	}
	if objIntegral {
		return math.Ceil(bound-intTol) >= best-intTol
	}
	return bound >= best-intTol
}

// mostFractional returns the integer variable whose LP value is farthest from
// integral, together with its fractional part, or -1.
func mostFractional(m *ilp.Model, x []float64) (int, float64) {
	best, bestFrac, bestDist := -1, 0.0, intTol
	for j, v := range m.Vars {
		if v.Type == ilp.Continuous {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestFrac, bestDist = j, frac, dist
		}
	}
	return best, bestFrac
}

func firstUnfixed(m *ilp.Model, nd node) int {
	for j, v := range m.Vars {
		if v.Type != ilp.Continuous && nd.ub[j] > nd.lb[j] && !math.IsInf(nd.ub[j], 1) {
			return j
		}
	}
	return -1
}

func child(nd node, j int, lo, hi float64) node {
	lb := append([]float64(nil), nd.lb...)
	ub := append([]float64(nil), nd.ub...)
	lb[j], ub[j] = lo, hi
	return node{lb: lb, ub: ub, depth: nd.depth + 1}
}

func roundIntegers(m *ilp.Model, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for j, v := range m.Vars {
		if v.Type != ilp.Continuous {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
