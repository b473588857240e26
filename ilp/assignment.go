package ilp

import (
	"fmt"
	"math"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
)

// AssignmentVars maps switches and (flow, switch) pairs to model columns.
// Y[f][k] is the column of the pair (f, inc.Coverage[f][k]).
type AssignmentVars struct {
	X []int
	Y [][]int
}

// BuildAssignmentModel builds the capacitated set cover with explicit
// assignment:
//
//	min  sum x_s + lambda * sum y_fs
//	s.t. sum_s y_fs = 1                 for every flow f
//	     y_fs <= x_s                    for every s on the path of f
//	     sum_f y_fs <= cap_s * x_s      for every s with cap_s > 0
//
// caps overrides the capacities carried by inc; both may be nil.
func BuildAssignmentModel(inc *flowcover.Incidence, lambda float64, caps []float64) (*Model, *AssignmentVars, error) {
	if lambda < 0 || math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return nil, nil, fmt.Errorf("%w: lambda=%v", flowcover.ErrInvalidPenalty, lambda)
	}
	capArr, err := inc.CapacityArray(caps)
	if err != nil {
		return nil, nil, err
	}

	model := NewModel("switch_assignment")
	vars := &AssignmentVars{
		X: make([]int, inc.NumSwitches()),
		Y: make([][]int, inc.NumFlows()),
	}

	log.Debugf("Adding %d variables x_s...", inc.NumSwitches())
	for sid := range inc.SwitchNames {
		j, err := model.AddVar(1.0, 0.0, 1.0, Binary, fmt.Sprintf("x_%d", sid))
		if err != nil {
			return nil, nil, err
		}
		vars.X[sid] = j
	}

	log.Debugf("Adding assignment variables y_f_s for %d flows...", inc.NumFlows())
	for fid, cover := range inc.Coverage {
		vars.Y[fid] = make([]int, len(cover))
		ind := make([]int32, len(cover))
		val := make([]float64, len(cover))
		for k, sid := range cover {
			j, err := model.AddVar(lambda, 0.0, 1.0, Binary, fmt.Sprintf("y_%d_%d", fid, sid))
			if err != nil {
				return nil, nil, err
			}
			vars.Y[fid][k] = j
			ind[k] = int32(j)
			val[k] = 1.0

			err = model.AddConstr([]int32{int32(j), int32(vars.X[sid])}, []float64{1.0, -1.0}, LessEqual, 0.0,
				fmt.Sprintf("assign_implies_select_f%d_s%d", fid, sid))
			if err != nil {
				return nil, nil, err
			}
		}
		if err := model.AddConstr(ind, val, Equal, 1.0, fmt.Sprintf("assign_once_f%d", fid)); err != nil {
			return nil, nil, err
		}
	}

	if capArr != nil {
		log.Debugf("Adding capacity constraints...")
		for sid, flows := range inc.SwitchFlows {
			capVal := capArr[sid]
			if capVal <= 0 {
				continue
			}
			ind := make([]int32, 0, len(flows)+1)
			val := make([]float64, 0, len(flows)+1)
			for _, fid := range flows {
				for k, s := range inc.Coverage[fid] {
					if s == sid {
						ind = append(ind, int32(vars.Y[fid][k]))
						val = append(val, 1.0)
						break
					}
				}
			}
			ind = append(ind, int32(vars.X[sid]))
			val = append(val, -capVal)
			if err := model.AddConstr(ind, val, LessEqual, 0.0, fmt.Sprintf("capacity_s%d", sid)); err != nil {
				return nil, nil, err
			}
		}
	}
	return model, vars, nil
}

// Selection reads the selected switches, ascending, from a solution vector.
func (av *AssignmentVars) Selection(x []float64) flowcover.Selection {
	return selected(av.X, x)
}

// Assignment reads the flow to switch assignment from a solution vector.
func (av *AssignmentVars) Assignment(inc *flowcover.Incidence, x []float64) flowcover.Assignment {
	asg := make(flowcover.Assignment, inc.NumFlows())
	for fid, cols := range av.Y {
		for k, j := range cols {
			if j < len(x) && x[j] > 0.5 {
				asg[fid] = inc.Coverage[fid][k]
				break
			}
		}
	}
	return asg
}
