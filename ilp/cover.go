package ilp

import (
	"fmt"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
)

// CoverVars maps switches to the columns of a set cover model.
type CoverVars struct {
	X []int
}

// BuildCoverModel builds the minimum set cover program: a binary x_s per
// switch, one covering row per flow and the number of selected switches as
// objective.
func BuildCoverModel(inc *flowcover.Incidence) (*Model, *CoverVars, error) {
	model := NewModel("set_cover_switches")
	vars := &CoverVars{X: make([]int, inc.NumSwitches())}

	/* Add variables x_s - one for every switch */
	log.Debugf("Adding %d variables x_s...", inc.NumSwitches())
	for sid := range inc.SwitchNames {
		j, err := model.AddVar(1.0, 0.0, 1.0, Binary, fmt.Sprintf("x_%d", sid))
		if err != nil {
			return nil, nil, err
		}
		vars.X[sid] = j
	}

	log.Debugf("Adding %d flow covering constraints...", inc.NumFlows())
	for fid, cover := range inc.Coverage {
		ind := make([]int32, len(cover))
		val := make([]float64, len(cover))
		for k, sid := range cover {
			ind[k] = int32(vars.X[sid])
			val[k] = 1.0
		}
		if err := model.AddConstr(ind, val, GreaterEqual, 1.0, fmt.Sprintf("cover_flow_%d", fid)); err != nil {
			return nil, nil, err
		}
	}
	return model, vars, nil
}

// Selection reads the selected switches, ascending, from a solution vector.
func (cv *CoverVars) Selection(x []float64) flowcover.Selection {
	return selected(cv.X, x)
}

func selected(cols []int, x []float64) flowcover.Selection {
	sel := flowcover.Selection{}
	for sid, j := range cols {
		if j < len(x) && x[j] > 0.5 {
			sel = append(sel, sid)
		}
	}
	return sel
}
