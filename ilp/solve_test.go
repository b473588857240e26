package ilp_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"git.solver4all.com/azaryc2s/flowcover"
	"git.solver4all.com/azaryc2s/flowcover/ilp"
	_ "git.solver4all.com/azaryc2s/flowcover/ilp/branchbound"
	_ "git.solver4all.com/azaryc2s/flowcover/ilp/pseudobool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = []string{"branchbound", "pseudobool"}

func solver(t *testing.T, name string) ilp.Solver {
	t.Helper()
	s, err := ilp.Lookup(name, ilp.Options{})
	require.NoError(t, err)
	return s
}

func incidence(t *testing.T, caps map[string]float64, paths ...[]string) *flowcover.Incidence {
	t.Helper()
	records := make([]flowcover.Record, len(paths))
	for i, p := range paths {
		records[i] = flowcover.Record{ID: fmt.Sprintf("F%d", i), Path: p}
	}
	inc, err := flowcover.NewIncidence(records, caps)
	require.NoError(t, err)
	return inc
}

func randomIncidence(t *testing.T, rng *rand.Rand) *flowcover.Incidence {
	flows, switches := 2+rng.Intn(9), 2+rng.Intn(6)
	paths := make([][]string, flows)
	for f := range paths {
		n := 1 + rng.Intn(3)
		for k := 0; k < n; k++ {
			paths[f] = append(paths[f], fmt.Sprintf("S%d", rng.Intn(switches)))
		}
	}
	return incidence(t, nil, paths...)
}

func TestBackendsRegistered(t *testing.T) {
	assert.Subset(t, ilp.Backends(), backends)
}

func TestCoverScenario(t *testing.T) {
	inc := incidence(t, nil, []string{"S0", "S1"}, []string{"S1"}, []string{"S2"})
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			sol, err := ilp.SolveCover(context.Background(), inc, solver(t, name), ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Optimal, sol.Status)
			require.NotNil(t, sol.Objective)
			assert.InDelta(t, 2.0, *sol.Objective, 1e-9)
			assert.Equal(t, []int{1, 2}, sol.SelectedSwitchIDs)
			assert.True(t, sol.Valid())
		})
	}
}

func TestEmptyIncidence(t *testing.T) {
	inc, err := flowcover.NewIncidence(nil, nil)
	require.NoError(t, err)
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			sol, err := ilp.SolveCover(context.Background(), inc, solver(t, name), ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Optimal, sol.Status)
			require.NotNil(t, sol.Objective)
			assert.Equal(t, 0.0, *sol.Objective)
			assert.Empty(t, sol.SelectedSwitchIDs)

			sol, err = ilp.SolveAssignment(context.Background(), inc, solver(t, name), 0, ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Optimal, sol.Status)
			require.NotNil(t, sol.Objective)
			assert.Equal(t, 0.0, *sol.Objective)
		})
	}
}

func TestAssignmentInfeasibleCapacity(t *testing.T) {
	inc := incidence(t, map[string]float64{"S0": 1}, []string{"S0"}, []string{"S0"})
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			sol, err := ilp.SolveAssignment(context.Background(), inc, solver(t, name), 0, ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Infeasible, sol.Status)
			assert.Nil(t, sol.Objective)
		})
	}
}

func TestAssignmentCapacityForcesExtraSwitch(t *testing.T) {
	inc := incidence(t, map[string]float64{"S1": 1}, []string{"S0", "S1"}, []string{"S1"}, []string{"S2"})
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			sol, err := ilp.SolveAssignment(context.Background(), inc, solver(t, name), 0, ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Optimal, sol.Status)
			assert.InDelta(t, 3.0, *sol.Objective, 1e-9)
			assert.Equal(t, map[string]string{"F0": "S0", "F1": "S1", "F2": "S2"}, sol.Assignments)
			assert.True(t, sol.CapacityOK)
			assert.True(t, sol.Valid())
		})
	}
}

func TestAssignmentPenalty(t *testing.T) {
	inc := incidence(t, nil, []string{"S0", "S1"}, []string{"S1"}, []string{"S2"})
	for _, name := range backends {
		t.Run(name, func(t *testing.T) {
			sol, err := ilp.SolveAssignment(context.Background(), inc, solver(t, name), 0.5, ilp.SolveOptions{})
			require.NoError(t, err)
			assert.Equal(t, flowcover.Optimal, sol.Status)
			// two switches plus one assignment per flow
			assert.InDelta(t, 3.5, *sol.Objective, 1e-9)
			assert.Equal(t, 0.5, *sol.Lambda)
			assert.True(t, sol.Valid())
		})
	}
}

func TestExactNeverWorseThanGreedy(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 25; i++ {
		inc := randomIncidence(t, rng)
		greedy := flowcover.RunGreedy(inc)

		var objs []float64
		for _, name := range backends {
			sol, err := ilp.SolveCover(context.Background(), inc, solver(t, name), ilp.SolveOptions{})
			require.NoError(t, err)
			require.Equal(t, flowcover.Optimal, sol.Status, "instance %d backend %s", i, name)
			require.True(t, sol.Valid())
			assert.LessOrEqual(t, *sol.Objective, *greedy.Objective+1e-9)
			objs = append(objs, *sol.Objective)
		}
		assert.InDelta(t, objs[0], objs[1], 1e-9, "backends disagree on instance %d", i)
	}
}

func TestBackendsAgreeOnAssignment(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 15; i++ {
		inc := randomIncidence(t, rng)
		caps := make([]float64, inc.NumSwitches())
		for sid := range caps {
			caps[sid] = float64(rng.Intn(3))
		}
		capped, err := inc.WithCapacities(caps)
		require.NoError(t, err)

		var results []*flowcover.Solution
		for _, name := range backends {
			sol, err := ilp.SolveAssignment(context.Background(), capped, solver(t, name), 0.25, ilp.SolveOptions{})
			require.NoError(t, err)
			results = append(results, sol)
		}
		require.Equal(t, results[0].Status, results[1].Status, "instance %d", i)
		if results[0].Status == flowcover.Optimal {
			assert.InDelta(t, *results[0].Objective, *results[1].Objective, 1e-9, "instance %d", i)
			assert.True(t, results[0].Valid())
			assert.True(t, results[1].Valid())
		}
	}
}
