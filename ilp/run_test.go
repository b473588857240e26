package ilp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"git.solver4all.com/azaryc2s/flowcover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSolver returns a canned result.
type fixedSolver struct {
	res *Result
	err error
}

func (s *fixedSolver) Name() string { return "fixed" }

func (s *fixedSolver) Solve(ctx context.Context, m *Model) (*Result, error) {
	return s.res, s.err
}

func TestSolveCoverOptimal(t *testing.T) {
	inc := threeFlows(t, nil)
	s := &fixedSolver{res: &Result{Status: StatusOptimal, Objective: 2, X: []float64{0, 1, 1}}}

	sol, err := SolveCover(context.Background(), inc, s, SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, flowcover.Optimal, sol.Status)
	assert.Equal(t, "cover", sol.Model)
	assert.Equal(t, "fixed", sol.Backend)
	require.NotNil(t, sol.Objective)
	assert.Equal(t, 2.0, *sol.Objective)
	assert.Equal(t, []string{"S1", "S2"}, sol.SelectedSwitchNames)
	assert.True(t, sol.CoverOK)
	assert.Nil(t, sol.AssignmentCheck)
	assert.Empty(t, sol.Comment)
}

func TestSolveCoverRejectsBadSolverOutput(t *testing.T) {
	inc := threeFlows(t, nil)
	s := &fixedSolver{res: &Result{Status: StatusOptimal, Objective: 1, X: []float64{0, 1, 0}}}

	sol, err := SolveCover(context.Background(), inc, s, SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, flowcover.Optimal, sol.Status)
	assert.False(t, sol.Valid())
	assert.Equal(t, []int{2}, sol.UncoveredFlows)
	assert.Equal(t, "solver solution failed validation", sol.Comment)
}

func TestSolveStatuses(t *testing.T) {
	inc := threeFlows(t, nil)

	sol, err := SolveAssignment(context.Background(), inc, &fixedSolver{res: &Result{Status: StatusInfeasible}}, 1, SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, flowcover.Infeasible, sol.Status)
	assert.Nil(t, sol.Objective)
	require.NotNil(t, sol.Lambda)
	assert.Equal(t, 1.0, *sol.Lambda)
	assert.False(t, sol.CoverOK)
	assert.Equal(t, []int{0, 1, 2}, sol.UncoveredFlows)

	sol, err = SolveCover(context.Background(), inc, &fixedSolver{res: &Result{Status: StatusInterrupted}}, SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, flowcover.NotSolved, sol.Status)
	assert.Equal(t, "solver stopped: Interrupted", sol.Comment)

	boom := errors.New("boom")
	_, err = SolveCover(context.Background(), inc, &fixedSolver{err: boom}, SolveOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestSolveSkipWritesModel(t *testing.T) {
	inc := threeFlows(t, map[string]float64{"S1": 1})
	lpFile := filepath.Join(t.TempDir(), "model.lp")

	sol, err := SolveAssignment(context.Background(), inc, nil, 0, SolveOptions{SkipSolve: true, LPFile: lpFile})
	require.NoError(t, err)
	assert.Equal(t, flowcover.NotSolved, sol.Status)
	assert.Equal(t, "solve skipped", sol.Comment)
	assert.Empty(t, sol.SelectedSwitchIDs)

	data, err := os.ReadFile(lpFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "capacity_s1:")

	_, err = SolveCover(context.Background(), inc, nil, SolveOptions{})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestRegistry(t *testing.T) {
	Register("fixed-test", func(opts Options) Solver { return &fixedSolver{} })
	assert.Panics(t, func() {
		Register("fixed-test", func(opts Options) Solver { return &fixedSolver{} })
	})
	assert.Contains(t, Backends(), "fixed-test")

	s, err := Lookup("fixed-test", Options{})
	require.NoError(t, err)
	assert.Equal(t, "fixed", s.Name())

	_, err = Lookup("nope", Options{})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
