package flowcover

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// NewSolution starts a report for the named model in the given state.
func NewSolution(model string, status Status) *Solution {
	return &Solution{
		RunID:               uuid.NewString(),
		Model:               model,
		Status:              status,
		SelectedSwitchIDs:   []int{},
		SelectedSwitchNames: []string{},
		UncoveredFlows:      []int{},
	}
}

func (sol *Solution) SetObjective(obj float64) {
	sol.Objective = &obj
}

func (sol *Solution) SetLambda(lambda float64) {
	sol.Lambda = &lambda
}

// Fill records a selection and an optional assignment and runs the evaluator
// on both. Names are resolved through inc.
func (sol *Solution) Fill(inc *Incidence, sel Selection, asg Assignment) {
	sol.SelectedSwitchIDs = append([]int{}, sel...)
	sol.SelectedSwitchNames = inc.SwitchNamesOf(sel)
	sol.CoverOK, sol.UncoveredFlows = CheckCoverage(inc, sel)

	if asg == nil {
		sol.AssignmentsByID = nil
		sol.Assignments = nil
		sol.AssignmentCheck = nil
		return
	}
	sol.AssignmentsByID = make(map[int]int, len(asg))
	sol.Assignments = make(map[string]string, len(asg))
	for fid, sid := range asg {
		sol.AssignmentsByID[fid] = sid
		if fid >= 0 && fid < inc.NumFlows() && sid >= 0 && sid < inc.NumSwitches() {
			sol.Assignments[inc.FlowNames[fid]] = inc.SwitchNames[sid]
		}
	}
	check := CheckAssignment(inc, asg, nil)
	sol.AssignmentCheck = &check
}

// Valid reports whether the evaluator accepted the solution.
func (sol *Solution) Valid() bool {
	if !sol.CoverOK {
		return false
	}
	if sol.AssignmentCheck != nil {
		return sol.CoverageOK && sol.CapacityOK
	}
	return true
}

// Resolve returns the selection of a solution read back from disk, mapping
// switch names to ids when the ids are absent. Unknown names are dropped.
func (sol *Solution) Resolve(inc *Incidence) Selection {
	if len(sol.SelectedSwitchIDs) > 0 || len(sol.SelectedSwitchNames) == 0 {
		return append(Selection{}, sol.SelectedSwitchIDs...)
	}
	sel := make(Selection, 0, len(sol.SelectedSwitchNames))
	for _, name := range sol.SelectedSwitchNames {
		if sid, ok := inc.SwitchIndex(name); ok {
			sel = append(sel, sid)
		}
	}
	return sel
}

// ResolveAssignment does the same for assignments, preferring ids. It returns
// nil when the solution carries no assignment.
func (sol *Solution) ResolveAssignment(inc *Incidence) Assignment {
	if len(sol.AssignmentsByID) > 0 {
		asg := make(Assignment, len(sol.AssignmentsByID))
		for fid, sid := range sol.AssignmentsByID {
			asg[fid] = sid
		}
		return asg
	}
	if len(sol.Assignments) == 0 {
		return nil
	}
	asg := make(Assignment, len(sol.Assignments))
	for flow, sw := range sol.Assignments {
		fid, okF := inc.FlowIndex(flow)
		sid, okS := inc.SwitchIndex(sw)
		if okF && okS {
			asg[fid] = sid
		}
	}
	return asg
}

// WriteSolution writes solution.json into dir.
func WriteSolution(dir string, sol *Solution) (string, error) {
	jsonSol, err := json.MarshalIndent(sol, "", "  ")
	if err != nil {
		return "", err
	}
	jsonSol = []byte(SanitizeJsonArrayLineBreaks(string(jsonSol)))
	fileName := filepath.Join(dir, "solution.json")
	if err = os.WriteFile(fileName, jsonSol, 0644); err != nil {
		return "", err
	}
	return fileName, nil
}

// ReadSolution loads a solution file written by WriteSolution.
func ReadSolution(fileName string) (*Solution, error) {
	solStr, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	var sol Solution
	if err = json.Unmarshal(solStr, &sol); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return &sol, nil
}

// WriteSummary writes the human readable summary.txt next to the solution.
func WriteSummary(dir string, inc *Incidence, sol *Solution) error {
	var b strings.Builder
	fmt.Fprintln(&b, inc.Summary())
	fmt.Fprintf(&b, "Model: %s\n", sol.Model)
	if sol.Backend != "" {
		fmt.Fprintf(&b, "Backend: %s\n", sol.Backend)
	}
	if sol.Lambda != nil {
		fmt.Fprintf(&b, "Lambda: %g\n", *sol.Lambda)
	}
	fmt.Fprintf(&b, "Status: %s\n", sol.Status)
	if sol.Objective != nil {
		fmt.Fprintf(&b, "Objective: %g\n", *sol.Objective)
	} else {
		fmt.Fprintln(&b, "Objective: None")
	}
	if sol.Status == NotSolved {
		fmt.Fprintln(&b, "Model not solved.")
	} else {
		fmt.Fprintf(&b, "Selected switches: %d\n", len(sol.SelectedSwitchIDs))
		fmt.Fprintf(&b, "Coverage ok: %t\n", sol.CoverOK)
		fmt.Fprintf(&b, "Uncovered flows: %d\n", len(sol.UncoveredFlows))
		if sol.AssignmentCheck != nil {
			fmt.Fprintf(&b, "Assignment coverage ok: %t\n", sol.CoverageOK)
			fmt.Fprintf(&b, "Capacity ok: %t\n", sol.CapacityOK)
			for _, v := range sortedViolations(sol.CapacityErrors) {
				fmt.Fprintf(&b, "  switch %s: %d assigned, capacity %g\n", switchName(inc, v.Switch), v.Assigned, v.Capacity)
			}
		}
	}
	if sol.Time != "" {
		fmt.Fprintf(&b, "Time: %s\n", sol.Time)
	}
	return os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(b.String()), 0644)
}

func sortedViolations(v []CapacityViolation) []CapacityViolation {
	out := append([]CapacityViolation(nil), v...)
	sort.Slice(out, func(i, j int) bool { return out[i].Switch < out[j].Switch })
	return out
}

func switchName(inc *Incidence, sid int) string {
	if sid >= 0 && sid < inc.NumSwitches() {
		return inc.SwitchNames[sid]
	}
	return fmt.Sprintf("#%d", sid)
}
