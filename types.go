package flowcover

// Record is one line of a flow-path file: a flow identifier and the ordered
// list of switches its path traverses.
type Record struct {
	ID   string
	Path []string
}

// Incidence is the flow/switch incidence structure every solver and evaluator
// works on. It is built once by NewIncidence and never modified afterwards.
type Incidence struct {
	FlowNames   []string
	SwitchNames []string

	// Coverage holds, per flow, the switches on its path in the order they
	// were first referenced by that path.
	Coverage [][]int
	// SwitchFlows is the inverse of Coverage: per switch, the ascending flow
	// indices whose path contains it.
	SwitchFlows [][]int
	// Capacities is nil for uncapacitated instances, otherwise one entry per
	// switch where 0 means unlimited.
	Capacities []float64

	switchIndex map[string]int
	flowIndex   map[string]int
}

// Selection is a set of chosen switch indices.
type Selection []int

// Assignment maps a flow index to the switch index serving it.
type Assignment map[int]int

// Status is the terminal state of a solve.
type Status string

const (
	Unsolved   Status = "Unsolved"
	Optimal    Status = "Optimal"
	Heuristic  Status = "Heuristic"
	Infeasible Status = "Infeasible"
	NotSolved  Status = "NotSolved"
)

// CapacityViolation reports a switch serving more flows than it may.
type CapacityViolation struct {
	Switch   int     `json:"switch"`
	Assigned int     `json:"assigned"`
	Capacity float64 `json:"capacity"`
}

// AssignmentCheck is the outcome of CheckAssignment.
type AssignmentCheck struct {
	CoverageOK     bool                `json:"coverage_ok"`
	CapacityOK     bool                `json:"capacity_ok"`
	CoverageErrors []int               `json:"coverage_errors"`
	CapacityErrors []CapacityViolation `json:"capacity_errors"`
}

// Solution is the report written for every run, whichever strategy produced it.
type Solution struct {
	RunID     string   `json:"run_id"`
	Input     string   `json:"input,omitempty"`
	Model     string   `json:"model"`
	Backend   string   `json:"backend,omitempty"`
	Status    Status   `json:"status"`
	Objective *float64 `json:"objective"`
	Lambda    *float64 `json:"lambda,omitempty"`

	SelectedSwitchIDs   []int             `json:"selected_switch_ids"`
	SelectedSwitchNames []string          `json:"selected_switch_names"`
	AssignmentsByID     map[int]int       `json:"assignments_by_id,omitempty"`
	Assignments         map[string]string `json:"assignments,omitempty"`

	CoverOK        bool  `json:"cover_ok"`
	UncoveredFlows []int `json:"uncovered_flows"`
	*AssignmentCheck

	Time    string  `json:"time"`
	System  SysInfo `json:"system"`
	Comment string  `json:"comment"`
}

// SysInfo saves the basic system information
type SysInfo struct {
	Platform string
	CPU      string
	RAM      string
}
