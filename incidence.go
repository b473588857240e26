package flowcover

import (
	"fmt"
	"math"
	"slices"
)

// NewIncidence builds the incidence structure from flow records. Switches are
// numbered in the order they are first met while scanning the paths, flows in
// input order. capacities may be nil; otherwise every key must name a switch
// found on some path.
func NewIncidence(records []Record, capacities map[string]float64) (*Incidence, error) {
	inc := &Incidence{
		FlowNames:   make([]string, 0, len(records)),
		Coverage:    make([][]int, 0, len(records)),
		switchIndex: make(map[string]int),
		flowIndex:   make(map[string]int, len(records)),
	}

	for i, rec := range records {
		if rec.ID == "" {
			return nil, &RecordError{Line: i + 1, Reason: "missing flow identifier"}
		}
		if rec.Path == nil {
			return nil, &RecordError{Line: i + 1, FlowID: rec.ID, Reason: "missing path"}
		}
		if len(rec.Path) == 0 {
			return nil, &RecordError{Line: i + 1, FlowID: rec.ID, Reason: "empty path"}
		}

		fid := len(inc.FlowNames)
		inc.FlowNames = append(inc.FlowNames, rec.ID)
		if _, dup := inc.flowIndex[rec.ID]; !dup {
			inc.flowIndex[rec.ID] = fid
		}

		cover := make([]int, 0, len(rec.Path))
		for _, node := range rec.Path {
			sid, ok := inc.switchIndex[node]
			if !ok {
				sid = len(inc.SwitchNames)
				inc.switchIndex[node] = sid
				inc.SwitchNames = append(inc.SwitchNames, node)
			}
			if !slices.Contains(cover, sid) {
				cover = append(cover, sid)
			}
		}
		inc.Coverage = append(inc.Coverage, cover)
	}

	inc.SwitchFlows = make([][]int, len(inc.SwitchNames))
	for fid, cover := range inc.Coverage {
		for _, sid := range cover {
			inc.SwitchFlows[sid] = append(inc.SwitchFlows[sid], fid)
		}
	}

	if capacities != nil {
		caps := make([]float64, len(inc.SwitchNames))
		for name, val := range capacities {
			sid, ok := inc.switchIndex[name]
			if !ok {
				return nil, fmt.Errorf("capacity entry for switch %q: %w", name, ErrUnknownSwitchReference)
			}
			if err := validateCapacity(val); err != nil {
				return nil, fmt.Errorf("capacity entry for switch %q: %w", name, err)
			}
			caps[sid] = val
		}
		inc.Capacities = caps
	}
	return inc, nil
}

// WithCapacities returns a copy of inc that carries the given dense capacity
// array. The copy shares the immutable incidence arrays with inc.
func (inc *Incidence) WithCapacities(caps []float64) (*Incidence, error) {
	if caps != nil {
		if err := inc.checkCapacityShape(caps); err != nil {
			return nil, err
		}
		for sid, val := range caps {
			if err := validateCapacity(val); err != nil {
				return nil, fmt.Errorf("capacity of switch %d: %w", sid, err)
			}
		}
		caps = append([]float64(nil), caps...)
	}
	cp := *inc
	cp.Capacities = caps
	return &cp, nil
}

// CapacityArray resolves the capacities used by a check or model: an explicit
// array wins over the incidence's own capacities. A nil result means
// uncapacitated.
func (inc *Incidence) CapacityArray(caps []float64) ([]float64, error) {
	if caps == nil {
		return inc.Capacities, nil
	}
	if err := inc.checkCapacityShape(caps); err != nil {
		return nil, err
	}
	return caps, nil
}

func (inc *Incidence) checkCapacityShape(caps []float64) error {
	if len(caps) != len(inc.SwitchNames) {
		return fmt.Errorf("%w: got %d entries for %d switches", ErrCapacityShapeMismatch, len(caps), len(inc.SwitchNames))
	}
	return nil
}

func (inc *Incidence) NumFlows() int    { return len(inc.FlowNames) }
func (inc *Incidence) NumSwitches() int { return len(inc.SwitchNames) }

// HasCapacities reports whether at least one switch has a positive capacity.
func (inc *Incidence) HasCapacities() bool {
	return inc.CappedSwitches() > 0
}

// CappedSwitches counts the switches with a positive capacity.
func (inc *Incidence) CappedSwitches() int {
	n := 0
	for _, c := range inc.Capacities {
		if c > 0 {
			n++
		}
	}
	return n
}

// SwitchIndex looks up a switch by name.
func (inc *Incidence) SwitchIndex(name string) (int, bool) {
	sid, ok := inc.switchIndex[name]
	return sid, ok
}

// FlowIndex looks up a flow by name. For duplicated identifiers the first
// occurrence wins.
func (inc *Incidence) FlowIndex(name string) (int, bool) {
	fid, ok := inc.flowIndex[name]
	return fid, ok
}

// Covers reports whether switch sid lies on the path of flow fid.
func (inc *Incidence) Covers(fid, sid int) bool {
	if fid < 0 || fid >= len(inc.Coverage) {
		return false
	}
	return slices.Contains(inc.Coverage[fid], sid)
}

// Summary is the one-line description printed by the commands.
func (inc *Incidence) Summary() string {
	capInfo := "none"
	if inc.Capacities != nil {
		capInfo = fmt.Sprintf("%d switches with caps", inc.CappedSwitches())
	}
	return fmt.Sprintf("Flows=%d | Switches=%d | Caps=%s", inc.NumFlows(), inc.NumSwitches(), capInfo)
}

// SwitchNamesOf maps switch indices to names, skipping out-of-range indices.
func (inc *Incidence) SwitchNamesOf(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, sid := range ids {
		if sid >= 0 && sid < len(inc.SwitchNames) {
			names = append(names, inc.SwitchNames[sid])
		}
	}
	return names
}

func validateCapacity(val float64) error {
	if val < 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidCapacity, val)
	}
	return nil
}
