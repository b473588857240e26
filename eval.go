package flowcover

// CheckCoverage reports whether every flow has at least one selected switch on
// its path, and lists the flows that do not.
func CheckCoverage(inc *Incidence, sel Selection) (bool, []int) {
	chosen := make(map[int]bool, len(sel))
	for _, sid := range sel {
		chosen[sid] = true
	}
	uncovered := []int{}
	for fid, cover := range inc.Coverage {
		ok := false
		for _, sid := range cover {
			if chosen[sid] {
				ok = true
				break
			}
		}
		if !ok {
			uncovered = append(uncovered, fid)
		}
	}
	return len(uncovered) == 0, uncovered
}

// CheckAssignment validates an assignment. A flow fails coverage when it has
// no assigned switch or its switch is not on its path. A switch fails capacity
// when it has a positive capacity below the number of flows assigned to it.
// caps overrides the incidence capacities; a malformed caps array is ignored
// in favour of them, since the check reports and never fails.
func CheckAssignment(inc *Incidence, asg Assignment, caps []float64) AssignmentCheck {
	res := AssignmentCheck{
		CoverageErrors: []int{},
		CapacityErrors: []CapacityViolation{},
	}

	for fid := range inc.Coverage {
		sid, ok := asg[fid]
		if !ok || !inc.Covers(fid, sid) {
			res.CoverageErrors = append(res.CoverageErrors, fid)
		}
	}

	capArr, err := inc.CapacityArray(caps)
	if err != nil {
		capArr = inc.Capacities
	}
	if capArr != nil {
		counts := make([]int, inc.NumSwitches())
		for fid, sid := range asg {
			if fid < 0 || fid >= inc.NumFlows() || sid < 0 || sid >= len(counts) {
				continue
			}
			counts[sid]++
		}
		for sid, count := range counts {
			if c := capArr[sid]; c > 0 && float64(count) > c {
				res.CapacityErrors = append(res.CapacityErrors, CapacityViolation{Switch: sid, Assigned: count, Capacity: c})
			}
		}
	}

	res.CoverageOK = len(res.CoverageErrors) == 0
	res.CapacityOK = len(res.CapacityErrors) == 0
	return res
}
