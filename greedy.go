package flowcover

import (
	"container/heap"
	"time"

	log "github.com/sirupsen/logrus"
)

// GreedySetCover picks, round after round, the switch covering the most
// still-uncovered flows until every flow is covered or no switch adds
// coverage. Equal gains go to the lowest switch index. The selection is
// returned in pick order together with the flows left uncovered.
//
// Gains only shrink as flows get covered, so a switch whose re-scored gain
// still tops the heap is the true maximum of its round.
func GreedySetCover(inc *Incidence) (Selection, []int) {
	covered := make([]bool, inc.NumFlows())
	remaining := inc.NumFlows()

	h := make(gainHeap, 0, inc.NumSwitches())
	for sid, flows := range inc.SwitchFlows {
		if len(flows) > 0 {
			h = append(h, gainEntry{sid: sid, gain: len(flows)})
		}
	}
	heap.Init(&h)

	var selected Selection
	for remaining > 0 && h.Len() > 0 {
		top := h[0]
		gain := 0
		for _, fid := range inc.SwitchFlows[top.sid] {
			if !covered[fid] {
				gain++
			}
		}
		if gain == 0 {
			heap.Pop(&h)
			continue
		}
		if gain < top.gain {
			h[0].gain = gain
			heap.Fix(&h, 0)
			continue
		}

		heap.Pop(&h)
		selected = append(selected, top.sid)
		for _, fid := range inc.SwitchFlows[top.sid] {
			if !covered[fid] {
				covered[fid] = true
				remaining--
			}
		}
	}

	uncovered := make([]int, 0, remaining)
	for fid, ok := range covered {
		if !ok {
			uncovered = append(uncovered, fid)
		}
	}
	return selected, uncovered
}

// greedyNaive rescans every switch each round.
func greedyNaive(inc *Incidence) (Selection, []int) {
	covered := make([]bool, inc.NumFlows())
	remaining := inc.NumFlows()
	var selected Selection
	for remaining > 0 {
		bestSid, bestGain := -1, 0
		for sid, flows := range inc.SwitchFlows {
			gain := 0
			for _, fid := range flows {
				if !covered[fid] {
					gain++
				}
			}
			if gain > bestGain {
				bestSid, bestGain = sid, gain
			}
		}
		if bestSid < 0 {
			break
		}
		selected = append(selected, bestSid)
		for _, fid := range inc.SwitchFlows[bestSid] {
			if !covered[fid] {
				covered[fid] = true
				remaining--
			}
		}
	}
	var uncovered []int
	for fid, ok := range covered {
		if !ok {
			uncovered = append(uncovered, fid)
		}
	}
	return selected, uncovered
}

// AssignFirstCovering assigns each flow to the first selected switch along
// its stored coverage order. Flows with no selected switch stay unassigned.
func AssignFirstCovering(inc *Incidence, sel Selection) Assignment {
	chosen := make(map[int]bool, len(sel))
	for _, sid := range sel {
		chosen[sid] = true
	}
	asg := make(Assignment, inc.NumFlows())
	for fid, cover := range inc.Coverage {
		for _, sid := range cover {
			if chosen[sid] {
				asg[fid] = sid
				break
			}
		}
	}
	return asg
}

// RunGreedy runs the heuristic and the first-covering assignment and returns
// the evaluated report.
func RunGreedy(inc *Incidence) *Solution {
	startTime := time.Now()
	selected, uncovered := GreedySetCover(inc)
	asg := AssignFirstCovering(inc, selected)
	elapsed := time.Since(startTime)
	if len(uncovered) > 0 {
		log.Warnf("Greedy left %d of %d flows uncovered", len(uncovered), inc.NumFlows())
	}

	sol := NewSolution("greedy", Heuristic)
	sol.Time = elapsed.String()
	sol.SetObjective(float64(len(selected)))
	sol.Fill(inc, selected, asg)
	return sol
}

type gainEntry struct {
	sid  int
	gain int
}

// gainHeap orders by gain descending, then switch index ascending.
type gainHeap []gainEntry

func (h gainHeap) Len() int { return len(h) }
func (h gainHeap) Less(i, j int) bool {
	if h[i].gain != h[j].gain {
		return h[i].gain > h[j].gain
	}
	return h[i].sid < h[j].sid
}
func (h gainHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *gainHeap) Push(x any)   { *h = append(*h, x.(gainEntry)) }
func (h *gainHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
