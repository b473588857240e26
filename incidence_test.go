package flowcover

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenario: F0 -> {S0,S1}, F1 -> {S1}, F2 -> {S2}
func threeFlows(t *testing.T) *Incidence {
	t.Helper()
	inc, err := NewIncidence([]Record{
		{ID: "F0", Path: []string{"S0", "S1"}},
		{ID: "F1", Path: []string{"S1"}},
		{ID: "F2", Path: []string{"S2"}},
	}, nil)
	require.NoError(t, err)
	return inc
}

func TestNewIncidenceIndexes(t *testing.T) {
	inc := threeFlows(t)

	assert.Equal(t, []string{"F0", "F1", "F2"}, inc.FlowNames)
	assert.Equal(t, []string{"S0", "S1", "S2"}, inc.SwitchNames)
	assert.Equal(t, [][]int{{0, 1}, {1}, {2}}, inc.Coverage)
	assert.Equal(t, [][]int{{0}, {0, 1}, {2}}, inc.SwitchFlows)
	assert.Nil(t, inc.Capacities)
	assert.False(t, inc.HasCapacities())

	sid, ok := inc.SwitchIndex("S1")
	assert.True(t, ok)
	assert.Equal(t, 1, sid)
	_, ok = inc.SwitchIndex("nope")
	assert.False(t, ok)

	assert.True(t, inc.Covers(0, 1))
	assert.False(t, inc.Covers(1, 0))
	assert.False(t, inc.Covers(7, 0))
	assert.Equal(t, "Flows=3 | Switches=3 | Caps=none", inc.Summary())
}

func TestNewIncidenceRoundTrip(t *testing.T) {
	var records []Record
	distinct := map[string]bool{}
	for i := 0; i < 40; i++ {
		path := []string{fmt.Sprintf("s%d", i%7), fmt.Sprintf("s%d", (i*3)%11), "core"}
		for _, n := range path {
			distinct[n] = true
		}
		records = append(records, Record{ID: fmt.Sprintf("f%d", i), Path: path})
	}
	inc, err := NewIncidence(records, nil)
	require.NoError(t, err)
	assert.Equal(t, len(records), inc.NumFlows())
	assert.Equal(t, len(distinct), inc.NumSwitches())
}

func TestNewIncidenceCollapsesRepeatedSwitches(t *testing.T) {
	inc, err := NewIncidence([]Record{{ID: "f", Path: []string{"a", "b", "a"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, inc.Coverage)
	assert.Equal(t, [][]int{{0}, {0}}, inc.SwitchFlows)
}

func TestNewIncidenceDuplicateFlowID(t *testing.T) {
	inc, err := NewIncidence([]Record{
		{ID: "f", Path: []string{"a"}},
		{ID: "f", Path: []string{"b"}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, inc.NumFlows())
	fid, ok := inc.FlowIndex("f")
	assert.True(t, ok)
	assert.Equal(t, 0, fid)
}

func TestNewIncidenceMalformed(t *testing.T) {
	cases := map[string][]Record{
		"missing id":   {{Path: []string{"a"}}},
		"missing path": {{ID: "f"}},
		"empty path":   {{ID: "f", Path: []string{}}},
	}
	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewIncidence(records, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
			var recErr *RecordError
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, 1, recErr.Line)
		})
	}
}

func TestNewIncidenceCapacities(t *testing.T) {
	records := []Record{{ID: "F0", Path: []string{"S0", "S1"}}}

	inc, err := NewIncidence(records, map[string]float64{"S1": 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3}, inc.Capacities)
	assert.Equal(t, 1, inc.CappedSwitches())
	assert.Equal(t, "Flows=1 | Switches=2 | Caps=1 switches with caps", inc.Summary())

	_, err = NewIncidence(records, map[string]float64{"S9": 1})
	assert.ErrorIs(t, err, ErrUnknownSwitchReference)

	_, err = NewIncidence(records, map[string]float64{"S0": -1})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = NewIncidence(records, map[string]float64{"S0": math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestWithCapacities(t *testing.T) {
	inc := threeFlows(t)

	capped, err := inc.WithCapacities([]float64{1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 2}, capped.Capacities)
	assert.Nil(t, inc.Capacities, "receiver must stay untouched")

	_, err = inc.WithCapacities([]float64{1})
	assert.ErrorIs(t, err, ErrCapacityShapeMismatch)

	_, err = inc.WithCapacities([]float64{1, -2, 0})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	arr, err := capped.CapacityArray(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 2}, arr)
	arr, err = capped.CapacityArray([]float64{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 5}, arr)
	_, err = capped.CapacityArray([]float64{5})
	assert.ErrorIs(t, err, ErrCapacityShapeMismatch)
}
