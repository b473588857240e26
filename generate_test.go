package flowcover

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInstance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	records, caps, err := GenerateInstance(rng, GenOptions{Flows: 30, Switches: 6, MaxPath: 10, Caps: CAPS_RNG, MaxCap: 3})
	require.NoError(t, err)
	require.Len(t, records, 30)
	for _, rec := range records {
		assert.NotEmpty(t, rec.Path)
		assert.LessOrEqual(t, len(rec.Path), 6, "path longer than the ring")
	}

	inc, err := NewIncidence(records, caps)
	require.NoError(t, err)
	for name, c := range caps {
		_, ok := inc.SwitchIndex(name)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, c, 1.0)
		assert.LessOrEqual(t, c, 3.0)
	}

	_, caps, err = GenerateInstance(rng, GenOptions{Flows: 3, Switches: 3, MaxPath: 2})
	require.NoError(t, err)
	assert.Nil(t, caps)

	_, _, err = GenerateInstance(rng, GenOptions{Flows: 3, Switches: 3, MaxPath: 2, Caps: "LOTS"})
	assert.Error(t, err)
	_, _, err = GenerateInstance(rng, GenOptions{Flows: 0, Switches: 3, MaxPath: 2})
	assert.Error(t, err)
}

func TestSaveAndLoadGeneratedInstance(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	records, caps, err := GenerateInstance(rng, GenOptions{Flows: 12, Switches: 5, MaxPath: 3, Caps: CAPS_ONE})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"inst.jsonl", "inst.jsonl.gz"} {
		pathFile := filepath.Join(dir, name)
		require.NoError(t, SavePaths(pathFile, records))
		back, err := LoadPaths(pathFile)
		require.NoError(t, err)
		assert.Equal(t, records, back, name)
	}
	for _, name := range []string{"caps.yaml", "caps.json"} {
		capFile := filepath.Join(dir, name)
		require.NoError(t, SaveCapacities(capFile, caps))
		back, err := LoadCapacities(capFile)
		require.NoError(t, err)
		assert.Equal(t, caps, back, name)
	}

	inc, err := LoadIncidence(filepath.Join(dir, "inst.jsonl.gz"), filepath.Join(dir, "caps.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, inc.NumFlows())
	assert.Equal(t, inc.NumSwitches(), inc.CappedSwitches())
}
