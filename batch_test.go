package flowcover

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandInputs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0755))
	for _, name := range []string{"x.jsonl", "a/y.jsonl", "a/b/z.jsonl.gz", "a/notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}

	files, err := ExpandInputs([]string{
		filepath.Join(dir, "**", "*.jsonl*"),
		filepath.Join(dir, "x.jsonl"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "b", "z.jsonl.gz"),
		filepath.Join(dir, "a", "y.jsonl"),
		filepath.Join(dir, "x.jsonl"),
	}, files)

	missing := filepath.Join(dir, "missing.jsonl")
	files, err = ExpandInputs([]string{missing})
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, files)
}

func TestRunBatch(t *testing.T) {
	inputs := []string{"a", "b", "c", "d", "e"}
	errB := errors.New("b failed")
	var calls atomic.Int32

	results := RunBatch(inputs, 3, func(input string) error {
		calls.Add(1)
		if input == "b" {
			return errB
		}
		return nil
	})
	require.Len(t, results, len(inputs))
	assert.Equal(t, int32(len(inputs)), calls.Load())
	for i, res := range results {
		assert.Equal(t, inputs[i], res.Input)
		if res.Input == "b" {
			assert.ErrorIs(t, res.Err, errB)
		} else {
			assert.NoError(t, res.Err)
		}
	}

	assert.Empty(t, RunBatch(nil, 4, func(string) error { return nil }))
}

func TestRunBatchSingleWorker(t *testing.T) {
	var calls atomic.Int32
	results := RunBatch([]string{"1", "2", "3"}, 0, func(input string) error {
		calls.Add(1)
		return nil
	})
	assert.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
}
