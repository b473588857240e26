package flowcover

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "branchbound", cfg.Solver.Backend)
	assert.Equal(t, []float64{0}, cfg.Solver.Lambda)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "flowcover.toml")
	require.NoError(t, os.WriteFile(fileName, []byte(`
[solver]
backend = "pseudobool"
model = "assign"
lambda = [0.0, 0.5, 1.0]
time_limit = "90s"

[log]
level = "debug"

[run]
workers = 2
`), 0644))

	cfg, err := LoadConfig(fileName)
	require.NoError(t, err)
	assert.Equal(t, "pseudobool", cfg.Solver.Backend)
	assert.Equal(t, "assign", cfg.Solver.Model)
	assert.Equal(t, []float64{0, 0.5, 1}, cfg.Solver.Lambda)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Run.Workers)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.Log.MaxSize)
	assert.True(t, cfg.Run.WriteLP)

	timeout, err := cfg.Solver.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, timeout)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[solver]\ntime_limit = \"soon\"\n"), 0644))
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "time_limit")
}

func TestInitLogging(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)

	cfg := DefaultConfig().Log
	cfg.Level = "verbose"
	assert.Error(t, InitLogging(cfg))

	cfg.Level = "debug"
	cfg.File = filepath.Join(t.TempDir(), "logs", "flowcover.log")
	require.NoError(t, InitLogging(cfg))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.Info("hello from the test")

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
}

func TestArrayFloatFlags(t *testing.T) {
	var f ArrayFloatFlags
	require.NoError(t, f.Set("0.5"))
	require.NoError(t, f.Set("1, 2"))
	assert.Equal(t, ArrayFloatFlags{0.5, 1, 2}, f)
	assert.Error(t, f.Set("x"))
	assert.Equal(t, "[0.5 1 2]", f.String())

	var s ArrayStringFlags
	require.NoError(t, s.Set("a.jsonl"))
	require.NoError(t, s.Set("b/*.jsonl"))
	assert.Equal(t, ArrayStringFlags{"a.jsonl", "b/*.jsonl"}, s)
}
