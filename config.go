package flowcover

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the settings shared by the commands. Command line flags
// override what is read from file.
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Log    LogConfig    `toml:"log"`
	Run    RunConfig    `toml:"run"`
}

type SolverConfig struct {
	Backend   string    `toml:"backend"`
	Model     string    `toml:"model"`
	Lambda    []float64 `toml:"lambda"`
	TimeLimit string    `toml:"time_limit"`
	NodeLimit int       `toml:"node_limit"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

type RunConfig struct {
	OutDir  string `toml:"out_dir"`
	Workers int    `toml:"workers"`
	WriteLP bool   `toml:"write_lp"`
}

// DefaultConfig is used when no configuration file is given.
func DefaultConfig() Config {
	return Config{
		Solver: SolverConfig{
			Backend: "branchbound",
			Model:   "cover",
			Lambda:  []float64{0},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
			Compress:   true,
		},
		Run: RunConfig{
			Workers: 4,
			WriteLP: true,
		},
	}
}

// LoadConfig decodes a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	if _, err := cfg.Solver.Timeout(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Timeout parses TimeLimit. Zero means no limit.
func (c SolverConfig) Timeout() (time.Duration, error) {
	if c.TimeLimit == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TimeLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid time_limit %q: %w", c.TimeLimit, err)
	}
	return d, nil
}
