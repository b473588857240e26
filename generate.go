package flowcover

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capacity strategies of the instance generator.
const (
	CAPS_NONE = "NONE"
	CAPS_ONE  = "ONE"
	CAPS_RNG  = "RNG"
)

// GenOptions describes a synthetic instance: flows routed over a ring of
// switches.
type GenOptions struct {
	Flows    int
	Switches int
	// MaxPath bounds the number of switches per path.
	MaxPath int
	Caps    string
	// MaxCap is the upper bound of RNG capacities.
	MaxCap int
}

// GenerateInstance draws flow paths and capacities. Every flow starts at a
// random switch and walks 1..MaxPath switches in a random direction, so each
// path is a contiguous arc of the ring.
func GenerateInstance(rng *rand.Rand, opts GenOptions) ([]Record, map[string]float64, error) {
	if opts.Flows <= 0 || opts.Switches <= 0 || opts.MaxPath <= 0 {
		return nil, nil, fmt.Errorf("flows, switches and path length must be positive: %+v", opts)
	}
	maxPath := min(opts.MaxPath, opts.Switches)

	records := make([]Record, opts.Flows)
	used := make([]bool, opts.Switches)
	for f := range records {
		src := rng.Intn(opts.Switches)
		step := 1
		if rng.Intn(2) == 0 {
			step = opts.Switches - 1
		}
		n := 1 + rng.Intn(maxPath)
		path := make([]string, n)
		for k := range path {
			sid := (src + k*step) % opts.Switches
			used[sid] = true
			path[k] = switchLabel(sid)
		}
		records[f] = Record{ID: fmt.Sprintf("flow_%d", f), Path: path}
	}

	var caps map[string]float64
	switch opts.Caps {
	case "", CAPS_NONE:
	case CAPS_ONE, CAPS_RNG:
		caps = make(map[string]float64)
		for sid, ok := range used {
			if !ok {
				continue
			}
			if opts.Caps == CAPS_ONE || opts.MaxCap <= 0 {
				caps[switchLabel(sid)] = 1
			} else {
				caps[switchLabel(sid)] = float64(1 + rng.Intn(opts.MaxCap))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown capacity strategy %q", opts.Caps)
	}
	return records, caps, nil
}

func switchLabel(sid int) string {
	return fmt.Sprintf("sw%d", sid)
}

// WriteRecords writes records as JSON Lines readable by ReadRecords.
func WriteRecords(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range records {
		line := struct {
			FlowID string   `json:"flow_id"`
			Path   []string `json:"path"`
		}{rec.ID, rec.Path}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SavePaths writes a flow-path file, gzip-compressed for names ending in .gz.
func SavePaths(fileName string, records []Record) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(fileName, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}
	if err = WriteRecords(w, records); err == nil && zw != nil {
		err = zw.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// SaveCapacities writes a capacity map as YAML for .yaml/.yml names and as
// JSON otherwise.
func SaveCapacities(fileName string, caps map[string]float64) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(caps)
	default:
		data, err = json.MarshalIndent(caps, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(fileName, data, 0644)
}
