package flowcover

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// pathLine is the on-disk shape of a flow record. Identifiers may be strings
// or numbers and the path may be stored under any of three keys.
type pathLine struct {
	FlowID   any   `json:"flow_id"`
	ID       any   `json:"id"`
	Path     []any `json:"path"`
	Nodes    []any `json:"nodes"`
	Switches []any `json:"switches"`
}

func (l *pathLine) record() Record {
	id := l.FlowID
	if id == nil {
		id = l.ID
	}
	rec := Record{ID: idString(id)}
	var nodes []any
	switch {
	case len(l.Path) > 0:
		nodes = l.Path
	case len(l.Nodes) > 0:
		nodes = l.Nodes
	case len(l.Switches) > 0:
		nodes = l.Switches
	default:
		// first present key, even if empty
		for _, p := range [][]any{l.Path, l.Nodes, l.Switches} {
			if p != nil {
				nodes = p
				break
			}
		}
	}
	if nodes != nil {
		rec.Path = make([]string, len(nodes))
		for i, n := range nodes {
			rec.Path[i] = idString(n)
		}
	}
	return rec
}

func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// ReadRecords parses JSON Lines flow records. Blank lines are skipped.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var pl pathLine
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		if err := dec.Decode(&pl); err != nil {
			return nil, &RecordError{Line: lineNo, Reason: err.Error()}
		}
		rec := pl.record()
		if rec.ID == "" {
			return nil, &RecordError{Line: lineNo, Reason: "missing 'flow_id' or 'id'"}
		}
		if rec.Path == nil {
			return nil, &RecordError{Line: lineNo, FlowID: rec.ID, Reason: "missing path/nodes"}
		}
		if len(rec.Path) == 0 {
			return nil, &RecordError{Line: lineNo, FlowID: rec.ID, Reason: "empty path"}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// LoadPaths reads a flow-path file; names ending in .gz are decompressed.
func LoadPaths(fileName string) ([]Record, error) {
	rc, err := openAny(fileName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	records, err := ReadRecords(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return records, nil
}

// LoadCapacities reads a switch name -> capacity map. YAML is used for .yaml
// and .yml files, JSON otherwise.
func LoadCapacities(fileName string) (map[string]float64, error) {
	rc, err := openAny(fileName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	caps := make(map[string]float64)
	switch strings.ToLower(filepath.Ext(strings.TrimSuffix(fileName, ".gz"))) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &caps)
	default:
		err = json.Unmarshal(data, &caps)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return caps, nil
}

// LoadIncidence reads the flow paths and, when capFile is not empty, the
// capacity map, and builds the incidence from both.
func LoadIncidence(pathFile, capFile string) (*Incidence, error) {
	records, err := LoadPaths(pathFile)
	if err != nil {
		return nil, err
	}
	var caps map[string]float64
	if capFile != "" {
		if caps, err = LoadCapacities(capFile); err != nil {
			return nil, err
		}
	}
	inc, err := NewIncidence(records, caps)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathFile, err)
	}
	return inc, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func openAny(fileName string) (io.ReadCloser, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(fileName, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}
