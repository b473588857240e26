package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"git.solver4all.com/azaryc2s/flowcover"
	"git.solver4all.com/azaryc2s/flowcover/ilp"
	_ "git.solver4all.com/azaryc2s/flowcover/ilp/branchbound"
	_ "git.solver4all.com/azaryc2s/flowcover/ilp/pseudobool"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const (
	MODEL_COVER  = "cover"
	MODEL_ASSIGN = "assign"

	MODE_SOLVE      = "solve"
	MODE_PREPROCESS = "preprocess"
	MODE_EVAL       = "eval"
)

var (
	inputs  flowcover.ArrayStringFlags
	lambdas flowcover.ArrayFloatFlags
)

// run holds the settings of one invocation after config and flags are merged.
type run struct {
	cfg       flowcover.Config
	mode      string
	capFile   string
	solFile   string
	skipSolve bool
	multi     bool
	sysInfo   flowcover.SysInfo
}

func main() {
	app := cli.NewApp()
	app.Name = "cover"
	app.Usage = "exact switch placement: minimum set cover or capacitated assignment"
	app.Flags = []cli.Flag{
		cli.GenericFlag{Name: "input, i", Value: &inputs, Usage: "flow path file (JSONL, optionally .gz); repeatable, globs allowed"},
		cli.StringFlag{Name: "capacities, c", Usage: "switch capacities (JSON or YAML)"},
		cli.StringFlag{Name: "out-dir, o", Usage: "output directory (default out/run_<timestamp>)"},
		cli.StringFlag{Name: "model, m", Value: MODEL_COVER, Usage: "cover or assign"},
		cli.GenericFlag{Name: "lambda, l", Value: &lambdas, Usage: "assignment penalty; repeatable or comma separated for a sweep"},
		cli.StringFlag{Name: "backend, b", Usage: fmt.Sprintf("solver backend %v", ilp.Backends())},
		cli.StringFlag{Name: "time-limit, t", Usage: "time limit per solve, e.g. 30s; the pseudobool search cannot be stopped and keeps running after it"},
		cli.IntFlag{Name: "node-limit", Usage: "search node limit of branching backends"},
		cli.BoolFlag{Name: "skip-solve", Usage: "build and write the model without solving it"},
		cli.BoolTFlag{Name: "write-lp", Usage: "write model.lp next to the solution"},
		cli.StringFlag{Name: "mode", Value: MODE_SOLVE, Usage: "solve, preprocess or eval"},
		cli.StringFlag{Name: "solution, s", Usage: "solution.json to check in eval mode"},
		cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
		cli.IntFlag{Name: "workers, w", Usage: "number of inputs processed concurrently"},
		cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		cli.StringFlag{Name: "log-file", Usage: "also log to this (rotated) file"},
	}
	app.Action = action

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func action(c *cli.Context) error {
	cfg, err := flowcover.LoadConfig(c.String("config"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	applyFlags(c, &cfg)
	if err = flowcover.InitLogging(cfg.Log); err != nil {
		return cli.NewExitError(fmt.Sprintf("logging: %s", err), 1)
	}
	if _, err = cfg.Solver.Timeout(); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if len(inputs) == 0 {
		return cli.NewExitError("no input given (--input)", 1)
	}

	r := &run{
		cfg:       cfg,
		mode:      c.String("mode"),
		capFile:   c.String("capacities"),
		solFile:   c.String("solution"),
		skipSolve: c.Bool("skip-solve"),
	}
	switch r.mode {
	case MODE_SOLVE, MODE_PREPROCESS:
	case MODE_EVAL:
		if r.solFile == "" {
			return cli.NewExitError("eval mode needs --solution", 1)
		}
	default:
		return cli.NewExitError(fmt.Sprintf("unknown mode %q", r.mode), 1)
	}
	if m := cfg.Solver.Model; m != MODEL_COVER && m != MODEL_ASSIGN {
		return cli.NewExitError(fmt.Sprintf("unknown model %q", m), 1)
	}
	if _, err = ilp.Lookup(cfg.Solver.Backend, ilp.Options{}); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	files, err := flowcover.ExpandInputs(inputs)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	r.multi = len(files) > 1
	if r.cfg.Run.OutDir == "" {
		r.cfg.Run.OutDir = flowcover.DefaultOutDir()
	}
	if r.mode == MODE_SOLVE {
		r.sysInfo = flowcover.GetSysInfo()
	}

	var unsolved atomic.Int32
	results := flowcover.RunBatch(files, cfg.Run.Workers, func(input string) error {
		ok, err := r.process(input)
		if err == nil && !ok {
			unsolved.Add(1)
		}
		return err
	})
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			log.Errorf("At %s: %s", res.Input, res.Err)
		}
	}
	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d inputs failed", failed, len(results)), 1)
	}
	if n := unsolved.Load(); n > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d inputs without a valid solution", n, len(results)), 2)
	}
	return nil
}

// applyFlags overrides the configuration with explicitly set flags.
func applyFlags(c *cli.Context, cfg *flowcover.Config) {
	if c.IsSet("model") || cfg.Solver.Model == "" {
		cfg.Solver.Model = c.String("model")
	}
	if c.IsSet("backend") {
		cfg.Solver.Backend = c.String("backend")
	}
	if len(lambdas) > 0 {
		cfg.Solver.Lambda = append([]float64(nil), lambdas...)
	}
	if len(cfg.Solver.Lambda) == 0 {
		cfg.Solver.Lambda = []float64{0}
	}
	if c.IsSet("time-limit") {
		cfg.Solver.TimeLimit = c.String("time-limit")
	}
	if c.IsSet("node-limit") {
		cfg.Solver.NodeLimit = c.Int("node-limit")
	}
	if c.IsSet("out-dir") {
		cfg.Run.OutDir = c.String("out-dir")
	}
	if c.IsSet("workers") {
		cfg.Run.Workers = c.Int("workers")
	}
	if c.IsSet("write-lp") {
		cfg.Run.WriteLP = c.BoolT("write-lp")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
}

// process handles one input file. ok is false when a solve ended without a
// valid solution.
func (r *run) process(input string) (ok bool, err error) {
	inc, err := flowcover.LoadIncidence(input, r.capFile)
	if err != nil {
		return false, err
	}
	log.Infof("Loaded %s: %s", input, inc.Summary())

	switch r.mode {
	case MODE_PREPROCESS:
		fmt.Printf("%s: %s\n", input, inc.Summary())
		return true, nil
	case MODE_EVAL:
		return r.evaluate(input, inc)
	}

	dir := r.cfg.Run.OutDir
	if r.multi {
		dir = filepath.Join(dir, stem(input))
	}
	if r.cfg.Solver.Model == MODEL_COVER {
		return r.solveOne(input, inc, dir, nil)
	}
	ok = true
	for _, lambda := range r.cfg.Solver.Lambda {
		lambda := lambda
		sub := dir
		if len(r.cfg.Solver.Lambda) > 1 {
			sub = filepath.Join(dir, fmt.Sprintf("lambda_%g", lambda))
		}
		solved, err := r.solveOne(input, inc, sub, &lambda)
		if err != nil {
			return false, err
		}
		ok = ok && solved
	}
	return ok, nil
}

func (r *run) solveOne(input string, inc *flowcover.Incidence, dir string, lambda *float64) (bool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	s, err := ilp.Lookup(r.cfg.Solver.Backend, ilp.Options{NodeLimit: r.cfg.Solver.NodeLimit})
	if err != nil {
		return false, err
	}
	opts := ilp.SolveOptions{SkipSolve: r.skipSolve}
	if r.cfg.Run.WriteLP {
		opts.LPFile = filepath.Join(dir, "model.lp")
	}

	ctx := context.Background()
	if timeout, _ := r.cfg.Solver.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var sol *flowcover.Solution
	if lambda == nil {
		sol, err = ilp.SolveCover(ctx, inc, s, opts)
	} else {
		sol, err = ilp.SolveAssignment(ctx, inc, s, *lambda, opts)
	}
	if err != nil {
		return false, err
	}
	sol.Input = input
	sol.System = r.sysInfo

	fileName, err := flowcover.WriteSolution(dir, sol)
	if err != nil {
		return false, err
	}
	if err = flowcover.WriteSummary(dir, inc, sol); err != nil {
		return false, err
	}
	log.Infof("Wrote %s (status=%s)", fileName, sol.Status)
	if r.skipSolve {
		return true, nil
	}
	return sol.Status == flowcover.Optimal && sol.Valid(), nil
}

type evalReport struct {
	Input      string                     `json:"input"`
	Summary    string                     `json:"summary"`
	Solution   string                     `json:"solution"`
	CoverOK    bool                       `json:"cover_ok"`
	Uncovered  []int                      `json:"uncovered_flows"`
	Assignment *flowcover.AssignmentCheck `json:"assignment,omitempty"`
}

func (r *run) evaluate(input string, inc *flowcover.Incidence) (bool, error) {
	sol, err := flowcover.ReadSolution(r.solFile)
	if err != nil {
		return false, err
	}
	rep := evalReport{Input: input, Summary: inc.Summary(), Solution: r.solFile}
	rep.CoverOK, rep.Uncovered = flowcover.CheckCoverage(inc, sol.Resolve(inc))
	if asg := sol.ResolveAssignment(inc); asg != nil {
		check := flowcover.CheckAssignment(inc, asg, nil)
		rep.Assignment = &check
	}
	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return false, err
	}
	fmt.Println(flowcover.SanitizeJsonArrayLineBreaks(string(out)))

	ok := rep.CoverOK
	if rep.Assignment != nil {
		ok = ok && rep.Assignment.CoverageOK && rep.Assignment.CapacityOK
	}
	return ok, nil
}

func stem(fileName string) string {
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
