package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var inputs flowcover.ArrayStringFlags

func main() {
	app := cli.NewApp()
	app.Name = "greedy"
	app.Usage = "greedy set cover with first-covering assignment"
	app.Flags = []cli.Flag{
		cli.GenericFlag{Name: "input, i", Value: &inputs, Usage: "flow path file (JSONL, optionally .gz); repeatable, globs allowed"},
		cli.StringFlag{Name: "capacities, c", Usage: "switch capacities (JSON or YAML), checked against the assignment"},
		cli.StringFlag{Name: "out-dir, o", Usage: "output directory (default out/run_<timestamp>)"},
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
	if c.IsSet("out-dir") {
		cfg.Run.OutDir = c.String("out-dir")
	}
	if c.IsSet("workers") {
		cfg.Run.Workers = c.Int("workers")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if err = flowcover.InitLogging(cfg.Log); err != nil {
		return cli.NewExitError(fmt.Sprintf("logging: %s", err), 1)
	}
	if len(inputs) == 0 {
		return cli.NewExitError("no input given (--input)", 1)
	}
	files, err := flowcover.ExpandInputs(inputs)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	outDir := cfg.Run.OutDir
	if outDir == "" {
		outDir = flowcover.DefaultOutDir()
	}
	capFile := c.String("capacities")
	sysInfo := flowcover.GetSysInfo()

	results := flowcover.RunBatch(files, cfg.Run.Workers, func(input string) error {
		dir := outDir
		if len(files) > 1 {
			base := strings.TrimSuffix(filepath.Base(input), ".gz")
			dir = filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base)))
		}
		return solve(input, capFile, dir, sysInfo)
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
	return nil
}

func solve(input, capFile, dir string, sysInfo flowcover.SysInfo) error {
	inc, err := flowcover.LoadIncidence(input, capFile)
	if err != nil {
		return err
	}
	log.Infof("Loaded %s: %s", input, inc.Summary())

	sol := flowcover.RunGreedy(inc)
	sol.Input = input
	sol.System = sysInfo
	log.Infof("Greedy selected %d switches, cover_ok=%t", len(sol.SelectedSwitchIDs), sol.CoverOK)

	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if _, err = flowcover.WriteSolution(dir, sol); err != nil {
		return err
	}
	return flowcover.WriteSummary(dir, inc, sol)
}
