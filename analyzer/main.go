package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "analyzer"
	app.Usage = "re-validate solution files and print one CSV line per solution"
	app.ArgsUsage = "<solution.json glob>..."
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input, i", Usage: "flow path file; defaults to the input recorded in each solution"},
		cli.StringFlag{Name: "capacities, c", Usage: "switch capacities (JSON or YAML)"},
		cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
	}
	app.Action = action

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func action(c *cli.Context) error {
	logCfg := flowcover.DefaultConfig().Log
	logCfg.Level = c.String("log-level")
	if err := flowcover.InitLogging(logCfg); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if c.NArg() == 0 {
		return cli.NewExitError("No solution files passed!", 1)
	}
	files, err := flowcover.ExpandInputs(c.Args())
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	a := analyzer{input: c.String("input"), capFile: c.String("capacities"), cache: make(map[string]*flowcover.Incidence)}
	fmt.Printf("Name,Status,Objective,Selected,CoverOK,CapacityOK,Time,Comment\n")
	for _, fileName := range files {
		if !strings.HasSuffix(fileName, ".json") {
			continue
		}
		sol, err := flowcover.ReadSolution(fileName)
		if err != nil {
			log.Errorf("At %s: %s", fileName, err)
			continue
		}
		coverOK, capOK, err := a.validate(sol)
		if err != nil {
			sol.Comment += fmt.Sprintf("ANALYZER: Error = %s", err.Error())
		}
		obj := "None"
		if sol.Objective != nil {
			obj = fmt.Sprintf("%g", *sol.Objective)
		}
		fmt.Printf("%s,%s,%s,%d,%t,%s,%s,%s\n", fileName, sol.Status, obj, len(sol.SelectedSwitchIDs), coverOK, capOK, sol.Time, csvField(sol.Comment))
	}
	return nil
}

type analyzer struct {
	input   string
	capFile string
	cache   map[string]*flowcover.Incidence
}

// validate checks a solution against its incidence instead of trusting the
// flags stored in the file. capOK is "-" when the solution has no assignment.
func (a *analyzer) validate(sol *flowcover.Solution) (coverOK bool, capOK string, err error) {
	capOK = "-"
	input := a.input
	if input == "" {
		input = sol.Input
	}
	if input == "" {
		return sol.CoverOK, capOK, errors.New("no input file to validate against")
	}
	inc, ok := a.cache[input]
	if !ok {
		if inc, err = flowcover.LoadIncidence(input, a.capFile); err != nil {
			return false, capOK, err
		}
		a.cache[input] = inc
	}

	var uncovered []int
	coverOK, uncovered = flowcover.CheckCoverage(inc, sol.Resolve(inc))
	if !coverOK {
		err = fmt.Errorf("%d flows uncovered", len(uncovered))
	}
	if coverOK != sol.CoverOK {
		err = errors.Join(err, fmt.Errorf("stored cover_ok=%t differs", sol.CoverOK))
	}
	if asg := sol.ResolveAssignment(inc); asg != nil {
		check := flowcover.CheckAssignment(inc, asg, nil)
		capOK = fmt.Sprintf("%t", check.CoverageOK && check.CapacityOK)
		for _, v := range check.CapacityErrors {
			err = errors.Join(err, fmt.Errorf("switch %d serves %d flows, capacity %g", v.Switch, v.Assigned, v.Capacity))
		}
	}
	return coverOK, capOK, err
}

func csvField(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.ContainsAny(s, ",\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
