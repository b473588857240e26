package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"git.solver4all.com/azaryc2s/flowcover"
	log "github.com/sirupsen/logrus"
)

var (
	caps     flowcover.ArrayStringFlags
	flows    flowcover.ArrayIntFlags
	switches flowcover.ArrayIntFlags
)

func main() {
	flag.Var(&caps, "caps", "List of capacity strategies: NONE, ONE or RNG")
	flag.Var(&flows, "flows", "List of number of flows")
	flag.Var(&switches, "n", "List of number of switches")
	name := flag.String("name", "ring", "Name prefix for the instances")
	count := flag.Int("count", 10, "Number of instances per combination")
	maxPath := flag.Int("path", 5, "Max number of switches on a flow path")
	maxCap := flag.Int("maxcap", 10, "Max capacity for the RNG strategy")
	outDir := flag.String("out", ".", "Directory the instances are written to")
	gz := flag.Bool("gz", false, "Gzip the path files")
	seed := flag.Int64("seed", 0, "Random seed, 0 seeds from the clock")

	flag.Parse()

	if len(caps) == 0 {
		caps = flowcover.ArrayStringFlags{flowcover.CAPS_NONE}
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal(err)
	}

	for l := 0; l < *count; l++ {
		for _, n := range switches {
			for _, f := range flows {
				for _, c := range caps {
					opts := flowcover.GenOptions{Flows: f, Switches: n, MaxPath: *maxPath, Caps: c, MaxCap: *maxCap}
					records, capMap, err := flowcover.GenerateInstance(rng, opts)
					if err != nil {
						log.Fatal(err)
					}

					instName := fmt.Sprintf("%s_%d_%d_%s_%d", *name, n, f, c, l)
					pathFile := filepath.Join(*outDir, instName+".jsonl")
					if *gz {
						pathFile += ".gz"
					}
					if err = flowcover.SavePaths(pathFile, records); err != nil {
						log.Fatal(err)
					}
					if capMap != nil {
						if err = flowcover.SaveCapacities(filepath.Join(*outDir, instName+"_caps.yaml"), capMap); err != nil {
							log.Fatal(err)
						}
					}
					log.Infof("Wrote %s (seed %d)", pathFile, *seed)
				}
			}
		}
	}
}
