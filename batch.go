package flowcover

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

// ExpandInputs resolves each pattern with doublestar globbing ("**" allowed).
// Patterns without glob characters are kept as they are, so a missing file
// surfaces later as an open error. The result is sorted and deduplicated.
func ExpandInputs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// BatchResult is the outcome of one job of RunBatch.
type BatchResult struct {
	Input string
	Err   error
}

// RunBatch runs job once per input on an ants pool of the given size and
// returns the results in input order. Jobs must not share mutable state.
func RunBatch(inputs []string, workers int, job func(input string) error) []BatchResult {
	results := make([]BatchResult, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		log.Errorf("Failed to create ants pool, running sequentially: %v", err)
		for i, in := range inputs {
			results[i] = BatchResult{Input: in, Err: job(in)}
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, in := range inputs {
		i, in := i, in
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = BatchResult{Input: in, Err: job(in)}
		}
		if err = pool.Submit(task); err != nil {
			wg.Done()
			results[i] = BatchResult{Input: in, Err: fmt.Errorf("submit job: %w", err)}
		}
	}
	wg.Wait()
	return results
}
