package orchestrator

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/johndauphine/drizzle-project/internal/logging"
	"github.com/johndauphine/drizzle-project/internal/placeholder"
)

var tokens = []string{
	placeholder.DatabaseDirToken,
	placeholder.OutDirToken,
	placeholder.MigrateCommandToken,
}

type fileCheck struct {
	path     string
	leftover []string
	err      error
}

// VerifyPlaceholders checks the generated files for markers that survived
// substitution, which happens when a template uses one outside a string
// literal. Each problem is logged and returned as a warning.
func VerifyPlaceholders(paths []string) []string {
	results := make(chan fileCheck, len(paths))
	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			results <- checkFile(path)
		}(p)
	}
	wg.Wait()
	close(results)

	var all []fileCheck
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].path < all[j].path })

	var warnings []string
	for _, r := range all {
		switch {
		case r.err != nil:
			warnings = append(warnings, fmt.Sprintf("verifying %s: %v", r.path, r.err))
		case len(r.leftover) > 0:
			warnings = append(warnings, fmt.Sprintf("%s still contains %s", r.path, strings.Join(r.leftover, ", ")))
		}
	}
	for _, w := range warnings {
		logging.Warn("%s", w)
	}
	return warnings
}

func checkFile(path string) fileCheck {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileCheck{path: path, err: err}
	}
	var leftover []string
	for _, tok := range tokens {
		if strings.Contains(string(data), tok) {
			leftover = append(leftover, tok)
		}
	}
	return fileCheck{path: path, leftover: leftover}
}
