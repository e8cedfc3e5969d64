package opensched

import (
	"fmt"
	"strconv"
	"strings"
)

// CompositionKey is a parsed "suite-benchmark-input-parallelism" string,
// turned into a structured key once per task rather than re-parsed on
// every lookup.
type CompositionKey struct {
	Suite       string
	Benchmark   string
	Input       string
	Parallelism int
}

// parseComposition splits a composition string into its four
// dash-separated fields. Input is preserved but otherwise unused by the
// mapping logic, matching the source's coreRequirementTranslation.
func parseComposition(name string) (CompositionKey, error) {
	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return CompositionKey{}, &ConfigurationError{
			Msg: fmt.Sprintf("malformed composition string %q, expected suite-benchmark-input-parallelism", name),
		}
	}
	p, err := strconv.Atoi(parts[3])
	if err != nil {
		return CompositionKey{}, &ConfigurationError{
			Msg: fmt.Sprintf("malformed parallelism in composition string %q: %v", name, err),
		}
	}
	return CompositionKey{
		Suite:       parts[0],
		Benchmark:   parts[1],
		Input:       parts[2],
		Parallelism: p,
	}, nil
}

// requirementTables holds, for each (suite, benchmark), the worst-case
// core count indexed by parallelism-1. A 0 entry is a forbidden
// parallelism value the table author used as a placeholder; it is a
// valid lookup that must be treated as a fatal configuration error by
// the caller, not as "missing".
var requirementTables = map[string]map[string][]int{
	"parsec": {
		"blackscholes":  {2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"bodytrack":     {3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"canneal":       {2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"dedup":         {4, 7, 10, 13, 16},
		"ferret":        {7, 11, 15},
		"fluidanimate":  {2, 3, 0, 5, 0, 0, 0, 9},
		"streamcluster": {2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"swaptions":     {2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"x264":          {1, 3, 4, 5, 6, 7, 8, 9},
	},
	"splash2": {
		"barnes":      {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"cholesky":    {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"fft":         {1, 2, 0, 4, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 16},
		"fmm":         {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"lu.cont":     {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"lu.ncont":    {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"ocean.cont":  {1, 2, 0, 4, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 16},
		"ocean.ncont": {1, 2, 0, 4, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 16},
		"radiosity":   {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"radix":       {1, 2, 0, 4, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 16},
		"raytrace":    {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"water.nsq":   {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		"water.sp":    {1, 2, 0, 4, 0, 0, 0, 8, 0, 0, 0, 0, 0, 0, 0, 16},
	},
}

// requirement is the pure function mapping a composition string to its
// worst-case core count. It fails fatally (returns a *ConfigurationError)
// when parallelism < 1, the suite is unknown, the benchmark is unknown,
// or parallelism exceeds the table length for that benchmark, exactly
// the source's coreRequirementTranslation checks, including the
// fluidanimate table being deliberately shorter than 16.
func requirement(name string) (int, error) {
	key, err := parseComposition(name)
	if err != nil {
		return 0, err
	}
	if key.Parallelism < 1 {
		return 0, &ConfigurationError{
			Msg: fmt.Sprintf("can't find core requirement of %q (parallelism < 1)", name),
		}
	}
	benchmarks, ok := requirementTables[key.Suite]
	if !ok {
		return 0, &ConfigurationError{
			Msg: fmt.Sprintf("can't find core requirement of %q (only parsec and splash2 are implemented)", name),
		}
	}
	table, ok := benchmarks[key.Benchmark]
	if !ok {
		return 0, &ConfigurationError{
			Msg: fmt.Sprintf("can't find core requirement of %q (unknown benchmark %q)", name, key.Benchmark),
		}
	}
	if key.Parallelism-1 >= len(table) {
		return 0, &ConfigurationError{
			Msg: fmt.Sprintf("can't find core requirement of %q (parallelism %d exceeds profile length %d)", name, key.Parallelism, len(table)),
		}
	}
	return table[key.Parallelism-1], nil
}
