// Command pagingsim-compare runs the same reference stream through
// FIFO, LRU, and Clock replacement and prints their statistics side by
// side. It is a thin external harness over the public pager/config/
// refstream APIs; the core packages carry no knowledge of it.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnohosten/pagingsim/internal/config"
	"github.com/mnohosten/pagingsim/internal/pager"
	"github.com/mnohosten/pagingsim/internal/refstream"
)

func main() {
	configPath := flag.String("config", "", "YAML run configuration (see internal/config for the schema)")
	tracePath := flag.String("trace", "", "reference-stream file to replay against every policy")
	traceFormat := flag.String("trace-format", "tuple", "reference-stream format: tuple or synthetic")
	flag.Parse()

	if *tracePath == "" {
		fmt.Fprintln(os.Stderr, "pagingsim-compare: -trace is required")
		os.Exit(1)
	}

	if err := run(*configPath, *tracePath, *traceFormat); err != nil {
		fmt.Fprintf(os.Stderr, "pagingsim-compare: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, tracePath, traceFormat string) error {
	rc := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		rc = loaded
	}

	entries, err := loadTrace(tracePath, traceFormat)
	if err != nil {
		return err
	}

	policies := []pager.PolicyKind{pager.PolicyFIFO, pager.PolicyLRU, pager.PolicyClock}
	results := make(map[string]pager.Statistics, len(policies))

	for i, kind := range policies {
		rc.Policy = kind.String()
		pc, err := rc.ToPagerConfig()
		if err != nil {
			return err
		}
		// Each policy gets its own backing file, removed once its run
		// ends, so no run reads slots another run wrote.
		pc.BackingPath = backingPathFor(rc.BackingPath, i)

		engine, err := pager.NewEngine(pc)
		if err != nil {
			return err
		}
		if err := rc.ApplyCodec(engine, pc.PageSize); err != nil {
			engine.Close()
			return err
		}

		for _, e := range entries {
			if err := engine.Access(e.Page, e.Kind); err != nil {
				engine.Close()
				return err
			}
		}

		results[kind.String()] = engine.Stats()
		engine.Close()
		os.Remove(pc.BackingPath)
	}

	printComparison(policies, results)
	return nil
}

func backingPathFor(base string, index int) string {
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	name := filepath.Base(base)
	name = name[:len(name)-len(ext)]
	return filepath.Join(dir, fmt.Sprintf("%s.%d%s", name, index, ext))
}

func loadTrace(path, format string) ([]refstream.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	switch format {
	case "tuple":
		return refstream.ParseTuples(f)
	case "synthetic":
		return refstream.ParseSynthetic(f)
	default:
		return nil, fmt.Errorf("unknown trace format: %s", format)
	}
}

func printComparison(policies []pager.PolicyKind, results map[string]pager.Statistics) {
	fmt.Printf("%-8s %10s %8s %8s %10s %9s %10s\n",
		"policy", "accesses", "hits", "faults", "swaps_out", "swaps_in", "hit_ratio")
	for _, kind := range policies {
		s := results[kind.String()]
		fmt.Printf("%-8s %10d %8d %8d %10d %9d %10.4f\n",
			s.PolicyName, s.Accesses, s.Hits, s.Faults, s.SwapsOut, s.SwapsIn, s.HitRatio())
	}
}
