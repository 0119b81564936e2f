// Command pagingsim drives a single PagingEngine run, either to
// completion over a reference-stream file or as a long-lived HTTP
// control plane.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/mnohosten/pagingsim/internal/api"
	"github.com/mnohosten/pagingsim/internal/config"
	"github.com/mnohosten/pagingsim/internal/pager"
	"github.com/mnohosten/pagingsim/internal/refstream"
)

func main() {
	configPath := flag.String("config", "", "YAML run configuration (see internal/config for the schema)")
	tracePath := flag.String("trace", "", "reference-stream file (tuple or synthetic form)")
	traceFormat := flag.String("trace-format", "tuple", "reference-stream format: tuple or synthetic")
	serve := flag.Bool("serve", false, "serve the HTTP control plane instead of running a trace")
	addr := flag.String("addr", "localhost:8080", "address for -serve")
	flag.Parse()

	if err := run(*configPath, *tracePath, *traceFormat, *serve, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "pagingsim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, tracePath, traceFormat string, serve bool, addr string) error {
	if serve {
		return serveHTTP(addr)
	}

	rc := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		rc = loaded
	}

	pc, err := rc.ToPagerConfig()
	if err != nil {
		return err
	}

	engine, err := pager.NewEngine(pc)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := rc.ApplyCodec(engine, pc.PageSize); err != nil {
		return err
	}

	if tracePath == "" {
		return fmt.Errorf("either -trace or -serve is required")
	}
	f, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	var entries []refstream.Entry
	switch traceFormat {
	case "tuple":
		entries, err = refstream.ParseTuples(f)
	case "synthetic":
		entries, err = refstream.ParseSynthetic(f)
	default:
		return fmt.Errorf("unknown trace format: %s", traceFormat)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := engine.Access(e.Page, e.Kind); err != nil {
			return err
		}
	}

	printStats(engine.Stats())
	return nil
}

func serveHTTP(addr string) error {
	srv := api.New()
	defer srv.Close()

	fmt.Printf("pagingsim control plane listening on http://%s\n", addr)
	fmt.Println("  POST /v1/init       start a run")
	fmt.Println("  POST /v1/access     service one reference")
	fmt.Println("  GET  /v1/stats      read accumulated statistics")
	fmt.Println("  GET  /v1/pagetable  read resident pages")
	fmt.Println("  GET  /v1/frametable read frame occupancy")
	fmt.Println("  GET  /v1/stream     WebSocket feed of access events")
	fmt.Println("  POST /graphql       query statistics/tables via GraphQL")

	return http.ListenAndServe(addr, srv)
}

func printStats(s pager.Statistics) {
	fmt.Printf("policy:            %s\n", s.PolicyName)
	fmt.Printf("accesses:          %d\n", s.Accesses)
	fmt.Printf("hits:              %d\n", s.Hits)
	fmt.Printf("faults:            %d\n", s.Faults)
	fmt.Printf("swaps_out:         %d\n", s.SwapsOut)
	fmt.Printf("swaps_in:          %d\n", s.SwapsIn)
	fmt.Printf("hit_ratio:         %.4f\n", s.HitRatio())
	fmt.Printf("fault_time_total:  %s\n", s.FaultTimeTotal)
	fmt.Printf("swap_out_time_total: %s\n", s.SwapOutTimeTotal)
	fmt.Printf("swap_in_time_total:  %s\n", s.SwapInTimeTotal)
}
