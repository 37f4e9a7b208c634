// Command benchmark runs the rvdbt workload harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output results as a JSON report
//	-core       Run only the core workloads
//	-n          Iterations per workload and mode
//	-config     Engine configuration JSON file
//	-no-interp  Skip the reference interpreter runs
//
// Example:
//
//	# Compare both execution paths with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv -n 1000 > results.csv
//
// The command exits non-zero when a workload stops with the wrong exit code
// or when the translated registers differ from the interpreter's.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rvdbt/benchmarks"
	"github.com/sarchlab/rvdbt/config"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	coreOnly := flag.Bool("core", false, "Run only the core workloads")
	iterations := flag.Int("n", 1, "Iterations per workload and mode")
	configPath := flag.String("config", "", "Path to engine configuration JSON file")
	noInterp := flag.Bool("no-interp", false, "Skip the reference interpreter runs")
	flag.Parse()

	harnessConfig := benchmarks.DefaultConfig()
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		harnessConfig.Engine = cfg
	}
	if err := harnessConfig.Engine.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	harnessConfig.Iterations = *iterations
	harnessConfig.SkipInterpreter = *noInterp
	harnessConfig.Output = os.Stdout

	harness := benchmarks.NewHarness(harnessConfig)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("rvdbt Benchmark Harness")
		fmt.Println("=======================")
		fmt.Printf("Max block length: %d\n", harnessConfig.Engine.MaxBlockLen)
		fmt.Printf("Code cache:       %d blocks, %d-way\n",
			harnessConfig.Engine.CodeCacheBlocks, harnessConfig.Engine.CodeCacheWays)
		fmt.Printf("Iterations:       %d\n", *iterations)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	if err := harness.Validate(results); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}
