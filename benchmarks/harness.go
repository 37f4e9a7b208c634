// Package benchmarks provides guest workloads and a harness that runs them
// on the reference interpreter and the translating engine side by side.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvdbt/config"
	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/engine"
	"github.com/sarchlab/rvdbt/rtl"
)

// Mode names the execution path a result was measured on.
type Mode string

// Execution paths.
const (
	ModeInterpreter Mode = "interp"
	ModeTranslated  Mode = "dbt"
)

// BenchmarkResult holds the measurements of one run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Mode is the execution path
	Mode Mode `json:"mode"`

	// GuestInstructions is the number of guest instructions executed
	GuestInstructions uint64 `json:"guest_instructions"`

	// HostInstructions is the number of host instructions executed
	// (translated runs only)
	HostInstructions uint64 `json:"host_instructions,omitempty"`

	// Expansion is host instructions per guest instruction
	Expansion float64 `json:"expansion,omitempty"`

	// Blocks is the number of translated blocks entered
	Blocks uint64 `json:"blocks,omitempty"`

	// Code cache counters
	CacheHits      uint64 `json:"cache_hits,omitempty"`
	CacheMisses    uint64 `json:"cache_misses,omitempty"`
	CacheEvictions uint64 `json:"cache_evictions,omitempty"`

	// ExitCode is the program's exit code
	ExitCode int64 `json:"exit_code"`

	// Regs is the guest register state at exit
	Regs emu.Snapshot `json:"-"`

	// Error is set when the run stopped on an error
	Error string `json:"error,omitempty"`

	// WallTime is the time taken by all iterations
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single workload.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the workload exercises
	Description string

	// Program is loaded at Entry
	Program []rtl.Instr

	// ExpectedExit is the expected exit code (for validation)
	ExpectedExit int64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Engine configures the translated runs and the interpreter's frm.
	Engine *config.EngineConfig

	// Iterations is how many times each workload runs per mode. Counters
	// are reported for the last iteration.
	Iterations int

	// SkipInterpreter disables the reference runs.
	SkipInterpreter bool

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Logger receives engine logs.
	Logger logr.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Engine:     config.DefaultEngineConfig(),
		Iterations: 1,
		Output:     os.Stdout,
		Logger:     logr.Discard(),
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Engine == nil {
		config.Engine = DefaultConfig().Engine
	}
	if config.Iterations < 1 {
		config.Iterations = 1
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes every benchmark, interpreter first, and returns the
// results in that order.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, 2*len(h.benchmarks))

	for _, bench := range h.benchmarks {
		if !h.config.SkipInterpreter {
			results = append(results, h.runInterpreter(bench))
		}
		results = append(results, h.runTranslated(bench))
	}

	return results
}

func (h *Harness) runInterpreter(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{Name: bench.Name, Mode: ModeInterpreter}

	frm, err := h.config.Engine.FRM()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	e := emu.NewEmulator(
		emu.WithRoundingMode(frm),
		emu.WithMaxInstructions(h.config.Engine.MaxInstructions),
	)
	e.LoadProgram(Entry, bench.Program)

	var step emu.StepResult
	start := time.Now()
	for i := 0; i < h.config.Iterations; i++ {
		e.Reset()
		step = e.Run()
	}
	result.WallTime = time.Since(start)

	result.GuestInstructions = e.InstructionCount()
	result.Regs = e.RegFile().Snapshot()
	finish(&result, step)
	return result
}

func (h *Harness) runTranslated(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{Name: bench.Name, Mode: ModeTranslated}

	e, err := engine.New(h.config.Engine,
		engine.WithLogger(h.config.Logger.WithValues("benchmark", bench.Name)))
	if err != nil {
		result.Error = err.Error()
		return result
	}
	e.LoadProgram(Entry, bench.Program)

	var step emu.StepResult
	start := time.Now()
	for i := 0; i < h.config.Iterations; i++ {
		e.Reset()
		step = e.Run()
	}
	result.WallTime = time.Since(start)

	result.GuestInstructions = e.InstructionCount()
	result.HostInstructions = e.Machine().Executed()
	if result.GuestInstructions > 0 {
		result.Expansion = float64(result.HostInstructions) / float64(result.GuestInstructions)
	}
	result.Blocks = e.BlockCount()

	stats := e.CacheStats()
	result.CacheHits = stats.Hits
	result.CacheMisses = stats.Misses
	result.CacheEvictions = stats.Evictions

	snap, err := e.Snapshot()
	if err != nil && step.Err == nil {
		step.Err = err
	}
	result.Regs = snap
	finish(&result, step)
	return result
}

func finish(result *BenchmarkResult, step emu.StepResult) {
	result.ExitCode = step.ExitCode
	if step.Err != nil {
		result.Error = step.Err.Error()
	} else if !step.Exited {
		result.Error = "program did not exit"
	}
}

// Validate checks every result against its benchmark's expected exit code
// and, when both modes ran, that they agree on the final registers.
func (h *Harness) Validate(results []BenchmarkResult) error {
	expected := make(map[string]int64, len(h.benchmarks))
	for _, b := range h.benchmarks {
		expected[b.Name] = b.ExpectedExit
	}

	reference := make(map[string]*BenchmarkResult)
	for i := range results {
		r := &results[i]
		if r.Error != "" {
			return fmt.Errorf("%s (%s): %s", r.Name, r.Mode, r.Error)
		}
		if want, ok := expected[r.Name]; ok && r.ExitCode != want {
			return fmt.Errorf("%s (%s): exit code %d, expected %d", r.Name, r.Mode, r.ExitCode, want)
		}

		if r.Mode == ModeInterpreter {
			reference[r.Name] = r
			continue
		}
		if ref, ok := reference[r.Name]; ok && ref.Regs != r.Regs {
			return fmt.Errorf("%s: translated registers differ from the interpreter", r.Name)
		}
	}
	return nil
}

// PrintResults outputs results in human-readable form.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== rvdbt Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	descriptions := make(map[string]string, len(h.benchmarks))
	for _, b := range h.benchmarks {
		descriptions[b.Name] = b.Description
	}

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s [%s]\n", r.Name, r.Mode)
		if d := descriptions[r.Name]; d != "" {
			_, _ = fmt.Fprintf(out, "  Description: %s\n", d)
		}
		_, _ = fmt.Fprintf(out, "  Exit Code: %d\n", r.ExitCode)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(out, "  Guest Instructions: %d\n", r.GuestInstructions)

		if r.Mode == ModeTranslated {
			_, _ = fmt.Fprintln(out, "  --- Translation ---")
			_, _ = fmt.Fprintf(out, "  Host Instructions:  %d\n", r.HostInstructions)
			_, _ = fmt.Fprintf(out, "  Expansion:          %.2f\n", r.Expansion)
			_, _ = fmt.Fprintf(out, "  Blocks:             %d\n", r.Blocks)
			_, _ = fmt.Fprintln(out, "  --- Code Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:      %d\n", r.CacheHits)
			_, _ = fmt.Fprintf(out, "  Misses:    %d\n", r.CacheMisses)
			_, _ = fmt.Fprintf(out, "  Evictions: %d\n", r.CacheEvictions)
		}

		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,mode,guest_insts,host_insts,expansion,blocks,cache_hits,cache_misses,cache_evictions,exit_code,wall_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Mode,
			r.GuestInstructions,
			r.HostInstructions,
			r.Expansion,
			r.Blocks,
			r.CacheHits,
			r.CacheMisses,
			r.CacheEvictions,
			r.ExitCode,
			r.WallTime.Nanoseconds(),
		)
	}
}

// BenchmarkReport is the JSON document written by PrintJSON.
type BenchmarkReport struct {
	Timestamp  string               `json:"timestamp"`
	Config     *config.EngineConfig `json:"config"`
	Iterations int                  `json:"iterations"`
	Results    []BenchmarkResult    `json:"results"`
}

// PrintJSON outputs results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Config:     h.config.Engine,
		Iterations: h.config.Iterations,
		Results:    results,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
