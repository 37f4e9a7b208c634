// Package main provides the entry point for rvdbt.
// rvdbt runs RTL programs for an RV32 guest, either translated onto the
// RV64 host model or through the reference interpreter.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"golang.org/x/term"

	"github.com/sarchlab/rvdbt/config"
	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/engine"
	"github.com/sarchlab/rvdbt/loader"
	"github.com/sarchlab/rvdbt/rtl"
)

var (
	interp     = flag.Bool("interp", false, "Run on the reference interpreter instead of translating")
	configPath = flag.String("config", "", "Path to engine configuration JSON file")
	verbosity  = flag.Int("v", -1, "Log verbosity (overrides the config when >= 0)")
	showRegs   = flag.Bool("regs", false, "Print the guest registers when the program stops")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvdbt [options] <program.json>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(flag.Arg(0)))
}

func loadConfig() (*config.EngineConfig, error) {
	cfg := config.DefaultEngineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if *verbosity >= 0 {
		cfg.Verbosity = *verbosity
	}
	return cfg, cfg.Validate()
}

func newLogger(verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: verbosity})
}

func run(programPath string) int {
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.Verbosity)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}
	entry, code, err := prog.Image()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}
	logger.Info("loaded", "program", programPath, "entry", fmt.Sprintf("0x%X", prog.Entry),
		"instructions", len(prog.Instrs))

	start := time.Now()
	var (
		result emu.StepResult
		snap   emu.Snapshot
		stats  runStats
	)
	if *interp {
		result, snap, stats, err = runInterpreter(cfg, logger, entry, code)
	} else {
		result, snap, stats, err = runTranslated(cfg, logger, entry, code)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	stats.elapsed = time.Since(start)

	if *showRegs {
		writeSnapshot(os.Stdout, &snap, term.IsTerminal(int(os.Stdout.Fd())))
	}
	logger.V(1).Info("stats", stats.keysAndValues()...)

	if result.Err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
		return 1
	}
	return int(result.ExitCode)
}

func runInterpreter(
	cfg *config.EngineConfig, logger logr.Logger, entry uint64, code []rtl.Instr,
) (emu.StepResult, emu.Snapshot, runStats, error) {
	frm, err := cfg.FRM()
	if err != nil {
		return emu.StepResult{}, emu.Snapshot{}, runStats{}, err
	}

	e := emu.NewEmulator(
		emu.WithLogger(logger.WithName("emu")),
		emu.WithRoundingMode(frm),
		emu.WithMaxInstructions(cfg.MaxInstructions),
	)
	e.LoadProgram(entry, code)

	result := e.Run()
	stats := runStats{instructions: e.InstructionCount()}
	return result, e.RegFile().Snapshot(), stats, nil
}

func runTranslated(
	cfg *config.EngineConfig, logger logr.Logger, entry uint64, code []rtl.Instr,
) (emu.StepResult, emu.Snapshot, runStats, error) {
	e, err := engine.New(cfg, engine.WithLogger(logger.WithName("engine")))
	if err != nil {
		return emu.StepResult{}, emu.Snapshot{}, runStats{}, err
	}
	e.LoadProgram(entry, code)

	result := e.Run()
	snap, err := e.Snapshot()
	if err != nil {
		return result, snap, runStats{}, err
	}

	stats := runStats{
		instructions: e.InstructionCount(),
		blocks:       e.BlockCount(),
		hostInsts:    e.Machine().Executed(),
		cache:        e.CacheStats(),
		translated:   true,
	}
	return result, snap, stats, nil
}
