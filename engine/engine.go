// Package engine runs RTL programs by translating them block by block and
// executing the translations on a host machine.
package engine

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvdbt/codecache"
	"github.com/sarchlab/rvdbt/config"
	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/host"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/tran"
)

// Engine is one emulated CPU context driven by translated code.
type Engine struct {
	translator     *tran.Translator
	machine        *host.Machine
	cache          *codecache.Cache[*tran.Block]
	syscallHandler emu.SyscallHandler
	logger         logr.Logger

	program []rtl.Instr
	entry   uint64
	pc      uint64

	instructionCount uint64
	blockCount       uint64
	maxInstructions  uint64 // 0 means no limit
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler emu.SyscallHandler) Option {
	return func(e *Engine) {
		e.syscallHandler = handler
	}
}

// WithLogger sets the logger of the engine and its translator.
func WithLogger(logger logr.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine from cfg.
func New(cfg *config.EngineConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	frm, err := cfg.FRM()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		syscallHandler:  emu.NewDefaultSyscallHandler(),
		logger:          logr.Discard(),
		maxInstructions: cfg.MaxInstructions,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.translator = tran.NewTranslator(
		tran.WithLogger(e.logger.WithName("tran")),
		tran.WithMaxBlockLen(cfg.MaxBlockLen),
		tran.WithWritebackEachInst(cfg.WritebackEachInst),
	)
	e.machine = host.NewMachine(
		host.NewScratchpad(cfg.ScratchpadBase, cfg.ScratchpadSize),
		host.WithRoundingMode(frm),
	)
	e.cache = codecache.New[*tran.Block](cfg.CodeCache())

	return e, nil
}

// LoadProgram sets the program to run and drops stale translations.
func (e *Engine) LoadProgram(entry uint64, program []rtl.Instr) {
	e.program = program
	e.entry = entry
	e.cache.Reset()
	e.Reset()
}

// Reset rewinds to the entry point with cleared registers. Translations
// stay cached.
func (e *Engine) Reset() {
	e.machine.Reset()
	e.translator.Spill().Reset()
	e.pc = e.entry
	e.instructionCount = 0
	e.blockCount = 0
}

// PC returns the guest address of the next block.
func (e *Engine) PC() uint64 {
	return e.pc
}

// Machine returns the host machine.
func (e *Engine) Machine() *host.Machine {
	return e.machine
}

// Translator returns the translator.
func (e *Engine) Translator() *tran.Translator {
	return e.translator
}

// CacheStats returns code cache statistics.
func (e *Engine) CacheStats() codecache.Statistics {
	return e.cache.Stats()
}

// InstructionCount returns the number of guest instructions executed.
func (e *Engine) InstructionCount() uint64 {
	return e.instructionCount
}

// BlockCount returns the number of blocks executed.
func (e *Engine) BlockCount() uint64 {
	return e.blockCount
}

// Snapshot returns the guest registers at the current block boundary.
// After a block fails, reserved registers are read from their scratchpad
// slots and hold the values last stored there.
func (e *Engine) Snapshot() (emu.Snapshot, error) {
	snap, err := e.translator.GuestGetRegs(e.machine)
	snap.PC = e.pc
	return snap, err
}

func (e *Engine) block(pc uint64) (*tran.Block, error) {
	if blk, ok := e.cache.Lookup(pc); ok {
		return blk, nil
	}

	blk, err := e.translator.Translate(e.program, e.entry, pc)
	if err != nil {
		return nil, err
	}

	if old, evicted := e.cache.Insert(pc, blk); evicted {
		e.logger.V(1).Info("evicted block", "pc", fmt.Sprintf("0x%X", old))
	}
	return blk, nil
}

// Step translates (or reuses) and runs the block at the current PC.
// A limit on instructions is checked between blocks.
func (e *Engine) Step() emu.StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return emu.StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	blk, err := e.block(e.pc)
	if err != nil {
		return emu.StepResult{Err: err}
	}

	exit, err := e.machine.Execute(blk.Code)
	if err != nil {
		// The temporaries no longer match any block exit.
		e.translator.Spill().Reset()
		return emu.StepResult{
			Err: fmt.Errorf("block at PC=0x%X: %w", blk.PC, err),
		}
	}
	e.translator.Resume(blk)

	e.pc = blk.NextPC
	e.instructionCount += uint64(blk.GuestInsts)
	e.blockCount++

	if exit == host.ExitEcall {
		return e.syscall()
	}
	return emu.StepResult{}
}

func (e *Engine) syscall() emu.StepResult {
	snap, err := e.Snapshot()
	if err != nil {
		return emu.StepResult{Err: err}
	}

	result := e.syscallHandler.Handle(&snap)

	return emu.StepResult{
		Exited:   result.Exited,
		ExitCode: result.ExitCode,
		Err:      result.Err,
	}
}

// Run executes until the program exits or an error occurs.
func (e *Engine) Run() emu.StepResult {
	for {
		result := e.Step()
		if result.Exited || result.Err != nil {
			return result
		}
	}
}
