package emu

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

// InstSize is the guest address distance between consecutive RTL
// instructions.
const InstSize = 4

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program terminated (via exit syscall).
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator interprets RTL instructions directly on a guest RegFile. It is
// the reference the translator is checked against.
type Emulator struct {
	regFile        *RegFile
	program        []rtl.Instr
	entry          uint64
	syscallHandler SyscallHandler

	// Execution units
	alu *ALU
	fpu *FPU

	logger logr.Logger

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	roundingMode     softfloat.RoundingMode
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithSyscallHandler sets a custom syscall handler.
func WithSyscallHandler(handler SyscallHandler) EmulatorOption {
	return func(e *Emulator) {
		e.syscallHandler = handler
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithRoundingMode sets the initial frm.
func WithRoundingMode(rm softfloat.RoundingMode) EmulatorOption {
	return func(e *Emulator) {
		e.roundingMode = rm
	}
}

// WithLogger sets the logger. Executed instructions are logged at V(2).
func WithLogger(logger logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// NewEmulator creates a new RTL emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.initState()

	if e.syscallHandler == nil {
		e.syscallHandler = NewDefaultSyscallHandler()
	}

	return e
}

func (e *Emulator) initState() {
	e.regFile = &RegFile{}
	e.regFile.CSR.FRM = e.roundingMode
	e.alu = NewALU(e.regFile)
	e.fpu = NewFPU(&e.regFile.CSR)
	e.instructionCount = 0
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// FPU returns the emulator's floating-point unit.
func (e *Emulator) FPU() *FPU {
	return e.fpu
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// LoadProgram places program at entry and sets the PC to it. Instruction i
// lives at entry + i*InstSize.
func (e *Emulator) LoadProgram(entry uint64, program []rtl.Instr) {
	e.program = program
	e.entry = entry
	e.regFile.PC = entry
}

// Reset resets the register file and counters. The program stays loaded.
func (e *Emulator) Reset() {
	e.initState()
	e.regFile.PC = e.entry
}

// Fetch returns the instruction at pc.
func (e *Emulator) Fetch(pc uint64) (rtl.Instr, error) {
	return FetchInstr(e.program, e.entry, pc)
}

// FetchInstr returns the instruction of program at pc.
func FetchInstr(program []rtl.Instr, entry, pc uint64) (rtl.Instr, error) {
	if pc < entry || (pc-entry)%InstSize != 0 || (pc-entry)/InstSize >= uint64(len(program)) {
		return rtl.Instr{}, fmt.Errorf("no instruction at PC=0x%X", pc)
	}
	return program[(pc-entry)/InstSize], nil
}

// Step executes a single instruction.
// Returns a StepResult indicating whether execution should continue.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	inst, err := e.Fetch(e.regFile.PC)
	if err != nil {
		return StepResult{Err: err}
	}

	result := e.execute(inst)

	e.instructionCount++

	return result
}

// Run executes until the program exits or an error occurs.
func (e *Emulator) Run() StepResult {
	for {
		result := e.Step()
		if result.Exited || result.Err != nil {
			return result
		}
	}
}

func (e *Emulator) execute(inst rtl.Instr) StepResult {
	if err := inst.Validate(); err != nil {
		return StepResult{
			Err: fmt.Errorf("bad instruction at PC=0x%X: %w", e.regFile.PC, err),
		}
	}

	e.logger.V(2).Info("exec", "pc", e.regFile.PC, "inst", inst.String())

	if inst.Op == rtl.OpEcall {
		return e.executeEcall()
	}

	switch inst.Op {
	case rtl.OpLi:
		e.alu.LI(inst.Rd, inst.Imm)
	case rtl.OpMv:
		e.alu.MV(inst.Rd, inst.Rs1)
	case rtl.OpAdd:
		e.alu.ADD(inst.Rd, inst.Rs1, inst.Rs2)
	case rtl.OpSub:
		e.alu.SUB(inst.Rd, inst.Rs1, inst.Rs2)
	case rtl.OpAnd:
		e.alu.AND(inst.Rd, inst.Rs1, inst.Rs2)
	case rtl.OpOr:
		e.alu.OR(inst.Rd, inst.Rs1, inst.Rs2)
	case rtl.OpXor:
		e.alu.XOR(inst.Rd, inst.Rs1, inst.Rs2)
	case rtl.OpAddi:
		e.alu.ADDI(inst.Rd, inst.Rs1, inst.Imm)
	case rtl.OpSlli:
		e.alu.SLLI(inst.Rd, inst.Rs1, inst.Imm)
	case rtl.OpSrli:
		e.alu.SRLI(inst.Rd, inst.Rs1, inst.Imm)
	case rtl.OpSrai:
		e.alu.SRAI(inst.Rd, inst.Rs1, inst.Imm)
	case rtl.OpFPCall:
		e.executeFPCall(inst)
	}

	e.regFile.PC += InstSize

	return StepResult{}
}

func (e *Emulator) executeFPCall(inst rtl.Instr) {
	dest := e.regFile.Read(inst.Rd)
	e.fpu.CallRM(&dest, e.regFile.Read(inst.Rs1), e.regFile.Read(inst.Rs2), inst.Cmd, inst.RM)
	e.regFile.Write(inst.Rd, dest)
}

// executeEcall hands a snapshot of the guest registers to the syscall
// handler.
func (e *Emulator) executeEcall() StepResult {
	// Advance PC first (syscall return address is next instruction)
	e.regFile.PC += InstSize

	snap := e.regFile.Snapshot()
	result := e.syscallHandler.Handle(&snap)

	return StepResult{
		Exited:   result.Exited,
		ExitCode: result.ExitCode,
		Err:      result.Err,
	}
}
