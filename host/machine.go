package host

import (
	"fmt"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/softfloat"
)

// Exit tells why Execute returned.
type Exit uint8

// Exit reasons.
const (
	// ExitEnd means the buffer ran to completion.
	ExitEnd Exit = iota
	// ExitEcall means an ECALL left translated code.
	ExitEcall
)

// Context is the register state of a Machine.
type Context struct {
	X [32]uint64
	F [32]uint64
}

// Machine is one RV64 host execution context. Floating-point calls are
// serviced by an emu.FPU bound to the machine's fcsr.
type Machine struct {
	Context

	// CSR is the guest fcsr as seen by translated code.
	CSR emu.FCSR

	spm      *Scratchpad
	fpu      *emu.FPU
	executed uint64
}

// MachineOption is a functional option for configuring the Machine.
type MachineOption func(*Machine)

// WithRoundingMode sets the initial frm.
func WithRoundingMode(rm softfloat.RoundingMode) MachineOption {
	return func(m *Machine) {
		m.CSR.FRM = rm
	}
}

// NewMachine creates a machine whose scratchpad base register points at
// spm.
func NewMachine(spm *Scratchpad, opts ...MachineOption) *Machine {
	m := &Machine{spm: spm}
	m.fpu = emu.NewFPU(&m.CSR)
	m.initFixedRegs()

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Machine) initFixedRegs() {
	m.X[SpmBase] = m.spm.Base()
	m.X[Mask32] = 0xFFFFFFFF
}

// Reset clears registers and the scratchpad, keeping frm.
func (m *Machine) Reset() {
	m.Context = Context{}
	m.CSR.FFlags = 0
	m.spm.Reset()
	m.executed = 0
	m.initFixedRegs()
}

// Scratchpad returns the machine's scratchpad.
func (m *Machine) Scratchpad() *Scratchpad {
	return m.spm
}

// Executed returns the number of host instructions executed.
func (m *Machine) Executed() uint64 {
	return m.executed
}

// Save returns a copy of the register state.
func (m *Machine) Save() Context {
	return m.Context
}

// Restore replaces the register state.
func (m *Machine) Restore(c Context) {
	m.Context = c
}

// Fork returns a copy of m with its own registers, fcsr and instruction
// count. The copy shares m's scratchpad.
func (m *Machine) Fork() *Machine {
	f := &Machine{
		Context:  m.Context,
		CSR:      m.CSR,
		spm:      m.spm,
		executed: m.executed,
	}
	f.fpu = emu.NewFPU(&f.CSR)
	return f
}

// Read reads a host register. x0 reads as 0.
func (m *Machine) Read(r Reg) uint64 {
	if r.IsF() {
		return m.F[r.Index()]
	}
	if r == Zero {
		return 0
	}
	return m.X[r.Index()]
}

// Write writes a host register. Writes to x0 are ignored.
func (m *Machine) Write(r Reg, v uint64) {
	if r.IsF() {
		m.F[r.Index()] = v
		return
	}
	if r == Zero {
		return
	}
	m.X[r.Index()] = v
}

func sext32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// Execute runs code from the first instruction. It stops early at an
// ECALL or at the first failing memory access.
func (m *Machine) Execute(code []Inst) (Exit, error) {
	for pc, inst := range code {
		m.executed++
		if inst.Op == OpECALL {
			return ExitEcall, nil
		}
		if err := m.exec(inst); err != nil {
			return ExitEnd, fmt.Errorf("host inst %d (%v): %w", pc, inst, err)
		}
	}
	return ExitEnd, nil
}

func (m *Machine) exec(inst Inst) error {
	rs1 := m.Read(inst.Rs1)
	rs2 := m.Read(inst.Rs2)

	switch inst.Op {
	case OpLI:
		if inst.Rd.IsF() {
			m.Write(inst.Rd, uint64(inst.Imm))
		} else {
			m.Write(inst.Rd, sext32(uint32(inst.Imm)))
		}
	case OpADDIW:
		m.Write(inst.Rd, sext32(uint32(rs1)+uint32(inst.Imm)))
	case OpADDW:
		m.Write(inst.Rd, sext32(uint32(rs1)+uint32(rs2)))
	case OpSUBW:
		m.Write(inst.Rd, sext32(uint32(rs1)-uint32(rs2)))
	case OpAND:
		m.Write(inst.Rd, rs1&rs2)
	case OpOR:
		m.Write(inst.Rd, rs1|rs2)
	case OpXOR:
		m.Write(inst.Rd, rs1^rs2)
	case OpSLLIW:
		m.Write(inst.Rd, sext32(uint32(rs1)<<(inst.Imm&31)))
	case OpSRLIW:
		m.Write(inst.Rd, sext32(uint32(rs1)>>(inst.Imm&31)))
	case OpSRAIW:
		m.Write(inst.Rd, sext32(uint32(int32(rs1)>>(inst.Imm&31))))
	case OpLW:
		v, err := m.spm.Load32(rs1 + uint64(inst.Imm))
		if err != nil {
			return err
		}
		m.Write(inst.Rd, sext32(v))
	case OpSW:
		return m.spm.Store32(rs1+uint64(inst.Imm), uint32(rs2))
	case OpFMV:
		m.Write(inst.Rd, rs1)
	case OpFMVWX:
		m.Write(inst.Rd, emu.Box32(uint32(rs1)))
	case OpFMVXW:
		m.Write(inst.Rd, sext32(uint32(rs1)))
	case OpFPCALL:
		dest := m.Read(inst.Rd)
		m.fpu.CallRM(&dest, rs1, rs2, inst.Cmd, inst.RM)
		m.Write(inst.Rd, dest)
	default:
		return fmt.Errorf("unknown host op %v", inst.Op)
	}
	return nil
}
