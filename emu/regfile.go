// Package emu provides functional RV32 guest emulation on RTL instructions.
package emu

import (
	"fmt"

	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

// RegFile represents the guest register file.
// It contains 32 integer registers (X0-X31), 32 floating-point registers,
// the RTL temporaries, the program counter (PC) and fcsr.
type RegFile struct {
	// X holds integer registers in 64-bit containers. The architectural
	// value is the low 32 bits, normally held sign-extended. X[0] always
	// reads as 0.
	X [32]uint64

	// F holds floating-point registers. Single-precision values are
	// NaN-boxed.
	F [32]uint64

	// S0 and S1 are the RTL temporaries.
	S0 uint64
	S1 uint64

	// PC is the program counter.
	PC uint64

	// CSR holds the floating-point control and status register.
	CSR FCSR
}

// FCSR represents the floating-point control and status register.
type FCSR struct {
	// FRM is the dynamic rounding mode.
	FRM softfloat.RoundingMode
	// FFlags holds the accrued exception flags.
	FFlags softfloat.Flags
}

// Value returns the fcsr encoding: frm in bits 5-7, fflags in bits 0-4.
func (c FCSR) Value() uint32 {
	return uint32(c.FRM&7)<<5 | uint32(c.FFlags&0x1F)
}

// SetValue writes the fcsr encoding.
func (c *FCSR) SetValue(v uint32) {
	c.FRM = softfloat.RoundingMode(v >> 5 & 7)
	c.FFlags = softfloat.Flags(v & 0x1F)
}

// Read reads an RTL register. X0 and rtl.Zero return 0.
func (r *RegFile) Read(reg rtl.Reg) uint64 {
	switch {
	case reg == rtl.X0 || reg == rtl.Zero:
		return 0
	case reg.IsX():
		return r.X[reg]
	case reg.IsF():
		return r.F[reg.Index()]
	case reg == rtl.S0:
		return r.S0
	case reg == rtl.S1:
		return r.S1
	}
	panic(fmt.Sprintf("emu: read of invalid register %v", reg))
}

// Write writes an RTL register. Writes to X0 and rtl.Zero are ignored.
func (r *RegFile) Write(reg rtl.Reg, value uint64) {
	switch {
	case reg == rtl.X0 || reg == rtl.Zero:
		return
	case reg.IsX():
		r.X[reg] = value
	case reg.IsF():
		r.F[reg.Index()] = value
	case reg == rtl.S0:
		r.S0 = value
	case reg == rtl.S1:
		r.S1 = value
	default:
		panic(fmt.Sprintf("emu: write of invalid register %v", reg))
	}
}

// ReadReg32 reads the architectural 32-bit value of integer register n.
func (r *RegFile) ReadReg32(n int) uint32 {
	return uint32(r.Read(rtl.XReg(n)))
}

// WriteReg32 writes integer register n, sign-extending the value.
func (r *RegFile) WriteReg32(n int, value uint32) {
	r.Write(rtl.XReg(n), uint64(int64(int32(value))))
}

// Snapshot returns the guest-visible state.
func (r *RegFile) Snapshot() Snapshot {
	s := Snapshot{F: r.F, PC: r.PC, CSR: r.CSR}
	for i := 1; i < 32; i++ {
		s.X[i] = uint32(r.X[i])
	}
	return s
}

// Snapshot is a consistent copy of the guest-visible register state. Both
// the interpreter and the translator produce one, so their results compare
// with ==.
type Snapshot struct {
	X   [32]uint32
	F   [32]uint64
	PC  uint64
	CSR FCSR
}

// Reg returns integer register n.
func (s *Snapshot) Reg(n int) uint32 {
	return s.X[n&31]
}
