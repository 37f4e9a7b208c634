package emu

import "github.com/sarchlab/rvdbt/rtl"

// ALU implements RV32 integer operations on RTL registers. Results are
// sign-extended into the 64-bit container, the way an RV64 host holds them.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

func (a *ALU) read32(r rtl.Reg) uint32 {
	return uint32(a.regFile.Read(r))
}

func (a *ALU) write32(rd rtl.Reg, v uint32) {
	a.regFile.Write(rd, uint64(int64(int32(v))))
}

// LI loads an immediate. Integer destinations keep the low 32 bits;
// floating-point destinations receive the raw 64-bit container.
func (a *ALU) LI(rd rtl.Reg, imm int64) {
	if rd.IsF() {
		a.regFile.Write(rd, uint64(imm))
		return
	}
	a.write32(rd, uint32(imm))
}

// MV copies rs to rd. Between floating-point registers the raw container
// moves; an integer moved into a floating-point register is NaN-boxed, and
// the reverse keeps the low 32 bits.
func (a *ALU) MV(rd, rs rtl.Reg) {
	switch {
	case rd.IsF() && rs.IsF():
		a.regFile.Write(rd, a.regFile.Read(rs))
	case rd.IsF():
		a.regFile.Write(rd, Box32(a.read32(rs)))
	default:
		a.write32(rd, a.read32(rs))
	}
}

// ADD performs rd = rs1 + rs2.
func (a *ALU) ADD(rd, rs1, rs2 rtl.Reg) {
	a.write32(rd, a.read32(rs1)+a.read32(rs2))
}

// SUB performs rd = rs1 - rs2.
func (a *ALU) SUB(rd, rs1, rs2 rtl.Reg) {
	a.write32(rd, a.read32(rs1)-a.read32(rs2))
}

// AND performs rd = rs1 & rs2.
func (a *ALU) AND(rd, rs1, rs2 rtl.Reg) {
	a.write32(rd, a.read32(rs1)&a.read32(rs2))
}

// OR performs rd = rs1 | rs2.
func (a *ALU) OR(rd, rs1, rs2 rtl.Reg) {
	a.write32(rd, a.read32(rs1)|a.read32(rs2))
}

// XOR performs rd = rs1 ^ rs2.
func (a *ALU) XOR(rd, rs1, rs2 rtl.Reg) {
	a.write32(rd, a.read32(rs1)^a.read32(rs2))
}

// ADDI performs rd = rs1 + imm.
func (a *ALU) ADDI(rd, rs1 rtl.Reg, imm int64) {
	a.write32(rd, a.read32(rs1)+uint32(imm))
}

// SLLI performs rd = rs1 << shamt. Only the low five bits of shamt count.
func (a *ALU) SLLI(rd, rs1 rtl.Reg, shamt int64) {
	a.write32(rd, a.read32(rs1)<<(shamt&31))
}

// SRLI performs a logical right shift.
func (a *ALU) SRLI(rd, rs1 rtl.Reg, shamt int64) {
	a.write32(rd, a.read32(rs1)>>(shamt&31))
}

// SRAI performs an arithmetic right shift.
func (a *ALU) SRAI(rd, rs1 rtl.Reg, shamt int64) {
	a.write32(rd, uint32(int32(a.read32(rs1))>>(shamt&31)))
}
