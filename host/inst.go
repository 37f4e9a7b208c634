// Package host models the RV64 host datapath that translated code runs on.
//
// It provides the host register identifiers, the small host instruction
// set the translator emits, the scratchpad memory that backs spilled guest
// registers, and a Machine that executes translation buffers.
package host

import (
	"fmt"

	"github.com/sarchlab/rvdbt/rtl"
)

// Reg identifies a host register. 0-31 are integer registers, 32-63 are
// floating-point registers.
type Reg uint8

// Host registers with a fixed role in translated code.
const (
	Zero    Reg = 0
	Tmp0    Reg = 3  // translator scratch (gp)
	Mask32  Reg = 4  // holds 0xFFFFFFFF (tp)
	SpmBase Reg = 29 // scratchpad base address
	TmpReg1 Reg = 30 // spill temporary
	TmpReg2 Reg = 31 // spill temporary
)

// X returns integer register n.
func X(n int) Reg {
	return Reg(n & 31)
}

// F returns floating-point register n.
func F(n int) Reg {
	return Reg(32 + n&31)
}

// IsF reports whether r is a floating-point register.
func (r Reg) IsF() bool {
	return r >= 32 && r < 64
}

// Index returns the register number within its file.
func (r Reg) Index() int {
	return int(r & 31)
}

func (r Reg) String() string {
	if r.IsF() {
		return fmt.Sprintf("f%d", r.Index())
	}
	return fmt.Sprintf("x%d", uint8(r))
}

// Op is a host opcode.
type Op uint8

// Host opcodes. W-suffixed operations compute on the low 32 bits and
// sign-extend the result, as on RV64.
const (
	OpInvalid Op = iota
	OpLI          // rd = imm; integer rd gets sext32(imm), FP rd the raw imm
	OpADDIW       // rd = sext32(rs1 + imm)
	OpADDW        // rd = sext32(rs1 + rs2)
	OpSUBW        // rd = sext32(rs1 - rs2)
	OpAND         // rd = rs1 & rs2
	OpOR          // rd = rs1 | rs2
	OpXOR         // rd = rs1 ^ rs2
	OpSLLIW       // rd = sext32(rs1 << imm)
	OpSRLIW       // rd = sext32(uint32(rs1) >> imm)
	OpSRAIW       // rd = sext32(int32(rs1) >> imm)
	OpLW          // rd = sext32(mem32[rs1 + imm])
	OpSW          // mem32[rs1 + imm] = rs2
	OpFMV         // f[rd] = f[rs1]
	OpFMVWX       // f[rd] = box32(x[rs1])
	OpFMVXW       // x[rd] = sext32(f[rs1])
	OpFPCALL      // rd = fpcall(rs1, rs2, cmd, rm)
	OpECALL       // leave translated code
)

var opNames = [...]string{
	OpInvalid: "invalid",
	OpLI:      "li",
	OpADDIW:   "addiw",
	OpADDW:    "addw",
	OpSUBW:    "subw",
	OpAND:     "and",
	OpOR:      "or",
	OpXOR:     "xor",
	OpSLLIW:   "slliw",
	OpSRLIW:   "srliw",
	OpSRAIW:   "sraiw",
	OpLW:      "lw",
	OpSW:      "sw",
	OpFMV:     "fmv.d",
	OpFMVWX:   "fmv.w.x",
	OpFMVXW:   "fmv.x.w",
	OpFPCALL:  "fpcall",
	OpECALL:   "ecall",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Inst is one host instruction.
type Inst struct {
	Op  Op
	Rd  Reg
	Rs1 Reg
	Rs2 Reg
	Imm int64

	// FPCALL only.
	Cmd rtl.FPCmd
	RM  rtl.RoundingMode
}

// LW builds rd = mem32[base + off].
func LW(rd, base Reg, off int64) Inst {
	return Inst{Op: OpLW, Rd: rd, Rs1: base, Imm: off}
}

// SW builds mem32[base + off] = rs.
func SW(rs, base Reg, off int64) Inst {
	return Inst{Op: OpSW, Rs1: base, Rs2: rs, Imm: off}
}

func (i Inst) String() string {
	switch i.Op {
	case OpLI:
		return fmt.Sprintf("li %v, %d", i.Rd, i.Imm)
	case OpADDIW, OpSLLIW, OpSRLIW, OpSRAIW:
		return fmt.Sprintf("%v %v, %v, %d", i.Op, i.Rd, i.Rs1, i.Imm)
	case OpADDW, OpSUBW, OpAND, OpOR, OpXOR:
		return fmt.Sprintf("%v %v, %v, %v", i.Op, i.Rd, i.Rs1, i.Rs2)
	case OpLW:
		return fmt.Sprintf("lw %v, %d(%v)", i.Rd, i.Imm, i.Rs1)
	case OpSW:
		return fmt.Sprintf("sw %v, %d(%v)", i.Rs2, i.Imm, i.Rs1)
	case OpFMV, OpFMVWX, OpFMVXW:
		return fmt.Sprintf("%v %v, %v", i.Op, i.Rd, i.Rs1)
	case OpFPCALL:
		return fmt.Sprintf("fpcall.%v %v, %v, %v, %v", i.Cmd, i.Rd, i.Rs1, i.Rs2, i.RM)
	case OpECALL:
		return "ecall"
	}
	return i.Op.String()
}
