// Package rtl provides the register-transfer level vocabulary consumed by
// the interpreter and the translator.
//
// A decoder front end lowers guest machine code into RTL instructions that
// name their operands with an enumerated register identifier rather than a
// raw location. The package supports:
//   - Integer moves and 32-bit arithmetic: LI, MV, ADD, SUB, AND, OR, XOR
//   - Immediate forms: ADDI, SLLI, SRLI, SRAI
//   - Floating-point helper calls: FPCALL with an FPCmd command word
//   - Environment calls: ECALL
//
// Usage:
//
//	block := []rtl.Instr{
//		rtl.Li(rtl.X10, 1),
//		rtl.FPCall(rtl.FPCmdOf(rtl.FPW32, rtl.FPAdd), rtl.F1, rtl.F2, rtl.F3),
//		rtl.Ecall(),
//	}
package rtl

import (
	"fmt"
	"strconv"
)

// Reg identifies an RTL register operand.
type Reg uint8

// Guest integer registers.
const (
	X0 Reg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	X30
	X31
)

// Guest floating-point registers.
const (
	F0 Reg = iota + 32
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
	F25
	F26
	F27
	F28
	F29
	F30
	F31
)

// Locations that exist only in RTL.
const (
	// Zero is the always-zero operand. Writes to it are discarded.
	Zero Reg = iota + 64
	// S0 and S1 are RTL temporaries used by multi-step lowerings.
	S0
	S1
)

// NumRegs is one past the largest valid Reg.
const NumRegs = int(S1) + 1

// XReg returns the integer register with index n.
func XReg(n int) Reg {
	return Reg(n & 31)
}

// FReg returns the floating-point register with index n.
func FReg(n int) Reg {
	return F0 + Reg(n&31)
}

// IsX reports whether r is a guest integer register.
func (r Reg) IsX() bool {
	return r <= X31
}

// IsF reports whether r is a guest floating-point register.
func (r Reg) IsF() bool {
	return r >= F0 && r <= F31
}

// Valid reports whether r names a known location.
func (r Reg) Valid() bool {
	return int(r) < NumRegs
}

// Index returns the register number within its file.
func (r Reg) Index() int {
	if r.IsF() {
		return int(r - F0)
	}
	return int(r)
}

func (r Reg) String() string {
	switch {
	case r.IsX():
		return fmt.Sprintf("x%d", r)
	case r.IsF():
		return fmt.Sprintf("f%d", r-F0)
	case r == Zero:
		return "rz"
	case r == S0:
		return "s0"
	case r == S1:
		return "s1"
	}
	return fmt.Sprintf("reg(%d)", uint8(r))
}

// ParseReg parses the textual form produced by Reg.String.
func ParseReg(s string) (Reg, error) {
	switch s {
	case "rz", "zero":
		return Zero, nil
	case "s0":
		return S0, nil
	case "s1":
		return S1, nil
	}

	if len(s) >= 2 {
		n, err := strconv.Atoi(s[1:])
		if err == nil && n >= 0 && n < 32 && strconv.Itoa(n) == s[1:] {
			switch s[0] {
			case 'x':
				return XReg(n), nil
			case 'f':
				return FReg(n), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown register %q", s)
}

// Op represents an RTL opcode.
type Op uint8

// RTL opcodes.
const (
	OpUnknown Op = iota
	OpLi         // Rd = Imm
	OpMv         // Rd = Rs1
	OpAdd        // Rd = Rs1 + Rs2 (32-bit wrap)
	OpSub        // Rd = Rs1 - Rs2 (32-bit wrap)
	OpAnd        // Rd = Rs1 & Rs2
	OpOr         // Rd = Rs1 | Rs2
	OpXor        // Rd = Rs1 ^ Rs2
	OpAddi       // Rd = Rs1 + Imm (32-bit wrap)
	OpSlli       // Rd = Rs1 << Imm
	OpSrli       // Rd = Rs1 >> Imm (logical, 32-bit)
	OpSrai       // Rd = Rs1 >> Imm (arithmetic, 32-bit)
	OpFPCall     // Rd = fpcall(Rs1, Rs2, Cmd, RM)
	OpEcall      // environment call, ends a block
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpLi:      "li",
	OpMv:      "mv",
	OpAdd:     "add",
	OpSub:     "sub",
	OpAnd:     "and",
	OpOr:      "or",
	OpXor:     "xor",
	OpAddi:    "addi",
	OpSlli:    "slli",
	OpSrli:    "srli",
	OpSrai:    "srai",
	OpFPCall:  "fpcall",
	OpEcall:   "ecall",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// ParseOp returns the opcode with the given mnemonic.
func ParseOp(s string) (Op, error) {
	for i, name := range opNames {
		if name == s && Op(i) != OpUnknown {
			return Op(i), nil
		}
	}
	return OpUnknown, fmt.Errorf("unknown op %q", s)
}

// Instr is one RTL instruction.
type Instr struct {
	Op  Op
	Rd  Reg
	Rs1 Reg
	Rs2 Reg

	// Imm is the immediate of LI and the I-type forms. For LI into a
	// floating-point register it is the raw 64-bit container value.
	Imm int64

	// Cmd and RM are only meaningful for FPCALL.
	Cmd FPCmd
	RM  RoundingMode
}

// Operands returns the registers the instruction reads and writes, in the
// order rd, rs1, rs2. Slots the opcode does not use have used set to false.
func (in Instr) Operands() (regs [3]Reg, used [3]bool) {
	switch in.Op {
	case OpLi:
		return [3]Reg{in.Rd}, [3]bool{true}
	case OpMv, OpAddi, OpSlli, OpSrli, OpSrai:
		return [3]Reg{in.Rd, in.Rs1}, [3]bool{true, true}
	case OpAdd, OpSub, OpAnd, OpOr, OpXor, OpFPCall:
		return [3]Reg{in.Rd, in.Rs1, in.Rs2}, [3]bool{true, true, true}
	}
	return regs, used
}

// Validate checks that the opcode is known and that every operand names a
// register file the opcode can use. Only LI, MV and FPCALL accept
// floating-point registers.
func (in Instr) Validate() error {
	if in.Op == OpUnknown || int(in.Op) >= len(opNames) {
		return fmt.Errorf("%v: unknown opcode", in.Op)
	}

	regs, used := in.Operands()
	for i, r := range regs {
		if !used[i] {
			continue
		}
		if !r.Valid() {
			return fmt.Errorf("%v: invalid register %v", in.Op, r)
		}
		if r.IsF() && in.Op != OpLi && in.Op != OpMv && in.Op != OpFPCall {
			return fmt.Errorf("%v: floating-point operand %v", in.Op, r)
		}
	}
	return nil
}

func (in Instr) String() string {
	switch in.Op {
	case OpLi:
		return fmt.Sprintf("li %v, %d", in.Rd, in.Imm)
	case OpMv:
		return fmt.Sprintf("mv %v, %v", in.Rd, in.Rs1)
	case OpAdd, OpSub, OpAnd, OpOr, OpXor:
		return fmt.Sprintf("%v %v, %v, %v", in.Op, in.Rd, in.Rs1, in.Rs2)
	case OpAddi, OpSlli, OpSrli, OpSrai:
		return fmt.Sprintf("%v %v, %v, %d", in.Op, in.Rd, in.Rs1, in.Imm)
	case OpFPCall:
		return fmt.Sprintf("fpcall.%v %v, %v, %v, %v", in.Cmd, in.Rd, in.Rs1, in.Rs2, in.RM)
	case OpEcall:
		return "ecall"
	}
	return in.Op.String()
}

// Li builds rd = imm.
func Li(rd Reg, imm int64) Instr {
	return Instr{Op: OpLi, Rd: rd, Imm: imm}
}

// Mv builds rd = rs.
func Mv(rd, rs Reg) Instr {
	return Instr{Op: OpMv, Rd: rd, Rs1: rs}
}

// RR builds a register-register instruction.
func RR(op Op, rd, rs1, rs2 Reg) Instr {
	return Instr{Op: op, Rd: rd, Rs1: rs1, Rs2: rs2}
}

// RI builds a register-immediate instruction.
func RI(op Op, rd, rs1 Reg, imm int64) Instr {
	return Instr{Op: op, Rd: rd, Rs1: rs1, Imm: imm}
}

// FPCall builds a floating-point call that rounds with the dynamic mode.
func FPCall(cmd FPCmd, rd, rs1, rs2 Reg) Instr {
	return Instr{Op: OpFPCall, Rd: rd, Rs1: rs1, Rs2: rs2, Cmd: cmd, RM: RoundDynamic}
}

// FPCallRM builds a floating-point call with a static rounding mode.
func FPCallRM(cmd FPCmd, rd, rs1, rs2 Reg, rm RoundingMode) Instr {
	return Instr{Op: OpFPCall, Rd: rd, Rs1: rs1, Rs2: rs2, Cmd: cmd, RM: rm}
}

// Ecall builds an environment call.
func Ecall() Instr {
	return Instr{Op: OpEcall}
}
