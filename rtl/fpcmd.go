package rtl

import "fmt"

// FPWidth is the operand width of a floating-point call.
type FPWidth uint8

// Floating-point widths.
const (
	FPW32 FPWidth = 32
	FPW64 FPWidth = 64
)

// FPOp is the operation of a floating-point call.
type FPOp uint16

// Floating-point operations.
const (
	FPAdd FPOp = iota
	FPSub
	FPMul
	FPDiv
	FPSqrt
	FPMAdd // Rd = Rs1*Rs2 + Rd
	FPMin
	FPMax
	FPLE
	FPLT
	FPEQ
	FPI32ToF
	FPU32ToF
	FPI64ToF
	FPU64ToF
	FPFToI32
	FPFToU32
	FPFToI64
	FPFToU64
	FPF32ToF64 // encoded with FPW64
	FPF64ToF32 // encoded with FPW64
)

var fpOpNames = [...]string{
	FPAdd:      "add",
	FPSub:      "sub",
	FPMul:      "mul",
	FPDiv:      "div",
	FPSqrt:     "sqrt",
	FPMAdd:     "madd",
	FPMin:      "min",
	FPMax:      "max",
	FPLE:       "le",
	FPLT:       "lt",
	FPEQ:       "eq",
	FPI32ToF:   "i32tof",
	FPU32ToF:   "u32tof",
	FPI64ToF:   "i64tof",
	FPU64ToF:   "u64tof",
	FPFToI32:   "ftoi32",
	FPFToU32:   "ftou32",
	FPFToI64:   "ftoi64",
	FPFToU64:   "ftou64",
	FPF32ToF64: "f32tof64",
	FPF64ToF32: "f64tof32",
}

func (o FPOp) String() string {
	if int(o) < len(fpOpNames) {
		return fpOpNames[o]
	}
	return fmt.Sprintf("fpop(%d)", uint16(o))
}

// FPCmd is the command word of a floating-point call: the width in bits
// 16-23 and the operation in bits 0-15.
type FPCmd uint32

// FPCmdOf packs a width and an operation.
func FPCmdOf(w FPWidth, op FPOp) FPCmd {
	return FPCmd(w)<<16 | FPCmd(op)
}

// Width returns the width field.
func (c FPCmd) Width() FPWidth {
	return FPWidth(c >> 16)
}

// Op returns the operation field.
func (c FPCmd) Op() FPOp {
	return FPOp(c & 0xFFFF)
}

func (c FPCmd) String() string {
	return fmt.Sprintf("f%d.%v", c.Width(), c.Op())
}

// ParseFPCmd parses the form produced by FPCmd.String, e.g. "f32.add".
func ParseFPCmd(s string) (FPCmd, error) {
	var w FPWidth
	switch {
	case len(s) > 4 && s[:4] == "f32.":
		w = FPW32
	case len(s) > 4 && s[:4] == "f64.":
		w = FPW64
	default:
		return 0, fmt.Errorf("bad fp command %q", s)
	}

	for i, name := range fpOpNames {
		if name == s[4:] {
			return FPCmdOf(w, FPOp(i)), nil
		}
	}
	return 0, fmt.Errorf("bad fp command %q", s)
}

// RoundingMode is a rounding mode field as encoded in RISC-V instructions.
type RoundingMode uint8

// Rounding modes. RoundDynamic defers to the frm field of fcsr.
const (
	RoundNearestEven   RoundingMode = 0
	RoundTowardZero    RoundingMode = 1
	RoundDown          RoundingMode = 2
	RoundUp            RoundingMode = 3
	RoundNearestMaxMag RoundingMode = 4
	RoundDynamic       RoundingMode = 7
)

var rmNames = map[RoundingMode]string{
	RoundNearestEven:   "rne",
	RoundTowardZero:    "rtz",
	RoundDown:          "rdn",
	RoundUp:            "rup",
	RoundNearestMaxMag: "rmm",
	RoundDynamic:       "dyn",
}

func (m RoundingMode) String() string {
	if name, ok := rmNames[m]; ok {
		return name
	}
	return fmt.Sprintf("rm(%d)", uint8(m))
}

// ParseRoundingMode parses a mnemonic such as "rtz" or "dyn".
func ParseRoundingMode(s string) (RoundingMode, error) {
	for m, name := range rmNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown rounding mode %q", s)
}
