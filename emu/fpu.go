package emu

import (
	"fmt"

	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

// BoxMask is the upper half of a NaN-boxed single-precision value.
const BoxMask uint64 = 0xFFFFFFFF00000000

// Box32 NaN-boxes a single-precision bit pattern into a 64-bit container.
func Box32(v uint32) uint64 {
	return BoxMask | uint64(v)
}

// Unbox32 extracts a single-precision value from a 64-bit container. A
// container whose upper half is not all ones holds the canonical NaN.
func Unbox32(r uint64) uint32 {
	if r&BoxMask == BoxMask {
		return uint32(r)
	}
	return uint32(softfloat.DefaultNaN32)
}

// UnsupportedOperationError is the panic value for an FP command with an
// unknown width or operation.
type UnsupportedOperationError struct {
	Cmd rtl.FPCmd
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("fpcall: width = %d op = %d not supported",
		e.Cmd.Width(), e.Cmd.Op())
}

// IllegalRoundingModeError is the panic value for a reserved rounding mode,
// either static or read from frm.
type IllegalRoundingModeError struct {
	Mode rtl.RoundingMode
}

func (e *IllegalRoundingModeError) Error() string {
	return fmt.Sprintf("fpcall: illegal rounding mode %d", uint8(e.Mode))
}

// FPU executes floating-point calls. It reads the rounding mode from and
// accrues exception flags into the fcsr it is bound to.
type FPU struct {
	csr   *FCSR
	state softfloat.State
}

// NewFPU creates an FPU connected to the given fcsr.
func NewFPU(csr *FCSR) *FPU {
	return &FPU{csr: csr}
}

// Call executes cmd with the dynamic rounding mode. The third operand of
// MADD is the value of *dest before the call.
func (f *FPU) Call(dest *uint64, src1, src2 uint64, cmd rtl.FPCmd) {
	f.CallRM(dest, src1, src2, cmd, rtl.RoundDynamic)
}

// CallRM executes cmd with a static rounding mode, or with frm when rm is
// rtl.RoundDynamic. Raised flags are merged into fflags.
func (f *FPU) CallRM(dest *uint64, src1, src2 uint64, cmd rtl.FPCmd, rm rtl.RoundingMode) {
	f.state.Rounding = f.resolve(rm)

	*dest = exec(&f.state, src1, src2, *dest, cmd)

	if flags := f.state.TakeFlags(); flags != 0 {
		f.csr.FFlags |= flags
	}
}

func (f *FPU) resolve(rm rtl.RoundingMode) softfloat.RoundingMode {
	if rm == rtl.RoundDynamic {
		rm = rtl.RoundingMode(f.csr.FRM)
	}
	mode := softfloat.RoundingMode(rm)
	if !mode.Valid() {
		panic(&IllegalRoundingModeError{Mode: rm})
	}
	return mode
}

// Exec evaluates cmd without touching any fcsr and returns the result
// together with the flags it raised.
func Exec(src1, src2, acc uint64, cmd rtl.FPCmd, rm softfloat.RoundingMode) (uint64, softfloat.Flags) {
	if !rm.Valid() {
		panic(&IllegalRoundingModeError{Mode: rtl.RoundingMode(rm)})
	}
	s := softfloat.State{Rounding: rm}
	v := exec(&s, src1, src2, acc, cmd)
	return v, s.Flags
}

func exec(s *softfloat.State, src1, src2, acc uint64, cmd rtl.FPCmd) uint64 {
	switch cmd.Width() {
	case rtl.FPW32:
		return exec32(s, src1, src2, acc, cmd)
	case rtl.FPW64:
		return exec64(s, src1, src2, acc, cmd)
	}
	panic(&UnsupportedOperationError{Cmd: cmd})
}

func exec32(s *softfloat.State, src1, src2, acc uint64, cmd rtl.FPCmd) uint64 {
	a := softfloat.F32(Unbox32(src1))
	b := softfloat.F32(Unbox32(src2))
	rm := s.Rounding

	switch cmd.Op() {
	case rtl.FPAdd:
		return box(s.F32Add(a, b))
	case rtl.FPSub:
		return box(s.F32Sub(a, b))
	case rtl.FPMul:
		return box(s.F32Mul(a, b))
	case rtl.FPDiv:
		return box(s.F32Div(a, b))
	case rtl.FPMin:
		return box(min32(s, a, b))
	case rtl.FPMax:
		return box(max32(s, a, b))

	case rtl.FPSqrt:
		return box(s.F32Sqrt(a))

	case rtl.FPMAdd:
		return box(s.F32MulAdd(a, b, softfloat.F32(Unbox32(acc))))

	case rtl.FPLE:
		return bit(s.F32Le(a, b))
	case rtl.FPLT:
		return bit(s.F32Lt(a, b))
	case rtl.FPEQ:
		return bit(s.F32Eq(a, b))

	case rtl.FPI32ToF:
		return box(s.I32ToF32(int32(src1)))
	case rtl.FPU32ToF:
		return box(s.U32ToF32(uint32(src1)))
	case rtl.FPI64ToF:
		return box(s.I64ToF32(int64(src1)))
	case rtl.FPU64ToF:
		return box(s.U64ToF32(src1))

	case rtl.FPFToI32:
		return uint64(int64(s.F32ToI32(a, rm, true)))
	case rtl.FPFToU32:
		return uint64(s.F32ToU32(a, rm, true))
	case rtl.FPFToI64:
		return uint64(s.F32ToI64(a, rm, true))
	case rtl.FPFToU64:
		return s.F32ToU64(a, rm, true)
	}
	panic(&UnsupportedOperationError{Cmd: cmd})
}

func exec64(s *softfloat.State, src1, src2, acc uint64, cmd rtl.FPCmd) uint64 {
	a := softfloat.F64(src1)
	b := softfloat.F64(src2)
	rm := s.Rounding

	switch cmd.Op() {
	case rtl.FPAdd:
		return uint64(s.F64Add(a, b))
	case rtl.FPSub:
		return uint64(s.F64Sub(a, b))
	case rtl.FPMul:
		return uint64(s.F64Mul(a, b))
	case rtl.FPDiv:
		return uint64(s.F64Div(a, b))
	case rtl.FPMin:
		return uint64(min64(s, a, b))
	case rtl.FPMax:
		return uint64(max64(s, a, b))

	case rtl.FPSqrt:
		return uint64(s.F64Sqrt(a))

	case rtl.FPMAdd:
		return uint64(s.F64MulAdd(a, b, softfloat.F64(acc)))

	case rtl.FPLE:
		return bit(s.F64Le(a, b))
	case rtl.FPLT:
		return bit(s.F64Lt(a, b))
	case rtl.FPEQ:
		return bit(s.F64Eq(a, b))

	case rtl.FPI32ToF:
		return uint64(s.I32ToF64(int32(src1)))
	case rtl.FPU32ToF:
		return uint64(s.U32ToF64(uint32(src1)))
	case rtl.FPI64ToF:
		return uint64(s.I64ToF64(int64(src1)))
	case rtl.FPU64ToF:
		return uint64(s.U64ToF64(src1))

	case rtl.FPFToI32:
		return uint64(int64(s.F64ToI32(a, rm, true)))
	case rtl.FPFToU32:
		return uint64(s.F64ToU32(a, rm, true))
	case rtl.FPFToI64:
		return uint64(s.F64ToI64(a, rm, true))
	case rtl.FPFToU64:
		return s.F64ToU64(a, rm, true)

	case rtl.FPF32ToF64:
		return uint64(s.F32ToF64(softfloat.F32(Unbox32(src1))))
	case rtl.FPF64ToF32:
		return box(s.F64ToF32(a))
	}
	panic(&UnsupportedOperationError{Cmd: cmd})
}

func box(v softfloat.F32) uint64 {
	return Box32(uint32(v))
}

func bit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// min32 returns the lesser operand. On equality the operand with the sign
// bit set wins, so min(+0, -0) is -0. A single NaN operand is ignored.
func min32(s *softfloat.State, a, b softfloat.F32) softfloat.F32 {
	less := s.F32LtQuiet(a, b) || (s.F32Eq(a, b) && a.SignBit())
	if a.IsNaN() && b.IsNaN() {
		return softfloat.DefaultNaN32
	}
	if less || b.IsNaN() {
		return a
	}
	return b
}

func max32(s *softfloat.State, a, b softfloat.F32) softfloat.F32 {
	greater := s.F32LtQuiet(b, a) || (s.F32Eq(b, a) && b.SignBit())
	if a.IsNaN() && b.IsNaN() {
		return softfloat.DefaultNaN32
	}
	if greater || b.IsNaN() {
		return a
	}
	return b
}

func min64(s *softfloat.State, a, b softfloat.F64) softfloat.F64 {
	less := s.F64LtQuiet(a, b) || (s.F64Eq(a, b) && a.SignBit())
	if a.IsNaN() && b.IsNaN() {
		return softfloat.DefaultNaN64
	}
	if less || b.IsNaN() {
		return a
	}
	return b
}

func max64(s *softfloat.State, a, b softfloat.F64) softfloat.F64 {
	greater := s.F64LtQuiet(b, a) || (s.F64Eq(b, a) && b.SignBit())
	if a.IsNaN() && b.IsNaN() {
		return softfloat.DefaultNaN64
	}
	if greater || b.IsNaN() {
		return a
	}
	return b
}
