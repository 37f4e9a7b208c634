// Package softfloat implements IEEE-754 binary32 and binary64 arithmetic in
// software.
//
// Every operation honours a rounding mode and accumulates sticky exception
// flags in a State. NaN results are always the canonical quiet NaN, and
// tininess is detected after rounding, matching RISC-V.
//
// Usage:
//
//	var s softfloat.State
//	s.Rounding = softfloat.RoundTowardZero
//	z := s.F32Add(x, y)
//	flags := s.TakeFlags()
package softfloat

// RoundingMode selects how inexact results are rounded.
// The values follow the RISC-V frm encoding.
type RoundingMode uint8

// Rounding modes.
const (
	RoundNearestEven   RoundingMode = 0 // Round to nearest, ties to even
	RoundTowardZero    RoundingMode = 1 // Truncate
	RoundDown          RoundingMode = 2 // Toward negative infinity
	RoundUp            RoundingMode = 3 // Toward positive infinity
	RoundNearestMaxMag RoundingMode = 4 // Round to nearest, ties away from zero
)

// Valid reports whether m names a rounding mode.
func (m RoundingMode) Valid() bool {
	return m <= RoundNearestMaxMag
}

// Flags is a set of IEEE-754 exception flags.
// The bit layout matches the RISC-V fflags field.
type Flags uint8

// Exception flags.
const (
	FlagInexact   Flags = 1 << 0 // NX
	FlagUnderflow Flags = 1 << 1 // UF
	FlagOverflow  Flags = 1 << 2 // OF
	FlagDivByZero Flags = 1 << 3 // DZ
	FlagInvalid   Flags = 1 << 4 // NV
)

// String returns the flags in fflags order, e.g. "NV|NX".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}

	names := []struct {
		flag Flags
		name string
	}{
		{FlagInvalid, "NV"},
		{FlagDivByZero, "DZ"},
		{FlagOverflow, "OF"},
		{FlagUnderflow, "UF"},
		{FlagInexact, "NX"},
	}

	s := ""
	for _, n := range names {
		if f&n.flag == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	return s
}

// State is the floating-point environment of one CPU context.
// The zero value rounds to nearest-even with no flags raised.
type State struct {
	// Rounding is used by every operation that does not take an
	// explicit mode.
	Rounding RoundingMode

	// Flags accumulates exceptions until cleared.
	Flags Flags
}

// Raise ORs f into the sticky flags.
func (s *State) Raise(f Flags) {
	s.Flags |= f
}

// TakeFlags returns the sticky flags and clears them.
func (s *State) TakeFlags() Flags {
	f := s.Flags
	s.Flags = 0
	return f
}

// F32 is the bit pattern of a binary32 value.
type F32 uint32

// F64 is the bit pattern of a binary64 value.
type F64 uint64

// Canonical quiet NaNs.
const (
	DefaultNaN32 F32 = 0x7FC00000
	DefaultNaN64 F64 = 0x7FF8000000000000
)

// IsNaN reports whether a is a NaN.
func (a F32) IsNaN() bool { return fmt32.isNaN(uint64(a)) }

// IsSignalingNaN reports whether a is a signaling NaN.
func (a F32) IsSignalingNaN() bool { return fmt32.isSNaN(uint64(a)) }

// IsInf reports whether a is an infinity.
func (a F32) IsInf() bool { return fmt32.isInf(uint64(a)) }

// IsZero reports whether a is +0 or -0.
func (a F32) IsZero() bool { return fmt32.isZero(uint64(a)) }

// SignBit reports whether the sign bit of a is set.
func (a F32) SignBit() bool { return uint64(a)&fmt32.signBit() != 0 }

// IsNaN reports whether a is a NaN.
func (a F64) IsNaN() bool { return fmt64.isNaN(uint64(a)) }

// IsSignalingNaN reports whether a is a signaling NaN.
func (a F64) IsSignalingNaN() bool { return fmt64.isSNaN(uint64(a)) }

// IsInf reports whether a is an infinity.
func (a F64) IsInf() bool { return fmt64.isInf(uint64(a)) }

// IsZero reports whether a is +0 or -0.
func (a F64) IsZero() bool { return fmt64.isZero(uint64(a)) }

// SignBit reports whether the sign bit of a is set.
func (a F64) SignBit() bool { return uint64(a)&fmt64.signBit() != 0 }
