package softfloat

import "math/bits"

// format describes one IEEE-754 binary interchange format.
// All arithmetic is written once against a format and works on the raw
// encoding widened to uint64.
type format struct {
	fracBits uint
	expBits  uint
}

var (
	fmt32 = format{fracBits: 23, expBits: 8}
	fmt64 = format{fracBits: 52, expBits: 11}
)

func (f format) bias() int        { return 1<<(f.expBits-1) - 1 }
func (f format) expMask() uint64  { return 1<<f.expBits - 1 }
func (f format) fracMask() uint64 { return 1<<f.fracBits - 1 }
func (f format) signBit() uint64  { return 1 << (f.fracBits + f.expBits) }
func (f format) quietBit() uint64 { return 1 << (f.fracBits - 1) }

// precision is the significand width including the hidden bit.
func (f format) precision() uint { return f.fracBits + 1 }

func (f format) biasedExp(x uint64) uint64 { return (x >> f.fracBits) & f.expMask() }

func (f format) isNaN(x uint64) bool {
	return f.biasedExp(x) == f.expMask() && x&f.fracMask() != 0
}

func (f format) isSNaN(x uint64) bool {
	return f.isNaN(x) && x&f.quietBit() == 0
}

func (f format) isInf(x uint64) bool {
	return f.biasedExp(x) == f.expMask() && x&f.fracMask() == 0
}

func (f format) isZero(x uint64) bool {
	return x&^f.signBit() == 0
}

func (f format) sign(x uint64) bool {
	return x&f.signBit() != 0
}

func (f format) defaultNaN() uint64 {
	return f.expMask()<<f.fracBits | f.quietBit()
}

func (f format) zero(sign bool) uint64 {
	if sign {
		return f.signBit()
	}
	return 0
}

func (f format) inf(sign bool) uint64 {
	return f.zero(sign) | f.expMask()<<f.fracBits
}

func (f format) maxFinite(sign bool) uint64 {
	return f.zero(sign) | (f.expMask()-1)<<f.fracBits | f.fracMask()
}

// unpacked is a finite nonzero value sig * 2^(exp-62) with the leading
// one of sig at bit 62. Bit 63 is headroom for carries.
type unpacked struct {
	sign bool
	exp  int
	sig  uint64
}

// unpack splits a finite nonzero encoding. Subnormals are normalized.
func (f format) unpack(x uint64) unpacked {
	u := unpacked{sign: f.sign(x)}
	e := int(f.biasedExp(x))
	frac := x & f.fracMask()
	if e == 0 {
		u.exp = 1 - f.bias()
		u.sig = frac << (62 - f.fracBits)
		shift := bits.LeadingZeros64(u.sig) - 1
		u.sig <<= uint(shift)
		u.exp -= shift
		return u
	}
	u.exp = e - f.bias()
	u.sig = (frac | 1<<f.fracBits) << (62 - f.fracBits)
	return u
}

// shiftRightJam shifts x right by n, ORing every bit shifted out into
// bit 0 so that inexactness survives the shift.
func shiftRightJam(x uint64, n uint) uint64 {
	switch {
	case n == 0:
		return x
	case n >= 64:
		if x != 0 {
			return 1
		}
		return 0
	}
	jam := uint64(0)
	if x<<(64-n) != 0 {
		jam = 1
	}
	return x>>n | jam
}

// roundIncrement decides whether the kept significand must be bumped by
// one ulp given the discarded bits rb, the value of a half ulp, and whether
// the kept part is odd.
func roundIncrement(rm RoundingMode, sign bool, rb, half uint64, odd bool) bool {
	switch rm {
	case RoundNearestEven:
		return rb > half || (rb == half && odd)
	case RoundNearestMaxMag:
		return rb >= half
	case RoundDown:
		return sign && rb != 0
	case RoundUp:
		return !sign && rb != 0
	default:
		return false
	}
}

// roundPack rounds sig * 2^(exp-62) to format f under the state's rounding
// mode, raising inexact, underflow and overflow as appropriate. sig may have
// its leading one anywhere; bit 0 may carry a sticky bit.
func (s *State) roundPack(f format, sign bool, exp int, sig uint64) uint64 {
	if sig == 0 {
		return f.zero(sign)
	}

	switch lz := bits.LeadingZeros64(sig); {
	case lz == 0:
		sig = shiftRightJam(sig, 1)
		exp++
	case lz > 1:
		sig <<= uint(lz - 1)
		exp -= lz - 1
	}

	rm := s.Rounding
	prec := f.precision()
	shift := 63 - prec
	half := uint64(1) << (shift - 1)
	roundMask := uint64(1)<<shift - 1
	emin := 1 - f.bias()

	tiny := false
	if exp < emin {
		tiny = true
		if exp == emin-1 {
			// Tininess is judged after rounding with an unbounded exponent.
			kept := sig >> shift
			inc := roundIncrement(rm, sign, sig&roundMask, half, kept&1 != 0)
			if inc && kept == 1<<prec-1 {
				tiny = false
			}
		}
		sig = shiftRightJam(sig, uint(emin-exp))
		exp = emin
	}

	rb := sig & roundMask
	kept := sig >> shift
	if roundIncrement(rm, sign, rb, half, kept&1 != 0) {
		kept++
		if kept == 1<<prec {
			kept >>= 1
			exp++
		}
	}

	if rb != 0 {
		s.Raise(FlagInexact)
		if tiny {
			s.Raise(FlagUnderflow)
		}
	}

	if exp > f.bias() {
		s.Raise(FlagOverflow | FlagInexact)
		if rm == RoundNearestEven || rm == RoundNearestMaxMag ||
			(rm == RoundDown && sign) || (rm == RoundUp && !sign) {
			return f.inf(sign)
		}
		return f.maxFinite(sign)
	}

	// For a normal result the hidden bit of kept adds one to the biased
	// exponent; for a subnormal exp == emin and the field stays zero unless
	// rounding carried into the hidden bit.
	return f.zero(sign) | (uint64(exp+f.bias()-1)<<f.fracBits + kept)
}

// propagateNaN produces the canonical NaN for an operation with at least
// one NaN operand, raising invalid if any operand is signaling.
func (s *State) propagateNaN(f format, operands ...uint64) uint64 {
	for _, x := range operands {
		if f.isSNaN(x) {
			s.Raise(FlagInvalid)
			break
		}
	}
	return f.defaultNaN()
}

func (s *State) invalid(f format) uint64 {
	s.Raise(FlagInvalid)
	return f.defaultNaN()
}
