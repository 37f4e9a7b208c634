package softfloat

import "math"

// fromInt rounds the integer (-1)^sign * mag to format f.
func (s *State) fromInt(f format, sign bool, mag uint64) uint64 {
	if mag == 0 {
		return 0
	}
	return s.roundPack(f, sign, 62, mag)
}

// intRange describes the destination of a float-to-integer conversion and
// the values returned on invalid input, following the RISC-V convention.
type intRange struct {
	maxPos uint64 // largest positive magnitude
	maxNeg uint64 // largest negative magnitude, 0 for unsigned
	onNaN  uint64
	onPos  uint64
	onNeg  uint64
}

var (
	rangeI32 = intRange{
		maxPos: math.MaxInt32, maxNeg: 1 << 31,
		onNaN: math.MaxInt32, onPos: math.MaxInt32, onNeg: negBits(1 << 31),
	}
	rangeU32 = intRange{
		maxPos: math.MaxUint32,
		onNaN:  math.MaxUint32, onPos: math.MaxUint32, onNeg: 0,
	}
	rangeI64 = intRange{
		maxPos: math.MaxInt64, maxNeg: 1 << 63,
		onNaN: math.MaxInt64, onPos: math.MaxInt64, onNeg: 1 << 63,
	}
	rangeU64 = intRange{
		maxPos: math.MaxUint64,
		onNaN:  math.MaxUint64, onPos: math.MaxUint64, onNeg: 0,
	}
)

// negBits returns the two's complement of mag.
func negBits(mag uint64) uint64 {
	return -mag
}

// toInt converts a to an integer in r, rounding with rm. When exact is set
// an inexact conversion raises the inexact flag. The result is the two's
// complement bit pattern widened to 64 bits.
func (s *State) toInt(f format, a uint64, rm RoundingMode, exact bool, r intRange) uint64 {
	switch {
	case f.isNaN(a):
		s.Raise(FlagInvalid)
		return r.onNaN
	case f.isInf(a):
		s.Raise(FlagInvalid)
		if f.sign(a) {
			return r.onNeg
		}
		return r.onPos
	case f.isZero(a):
		return 0
	}

	u := f.unpack(a)
	if u.exp > 63 {
		s.Raise(FlagInvalid)
		if u.sign {
			return r.onNeg
		}
		return r.onPos
	}

	// Split into integer part ip and the discarded fraction scaled so that
	// its top bit is worth one half.
	var ip, frac uint64
	switch {
	case u.exp >= 62:
		ip = u.sig << uint(u.exp-62)
	case u.exp >= -2:
		shift := uint(62 - u.exp)
		ip = u.sig >> shift
		frac = u.sig << (64 - shift)
	default:
		frac = shiftRightJam(u.sig, uint(-2-u.exp))
	}

	if roundIncrement(rm, u.sign, frac, 1<<63, ip&1 != 0) {
		ip++
		if ip == 0 {
			s.Raise(FlagInvalid)
			if u.sign {
				return r.onNeg
			}
			return r.onPos
		}
	}

	limit := r.maxPos
	if u.sign {
		limit = r.maxNeg
	}
	if ip > limit {
		s.Raise(FlagInvalid)
		if u.sign {
			return r.onNeg
		}
		return r.onPos
	}

	if frac != 0 && exact {
		s.Raise(FlagInexact)
	}
	if u.sign {
		return negBits(ip)
	}
	return ip
}

// convert changes the width of a, rounding when narrowing.
func (s *State) convert(from, to format, a uint64) uint64 {
	switch {
	case from.isNaN(a):
		if from.isSNaN(a) {
			s.Raise(FlagInvalid)
		}
		return to.defaultNaN()
	case from.isInf(a):
		return to.inf(from.sign(a))
	case from.isZero(a):
		return to.zero(from.sign(a))
	}
	u := from.unpack(a)
	return s.roundPack(to, u.sign, u.exp, u.sig)
}
