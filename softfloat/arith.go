package softfloat

import (
	"math/big"
	"math/bits"
)

func (s *State) addSub(f format, a, b uint64, subtract bool) uint64 {
	if f.isNaN(a) || f.isNaN(b) {
		return s.propagateNaN(f, a, b)
	}
	if subtract {
		b ^= f.signBit()
	}

	signA, signB := f.sign(a), f.sign(b)
	switch {
	case f.isInf(a):
		if f.isInf(b) && signA != signB {
			return s.invalid(f)
		}
		return a
	case f.isInf(b):
		return b
	case f.isZero(a) && f.isZero(b):
		if signA == signB {
			return a
		}
		return f.zero(s.Rounding == RoundDown)
	case f.isZero(a):
		return b
	case f.isZero(b):
		return a
	}

	ua, ub := f.unpack(a), f.unpack(b)
	if ua.exp < ub.exp || (ua.exp == ub.exp && ua.sig < ub.sig) {
		ua, ub = ub, ua
	}
	sigB := shiftRightJam(ub.sig, uint(ua.exp-ub.exp))

	if ua.sign == ub.sign {
		return s.roundPack(f, ua.sign, ua.exp, ua.sig+sigB)
	}

	diff := ua.sig - sigB
	if diff == 0 {
		return f.zero(s.Rounding == RoundDown)
	}
	return s.roundPack(f, ua.sign, ua.exp, diff)
}

func (s *State) mul(f format, a, b uint64) uint64 {
	if f.isNaN(a) || f.isNaN(b) {
		return s.propagateNaN(f, a, b)
	}

	sign := f.sign(a) != f.sign(b)
	if f.isInf(a) || f.isInf(b) {
		if f.isZero(a) || f.isZero(b) {
			return s.invalid(f)
		}
		return f.inf(sign)
	}
	if f.isZero(a) || f.isZero(b) {
		return f.zero(sign)
	}

	ua, ub := f.unpack(a), f.unpack(b)
	return s.roundPack(f, sign, ua.exp+ub.exp, mulSig(ua.sig, ub.sig))
}

// mulSig multiplies two normalized significands. The 128-bit product lies
// in [2^124, 2^126); its top bits are kept and the rest folded into a
// sticky bit.
func mulSig(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	sig := hi<<2 | lo>>62
	if lo&(1<<62-1) != 0 {
		sig |= 1
	}
	return sig
}

func (s *State) div(f format, a, b uint64) uint64 {
	if f.isNaN(a) || f.isNaN(b) {
		return s.propagateNaN(f, a, b)
	}

	sign := f.sign(a) != f.sign(b)
	switch {
	case f.isInf(a):
		if f.isInf(b) {
			return s.invalid(f)
		}
		return f.inf(sign)
	case f.isInf(b):
		return f.zero(sign)
	case f.isZero(b):
		if f.isZero(a) {
			return s.invalid(f)
		}
		s.Raise(FlagDivByZero)
		return f.inf(sign)
	case f.isZero(a):
		return f.zero(sign)
	}

	ua, ub := f.unpack(a), f.unpack(b)

	// q = floor(sigA * 2^63 / sigB) lies in (2^62, 2^64).
	q, rem := bits.Div64(ua.sig>>1, ua.sig<<63, ub.sig)
	if rem != 0 {
		q |= 1
	}
	return s.roundPack(f, sign, ua.exp-ub.exp-1, q)
}

func (s *State) sqrt(f format, a uint64) uint64 {
	switch {
	case f.isNaN(a):
		return s.propagateNaN(f, a)
	case f.isZero(a):
		return a
	case f.sign(a):
		return s.invalid(f)
	case f.isInf(a):
		return a
	}

	u := f.unpack(a)

	// value = sig * 2^t. Scale sig by 2^k, k in {62, 63}, so that t-k is
	// even and the integer root has its leading one at bit 62.
	t := u.exp - 62
	k := 62
	if (t-k)&1 != 0 {
		k = 63
	}
	n := new(big.Int).Lsh(new(big.Int).SetUint64(u.sig), uint(k))
	r := new(big.Int).Sqrt(n)

	sig := r.Uint64()
	if new(big.Int).Mul(r, r).Cmp(n) != 0 {
		sig |= 1
	}
	return s.roundPack(f, false, 62+(t-k)/2, sig)
}

// u128 is an unsigned 128-bit integer used by the fused multiply-add.
type u128 struct {
	hi, lo uint64
}

func (x u128) less(y u128) bool {
	return x.hi < y.hi || (x.hi == y.hi && x.lo < y.lo)
}

func (x u128) isZero() bool { return x.hi == 0 && x.lo == 0 }

func (x u128) add(y u128) u128 {
	lo, carry := bits.Add64(x.lo, y.lo, 0)
	hi, _ := bits.Add64(x.hi, y.hi, carry)
	return u128{hi, lo}
}

func (x u128) sub(y u128) u128 {
	lo, borrow := bits.Sub64(x.lo, y.lo, 0)
	hi, _ := bits.Sub64(x.hi, y.hi, borrow)
	return u128{hi, lo}
}

func (x u128) shl(n uint) u128 {
	switch {
	case n == 0:
		return x
	case n >= 64:
		return u128{x.lo << (n - 64), 0}
	}
	return u128{x.hi<<n | x.lo>>(64-n), x.lo << n}
}

func (x u128) leadingZeros() int {
	if x.hi != 0 {
		return bits.LeadingZeros64(x.hi)
	}
	return 64 + bits.LeadingZeros64(x.lo)
}

// shiftRightJam128 is shiftRightJam for 128-bit values.
func shiftRightJam128(x u128, n uint) u128 {
	switch {
	case n == 0:
		return x
	case n >= 128:
		if !x.isZero() {
			return u128{0, 1}
		}
		return u128{}
	case n >= 64:
		lo := shiftRightJam(x.hi, n-64)
		if x.lo != 0 {
			lo |= 1
		}
		return u128{0, lo}
	}
	lo := x.hi<<(64-n) | x.lo>>n
	if x.lo<<(64-n) != 0 {
		lo |= 1
	}
	return u128{x.hi >> n, lo}
}

// mulAdd computes a*b + c with a single rounding.
func (s *State) mulAdd(f format, a, b, c uint64) uint64 {
	if f.isNaN(a) || f.isNaN(b) {
		return s.propagateNaN(f, a, b, c)
	}

	signP := f.sign(a) != f.sign(b)
	signC := f.sign(c)

	if f.isInf(a) || f.isInf(b) {
		if f.isZero(a) || f.isZero(b) {
			s.Raise(FlagInvalid)
			return s.propagateNaN(f, c)
		}
		if f.isNaN(c) {
			return s.propagateNaN(f, c)
		}
		if f.isInf(c) && signC != signP {
			return s.invalid(f)
		}
		return f.inf(signP)
	}
	if f.isNaN(c) {
		return s.propagateNaN(f, c)
	}
	if f.isInf(c) {
		return c
	}

	if f.isZero(a) || f.isZero(b) {
		if f.isZero(c) {
			if signP == signC {
				return c
			}
			return f.zero(s.Rounding == RoundDown)
		}
		return c
	}

	ua, ub := f.unpack(a), f.unpack(b)
	if f.isZero(c) {
		return s.roundPack(f, signP, ua.exp+ub.exp, mulSig(ua.sig, ub.sig))
	}

	// Both addends are held as X * 2^(exp-126) with the leading one of X at
	// bit 126.
	hi, lo := bits.Mul64(ua.sig, ub.sig)
	prod := u128{hi, lo}
	expP := ua.exp + ub.exp
	if hi>>61&1 != 0 {
		prod = prod.shl(1)
		expP++
	} else {
		prod = prod.shl(2)
	}

	uc := f.unpack(c)
	addend := u128{uc.sig, 0}
	expC := uc.exp

	major, minor := prod, addend
	expMajor, expMinor := expP, expC
	signMajor, signMinor := signP, signC
	if expP < expC || (expP == expC && prod.less(addend)) {
		major, minor = addend, prod
		expMajor, expMinor = expC, expP
		signMajor, signMinor = signC, signP
	}
	minor = shiftRightJam128(minor, uint(expMajor-expMinor))

	var z u128
	exp := expMajor
	if signMajor == signMinor {
		z = major.add(minor)
		if z.hi>>63 != 0 {
			z = shiftRightJam128(z, 1)
			exp++
		}
	} else {
		z = major.sub(minor)
		if z.isZero() {
			return f.zero(s.Rounding == RoundDown)
		}
		if lz := z.leadingZeros(); lz > 1 {
			z = z.shl(uint(lz - 1))
			exp -= lz - 1
		}
	}

	sig := z.hi
	if z.lo != 0 {
		sig |= 1
	}
	return s.roundPack(f, signMajor, exp, sig)
}
