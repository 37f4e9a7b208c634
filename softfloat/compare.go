package softfloat

// less orders two non-NaN encodings numerically. -0 and +0 compare equal.
func (f format) less(a, b uint64) bool {
	signA, signB := f.sign(a), f.sign(b)
	if signA != signB {
		return signA && (a|b)&^f.signBit() != 0
	}
	return a != b && signA != (a < b)
}

func (f format) lessEq(a, b uint64) bool {
	signA, signB := f.sign(a), f.sign(b)
	if signA != signB {
		return signA || (a|b)&^f.signBit() == 0
	}
	return a == b || signA != (a < b)
}

func (f format) equal(a, b uint64) bool {
	return a == b || (a|b)&^f.signBit() == 0
}

// eq is the quiet equality predicate: only signaling NaNs raise invalid.
func (s *State) eq(f format, a, b uint64) bool {
	if f.isNaN(a) || f.isNaN(b) {
		if f.isSNaN(a) || f.isSNaN(b) {
			s.Raise(FlagInvalid)
		}
		return false
	}
	return f.equal(a, b)
}

// lt is the signaling less-than predicate: any NaN raises invalid.
func (s *State) lt(f format, a, b uint64) bool {
	if f.isNaN(a) || f.isNaN(b) {
		s.Raise(FlagInvalid)
		return false
	}
	return f.less(a, b)
}

// le is the signaling less-or-equal predicate: any NaN raises invalid.
func (s *State) le(f format, a, b uint64) bool {
	if f.isNaN(a) || f.isNaN(b) {
		s.Raise(FlagInvalid)
		return false
	}
	return f.lessEq(a, b)
}

// ltQuiet is less-than that raises invalid only for signaling NaNs.
func (s *State) ltQuiet(f format, a, b uint64) bool {
	if f.isNaN(a) || f.isNaN(b) {
		if f.isSNaN(a) || f.isSNaN(b) {
			s.Raise(FlagInvalid)
		}
		return false
	}
	return f.less(a, b)
}
