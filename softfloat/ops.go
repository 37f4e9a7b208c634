package softfloat

// Binary32 operations. Arithmetic rounds with s.Rounding.

func (s *State) F32Add(a, b F32) F32 { return F32(s.addSub(fmt32, uint64(a), uint64(b), false)) }
func (s *State) F32Sub(a, b F32) F32 { return F32(s.addSub(fmt32, uint64(a), uint64(b), true)) }
func (s *State) F32Mul(a, b F32) F32 { return F32(s.mul(fmt32, uint64(a), uint64(b))) }
func (s *State) F32Div(a, b F32) F32 { return F32(s.div(fmt32, uint64(a), uint64(b))) }
func (s *State) F32Sqrt(a F32) F32   { return F32(s.sqrt(fmt32, uint64(a))) }

// F32MulAdd returns a*b + c rounded once.
func (s *State) F32MulAdd(a, b, c F32) F32 {
	return F32(s.mulAdd(fmt32, uint64(a), uint64(b), uint64(c)))
}

func (s *State) F32Eq(a, b F32) bool      { return s.eq(fmt32, uint64(a), uint64(b)) }
func (s *State) F32Lt(a, b F32) bool      { return s.lt(fmt32, uint64(a), uint64(b)) }
func (s *State) F32Le(a, b F32) bool      { return s.le(fmt32, uint64(a), uint64(b)) }
func (s *State) F32LtQuiet(a, b F32) bool { return s.ltQuiet(fmt32, uint64(a), uint64(b)) }

func (s *State) I32ToF32(v int32) F32  { return F32(s.fromInt(fmt32, v < 0, absInt64(int64(v)))) }
func (s *State) U32ToF32(v uint32) F32 { return F32(s.fromInt(fmt32, false, uint64(v))) }
func (s *State) I64ToF32(v int64) F32  { return F32(s.fromInt(fmt32, v < 0, absInt64(v))) }
func (s *State) U64ToF32(v uint64) F32 { return F32(s.fromInt(fmt32, false, v)) }

// F32ToI32 converts with rounding mode rm. Out-of-range inputs and NaNs
// raise invalid and saturate.
func (s *State) F32ToI32(a F32, rm RoundingMode, exact bool) int32 {
	return int32(s.toInt(fmt32, uint64(a), rm, exact, rangeI32))
}

func (s *State) F32ToU32(a F32, rm RoundingMode, exact bool) uint32 {
	return uint32(s.toInt(fmt32, uint64(a), rm, exact, rangeU32))
}

func (s *State) F32ToI64(a F32, rm RoundingMode, exact bool) int64 {
	return int64(s.toInt(fmt32, uint64(a), rm, exact, rangeI64))
}

func (s *State) F32ToU64(a F32, rm RoundingMode, exact bool) uint64 {
	return s.toInt(fmt32, uint64(a), rm, exact, rangeU64)
}

// F32ToF64 widens a. The conversion is exact.
func (s *State) F32ToF64(a F32) F64 { return F64(s.convert(fmt32, fmt64, uint64(a))) }

// Binary64 operations.

func (s *State) F64Add(a, b F64) F64 { return F64(s.addSub(fmt64, uint64(a), uint64(b), false)) }
func (s *State) F64Sub(a, b F64) F64 { return F64(s.addSub(fmt64, uint64(a), uint64(b), true)) }
func (s *State) F64Mul(a, b F64) F64 { return F64(s.mul(fmt64, uint64(a), uint64(b))) }
func (s *State) F64Div(a, b F64) F64 { return F64(s.div(fmt64, uint64(a), uint64(b))) }
func (s *State) F64Sqrt(a F64) F64   { return F64(s.sqrt(fmt64, uint64(a))) }

// F64MulAdd returns a*b + c rounded once.
func (s *State) F64MulAdd(a, b, c F64) F64 {
	return F64(s.mulAdd(fmt64, uint64(a), uint64(b), uint64(c)))
}

func (s *State) F64Eq(a, b F64) bool      { return s.eq(fmt64, uint64(a), uint64(b)) }
func (s *State) F64Lt(a, b F64) bool      { return s.lt(fmt64, uint64(a), uint64(b)) }
func (s *State) F64Le(a, b F64) bool      { return s.le(fmt64, uint64(a), uint64(b)) }
func (s *State) F64LtQuiet(a, b F64) bool { return s.ltQuiet(fmt64, uint64(a), uint64(b)) }

func (s *State) I32ToF64(v int32) F64  { return F64(s.fromInt(fmt64, v < 0, absInt64(int64(v)))) }
func (s *State) U32ToF64(v uint32) F64 { return F64(s.fromInt(fmt64, false, uint64(v))) }
func (s *State) I64ToF64(v int64) F64  { return F64(s.fromInt(fmt64, v < 0, absInt64(v))) }
func (s *State) U64ToF64(v uint64) F64 { return F64(s.fromInt(fmt64, false, v)) }

func (s *State) F64ToI32(a F64, rm RoundingMode, exact bool) int32 {
	return int32(s.toInt(fmt64, uint64(a), rm, exact, rangeI32))
}

func (s *State) F64ToU32(a F64, rm RoundingMode, exact bool) uint32 {
	return uint32(s.toInt(fmt64, uint64(a), rm, exact, rangeU32))
}

func (s *State) F64ToI64(a F64, rm RoundingMode, exact bool) int64 {
	return int64(s.toInt(fmt64, uint64(a), rm, exact, rangeI64))
}

func (s *State) F64ToU64(a F64, rm RoundingMode, exact bool) uint64 {
	return s.toInt(fmt64, uint64(a), rm, exact, rangeU64)
}

// F64ToF32 narrows a, rounding with s.Rounding.
func (s *State) F64ToF32(a F64) F32 { return F32(s.convert(fmt64, fmt32, uint64(a))) }

// absInt64 returns |v| as an unsigned magnitude; MinInt64 maps to 2^63.
func absInt64(v int64) uint64 {
	if v < 0 {
		return -uint64(v)
	}
	return uint64(v)
}
