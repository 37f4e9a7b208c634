package emu_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

func boxed(v float32) uint64 { return emu.Box32(math.Float32bits(v)) }

var (
	canonicalNaN32 = emu.Box32(uint32(softfloat.DefaultNaN32))
	canonicalNaN64 = uint64(softfloat.DefaultNaN64)
	negZero32      = emu.Box32(0x80000000)
	negZero64      = uint64(1) << 63
	sNaN32         = emu.Box32(0x7F800001)
	qNaN64         = uint64(0x7FF8000000000123)
)

func cmd32(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW32, op) }
func cmd64(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW64, op) }

var _ = Describe("FPU", func() {
	var (
		csr *emu.FCSR
		fpu *emu.FPU
	)

	BeforeEach(func() {
		csr = &emu.FCSR{}
		fpu = emu.NewFPU(csr)
	})

	call := func(cmd rtl.FPCmd, src1, src2 uint64) uint64 {
		var dest uint64
		fpu.Call(&dest, src1, src2, cmd)
		return dest
	}

	Describe("NaN boxing", func() {
		It("should round-trip boxed values", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 1000; i++ {
				v := rng.Uint32()
				Expect(emu.Unbox32(emu.Box32(v))).To(Equal(v))
			}
		})

		It("should unbox anything else to the canonical NaN", func() {
			rng := rand.New(rand.NewSource(8))
			for i := 0; i < 1000; i++ {
				r := rng.Uint64()
				if r&emu.BoxMask == emu.BoxMask {
					continue
				}
				Expect(emu.Unbox32(r)).To(Equal(uint32(softfloat.DefaultNaN32)))
			}
			Expect(emu.Unbox32(0x00000000_3F800000)).To(Equal(uint32(softfloat.DefaultNaN32)))
			Expect(emu.Unbox32(0xFFFFFFFE_3F800000)).To(Equal(uint32(softfloat.DefaultNaN32)))
		})

		It("should treat an unboxed operand as a quiet NaN", func() {
			Expect(call(cmd32(rtl.FPAdd), 0x40000000, boxed(1))).To(Equal(canonicalNaN32))
			Expect(csr.FFlags).To(BeZero())
		})
	})

	Describe("Arithmetic", func() {
		It("should add boxed singles without raising flags", func() {
			Expect(call(cmd32(rtl.FPAdd), boxed(1), boxed(2))).To(Equal(boxed(3)))
			Expect(csr.FFlags).To(BeZero())
		})

		It("should divide by zero to +inf and raise DZ", func() {
			Expect(call(cmd64(rtl.FPDiv), math.Float64bits(1), math.Float64bits(0))).
				To(Equal(math.Float64bits(math.Inf(1))))
			Expect(csr.FFlags).To(Equal(softfloat.FlagDivByZero))
		})

		It("should use the destination as the addend of MADD", func() {
			dest := boxed(1)
			fpu.Call(&dest, boxed(2), boxed(3), cmd32(rtl.FPMAdd))
			Expect(dest).To(Equal(boxed(7)))

			dest = math.Float64bits(-6)
			fpu.Call(&dest, math.Float64bits(2), math.Float64bits(3), cmd64(rtl.FPMAdd))
			Expect(dest).To(Equal(math.Float64bits(0)))
		})

		It("should take the square root of the first operand", func() {
			Expect(call(cmd64(rtl.FPSqrt), math.Float64bits(9), 0)).To(Equal(math.Float64bits(3)))
			Expect(call(cmd32(rtl.FPSqrt), boxed(-1), 0)).To(Equal(canonicalNaN32))
			Expect(csr.FFlags).To(Equal(softfloat.FlagInvalid))
		})

		It("should accumulate flags across calls", func() {
			call(cmd64(rtl.FPDiv), math.Float64bits(1), math.Float64bits(0))
			call(cmd64(rtl.FPDiv), math.Float64bits(1), math.Float64bits(3))

			Expect(csr.FFlags).To(Equal(softfloat.FlagDivByZero | softfloat.FlagInexact))
		})
	})

	Describe("Min and max", func() {
		DescribeTable("should pick the expected operand",
			func(cmd rtl.FPCmd, a, b, want uint64) {
				Expect(call(cmd, a, b)).To(Equal(want))
			},
			Entry("min f32", cmd32(rtl.FPMin), boxed(1), boxed(2), boxed(1)),
			Entry("max f32", cmd32(rtl.FPMax), boxed(1), boxed(2), boxed(2)),
			Entry("min f64", cmd64(rtl.FPMin), math.Float64bits(-3), math.Float64bits(2), math.Float64bits(-3)),
			Entry("max f64", cmd64(rtl.FPMax), math.Float64bits(-3), math.Float64bits(2), math.Float64bits(2)),
			Entry("min(+0,-0) f32", cmd32(rtl.FPMin), boxed(0), negZero32, negZero32),
			Entry("min(-0,+0) f32", cmd32(rtl.FPMin), negZero32, boxed(0), negZero32),
			Entry("max(+0,-0) f32", cmd32(rtl.FPMax), boxed(0), negZero32, boxed(0)),
			Entry("max(-0,+0) f32", cmd32(rtl.FPMax), negZero32, boxed(0), boxed(0)),
			Entry("min(+0,-0) f64", cmd64(rtl.FPMin), uint64(0), negZero64, negZero64),
			Entry("max(-0,+0) f64", cmd64(rtl.FPMax), negZero64, uint64(0), uint64(0)),
			Entry("min with NaN first", cmd32(rtl.FPMin), canonicalNaN32, boxed(5), boxed(5)),
			Entry("min with NaN second", cmd32(rtl.FPMin), boxed(5), canonicalNaN32, boxed(5)),
			Entry("max with NaN first", cmd64(rtl.FPMax), qNaN64, math.Float64bits(-5), math.Float64bits(-5)),
			Entry("max with NaN second", cmd64(rtl.FPMax), math.Float64bits(-5), qNaN64, math.Float64bits(-5)),
			Entry("min of two NaNs", cmd32(rtl.FPMin), sNaN32, canonicalNaN32, canonicalNaN32),
			Entry("max of two NaNs", cmd64(rtl.FPMax), qNaN64, qNaN64, canonicalNaN64),
			Entry("min with unboxed NaN", cmd32(rtl.FPMin), uint64(0x3F800000), boxed(-1), boxed(-1)),
		)

		It("should return the non-NaN operand for every value", func() {
			rng := rand.New(rand.NewSource(9))
			for i := 0; i < 1000; i++ {
				v := rng.Uint64()
				if softfloat.F64(v).IsNaN() {
					continue
				}
				Expect(call(cmd64(rtl.FPMin), qNaN64, v)).To(Equal(v))
				Expect(call(cmd64(rtl.FPMax), v, qNaN64)).To(Equal(v))
			}
		})

		It("should raise invalid only for signaling NaNs", func() {
			call(cmd32(rtl.FPMin), canonicalNaN32, boxed(1))
			Expect(csr.FFlags).To(BeZero())

			Expect(call(cmd32(rtl.FPMax), sNaN32, boxed(1))).To(Equal(boxed(1)))
			Expect(csr.FFlags).To(Equal(softfloat.FlagInvalid))
		})
	})

	Describe("Comparisons", func() {
		It("should yield 0 or 1", func() {
			Expect(call(cmd32(rtl.FPLE), boxed(1), boxed(1))).To(Equal(uint64(1)))
			Expect(call(cmd32(rtl.FPLT), boxed(1), boxed(1))).To(Equal(uint64(0)))
			Expect(call(cmd64(rtl.FPEQ), negZero64, 0)).To(Equal(uint64(1)))
			Expect(csr.FFlags).To(BeZero())
		})

		It("should signal on NaN for ordered compares only", func() {
			Expect(call(cmd64(rtl.FPEQ), qNaN64, qNaN64)).To(BeZero())
			Expect(csr.FFlags).To(BeZero())

			Expect(call(cmd64(rtl.FPLT), qNaN64, 0)).To(BeZero())
			Expect(csr.FFlags).To(Equal(softfloat.FlagInvalid))
		})
	})

	Describe("Conversions", func() {
		It("should round float to int with frm", func() {
			csr.FRM = softfloat.RoundDown

			Expect(call(cmd32(rtl.FPFToI32), boxed(-1.5), 0)).To(Equal(uint64(0xFFFFFFFFFFFFFFFE)))
			Expect(csr.FFlags).To(Equal(softfloat.FlagInexact))
		})

		It("should prefer a static rounding mode over frm", func() {
			csr.FRM = softfloat.RoundDown
			var dest uint64

			fpu.CallRM(&dest, boxed(-1.5), 0, cmd32(rtl.FPFToI32), rtl.RoundTowardZero)

			Expect(dest).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
		})

		It("should zero-extend unsigned 32-bit results", func() {
			Expect(call(cmd32(rtl.FPFToU32), boxed(3e9), 0)).To(Equal(uint64(3000000000)))
			Expect(call(cmd64(rtl.FPFToU32), math.Float64bits(-1), 0)).To(BeZero())
			Expect(csr.FFlags).To(Equal(softfloat.FlagInvalid))
		})

		It("should saturate NaN conversions", func() {
			Expect(call(cmd64(rtl.FPFToI64), qNaN64, 0)).To(Equal(uint64(math.MaxInt64)))
			Expect(call(cmd64(rtl.FPFToU64), qNaN64, 0)).To(Equal(uint64(math.MaxUint64)))
		})

		It("should convert integers from the low word", func() {
			Expect(call(cmd32(rtl.FPI32ToF), 0xFFFFFFFF, 0)).To(Equal(boxed(-1)))
			Expect(call(cmd32(rtl.FPU32ToF), 0xFFFFFFFF, 0)).To(Equal(boxed(4294967296)))
			Expect(call(cmd64(rtl.FPI64ToF), uint64(0xFFFFFFFFFFFFFFFF), 0)).To(Equal(math.Float64bits(-1)))
			Expect(call(cmd64(rtl.FPU64ToF), uint64(1)<<63, 0)).To(Equal(math.Float64bits(math.Ldexp(1, 63))))
		})

		It("should widen and narrow under the 64-bit width", func() {
			Expect(call(cmd64(rtl.FPF32ToF64), boxed(1.5), 0)).To(Equal(math.Float64bits(1.5)))
			Expect(csr.FFlags).To(BeZero())

			Expect(call(cmd64(rtl.FPF64ToF32), math.Float64bits(0.1), 0)).To(Equal(boxed(0.1)))
			Expect(csr.FFlags).To(Equal(softfloat.FlagInexact))
		})

		It("should widen an unboxed operand to the canonical NaN", func() {
			Expect(call(cmd64(rtl.FPF32ToF64), 0x3FC00000, 0)).To(Equal(canonicalNaN64))
		})
	})

	Describe("Fatal conditions", func() {
		It("should panic on an unknown operation", func() {
			Expect(func() { call(rtl.FPCmdOf(rtl.FPW32, rtl.FPOp(99)), 0, 0) }).
				To(PanicWith(BeAssignableToTypeOf(&emu.UnsupportedOperationError{})))
		})

		It("should panic on width conversion encoded under the 32-bit width", func() {
			Expect(func() { call(cmd32(rtl.FPF64ToF32), 0, 0) }).
				To(PanicWith(BeAssignableToTypeOf(&emu.UnsupportedOperationError{})))
		})

		It("should panic on an unknown width", func() {
			Expect(func() { call(rtl.FPCmdOf(rtl.FPWidth(16), rtl.FPAdd), 0, 0) }).
				To(PanicWith(BeAssignableToTypeOf(&emu.UnsupportedOperationError{})))
		})

		It("should panic on a reserved frm value", func() {
			csr.FRM = 5
			Expect(func() { call(cmd32(rtl.FPAdd), boxed(1), boxed(1)) }).
				To(PanicWith(BeAssignableToTypeOf(&emu.IllegalRoundingModeError{})))
		})

		It("should name the command in the diagnostic", func() {
			err := &emu.UnsupportedOperationError{Cmd: rtl.FPCmdOf(rtl.FPW64, rtl.FPOp(42))}
			Expect(err.Error()).To(ContainSubstring("width = 64 op = 42"))
		})
	})

	Describe("Exec", func() {
		It("should return flags instead of touching fcsr", func() {
			v, flags := emu.Exec(math.Float64bits(1), math.Float64bits(0), 0,
				cmd64(rtl.FPDiv), softfloat.RoundNearestEven)

			Expect(v).To(Equal(math.Float64bits(math.Inf(1))))
			Expect(flags).To(Equal(softfloat.FlagDivByZero))
			Expect(csr.FFlags).To(BeZero())
		})

		It("should agree with Call", func() {
			rng := rand.New(rand.NewSource(10))
			ops := []rtl.FPOp{rtl.FPAdd, rtl.FPSub, rtl.FPMul, rtl.FPDiv, rtl.FPMin, rtl.FPMax, rtl.FPMAdd}
			for i := 0; i < 500; i++ {
				a, b, c := rng.Uint64(), rng.Uint64(), rng.Uint64()
				cmd := cmd64(ops[i%len(ops)])

				csr.FFlags = 0
				dest := c
				fpu.Call(&dest, a, b, cmd)
				v, flags := emu.Exec(a, b, c, cmd, softfloat.RoundNearestEven)

				Expect(dest).To(Equal(v))
				Expect(csr.FFlags).To(Equal(flags))
			}
		})
	})
})
