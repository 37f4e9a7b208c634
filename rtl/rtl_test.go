package rtl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdbt/rtl"
)

var _ = Describe("RTL", func() {
	Describe("Reg", func() {
		It("should classify register files", func() {
			Expect(rtl.X31.IsX()).To(BeTrue())
			Expect(rtl.F0.IsX()).To(BeFalse())
			Expect(rtl.F31.IsF()).To(BeTrue())
			Expect(rtl.Zero.IsX()).To(BeFalse())
			Expect(rtl.Zero.IsF()).To(BeFalse())
			Expect(rtl.S1.Valid()).To(BeTrue())
			Expect(rtl.Reg(200).Valid()).To(BeFalse())
		})

		It("should index within the register file", func() {
			Expect(rtl.XReg(7).Index()).To(Equal(7))
			Expect(rtl.FReg(7)).To(Equal(rtl.F7))
			Expect(rtl.F7.Index()).To(Equal(7))
		})

		It("should round-trip names", func() {
			for _, r := range []rtl.Reg{rtl.X0, rtl.X29, rtl.F12, rtl.Zero, rtl.S0, rtl.S1} {
				parsed, err := rtl.ParseReg(r.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed).To(Equal(r))
			}
		})

		It("should reject malformed names", func() {
			for _, s := range []string{"x32", "f-1", "x05", "y3", "x", ""} {
				_, err := rtl.ParseReg(s)
				Expect(err).To(HaveOccurred(), s)
			}
		})
	})

	Describe("FPCmd", func() {
		It("should pack width and operation", func() {
			cmd := rtl.FPCmdOf(rtl.FPW64, rtl.FPDiv)

			Expect(cmd.Width()).To(Equal(rtl.FPW64))
			Expect(cmd.Op()).To(Equal(rtl.FPDiv))
			Expect(uint32(cmd)).To(Equal(uint32(64<<16 | 3)))
		})

		It("should parse its own text form", func() {
			cmd := rtl.FPCmdOf(rtl.FPW32, rtl.FPFToU32)
			Expect(cmd.String()).To(Equal("f32.ftou32"))

			parsed, err := rtl.ParseFPCmd("f32.ftou32")
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(cmd))
		})

		It("should reject unknown commands", func() {
			_, err := rtl.ParseFPCmd("f16.add")
			Expect(err).To(HaveOccurred())
			_, err = rtl.ParseFPCmd("f32.frob")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RoundingMode", func() {
		It("should parse mnemonics", func() {
			rm, err := rtl.ParseRoundingMode("rmm")
			Expect(err).NotTo(HaveOccurred())
			Expect(rm).To(Equal(rtl.RoundNearestMaxMag))
			Expect(rtl.RoundDynamic.String()).To(Equal("dyn"))
			Expect(rtl.RoundingMode(5).String()).To(Equal("rm(5)"))
		})
	})

	Describe("Instr", func() {
		It("should default FP calls to the dynamic rounding mode", func() {
			in := rtl.FPCall(rtl.FPCmdOf(rtl.FPW32, rtl.FPAdd), rtl.F1, rtl.F2, rtl.F3)
			Expect(in.RM).To(Equal(rtl.RoundDynamic))
			Expect(in.String()).To(Equal("fpcall.f32.add f1, f2, f3, dyn"))
		})

		It("should report operands by opcode", func() {
			regs, used := rtl.RI(rtl.OpAddi, rtl.X5, rtl.X6, 3).Operands()
			Expect(used).To(Equal([3]bool{true, true, false}))
			Expect(regs[:2]).To(Equal([]rtl.Reg{rtl.X5, rtl.X6}))

			_, used = rtl.Ecall().Operands()
			Expect(used).To(Equal([3]bool{}))
		})

		It("should validate operand register files", func() {
			Expect(rtl.RR(rtl.OpAdd, rtl.X1, rtl.X2, rtl.S0).Validate()).To(Succeed())
			Expect(rtl.Mv(rtl.F1, rtl.X2).Validate()).To(Succeed())
			Expect(rtl.RR(rtl.OpAdd, rtl.X1, rtl.F2, rtl.X3).Validate()).NotTo(Succeed())
			Expect(rtl.Instr{Op: rtl.OpMv, Rd: rtl.Reg(99)}.Validate()).NotTo(Succeed())
			Expect(rtl.Instr{}.Validate()).NotTo(Succeed())
		})

		It("should look up opcodes by mnemonic", func() {
			op, err := rtl.ParseOp("srai")
			Expect(err).NotTo(HaveOccurred())
			Expect(op).To(Equal(rtl.OpSrai))

			_, err = rtl.ParseOp("unknown")
			Expect(err).To(HaveOccurred())
		})
	})
})
