package tran_test

import (
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/host"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/tran"
)

func cmd32(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW32, op) }
func cmd64(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW64, op) }

var _ = Describe("Translator", func() {
	var t *tran.Translator

	BeforeEach(func() {
		t = tran.NewTranslator(tran.WithLogger(GinkgoLogr))
	})

	It("should map ordinary registers straight through", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.Li(rtl.X5, 7),
			rtl.RI(rtl.OpAddi, rtl.X6, rtl.X5, 1),
			rtl.RR(rtl.OpXor, rtl.X7, rtl.X6, rtl.X5),
		}, 0x100, 0x100)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code).To(Equal([]host.Inst{
			{Op: host.OpLI, Rd: host.X(5), Imm: 7},
			{Op: host.OpADDIW, Rd: host.X(6), Rs1: host.X(5), Imm: 1},
			{Op: host.OpXOR, Rd: host.X(7), Rs1: host.X(6), Rs2: host.X(5)},
		}))
		Expect(blk.PC).To(Equal(uint64(0x100)))
		Expect(blk.NextPC).To(Equal(uint64(0x10C)))
		Expect(blk.GuestInsts).To(Equal(3))
		Expect(blk.EndsInEcall).To(BeFalse())
	})

	It("should route reserved registers through the scratchpad", func() {
		blk, err := t.Translate([]rtl.Instr{rtl.Li(rtl.X3, 5)}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code).To(Equal([]host.Inst{
			host.LW(host.TmpReg1, host.SpmBase, 4),
			{Op: host.OpLI, Rd: host.TmpReg1, Imm: 5},
			host.SW(host.TmpReg1, host.SpmBase, 4),
		}))
	})

	It("should reuse a cached temporary in the next instruction", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.Li(rtl.S0, 1),
			rtl.RI(rtl.OpAddi, rtl.S0, rtl.S0, 1),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code).To(Equal([]host.Inst{
			host.LW(host.TmpReg1, host.SpmBase, 24),
			{Op: host.OpLI, Rd: host.TmpReg1, Imm: 1},
			{Op: host.OpADDIW, Rd: host.TmpReg1, Rs1: host.TmpReg1, Imm: 1},
			host.SW(host.TmpReg1, host.SpmBase, 24),
		}))
	})

	It("should write back after every instruction when asked to", func() {
		t = tran.NewTranslator(tran.WithWritebackEachInst(true))

		blk, err := t.Translate([]rtl.Instr{
			rtl.Li(rtl.S0, 1),
			rtl.Li(rtl.X5, 2),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code[2]).To(Equal(host.SW(host.TmpReg1, host.SpmBase, 24)))
	})

	It("should elide integer writes to the zero register", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.Li(rtl.X0, 1),
			rtl.RR(rtl.OpAdd, rtl.Zero, rtl.X1, rtl.X2),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code).To(BeEmpty())
		Expect(blk.GuestInsts).To(Equal(2))
	})

	It("should keep FP calls into the zero register for their flags", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.FPCall(cmd32(rtl.FPLT), rtl.Zero, rtl.F1, rtl.F2),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.Code).To(HaveLen(1))
		Expect(blk.Code[0].Op).To(Equal(host.OpFPCALL))
		Expect(blk.Code[0].Rd).To(Equal(host.Zero))
		Expect(blk.Code[0].Rs1).To(Equal(host.F(1)))
	})

	It("should pick the move form from the register files", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.Mv(rtl.F1, rtl.F2),
			rtl.Mv(rtl.F1, rtl.X5),
			rtl.Mv(rtl.X5, rtl.F1),
			rtl.Mv(rtl.X6, rtl.X5),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		ops := []host.Op{}
		for _, inst := range blk.Code {
			ops = append(ops, inst.Op)
		}
		Expect(ops).To(Equal([]host.Op{host.OpFMV, host.OpFMVWX, host.OpFMVXW, host.OpADDIW}))
	})

	It("should end the block at an ecall after writing back", func() {
		blk, err := t.Translate([]rtl.Instr{
			rtl.Li(rtl.X31, 93),
			rtl.Ecall(),
			rtl.Li(rtl.X5, 1),
		}, 0, 0)

		Expect(err).NotTo(HaveOccurred())
		Expect(blk.EndsInEcall).To(BeTrue())
		Expect(blk.NextPC).To(Equal(uint64(8)))
		n := len(blk.Code)
		Expect(blk.Code[n-2]).To(Equal(host.SW(host.TmpReg1, host.SpmBase, 16)))
		Expect(blk.Code[n-1].Op).To(Equal(host.OpECALL))
	})

	It("should split long runs into blocks", func() {
		t = tran.NewTranslator(tran.WithMaxBlockLen(2))
		prog := []rtl.Instr{rtl.Li(rtl.X5, 1), rtl.Li(rtl.X6, 2), rtl.Li(rtl.X7, 3)}

		blk, err := t.Translate(prog, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(blk.GuestInsts).To(Equal(2))
		Expect(blk.NextPC).To(Equal(uint64(8)))

		blk, err = t.Translate(prog, 0, blk.NextPC)
		Expect(err).NotTo(HaveOccurred())
		Expect(blk.GuestInsts).To(Equal(1))
	})

	Context("Errors", func() {
		It("should reject a PC outside the program", func() {
			_, err := t.Translate([]rtl.Instr{rtl.Ecall()}, 0, 4)
			Expect(err).To(MatchError(ContainSubstring("no instruction at PC=0x4")))
		})

		It("should reject instructions needing three spilled registers", func() {
			_, err := t.Translate([]rtl.Instr{
				rtl.RR(rtl.OpAdd, rtl.S0, rtl.S1, rtl.X3),
			}, 0, 0)
			Expect(err).To(MatchError(ContainSubstring("needs 3 spilled registers")))
		})

		DescribeTable("should reject FP values in scratch-backed registers",
			func(inst rtl.Instr) {
				_, err := t.Translate([]rtl.Instr{inst}, 0, 0)
				Expect(err).To(MatchError(ContainSubstring("is scratch-backed")))
			},
			Entry("f32 result", rtl.FPCall(cmd32(rtl.FPAdd), rtl.S0, rtl.F1, rtl.F2)),
			Entry("f64 operand", rtl.FPCall(cmd64(rtl.FPAdd), rtl.F3, rtl.F1, rtl.S1)),
			Entry("madd accumulator", rtl.FPCall(cmd64(rtl.FPMAdd), rtl.X3, rtl.F1, rtl.F2)),
			Entry("64-bit integer source", rtl.FPCall(cmd64(rtl.FPI64ToF), rtl.F1, rtl.X29, rtl.Zero)),
			Entry("64-bit integer result", rtl.FPCall(cmd64(rtl.FPFToI64), rtl.X4, rtl.F1, rtl.Zero)),
		)

		It("should accept 32-bit integers in scratch-backed registers", func() {
			_, err := t.Translate([]rtl.Instr{
				rtl.FPCall(cmd64(rtl.FPFToU32), rtl.S0, rtl.F1, rtl.Zero),
				rtl.FPCall(cmd32(rtl.FPLT), rtl.X30, rtl.F1, rtl.F2),
				rtl.FPCall(cmd64(rtl.FPU32ToF), rtl.F2, rtl.S1, rtl.Zero),
			}, 0, 0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject malformed instructions", func() {
			_, err := t.Translate([]rtl.Instr{{Op: rtl.OpAdd, Rd: rtl.X1, Rs1: rtl.F1}}, 0, 0)
			Expect(err).To(MatchError(ContainSubstring("failed to translate PC=0x0")))
		})
	})
})

// execute translates and runs program on m, one block at a time, until
// the program is exhausted.
func execute(t *tran.Translator, m *host.Machine, program []rtl.Instr) {
	pc := uint64(0)
	for pc < uint64(len(program))*emu.InstSize {
		blk, err := t.Translate(program, 0, pc)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Execute(blk.Code)
		Expect(err).NotTo(HaveOccurred())
		t.Resume(blk)
		pc = blk.NextPC
	}
}

func interpret(program []rtl.Instr) emu.Snapshot {
	e := emu.NewEmulator()
	e.LoadProgram(0, program)
	for range program {
		Expect(e.Step().Err).NotTo(HaveOccurred())
	}
	return e.RegFile().Snapshot()
}

// mixedProgram touches every reserved register and both RTL temporaries,
// with at most two of them in any one instruction.
var mixedProgram = []rtl.Instr{
	rtl.Li(rtl.X3, 100),
	rtl.Li(rtl.X4, -5),
	rtl.Li(rtl.X29, 7),
	rtl.Li(rtl.X30, 0x1234),
	rtl.Li(rtl.X31, 3),
	rtl.RR(rtl.OpAdd, rtl.S0, rtl.X3, rtl.X8),
	rtl.RR(rtl.OpAdd, rtl.S0, rtl.S0, rtl.X4),
	rtl.RR(rtl.OpAdd, rtl.X30, rtl.S0, rtl.X30),
	rtl.RR(rtl.OpSub, rtl.X29, rtl.X29, rtl.X3),
	rtl.RR(rtl.OpXor, rtl.X4, rtl.X4, rtl.X30),
	rtl.RI(rtl.OpSlli, rtl.X31, rtl.X31, 4),
	rtl.Mv(rtl.X5, rtl.X31),
	rtl.RI(rtl.OpSrai, rtl.S1, rtl.X29, 1),
	rtl.RR(rtl.OpOr, rtl.X6, rtl.S1, rtl.X5),
	rtl.Li(rtl.F1, int64(emu.Box32(math.Float32bits(2.5)))),
	rtl.Mv(rtl.F2, rtl.X3),
	rtl.FPCallRM(cmd32(rtl.FPFToI32), rtl.X3, rtl.F1, rtl.Zero, rtl.RoundNearestEven),
	rtl.FPCall(cmd32(rtl.FPI32ToF), rtl.F3, rtl.X29, rtl.Zero),
	rtl.RR(rtl.OpAnd, rtl.X7, rtl.X3, rtl.X4),
}

// fpStagingProgram moves floating-point data through the RTL temporaries
// in the forms a 4-byte slot can hold, evicting them in between.
var fpStagingProgram = []rtl.Instr{
	rtl.Li(rtl.F1, int64(emu.Box32(math.Float32bits(2.5)))),
	rtl.Li(rtl.F2, int64(math.Float64bits(1.5))),
	rtl.Mv(rtl.S0, rtl.F1),
	rtl.FPCallRM(cmd64(rtl.FPFToI32), rtl.S1, rtl.F2, rtl.Zero, rtl.RoundNearestEven),
	rtl.Li(rtl.X3, 1),
	rtl.Li(rtl.X4, 2),
	rtl.Li(rtl.X30, 9),
	rtl.Li(rtl.X31, 8),
	rtl.Mv(rtl.F3, rtl.S0),
	rtl.FPCall(cmd64(rtl.FPI32ToF), rtl.F4, rtl.S1, rtl.Zero),
	rtl.FPCall(cmd32(rtl.FPAdd), rtl.F5, rtl.F3, rtl.F1),
}

var _ = Describe("Translated execution", func() {
	for _, maxLen := range []int{1, 3, 64} {
		maxLen := maxLen
		It(fmt.Sprintf("should keep staged FP data intact with blocks of at most %d", maxLen), func() {
			t := tran.NewTranslator(tran.WithMaxBlockLen(maxLen))
			m := host.NewMachine(host.NewScratchpad(0x10000, 64))

			execute(t, m, fpStagingProgram)
			got, err := t.GuestGetRegs(m)
			Expect(err).NotTo(HaveOccurred())

			want := interpret(fpStagingProgram)
			Expect(got.X).To(Equal(want.X))
			Expect(got.F).To(Equal(want.F))
			Expect(got.CSR).To(Equal(want.CSR))
			Expect(got.F[3]).To(Equal(emu.Box32(math.Float32bits(2.5))))
			Expect(got.F[4]).To(Equal(math.Float64bits(2.0)))
			Expect(got.F[5]).To(Equal(emu.Box32(math.Float32bits(5.0))))
		})
	}

	for _, maxLen := range []int{1, 2, 5, 64} {
		maxLen := maxLen
		It(fmt.Sprintf("should match the interpreter with blocks of at most %d", maxLen), func() {
			t := tran.NewTranslator(tran.WithMaxBlockLen(maxLen))
			m := host.NewMachine(host.NewScratchpad(0x10000, 64))

			execute(t, m, mixedProgram)
			got, err := t.GuestGetRegs(m)
			Expect(err).NotTo(HaveOccurred())

			want := interpret(mixedProgram)
			Expect(got.X).To(Equal(want.X))
			Expect(got.F).To(Equal(want.F))
			Expect(got.CSR).To(Equal(want.CSR))
			Expect(got.Reg(3)).To(Equal(uint32(2)))
			Expect(got.Reg(29)).To(Equal(uint32(0xFFFFFFA3)))
		})
	}
})
