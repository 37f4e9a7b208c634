package tran_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/host"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/tran"
)

var _ = Describe("Guest state", func() {
	var (
		t   *tran.Translator
		spm *host.Scratchpad
		m   *host.Machine
	)

	BeforeEach(func() {
		t = tran.NewTranslator(tran.WithLogger(GinkgoLogr))
		spm = host.NewScratchpad(0x2000, 64)
		m = host.NewMachine(spm)
	})

	Describe("GuestInit", func() {
		It("should capture one load per reserved register, base last", func() {
			Expect(t.ReadbackLen()).To(Equal(5))
			Expect(t.Readback()).To(Equal([]host.Inst{
				host.LW(host.X(3), host.SpmBase, 4),
				host.LW(host.X(30), host.SpmBase, 12),
				host.LW(host.X(31), host.SpmBase, 16),
				host.LW(host.X(4), host.SpmBase, 20),
				host.LW(host.X(29), host.SpmBase, 8),
			}))
		})

		It("should survive block translation", func() {
			_, err := t.Translate([]rtl.Instr{rtl.Li(rtl.X3, 1)}, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			Expect(t.Readback()).To(HaveLen(5))
		})
	})

	Describe("GuestGetRegs", func() {
		It("should read ordinary registers from the host file", func() {
			m.X[5] = 0xFFFFFFFF80000000
			m.F[2] = 0x4000000000000000
			m.CSR.FFlags = 1

			snap, err := t.GuestGetRegs(m)

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Reg(5)).To(Equal(uint32(0x80000000)))
			Expect(snap.F[2]).To(Equal(uint64(0x4000000000000000)))
			Expect(snap.CSR.FFlags).To(BeEquivalentTo(1))
		})

		It("should read reserved registers from their slots", func() {
			Expect(spm.SetSlot(1, 11)).To(Succeed())
			Expect(spm.SetSlot(2, 22)).To(Succeed())
			Expect(spm.SetSlot(5, 55)).To(Succeed())
			m.X[3] = 999

			snap, err := t.GuestGetRegs(m)

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Reg(3)).To(Equal(uint32(11)))
			Expect(snap.Reg(29)).To(Equal(uint32(22)))
			Expect(snap.Reg(4)).To(Equal(uint32(55)))
		})

		It("should prefer a temporary that still caches the register", func() {
			Expect(spm.SetSlot(1, 11)).To(Succeed())
			t.Spill().Restore([tran.PoolSize]tran.VarIndex{0, tran.IdxTmp0})
			m.X[host.TmpReg2] = 42

			snap, err := t.GuestGetRegs(m)

			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Reg(3)).To(Equal(uint32(42)))
		})

		It("should leave the machine untouched", func() {
			m.X[7] = 7
			before := m.Save()

			_, err := t.GuestGetRegs(m)

			Expect(err).NotTo(HaveOccurred())
			Expect(m.Save()).To(Equal(before))
		})
	})

	Describe("ReplayGetRegs", func() {
		It("should agree with the lookup at block boundaries", func() {
			execute(t, m, mixedProgram)
			before := m.Save()
			executed := m.Executed()

			replayed, err := t.ReplayGetRegs(m)
			Expect(err).NotTo(HaveOccurred())
			looked, err := t.GuestGetRegs(m)
			Expect(err).NotTo(HaveOccurred())

			Expect(replayed).To(Equal(looked))
			Expect(m.Save()).To(Equal(before))
			Expect(m.Executed()).To(Equal(executed))
			Expect(m.Read(host.SpmBase)).To(Equal(uint64(0x2000)))
		})
	})

	Describe("GuestSetRegs", func() {
		It("should refuse to write guest state", func() {
			snap := &emu.Snapshot{}
			Expect(func() { t.GuestSetRegs(m, snap) }).To(
				PanicWith(BeAssignableToTypeOf(&tran.UnimplementedWriteError{})))
		})
	})
})
