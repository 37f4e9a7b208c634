// Package tran translates RTL blocks of an RV32 guest into host
// instructions.
//
// Guest integer registers live in the host register of the same number,
// except the few ordinals translated code reserves for itself. Those, and
// the RTL temporaries, are kept in scratchpad slots and cached in a pool
// of two temporary host registers while an instruction uses them.
package tran

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/host"
	"github.com/sarchlab/rvdbt/rtl"
)

// DefaultMaxBlockLen is the default guest instruction limit per block.
const DefaultMaxBlockLen = 64

// Block is the translation of a run of guest instructions.
type Block struct {
	// PC is the guest address of the first instruction.
	PC uint64

	// NextPC is the guest address execution continues at.
	NextPC uint64

	// Code is the host code. It ends with ECALL if the block does.
	Code []host.Inst

	// GuestInsts is the number of guest instructions translated.
	GuestInsts int

	// EndsInEcall is set if the block stops at a system call.
	EndsInEcall bool

	exit [PoolSize]VarIndex
}

// Translator turns RTL into host code, one block at a time.
type Translator struct {
	buf   *Buffer
	spill *SpillAllocator

	logger            logr.Logger
	maxBlockLen       int
	writebackEachInst bool

	readbackLen int
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithLogger sets the logger. Spill traffic is logged at V(2), blocks at
// V(1).
func WithLogger(logger logr.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithMaxBlockLen limits the number of guest instructions per block.
func WithMaxBlockLen(n int) TranslatorOption {
	return func(t *Translator) {
		t.maxBlockLen = n
	}
}

// WithWritebackEachInst stores bound temporaries after every guest
// instruction instead of only at block end.
func WithWritebackEachInst(on bool) TranslatorOption {
	return func(t *Translator) {
		t.writebackEachInst = on
	}
}

// NewTranslator creates a translator and captures the read-back sequence.
func NewTranslator(opts ...TranslatorOption) *Translator {
	t := &Translator{
		buf:         NewBuffer(),
		logger:      logr.Discard(),
		maxBlockLen: DefaultMaxBlockLen,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.spill = NewSpillAllocator(t.buf, t.logger)
	t.GuestInit()

	return t
}

// Spill returns the spill allocator.
func (t *Translator) Spill() *SpillAllocator {
	return t.spill
}

// Resume restores the allocator bindings blk left behind. Call it after
// running a block so that GuestGetRegs sees that block's exit state.
func (t *Translator) Resume(blk *Block) {
	t.spill.Restore(blk.exit)
}

// Translate translates the block of program starting at pc. The block
// ends at an ECALL, at the end of the program or after the configured
// number of instructions.
func (t *Translator) Translate(program []rtl.Instr, entry, pc uint64) (*Block, error) {
	inst, err := emu.FetchInstr(program, entry, pc)
	if err != nil {
		return nil, err
	}

	t.buf.Clear()
	t.spill.Reset()

	blk := &Block{PC: pc}
	cur := pc
	for {
		if err := t.translateInst(inst); err != nil {
			t.buf.Clear()
			return nil, fmt.Errorf("failed to translate PC=0x%X: %w", cur, err)
		}
		blk.GuestInsts++
		cur += emu.InstSize

		if inst.Op == rtl.OpEcall {
			blk.EndsInEcall = true
			break
		}

		t.endInst()

		if blk.GuestInsts >= t.maxBlockLen {
			break
		}
		inst, err = emu.FetchInstr(program, entry, cur)
		if err != nil {
			break
		}
	}

	if !blk.EndsInEcall {
		t.spill.WritebackAll()
	}
	t.spill.FlushAll()

	blk.NextPC = cur
	blk.Code = t.buf.Take()
	blk.exit = t.spill.Bindings()

	t.logger.V(1).Info("translated block",
		"pc", fmt.Sprintf("0x%X", blk.PC),
		"guest", blk.GuestInsts,
		"host", len(blk.Code),
		"ecall", blk.EndsInEcall)

	return blk, nil
}

func (t *Translator) endInst() {
	if t.writebackEachInst {
		t.spill.WritebackAll()
	}
	t.spill.FlushAll()
}

// spilledOperands counts the distinct scratch-backed integer operands.
func spilledOperands(inst rtl.Instr) int {
	regs, used := inst.Operands()
	var seen [3]VarIndex
	n := 0
	for i, r := range regs {
		if !used[i] || r.IsF() {
			continue
		}
		idx := VarIndexOf(r)
		if !idx.Spilled() {
			continue
		}
		dup := false
		for _, s := range seen[:n] {
			if s == idx {
				dup = true
			}
		}
		if !dup {
			seen[n] = idx
			n++
		}
	}
	return n
}

// wordOperand reports whether operand pos (0 rd, 1 rs1, 2 rs2) of an FP
// call holds a 32-bit integer. Only those fit a scratchpad slot.
func wordOperand(op rtl.FPOp, pos int) bool {
	switch pos {
	case 0:
		switch op {
		case rtl.FPFToI32, rtl.FPFToU32, rtl.FPLE, rtl.FPLT, rtl.FPEQ:
			return true
		}
	case 1:
		switch op {
		case rtl.FPI32ToF, rtl.FPU32ToF:
			return true
		}
	}
	return false
}

// checkFPCallSlots rejects FP calls that would pass a floating-point or
// 64-bit integer value through a 4-byte scratchpad slot.
func checkFPCallSlots(inst rtl.Instr) error {
	regs, _ := inst.Operands()
	for pos, r := range regs {
		if r.IsF() || !VarIndexOf(r).Spilled() || wordOperand(inst.Cmd.Op(), pos) {
			continue
		}
		return fmt.Errorf("%v: operand %v is scratch-backed and cannot hold a %v value",
			inst, r, inst.Cmd)
	}
	return nil
}

// reg returns the host register that holds r for the current instruction,
// filling a temporary if r is scratch-backed.
func (t *Translator) reg(r rtl.Reg) host.Reg {
	if r.IsF() {
		return host.F(r.Index())
	}

	idx := VarIndexOf(r)
	if !idx.Spilled() {
		return host.Reg(idx)
	}
	if hr, ok := t.spill.Lookup(idx); ok {
		return hr
	}
	return t.spill.Acquire(idx)
}

var intOps = map[rtl.Op]host.Op{
	rtl.OpAdd:  host.OpADDW,
	rtl.OpSub:  host.OpSUBW,
	rtl.OpAnd:  host.OpAND,
	rtl.OpOr:   host.OpOR,
	rtl.OpXor:  host.OpXOR,
	rtl.OpAddi: host.OpADDIW,
	rtl.OpSlli: host.OpSLLIW,
	rtl.OpSrli: host.OpSRLIW,
	rtl.OpSrai: host.OpSRAIW,
}

func (t *Translator) translateInst(inst rtl.Instr) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if n := spilledOperands(inst); n > PoolSize {
		return fmt.Errorf("%v needs %d spilled registers, pool has %d", inst, n, PoolSize)
	}
	if inst.Op == rtl.OpFPCall {
		if err := checkFPCallSlots(inst); err != nil {
			return err
		}
	}

	switch inst.Op {
	case rtl.OpEcall:
		t.spill.WritebackAll()
		t.buf.Emit(host.Inst{Op: host.OpECALL})
		return nil
	case rtl.OpFPCall:
		t.translateFPCall(inst)
		return nil
	}

	if IsZero(inst.Rd) {
		return nil
	}

	switch inst.Op {
	case rtl.OpLi:
		t.buf.Emit(host.Inst{Op: host.OpLI, Rd: t.reg(inst.Rd), Imm: inst.Imm})
	case rtl.OpMv:
		t.translateMv(inst)
	case rtl.OpAdd, rtl.OpSub, rtl.OpAnd, rtl.OpOr, rtl.OpXor:
		rs1 := t.reg(inst.Rs1)
		rs2 := t.reg(inst.Rs2)
		t.buf.Emit(host.Inst{Op: intOps[inst.Op], Rd: t.reg(inst.Rd), Rs1: rs1, Rs2: rs2})
	case rtl.OpAddi, rtl.OpSlli, rtl.OpSrli, rtl.OpSrai:
		rs1 := t.reg(inst.Rs1)
		t.buf.Emit(host.Inst{Op: intOps[inst.Op], Rd: t.reg(inst.Rd), Rs1: rs1, Imm: inst.Imm})
	default:
		return fmt.Errorf("no translation for %v", inst.Op)
	}
	return nil
}

func (t *Translator) translateMv(inst rtl.Instr) {
	rs := t.reg(inst.Rs1)
	rd := t.reg(inst.Rd)

	var op host.Op
	switch {
	case inst.Rd.IsF() && inst.Rs1.IsF():
		op = host.OpFMV
	case inst.Rd.IsF():
		op = host.OpFMVWX
	case inst.Rs1.IsF():
		op = host.OpFMVXW
	default:
		t.buf.Emit(host.Inst{Op: host.OpADDIW, Rd: rd, Rs1: rs})
		return
	}
	t.buf.Emit(host.Inst{Op: op, Rd: rd, Rs1: rs})
}

// translateFPCall keeps calls whose destination is the zero register,
// since the call still raises flags.
func (t *Translator) translateFPCall(inst rtl.Instr) {
	rs1 := t.reg(inst.Rs1)
	rs2 := t.reg(inst.Rs2)
	rd := t.reg(inst.Rd)
	t.buf.Emit(host.Inst{
		Op:  host.OpFPCALL,
		Rd:  rd,
		Rs1: rs1,
		Rs2: rs2,
		Cmd: inst.Cmd,
		RM:  inst.RM,
	})
}
