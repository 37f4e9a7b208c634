package tran

import (
	"fmt"

	"github.com/sarchlab/rvdbt/host"
	"github.com/sarchlab/rvdbt/rtl"
)

// VarIndex is the canonical index of a register reference. With SpillTag
// set, the low bits are a scratchpad slot; otherwise they are the host
// register that holds the guest register permanently.
type VarIndex uint32

// SpillTag marks a scratch-backed index.
const SpillTag VarIndex = 1 << 31

// Scratch-backed indices of the reserved guest registers and the RTL
// temporaries.
const (
	IdxTmp0    = 1 | SpillTag
	IdxSpmBase = 2 | SpillTag
	IdxTmpReg1 = 3 | SpillTag
	IdxTmpReg2 = 4 | SpillTag
	IdxMask32  = 5 | SpillTag
	IdxS0      = 6 | SpillTag
	IdxS1      = 7 | SpillTag
)

// Spilled reports whether v lives in the scratchpad.
func (v VarIndex) Spilled() bool {
	return v&SpillTag != 0
}

// Slot returns the scratchpad slot of a spilled index.
func (v VarIndex) Slot() uint32 {
	return uint32(v &^ SpillTag)
}

func (v VarIndex) String() string {
	if v.Spilled() {
		return fmt.Sprintf("spm[%d]", v.Slot())
	}
	return fmt.Sprintf("x%d", uint32(v))
}

// reservedReg is a guest register whose ordinal collides with a host
// register that translated code owns.
type reservedReg struct {
	guest rtl.Reg
	idx   VarIndex
}

// reserved lists the remapped guest registers in read-back order. x29 is
// remapped too: left in place, a guest write to it would move the
// scratchpad base that every spill load and store is addressed from.
var reserved = [...]reservedReg{
	{rtl.XReg(int(host.Tmp0)), IdxTmp0},
	{rtl.XReg(int(host.TmpReg1)), IdxTmpReg1},
	{rtl.XReg(int(host.TmpReg2)), IdxTmpReg2},
	{rtl.XReg(int(host.Mask32)), IdxMask32},
	{rtl.XReg(int(host.SpmBase)), IdxSpmBase},
}

func isReserved(n int) bool {
	for _, r := range reserved {
		if r.guest.Index() == n {
			return true
		}
	}
	return false
}

// BadRegisterError reports a reference that names no known register.
type BadRegisterError struct {
	Reg rtl.Reg
}

func (e *BadRegisterError) Error() string {
	return fmt.Sprintf("bad register reference %v (id %d)", e.Reg, uint8(e.Reg))
}

// VarIndexOf maps a guest integer register reference to its VarIndex. It
// panics with *BadRegisterError for anything else.
func VarIndexOf(r rtl.Reg) VarIndex {
	switch {
	case r.IsX():
		for _, rr := range reserved {
			if rr.guest == r {
				return rr.idx
			}
		}
		return VarIndex(r.Index())
	case r == rtl.Zero:
		return 0
	case r == rtl.S0:
		return IdxS0
	case r == rtl.S1:
		return IdxS1
	}
	panic(&BadRegisterError{Reg: r})
}

// IsZero reports whether r is the always-zero register.
func IsZero(r rtl.Reg) bool {
	return r == rtl.Zero || r == rtl.X0
}
