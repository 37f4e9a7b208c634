package tran

import (
	"fmt"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/host"
)

// UnimplementedWriteError is the panic value of GuestSetRegs.
type UnimplementedWriteError struct{}

func (e *UnimplementedWriteError) Error() string {
	return "guest register write-back is not implemented"
}

// GuestInit captures the read-back sequence: one load per reserved guest
// register from its scratchpad slot into the host register of the same
// number. The base register is loaded last.
func (t *Translator) GuestInit() {
	t.buf.Clear()
	for _, r := range reserved {
		t.buf.Emit(host.LW(host.X(r.guest.Index()), host.SpmBase, slotOffset(r.idx)))
	}
	t.buf.Save()
	t.readbackLen = t.buf.Len()
	t.buf.Clear()
}

// ReadbackLen returns the length of the read-back sequence.
func (t *Translator) ReadbackLen() int {
	return t.readbackLen
}

// Readback returns the read-back sequence.
func (t *Translator) Readback() []host.Inst {
	return t.buf.Saved()
}

func hostSnapshot(m *host.Machine) emu.Snapshot {
	var snap emu.Snapshot
	for i := 0; i < 32; i++ {
		if isReserved(i) {
			continue
		}
		snap.X[i] = uint32(m.X[i])
	}
	snap.X[0] = 0
	snap.F = m.F
	snap.CSR = m.CSR
	return snap
}

// GuestGetRegs returns the guest registers after a block has run on m.
// Reserved registers come from the temporary that still caches them or,
// failing that, from their scratchpad slot. m is not modified.
func (t *Translator) GuestGetRegs(m *host.Machine) (emu.Snapshot, error) {
	snap := hostSnapshot(m)
	for _, r := range reserved {
		v, err := t.readIndex(m, r.idx)
		if err != nil {
			return snap, fmt.Errorf("failed to read %v: %w", r.guest, err)
		}
		snap.X[r.guest.Index()] = v
	}
	return snap, nil
}

func (t *Translator) readIndex(m *host.Machine, idx VarIndex) (uint32, error) {
	if reg, ok := t.spill.Resident(idx); ok {
		return uint32(m.Read(reg)), nil
	}
	return m.Scratchpad().Slot(idx.Slot())
}

// ReplayGetRegs returns the same snapshot as GuestGetRegs by running the
// read-back sequence on a fork of m and reading the reserved registers'
// host homes. m is not modified. It is only exact at block boundaries,
// when the scratchpad holds every spilled value.
func (t *Translator) ReplayGetRegs(m *host.Machine) (emu.Snapshot, error) {
	snap := hostSnapshot(m)

	replay := m.Fork()
	if _, err := replay.Execute(t.Readback()); err != nil {
		return snap, fmt.Errorf("failed to replay read-back: %w", err)
	}
	for _, r := range reserved {
		n := r.guest.Index()
		snap.X[n] = uint32(replay.X[n])
	}
	return snap, nil
}

// GuestSetRegs would write snap back into m. Guest state is only changed
// by executing instructions, so it panics with *UnimplementedWriteError.
func (t *Translator) GuestSetRegs(m *host.Machine, snap *emu.Snapshot) {
	panic(&UnimplementedWriteError{})
}
