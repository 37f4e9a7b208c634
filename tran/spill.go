package tran

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/rvdbt/host"
)

// PoolSize is the number of temporary host registers available for
// spilled guest registers.
const PoolSize = 2

// SpillPoolExhaustedError reports an Acquire with every temporary in use.
type SpillPoolExhaustedError struct {
	Held      [PoolSize]VarIndex
	Requested VarIndex
}

func (e *SpillPoolExhaustedError) Error() string {
	return fmt.Sprintf("no clean temporary register: holding %v %v, requested %v",
		e.Held[0], e.Held[1], e.Requested)
}

type tmpReg struct {
	reg  host.Reg
	idx  VarIndex // 0 when unbound
	used bool
}

// SpillAllocator binds spilled indices to the temporary register pool and
// emits the loads and stores that move values between the temporaries and
// the scratchpad.
type SpillAllocator struct {
	pool   [PoolSize]tmpReg
	buf    *Buffer
	logger logr.Logger
}

// NewSpillAllocator creates an allocator that emits into buf.
func NewSpillAllocator(buf *Buffer, logger logr.Logger) *SpillAllocator {
	a := &SpillAllocator{buf: buf, logger: logger}
	a.pool[0].reg = host.TmpReg1
	a.pool[1].reg = host.TmpReg2
	return a
}

func slotOffset(idx VarIndex) int64 {
	return int64(host.SlotSize) * int64(idx.Slot())
}

// Reset unbinds every temporary.
func (a *SpillAllocator) Reset() {
	for i := range a.pool {
		a.pool[i].idx = 0
		a.pool[i].used = false
	}
}

// Lookup returns the temporary caching idx and marks it used.
func (a *SpillAllocator) Lookup(idx VarIndex) (host.Reg, bool) {
	if !idx.Spilled() {
		return 0, false
	}
	for i := range a.pool {
		if a.pool[i].idx == idx {
			a.pool[i].used = true
			return a.pool[i].reg, true
		}
	}
	return 0, false
}

// Resident returns the temporary caching idx without touching its state.
func (a *SpillAllocator) Resident(idx VarIndex) (host.Reg, bool) {
	if !idx.Spilled() {
		return 0, false
	}
	for i := range a.pool {
		if a.pool[i].idx == idx {
			return a.pool[i].reg, true
		}
	}
	return 0, false
}

// Acquire loads idx into the first temporary that is not in use and
// returns it. The previous binding of that temporary is written back
// first. It panics with *SpillPoolExhaustedError when every temporary is
// in use.
func (a *SpillAllocator) Acquire(idx VarIndex) host.Reg {
	if !idx.Spilled() {
		panic(fmt.Errorf("acquire of unspilled index %v", idx))
	}

	slot := -1
	for i := range a.pool {
		if !a.pool[i].used {
			slot = i
			break
		}
	}
	if slot < 0 {
		panic(&SpillPoolExhaustedError{Held: a.Bindings(), Requested: idx})
	}

	for i := range a.pool {
		if i != slot && a.pool[i].idx == idx {
			a.Writeback(i)
			a.pool[i].idx = 0
		}
	}

	t := &a.pool[slot]
	if t.idx != 0 && t.idx != idx {
		a.logger.V(2).Info("evict", "reg", t.reg, "idx", t.idx, "for", idx)
	}
	a.Writeback(slot)
	a.buf.Emit(host.LW(t.reg, host.SpmBase, slotOffset(idx)))
	a.logger.V(2).Info("fill", "reg", t.reg, "idx", idx)

	t.idx = idx
	t.used = true
	return t.reg
}

// Writeback stores temporary i to its scratchpad slot if it is bound.
func (a *SpillAllocator) Writeback(i int) {
	t := &a.pool[i]
	if t.idx == 0 {
		return
	}
	a.buf.Emit(host.SW(t.reg, host.SpmBase, slotOffset(t.idx)))
	a.logger.V(2).Info("spill", "reg", t.reg, "idx", t.idx)
}

// WritebackAll stores every bound temporary.
func (a *SpillAllocator) WritebackAll() {
	for i := range a.pool {
		a.Writeback(i)
	}
}

// Flush releases the temporary caching idx without storing it.
func (a *SpillAllocator) Flush(idx VarIndex) {
	for i := range a.pool {
		if a.pool[i].idx == idx {
			a.pool[i].used = false
			return
		}
	}
}

// FlushAll releases every temporary without storing it.
func (a *SpillAllocator) FlushAll() {
	for i := range a.pool {
		a.pool[i].used = false
	}
}

// Bindings returns the index cached by each temporary.
func (a *SpillAllocator) Bindings() [PoolSize]VarIndex {
	var b [PoolSize]VarIndex
	for i := range a.pool {
		b[i] = a.pool[i].idx
	}
	return b
}

// Restore rebinds the temporaries to b, all released.
func (a *SpillAllocator) Restore(b [PoolSize]VarIndex) {
	for i := range a.pool {
		a.pool[i].idx = b[i]
		a.pool[i].used = false
	}
}

// InUse reports whether temporary i is in use by the current instruction.
func (a *SpillAllocator) InUse(i int) bool {
	return a.pool[i].used
}
