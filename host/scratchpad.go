package host

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// SlotSize is the size in bytes of one scratchpad slot.
const SlotSize = 4

// Scratchpad is the memory region that holds spilled guest registers. It
// occupies [Base, Base+Size) in the host address space and is backed by an
// akita storage.
type Scratchpad struct {
	base    uint64
	size    uint64
	storage *mem.Storage
}

// NewScratchpad creates a zeroed scratchpad of size bytes at base.
func NewScratchpad(base, size uint64) *Scratchpad {
	return &Scratchpad{
		base:    base,
		size:    size,
		storage: mem.NewStorage(size),
	}
}

// Base returns the first address of the scratchpad.
func (s *Scratchpad) Base() uint64 {
	return s.base
}

// Size returns the scratchpad size in bytes.
func (s *Scratchpad) Size() uint64 {
	return s.size
}

func (s *Scratchpad) offset(addr uint64) (uint64, error) {
	if addr < s.base || addr-s.base+SlotSize > s.size {
		return 0, fmt.Errorf("scratchpad access at 0x%X outside [0x%X, 0x%X)",
			addr, s.base, s.base+s.size)
	}
	if addr%SlotSize != 0 {
		return 0, fmt.Errorf("misaligned scratchpad access at 0x%X", addr)
	}
	return addr - s.base, nil
}

// Load32 reads the word at addr.
func (s *Scratchpad) Load32(addr uint64) (uint32, error) {
	off, err := s.offset(addr)
	if err != nil {
		return 0, err
	}

	data, err := s.storage.Read(off, SlotSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read scratchpad: %w", err)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Store32 writes the word at addr.
func (s *Scratchpad) Store32(addr uint64, v uint32) error {
	off, err := s.offset(addr)
	if err != nil {
		return err
	}

	var data [SlotSize]byte
	binary.LittleEndian.PutUint32(data[:], v)
	if err := s.storage.Write(off, data[:]); err != nil {
		return fmt.Errorf("failed to write scratchpad: %w", err)
	}
	return nil
}

// SlotAddr returns the address of slot idx.
func (s *Scratchpad) SlotAddr(idx uint32) uint64 {
	return s.base + SlotSize*uint64(idx)
}

// Slot reads slot idx.
func (s *Scratchpad) Slot(idx uint32) (uint32, error) {
	return s.Load32(s.SlotAddr(idx))
}

// SetSlot writes slot idx.
func (s *Scratchpad) SetSlot(idx uint32, v uint32) error {
	return s.Store32(s.SlotAddr(idx), v)
}

// Reset zeroes the scratchpad.
func (s *Scratchpad) Reset() {
	s.storage = mem.NewStorage(s.size)
}
