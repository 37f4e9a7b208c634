package tran

import "github.com/sarchlab/rvdbt/host"

// Buffer collects the host instructions of the block being translated.
// It also keeps one saved sequence that outlives Clear.
type Buffer struct {
	insts []host.Inst
	saved []host.Inst
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Emit appends inst.
func (b *Buffer) Emit(inst host.Inst) {
	b.insts = append(b.insts, inst)
}

// Len returns the number of buffered instructions.
func (b *Buffer) Len() int {
	return len(b.insts)
}

// Insts returns the buffered instructions.
func (b *Buffer) Insts() []host.Inst {
	return b.insts
}

// Take returns the buffered instructions and empties the buffer.
func (b *Buffer) Take() []host.Inst {
	code := b.insts
	b.insts = nil
	return code
}

// Clear empties the buffer. The saved sequence is kept.
func (b *Buffer) Clear() {
	b.insts = b.insts[:0]
}

// Save copies the current contents into the saved sequence.
func (b *Buffer) Save() {
	b.saved = append(b.saved[:0], b.insts...)
}

// Saved returns the saved sequence.
func (b *Buffer) Saved() []host.Inst {
	return b.saved
}
