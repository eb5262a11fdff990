package allocator

import "github.com/lattice-run/heapalloc/internal/errors"

// increaseHeap extends the heap by exactly s bytes and returns the
// header offset of the new block. The old epilogue's 8 bytes are
// reused in place as the new block's header — sbrk is only asked for
// s bytes, not s+8 — and a fresh epilogue is written at the new tail.
// Returns an error, with the heap otherwise unchanged, if the host
// extension primitive fails.
func (h *Heap) increaseHeap(s uintptr) (uintptr, error) {
	oldEpilogueOff := h.epilogueOffset()
	oldEpilogue := h.header(oldEpilogueOff)

	if _, err := h.src.Sbrk(s); err != nil {
		return 0, errors.OutOfMemory(s)
	}

	newBlockOff := oldEpilogueOff
	newBlock := makeDivider(s, true, oldEpilogue.prevAlloc(), true, false)
	h.writeWord(newBlockOff, newBlock)

	newEpilogueOff := newBlockOff + s
	h.writeWord(newEpilogueOff, makeDivider(0, true, true, true, true))

	// Propagate the new block's allocated state into the fresh
	// epilogue's P bit and, if the block immediately before the old
	// epilogue was free, into that predecessor's N bit.
	h.changeAlloc(newBlockOff, newBlock)

	return newBlockOff, nil
}
