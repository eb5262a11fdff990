package allocator

// freeHeader marks block H free and performs up-to-three-way
// coalescing with its neighbors, then inserts the resulting block into
// its size class's list. The epilogue is never a coalescing partner:
// a "free successor" additionally requires its E bit to be clear.
func (h *Heap) freeHeader(hOff uintptr) {
	d := h.header(hOff)
	size := d.size()

	predFree := !d.prevAlloc()

	succOff := nextHeader(hOff, size)
	succ := h.header(succOff)
	succFree := !succ.allocated() && !succ.epilogue()

	h.changeAlloc(hOff, d.withAllocated(false))

	switch {
	case predFree && succFree:
		predOff := hOff - h.header(prevFooterOffset(hOff)).size()

		h.unlink(predOff)
		h.unlink(succOff)

		end := nextHeader(succOff, h.header(succOff).size())
		h.coalesce(predOff, end)
		h.insert(predOff)

	case predFree:
		predOff := hOff - h.header(prevFooterOffset(hOff)).size()

		h.unlink(predOff)
		h.coalesce(predOff, succOff)
		h.insert(predOff)

	case succFree:
		h.unlink(succOff)

		end := nextHeader(succOff, h.header(succOff).size())
		h.coalesce(hOff, end)
		h.insert(hOff)

	default:
		h.insert(hOff)
	}
}

// coalesce merges the free run [l, rEnd) into a single free block
// starting at l. rEnd is the offset of the block immediately following
// the run (possibly the epilogue), whose current allocation state
// becomes the merged block's N bit.
func (h *Heap) coalesce(l, rEnd uintptr) {
	lold := h.header(l)
	succ := h.header(rEnd)

	merged := makeDivider(rEnd-l, false, lold.prevAlloc(), succ.allocated(), false)
	h.changeAlloc(l, merged)
}
