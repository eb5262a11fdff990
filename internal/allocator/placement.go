package allocator

// findFreeSpace searches the segregated free lists for a block able to
// hold s bytes, best-fit within bestFitMargin and early-exiting as
// soon as a good-enough candidate is seen. It scans class_for(s)
// first, then escalates through each larger class in turn, down to
// the catch-all, stopping at the first class that yields a candidate.
// The chosen candidate is unlinked from its list before being split or
// marked whole, since both of those mutations overwrite the payload
// the list links live in.
func (h *Heap) findFreeSpace(s uintptr) (uintptr, bool) {
	var (
		cand uintptr
		ok   bool
	)

	for class := classFor(s); class < numClasses; class++ {
		cand, ok = h.scanClass(class, s)
		if ok {
			break
		}
	}

	if !ok {
		return 0, false
	}

	h.unlink(cand)

	d := h.header(cand)
	if d.size() > s+Divider+2*8 {
		h.split(cand, s)
	} else {
		h.changeAlloc(cand, d.withAllocated(true))
	}

	return cand, true
}

// scanClass walks one size class's list, tracking the smallest block
// seen that satisfies size >= s, and returns early the first time a
// candidate is within bestFitMargin of s.
func (h *Heap) scanClass(class int, s uintptr) (uintptr, bool) {
	best := noLink
	var bestSize uintptr

	limit := uintptr(float64(s) * (1 + bestFitMargin))

	for cur := h.freeLists[class]; cur != noLink; cur = h.linkNext(cur) {
		sz := h.header(cur).size()
		if sz < s {
			continue
		}

		if best == noLink || sz < bestSize {
			best, bestSize = cur, sz
		}

		if sz <= limit {
			return cur, true
		}
	}

	return best, best != noLink
}

// split carves an allocated prefix of size s out of free block H,
// leaving a free suffix that is reinserted into its size class. Both
// halves are pushed back through changeAlloc after their header and
// footer are written, which re-propagates neighbor bits — redundant
// with the explicit writes above, but preserved deliberately (see
// spec design notes on this routine).
func (h *Heap) split(hOff, s uintptr) {
	old := h.header(hOff)
	oldSize := old.size()

	prefix := makeDivider(s, true, old.prevAlloc(), false, false)
	h.writeWord(hOff, prefix)

	suffixOff := hOff + s
	suffix := makeDivider(oldSize-s, false, true, old.nextAlloc(), false)
	h.writeWord(suffixOff, suffix)
	h.writeFooter(suffixOff)

	h.changeAlloc(hOff, prefix)
	h.changeAlloc(suffixOff, suffix)

	h.insert(suffixOff)
}
