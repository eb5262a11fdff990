package allocator

// insert adds free block H to the head of its size class's list. Free
// blocks are intrusive doubly-linked list nodes living in their own
// payload, so insertion never allocates.
func (h *Heap) insert(hOff uintptr) {
	class := classFor(h.header(hOff).size())
	head := h.freeLists[class]

	h.setLinkPrev(hOff, noLink)
	h.setLinkNext(hOff, head)

	if head != noLink {
		h.setLinkPrev(head, hOff)
	}

	h.freeLists[class] = hOff
}

// unlink splices free block H out of its size class's list.
func (h *Heap) unlink(hOff uintptr) {
	class := classFor(h.header(hOff).size())
	prev := h.linkPrev(hOff)
	next := h.linkNext(hOff)

	if prev != noLink {
		h.setLinkNext(prev, next)
	} else {
		h.freeLists[class] = next
	}

	if next != noLink {
		h.setLinkPrev(next, prev)
	}
}
