package allocator

// changeAlloc is the central mutator. It writes nd into H, writes H's
// footer iff H ends up free, then propagates H's new allocation state
// into the two neighbor-allocation bits: the successor's P bit always
// (refreshing its footer too, iff the successor is free and not the
// epilogue), and the predecessor's N bit only when H.P is false — i.e.
// only when the predecessor is free and therefore has a footer to read
// its size from. See spec §4.6 and the §9 design note on this guard.
func (h *Heap) changeAlloc(hOff uintptr, nd divider) {
	h.writeWord(hOff, nd)

	if !nd.allocated() {
		h.writeFooter(hOff)
	}

	succOff := nextHeader(hOff, nd.size())
	succ := h.header(succOff)
	newSucc := succ.withPrevAlloc(nd.allocated())
	h.writeWord(succOff, newSucc)

	if !succ.epilogue() && !newSucc.allocated() {
		h.writeFooter(succOff)
	}

	if !nd.prevAlloc() {
		predFooter := h.header(prevFooterOffset(hOff))
		predOff := hOff - predFooter.size()
		pred := h.header(predOff)
		newPred := pred.withNextAlloc(nd.allocated())
		h.writeWord(predOff, newPred)
		h.writeFooter(predOff)
	}
}
