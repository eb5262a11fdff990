package allocator

import "testing"

func TestCheckDetectsSizeFieldCorruption(t *testing.T) {
	h := newTestHeap(t)

	p := h.Allocate(64)
	hOff := headerOfPayload(p)

	d := h.header(hOff)
	h.writeWord(hOff, makeDivider(d.size()+3, d.allocated(), d.prevAlloc(), d.nextAlloc(), d.epilogue()))

	ok, err := h.Check(0)
	if ok {
		t.Fatal("Check passed over a block whose size is not 16-aligned")
	}

	if err == nil {
		t.Fatal("Check returned no error alongside ok=false")
	}
}

func TestCheckDetectsUncoalescedFreeNeighbors(t *testing.T) {
	h := newTestHeap(t)

	a := h.Allocate(32)
	b := h.Allocate(32)
	_ = h.Allocate(32) // keep b's successor allocated so b's own free does not auto-coalesce away

	h.Free(a)

	// Force b free without going through freeHeader's coalescing, to
	// simulate a corrupted heap where two adjacent blocks are both
	// free but were never merged.
	bOff := headerOfPayload(b)
	d := h.header(bOff)
	h.changeAlloc(bOff, d.withAllocated(false))
	h.insert(bOff)

	ok, err := h.Check(0)
	if ok {
		t.Fatal("Check passed over two adjacent free blocks")
	}

	if err == nil {
		t.Fatal("Check returned no error alongside ok=false")
	}
}

func TestCheckDetectsFreeListMemberNotMarkedFree(t *testing.T) {
	h := newTestHeap(t)

	p := h.Allocate(64)
	hOff := headerOfPayload(p)

	// Splice an allocated block directly into a free list, bypassing
	// the normal free path entirely.
	h.insert(hOff)

	ok, err := h.Check(0)
	if ok {
		t.Fatal("Check passed with an allocated block on a free list")
	}

	if err == nil {
		t.Fatal("Check returned no error alongside ok=false")
	}
}

func TestCheckPassesOnFreshHeap(t *testing.T) {
	h := newTestHeap(t)
	mustCheck(t, h)
}
