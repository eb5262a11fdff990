package allocator

import (
	"testing"

	"github.com/lattice-run/heapalloc/internal/hostheap"
)

// These mirror the six end-to-end scenarios from the specification's
// worked examples, using literal byte counts.

func TestScenarioSmallAlloc(t *testing.T) {
	h := newTestHeap(t)

	hiBefore := h.src.Hi()

	p1 := h.Allocate(1)
	if p1 == 0 {
		t.Fatal("Allocate(1) returned null")
	}

	if grew := h.src.Hi() - hiBefore; grew != 32 {
		t.Fatalf("heap grew by %d bytes, want 32", grew)
	}

	h.Free(p1)
	mustCheck(t, h)

	if classFor(32) != 0 {
		t.Fatalf("classFor(32) = %d, want 0", classFor(32))
	}

	if h.freeLists[0] == noLink {
		t.Fatal("expected one free block of size 32 in class 0")
	}

	if sz := h.header(h.freeLists[0]).size(); sz != 32 {
		t.Fatalf("free block size = %d, want 32", sz)
	}
}

func TestScenarioSplit(t *testing.T) {
	h := newTestHeap(t)

	hiBefore := h.src.Hi()

	big := h.Allocate(2000)
	if grew := h.src.Hi() - hiBefore; grew != 2016 {
		t.Fatalf("heap grew by %d bytes for Allocate(2000), want 2016", grew)
	}

	h.Free(big)

	p := h.Allocate(16)
	if h.UsableSize(p) != MinBlock-Divider {
		t.Fatalf("usable size = %d, want %d", h.UsableSize(p), MinBlock-Divider)
	}

	// The 2016-byte block should have split into a 32-byte allocation
	// and a free 1984-byte suffix living in class 4.
	found := false

	for n := h.freeLists[4]; n != noLink; n = h.linkNext(n) {
		if h.header(n).size() == 1984 {
			found = true
		}
	}

	if !found {
		t.Fatal("expected a free 1984-byte block in class 4 after the split")
	}

	mustCheck(t, h)
}

func TestScenarioCoalesceBothNeighbors(t *testing.T) {
	h := newTestHeap(t)

	a := h.Allocate(64)
	b := h.Allocate(64)
	c := h.Allocate(64)

	h.Free(a)
	h.Free(c)
	h.Free(b)

	mustCheck(t, h)

	// One free block of size 3*80 = 240 should remain between prologue
	// and epilogue.
	first := h.src.Lo() + Divider
	d := h.header(first)

	if d.allocated() {
		t.Fatal("expected the merged run to be free")
	}

	if d.size() != 240 {
		t.Fatalf("merged block size = %d, want 240", d.size())
	}

	if nextHeader(first, d.size()) != h.epilogueOffset() {
		t.Fatal("expected the merged free block to be the only block before the epilogue")
	}
}

func TestScenarioReallocGrowNoMove(t *testing.T) {
	h := newTestHeap(t)

	p := h.Allocate(100)
	if h.UsableSize(p) != 104 {
		t.Fatalf("usable size = %d, want 104", h.UsableSize(p))
	}

	got := h.Reallocate(p, 100)
	if got != p {
		t.Fatalf("Reallocate(p, 100) moved: got %d, want %d", got, p)
	}
}

func TestScenarioReallocGrowMove(t *testing.T) {
	h := newTestHeap(t)

	p := h.Allocate(16)
	for i := range h.Payload(p) {
		h.Payload(p)[i] = byte(i)
	}

	before := make([]byte, h.UsableSize(p))
	copy(before, h.Payload(p))

	q := h.Reallocate(p, 1000)
	if q == p {
		t.Fatal("expected Reallocate to move to a new block")
	}

	got := h.Payload(q)[:len(before)]
	for i := range before {
		if got[i] != before[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], before[i])
		}
	}

	mustCheck(t, h)
}

func TestScenarioZeroInit(t *testing.T) {
	h := newTestHeap(t)

	p := h.ZeroAllocate(4, 8)
	if h.UsableSize(p) != 48-Divider {
		t.Fatalf("usable size = %d, want %d", h.UsableSize(p), 48-Divider)
	}

	if classFor(48) != 1 {
		t.Fatalf("classFor(48) = %d, want 1", classFor(48))
	}

	for i, b := range h.Payload(p) {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
}

func TestFakeSourceUsedByHeap(t *testing.T) {
	// sanity: the heap really drives hostheap.Source, not a private buffer.
	src := hostheap.NewFakeSource(1 << 12)

	h, err := New(src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	callsBefore := src.SbrkCalls()
	h.Allocate(8)

	if src.SbrkCalls() <= callsBefore {
		t.Fatal("Allocate did not grow the heap through hostheap.Source.Sbrk")
	}
}
