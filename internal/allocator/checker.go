package allocator

import (
	"fmt"

	"github.com/lattice-run/heapalloc/internal/errors"
)

// Check walks the heap forward from the first real block to the
// epilogue, then walks every free list, verifying the invariants of
// spec §3/§8. line is the caller's source line, folded into the
// returned error's message so a failure can be pinned to the call
// site that triggered it. Used only in debug builds/tests; it does
// not attempt repair.
func (h *Heap) Check(line int) (bool, *errors.StandardError) {
	seenFree := make(map[uintptr]bool)

	cur := h.src.Lo() + Divider
	prevAlloc := true // the prologue is always allocated

	for {
		if cur < h.src.Lo() || cur >= h.src.Hi() {
			return false, invariantAt("block address out of heap bounds", cur, line)
		}

		d := h.header(cur)
		if d.epilogue() {
			break
		}

		if d.size() == 0 || d.size()%Alignment != 0 {
			return false, invariantAt("block size is not a positive multiple of 16", cur, line)
		}

		if cur+d.size() > h.src.Hi() {
			return false, invariantAt("block extends past the heap", cur, line)
		}

		if d.prevAlloc() != prevAlloc {
			return false, invariantAt("P bit does not match predecessor's allocation state", cur, line)
		}

		next := nextHeader(cur, d.size())
		nextAllocActual := h.header(next).allocated()

		if d.nextAlloc() != nextAllocActual {
			return false, invariantAt("N bit does not match successor's allocation state", cur, line)
		}

		if !d.allocated() {
			if !nextAllocActual && !h.header(next).epilogue() {
				return false, invariantAt("two adjacent free blocks were not coalesced", cur, line)
			}

			foot := h.header(footerOf(cur, d.size()))
			if foot != d {
				return false, invariantAt("free block header does not match its footer", cur, line)
			}

			seenFree[cur] = true
		}

		prevAlloc = d.allocated()
		cur = next
	}

	for class := 0; class < numClasses; class++ {
		for n := h.freeLists[class]; n != noLink; n = h.linkNext(n) {
			if n < h.src.Lo() || n >= h.src.Hi() {
				return false, invariantAt("free-list member out of heap bounds", n, line)
			}

			d := h.header(n)
			if d.allocated() {
				return false, invariantAt("free-list member is marked allocated", n, line)
			}

			if classFor(d.size()) != class {
				return false, invariantAt("free-list member is in the wrong size class", n, line)
			}

			if !seenFree[n] {
				return false, invariantAt("free-list member was not found during the heap walk", n, line)
			}

			delete(seenFree, n)
		}
	}

	if len(seenFree) != 0 {
		for addr := range seenFree {
			return false, invariantAt("free block is not a member of any free list", addr, line)
		}
	}

	return true, nil
}

func invariantAt(detail string, addr uintptr, line int) *errors.StandardError {
	return errors.InvariantViolation(fmt.Sprintf("%s (checked at line %d)", detail, line), addr)
}
