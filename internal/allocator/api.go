package allocator

import (
	"math"
	"runtime"

	"github.com/lattice-run/heapalloc/internal/errors"
)

// Allocate reserves at least n bytes and returns a 16-byte-aligned
// payload pointer, or 0 (this engine's null) if n is 0 or the heap
// could not be grown to satisfy the request. Pointer values returned
// by this package are offsets into the managed heap region, not
// absolute process addresses — 0 denotes null, the same contract a
// C allocator returning NULL would give its caller.
func (h *Heap) Allocate(n uintptr) uintptr {
	if n == 0 {
		return 0
	}

	s := align16(n + Divider)
	if s < MinBlock {
		s = MinBlock
	}

	var p uintptr

	if hOff, ok := h.findFreeSpace(s); ok {
		p = payloadOf(hOff)
	} else if hOff, err := h.increaseHeap(s); err == nil {
		p = payloadOf(hOff)
	}

	h.maybeCheck()

	return p
}

// Free releases the block backing payload pointer p. A nil (0) p is a
// silent no-op; freeing an already-free or invalid pointer is, per
// spec, undefined behavior this package does not guard against.
func (h *Heap) Free(p uintptr) {
	if p == 0 {
		return
	}

	h.freeHeader(headerOfPayload(p))
	h.maybeCheck()
}

// Reallocate resizes the block backing p to hold at least n bytes. A
// nil p behaves like Allocate(n); n == 0 behaves like Free(p) and
// returns 0. If the existing block already has room, p is returned
// unchanged — this engine never shrinks in place. Otherwise a new
// block is allocated, min(old, n) bytes are copied over, the old
// block is freed, and the new pointer is returned.
func (h *Heap) Reallocate(p uintptr, n uintptr) uintptr {
	if p == 0 {
		return h.Allocate(n)
	}

	if n == 0 {
		h.Free(p)
		return 0
	}

	hOff := headerOfPayload(p)
	oldUsable := h.header(hOff).size() - Divider

	if oldUsable >= n {
		h.maybeCheck()
		return p
	}

	newP := h.Allocate(n)
	if newP == 0 {
		return 0
	}

	copyLen := oldUsable
	if n < copyLen {
		copyLen = n
	}

	b := h.src.Bytes()
	copy(b[newP:newP+copyLen], b[p:p+copyLen])

	h.Free(p)

	return newP
}

// ZeroAllocate allocates m*n bytes and zeroes them. It returns 0 if
// m or n is 0, if m*n overflows uintptr, or if the heap could not
// grow to satisfy the request. An overflow is recorded and retrievable
// via LastError; a plain 0/0 call or an OOM is not, since neither is a
// malformed request in the way an overflowing m*n is.
func (h *Heap) ZeroAllocate(m, n uintptr) uintptr {
	if m == 0 || n == 0 {
		return 0
	}

	total, ok := safeMul(m, n)
	if !ok {
		h.lastErr = errors.InvalidZeroAllocSize(m, n)
		return 0
	}

	p := h.Allocate(total)
	if p == 0 {
		return 0
	}

	clear(h.src.Bytes()[p : p+total])

	return p
}

// LastError returns the structured error recorded by the most recent
// call that rejected a malformed request, or nil if none has. It is
// overwritten by the next such call, not accumulated.
func (h *Heap) LastError() *errors.StandardError {
	return h.lastErr
}

// Payload returns a live view of the usable bytes backing payload
// pointer p.
func (h *Heap) Payload(p uintptr) []byte {
	size := h.header(headerOfPayload(p)).size() - Divider
	return h.src.Bytes()[p : p+size]
}

// UsableSize returns the number of bytes of payload a pointer returned
// by Allocate/Reallocate/ZeroAllocate may be used for.
func (h *Heap) UsableSize(p uintptr) uintptr {
	return h.header(headerOfPayload(p)).size() - Divider
}

// maybeCheck runs the invariant checker when DebugConfig.CheckAfterEveryCall
// is set and panics with the violation found — this is a debug-only
// aid, never a production error path, matching spec §7's stance that
// the checker "returns false and does not attempt repair".
func (h *Heap) maybeCheck() {
	if !h.dbg.CheckAfterEveryCall {
		return
	}

	_, _, line, _ := runtime.Caller(2)

	if ok, errv := h.Check(line); !ok {
		panic(errv)
	}
}

func safeMul(m, n uintptr) (uintptr, bool) {
	if m == 0 || n == 0 {
		return 0, true
	}

	total := m * n
	if total/m != n {
		return 0, false
	}

	if total > uintptr(math.MaxInt) {
		return 0, false
	}

	return total, true
}
