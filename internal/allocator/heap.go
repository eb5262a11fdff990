package allocator

import (
	"encoding/binary"

	"github.com/lattice-run/heapalloc/internal/errors"
	"github.com/lattice-run/heapalloc/internal/hostheap"
)

// noLink is the sentinel value stored in a free block's prev/next
// links to mean "no block". Offset 0 is the prologue, never a free
// block, so it cannot collide with a real link, but using the maximum
// uintptr keeps the sentinel unambiguous even if that ever changed.
const noLink = ^uintptr(0)

// Heap is a single block-structured heap over one hostheap.Source. It
// is not safe for concurrent use: see spec §5, this engine is
// single-threaded by design.
type Heap struct {
	src       hostheap.Source
	freeLists [numClasses]uintptr
	dbg       DebugConfig
	lastErr   *errors.StandardError
}

// New installs a prologue and epilogue on src and returns a ready
// Heap. src must be freshly created (Hi() == Lo()).
func New(src hostheap.Source, opts ...Option) (*Heap, error) {
	cfg := defaultDebugConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Heap{src: src, dbg: cfg}
	for i := range h.freeLists {
		h.freeLists[i] = noLink
	}

	base, err := src.Sbrk(2 * Divider)
	if err != nil {
		return nil, errors.OutOfMemory(2 * Divider)
	}

	// Prologue: a fixed allocated 8-byte divider whose only purpose is
	// to give the first real block a valid predecessor.
	h.writeWord(base, makeDivider(Divider, true, true, true, false))
	// Epilogue: size 0, allocated, E set. Every forward traversal stops
	// on observing E=1.
	h.writeWord(base+Divider, makeDivider(0, true, true, true, true))

	return h, nil
}

// word layout helpers. All addressing below is in terms of uintptr
// offsets into src.Bytes(), never absolute process addresses.

func (h *Heap) readWord(off uintptr) uint64 {
	b := h.src.Bytes()
	return binary.LittleEndian.Uint64(b[off : off+8])
}

func (h *Heap) writeWord(off uintptr, d divider) {
	b := h.src.Bytes()
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(d))
}

func (h *Heap) header(off uintptr) divider { return divider(h.readWord(off)) }

// epilogueOffset returns the offset of the current epilogue divider.
func (h *Heap) epilogueOffset() uintptr { return h.src.Hi() - Divider }

// footerOf returns the offset of H's footer (only meaningful while H
// is free).
func footerOf(hOff uintptr, size uintptr) uintptr { return hOff + size - Divider }

// payloadOf returns the payload offset for header H.
func payloadOf(hOff uintptr) uintptr { return hOff + Divider }

// headerOfPayload inverts payloadOf.
func headerOfPayload(p uintptr) uintptr { return p - Divider }

// nextHeader returns the offset of the block immediately following H.
func nextHeader(hOff uintptr, size uintptr) uintptr { return hOff + size }

// prevFooterOffset returns the offset of the divider word immediately
// before H. This is always readable: the prologue guarantees one
// exists.
func prevFooterOffset(hOff uintptr) uintptr { return hOff - Divider }

// free-list link accessors: a free block's payload holds prev/next
// offsets in its first 16 bytes.

func (h *Heap) linkPrev(hOff uintptr) uintptr { return uintptr(h.readWord(payloadOf(hOff))) }
func (h *Heap) linkNext(hOff uintptr) uintptr { return uintptr(h.readWord(payloadOf(hOff) + 8)) }

func (h *Heap) setLinkPrev(hOff, v uintptr) { h.writeWord(payloadOf(hOff), divider(v)) }
func (h *Heap) setLinkNext(hOff, v uintptr) { h.writeWord(payloadOf(hOff)+8, divider(v)) }

// writeFooter duplicates H's header at its footer position; only
// valid while the block is free.
func (h *Heap) writeFooter(hOff uintptr) {
	d := h.header(hOff)
	h.writeWord(footerOf(hOff, d.size()), d)
}
