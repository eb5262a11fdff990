// Package hostheap provides the external sbrk-style primitive the
// allocator engine grows against: a single contiguous byte region that
// only ever extends, never shrinks, never moves.
//
// internal/allocator never reaches into this package's backing memory
// directly. Every address the engine works with is a uintptr offset
// from the start of the region (offset 0 is the prologue divider), not
// an absolute process address, so the engine stays free of unsafe.
package hostheap

import "fmt"

// Source is the host-provided extension primitive. Implementations must
// guarantee that Bytes() never reallocates across a Sbrk call: offsets
// handed out before a Sbrk must still address the same bytes after it.
type Source interface {
	// Sbrk extends the managed region by exactly n bytes and returns the
	// offset at which the new bytes begin (equal to the prior Hi()).
	Sbrk(n uintptr) (uintptr, error)

	// Lo is the offset of the first byte of the managed region. Always 0.
	Lo() uintptr

	// Hi is the offset one past the last committed byte.
	Hi() uintptr

	// Bytes returns a live view of the committed region, len(Bytes()) == Hi()-Lo().
	Bytes() []byte
}

// ErrExhausted is returned by Sbrk when the region's reservation ceiling
// would be exceeded, or the host primitive otherwise fails to commit
// more memory.
var ErrExhausted = fmt.Errorf("hostheap: extension primitive exhausted")
