//go:build unix
// +build unix

package hostheap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DefaultCeiling is the address-space window reserved up front by
// MmapSource when no explicit ceiling is given. Reservation is cheap
// (PROT_NONE, no physical pages behind it); only the committed prefix
// costs real memory.
const DefaultCeiling = 1 << 34 // 16GiB of reserved, mostly-uncommitted address space

// MmapSource implements Source by reserving a single anonymous mapping
// once and growing its committed prefix with mprotect on each Sbrk,
// the same mmap-for-a-pool technique the pack's buddy allocator uses
// for its whole arena, applied here incrementally instead of all at
// once since sbrk grows in small steps rather than reserving its
// ceiling in one call.
type MmapSource struct {
	region    []byte
	committed uintptr
	ceiling   uintptr
}

// NewMmapSource reserves ceiling bytes of address space and returns a
// Source with zero bytes committed. ceiling of 0 uses DefaultCeiling.
// The concrete *MmapSource is returned as a Source; callers that need
// to release the reservation early can type-assert back to it and
// call Close.
func NewMmapSource(ceiling uintptr) (Source, error) {
	if ceiling == 0 {
		ceiling = DefaultCeiling
	}

	region, err := unix.Mmap(-1, 0, int(ceiling), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("hostheap: reserve %d bytes: %w", ceiling, err)
	}

	return &MmapSource{region: region, ceiling: ceiling}, nil
}

func (m *MmapSource) Sbrk(n uintptr) (uintptr, error) {
	if n == 0 {
		return m.committed, nil
	}

	newCommitted := m.committed + n
	if newCommitted > m.ceiling || newCommitted < m.committed {
		return 0, ErrExhausted
	}

	if err := unix.Mprotect(m.region[m.committed:newCommitted], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return 0, fmt.Errorf("hostheap: commit %d..%d: %w", m.committed, newCommitted, err)
	}

	base := m.committed
	m.committed = newCommitted

	return base, nil
}

func (m *MmapSource) Lo() uintptr { return 0 }
func (m *MmapSource) Hi() uintptr { return m.committed }

func (m *MmapSource) Bytes() []byte { return m.region[:m.committed:m.committed] }

// Close releases the reservation. Not part of Source: callers reach it
// by type-asserting the Source returned by NewMmapSource.
func (m *MmapSource) Close() error {
	return unix.Munmap(m.region)
}
