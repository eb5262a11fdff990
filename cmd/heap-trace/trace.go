package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/lattice-run/heapalloc/internal/allocator"
	"github.com/lattice-run/heapalloc/internal/hostheap"
)

// stats summarizes a completed trace replay.
type stats struct {
	ops          int
	allocs       int
	frees        int
	reallocs     int
	callocs      int
	checksFailed int
}

// runner replays a trace file against a single allocator.Heap,
// translating the trace's own string ids into the real payload
// pointers the engine hands back.
type runner struct {
	log        *log.Logger
	verbose    bool
	checkEvery bool
	ceiling    uintptr

	mu   sync.Mutex
	dbg  allocator.DebugConfig
	heap *allocator.Heap
	ids  map[string]uintptr
}

func newRunner(logger *log.Logger, verbose, checkEvery bool, ceiling uintptr) *runner {
	return &runner{
		log:        logger,
		verbose:    verbose,
		checkEvery: checkEvery,
		ceiling:    ceiling,
		ids:        make(map[string]uintptr),
	}
}

// applyDebugConfig is called by the config watcher whenever the
// watched file changes. It takes effect from the next operation
// onward; a heap already under construction is not rebuilt.
func (r *runner) applyDebugConfig(dbg allocator.DebugConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dbg = dbg
	r.checkEvery = dbg.CheckAfterEveryCall
}

func (r *runner) run(path string) (stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return stats{}, err
	}
	defer f.Close()

	ceiling := r.ceiling
	if ceiling == 0 {
		ceiling = hostheap.DefaultCeiling
	}

	src, err := hostheap.NewMmapSource(ceiling)
	if err != nil {
		return stats{}, fmt.Errorf("hostheap: %w", err)
	}

	h, err := allocator.New(src)
	if err != nil {
		return stats{}, fmt.Errorf("allocator.New: %w", err)
	}

	r.heap = h

	var st stats

	sc := bufio.NewScanner(f)
	lineNo := 0

	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := r.exec(lineNo, line, &st); err != nil {
			return st, fmt.Errorf("line %d: %w", lineNo, err)
		}

		st.ops++

		r.mu.Lock()
		checkEvery := r.checkEvery
		r.mu.Unlock()

		if checkEvery {
			if ok, cerr := h.Check(lineNo); !ok {
				st.checksFailed++
				r.log.Printf("check failed at line %d: %v", lineNo, cerr)
			}
		}
	}

	if err := sc.Err(); err != nil {
		return st, err
	}

	return st, nil
}

// exec dispatches a single trace line:
//
//	a <id> <n>       allocate n bytes, remember the result as <id>
//	f <id>           free the block known as <id>
//	r <id> <n>       reallocate <id> to n bytes, <id> now refers to the result
//	z <id> <m> <n>   zero-allocate m*n bytes, remember the result as <id>
func (r *runner) exec(lineNo int, line string, st *stats) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "a":
		if len(fields) != 3 {
			return fmt.Errorf("want 'a <id> <n>', got %q", line)
		}

		n, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		p := r.heap.Allocate(uintptr(n))
		r.ids[fields[1]] = p
		st.allocs++

		if r.verbose {
			r.log.Printf("alloc %s = %d (%d bytes)", fields[1], p, n)
		}

	case "f":
		if len(fields) != 2 {
			return fmt.Errorf("want 'f <id>', got %q", line)
		}

		p, ok := r.ids[fields[1]]
		if !ok {
			return fmt.Errorf("unknown id %q", fields[1])
		}

		r.heap.Free(p)
		delete(r.ids, fields[1])
		st.frees++

		if r.verbose {
			r.log.Printf("free %s (%d)", fields[1], p)
		}

	case "r":
		if len(fields) != 3 {
			return fmt.Errorf("want 'r <id> <n>', got %q", line)
		}

		p, ok := r.ids[fields[1]]
		if !ok {
			return fmt.Errorf("unknown id %q", fields[1])
		}

		n, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		np := r.heap.Reallocate(p, uintptr(n))
		r.ids[fields[1]] = np
		st.reallocs++

		if r.verbose {
			r.log.Printf("realloc %s = %d (%d bytes)", fields[1], np, n)
		}

	case "z":
		if len(fields) != 4 {
			return fmt.Errorf("want 'z <id> <m> <n>', got %q", line)
		}

		m, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		n, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return err
		}

		p := r.heap.ZeroAllocate(uintptr(m), uintptr(n))
		r.ids[fields[1]] = p
		st.callocs++

		if p == 0 {
			if lastErr := r.heap.LastError(); lastErr != nil {
				r.log.Printf("calloc %s rejected: %v", fields[1], lastErr)
			}
		} else if r.verbose {
			r.log.Printf("calloc %s = %d (%d x %d bytes)", fields[1], p, m, n)
		}

	default:
		return fmt.Errorf("unknown opcode %q", fields[0])
	}

	return nil
}
