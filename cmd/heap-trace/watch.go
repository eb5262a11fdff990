package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/lattice-run/heapalloc/internal/allocator"
)

// fileDebugConfig mirrors allocator.DebugConfig's JSON shape on disk.
type fileDebugConfig struct {
	CheckAfterEveryCall bool `json:"check_after_every_call"`
}

// watchDebugConfig loads path once immediately, then watches it with
// fsnotify and re-applies it to r on every write. The returned func
// stops the watcher and must be called before the process exits.
func watchDebugConfig(path string, r *runner, logger *log.Logger) (func(), error) {
	if err := loadDebugConfig(path, r, logger); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	done := make(chan struct{})

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if err := loadDebugConfig(path, r, logger); err != nil {
					logger.Printf("watch-config: reload %s: %v", path, err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}

				logger.Printf("watch-config: %v", err)
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		close(done)
		w.Close()
	}

	return stop, nil
}

func loadDebugConfig(path string, r *runner, logger *log.Logger) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileDebugConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return err
	}

	r.applyDebugConfig(allocator.DebugConfig{CheckAfterEveryCall: fc.CheckAfterEveryCall})
	logger.Printf("debug config reloaded from %s: check_after_every_call=%v", path, fc.CheckAfterEveryCall)

	return nil
}
