// Command heap-trace drives the heap allocator engine through a trace
// file of allocation-lifecycle operations, logging each operation's
// result (with -v) and invariant-checker failures as it goes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	semver "github.com/Masterminds/semver/v3"
)

var version = "0.1.0"

func main() {
	var (
		showVersion  = flag.Bool("version", false, "show version information")
		tracePath    = flag.String("trace", "", "path to a trace file of alloc/free/realloc/calloc operations")
		checkEvery   = flag.Bool("check", false, "run the invariant checker after every operation")
		watchConfig  = flag.String("watch-config", "", "path to a JSON debug-config file to hot-reload")
		verbose      = flag.Bool("v", false, "verbose per-operation logging")
		ceilingBytes = flag.Uint64("ceiling", 0, "heap address-space ceiling in bytes (0 = platform default)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -trace FILE [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replays a heap-trace file against the allocator engine.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		v, err := semver.NewVersion(version)
		if err != nil {
			fmt.Fprintln(os.Stderr, version)
		} else {
			fmt.Println(v.String())
		}

		return
	}

	if *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", 0)

	r := newRunner(logger, *verbose, *checkEvery, uintptr(*ceilingBytes))

	if *watchConfig != "" {
		stop, err := watchDebugConfig(*watchConfig, r, logger)
		if err != nil {
			logger.Fatalf("watch-config: %v", err)
		}
		defer stop()
	}

	stats, err := r.run(*tracePath)
	if err != nil {
		logger.Fatalf("trace: %v", err)
	}

	fmt.Printf("ops=%d allocs=%d frees=%d reallocs=%d callocs=%d checks_failed=%d\n",
		stats.ops, stats.allocs, stats.frees, stats.reallocs, stats.callocs, stats.checksFailed)

	if stats.checksFailed > 0 {
		os.Exit(1)
	}
}
