package allocator

// DebugConfig holds the observability knobs that sit beside the heap
// engine. None of it changes allocator behavior — the tuning constants
// in divider.go are fixed by design — it only controls how much the
// engine checks and reports about itself.
type DebugConfig struct {
	// CheckAfterEveryCall runs the invariant checker at the end of
	// every public API call and panics on the first violation found.
	// Expensive; intended for debug builds and tests only.
	CheckAfterEveryCall bool
}

// Option configures a Heap at construction time.
type Option func(*DebugConfig)

func defaultDebugConfig() DebugConfig {
	return DebugConfig{CheckAfterEveryCall: false}
}

// WithCheckAfterEveryCall enables or disables the post-call invariant
// check.
func WithCheckAfterEveryCall(enabled bool) Option {
	return func(c *DebugConfig) { c.CheckAfterEveryCall = enabled }
}
