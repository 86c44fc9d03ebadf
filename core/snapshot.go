package core

// ModuleInfo is one module's entry in a GetModuleList snapshot: its name
// and the explicit sources feeding it. A nil Sources denotes "from any
// source" — the module is a wildcard sink, per §4.2's GetModuleList
// contract.
type ModuleInfo struct {
	Name    string
	Sources []string
}

// ModuleSnapshot is the defensive, read-only copy GetModuleList returns.
// The caller owns it and releases it via DestroyModuleList once done — a
// deliberate holdover from the source's handle-and-free contract even
// though Go's GC makes the release itself a no-op; callers should still
// call it, both for contract symmetry and because a future non-GC'd field
// (e.g. a pooled buffer) could make it load-bearing again.
type ModuleSnapshot struct {
	Modules []ModuleInfo
}

// DestroyModuleList releases a snapshot returned by GetModuleList.
func DestroyModuleList(snapshot *ModuleSnapshot) {
	// No-op: Go's garbage collector owns everything reachable from
	// snapshot. Kept as an explicit call so event-system cleanup and
	// caller code read the same way the source's paired free API does.
	_ = snapshot
}
