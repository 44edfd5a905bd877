// Package manager owns the resident model. It is a single-slot cache keyed
// by expert id: asking for a different expert evicts the resident one before
// the new weights are loaded, so peak memory stays at one model's footprint.
//
// Files by concern:
//
//   - manager.go: Manager type, constructor and read-only accessors.
//   - config.go: Config and package defaults.
//   - types.go: Loaded, Lease, State and Snapshot.
//   - errors.go: error types and helpers (IsUnknownExpert, IsTooBusy, LoadError).
//   - ensure.go: GetOrLoad/Acquire, the serialized resolve/evict/load sequence.
//   - evict.go: draining leases and releasing the resident model.
//   - admission.go: per-model FIFO queue with a single in-flight generation.
//   - events.go, eventpub_memory.go: lifecycle events.
//   - metrics.go: Prometheus collectors.
//
// Callers that generate text take a Lease and Release it when done. Eviction
// waits for outstanding leases, so weights are never freed under a running
// generation.
package manager
