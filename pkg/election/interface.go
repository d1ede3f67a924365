// Package election implements the lease-acquisition state machine: the
// renewal timer, the watch-driven preemption path, and the graceful
// release path, over an injected leaseclient.Client.
package election

import "context"

// Engine is the public contract the host lifecycle drives.
type Engine interface {
	// Start is idempotent. If awaitLeadership is true, it blocks until the
	// first acquisition attempt sequence completes (success or exhausted
	// retries); otherwise attempts run in the background.
	Start(ctx context.Context, awaitLeadership bool) error

	// IsLeader is a non-blocking snapshot, never stale relative to the
	// last transition this participant observed.
	IsLeader() bool

	// Shutdown releases the lease if held and cancels the engine's own
	// timers, and is awaited by the lifecycle component. The watch loop is
	// not owned by the engine; the lifecycle component stops it separately.
	Shutdown(ctx context.Context) error
}
