package config

import "time"

// Common timeout durations used throughout the engine.
const (
	// LeaseClientTimeout bounds individual Read/Create/Replace calls.
	LeaseClientTimeout = 5 * time.Second

	// ReleaseTimeout bounds the best-effort release call on shutdown.
	ReleaseTimeout = 5 * time.Second

	// WatchReconnectDelay is how long the watch loop waits before
	// restarting a terminated stream.
	WatchReconnectDelay = 5 * time.Second

	// WatchSettleDelay is how long the watch loop waits before acting on
	// an ADDED/MODIFIED/DELETED event, to let a racing writer's
	// subsequent events settle.
	WatchSettleDelay = 2 * time.Second

	// ShutdownTimeout bounds the graceful-release sequence on termination.
	ShutdownTimeout = 10 * time.Second
)
