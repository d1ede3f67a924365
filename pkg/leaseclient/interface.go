// Package leaseclient is a thin wrapper over the Kubernetes coordination
// API used to read, create, replace, and watch a single Lease.
package leaseclient

import "context"

// Outcome classifies the result of a lease client call so the election
// engine's branches stay total instead of reaching into error internals.
type Outcome int

const (
	// Ok means the call succeeded; Record is populated.
	Ok Outcome = iota
	// NotFound means no lease exists with the given name/namespace.
	NotFound
	// AlreadyExists means Create raced another writer that created first.
	AlreadyExists
	// Conflict means Replace's resourceVersion was stale.
	Conflict
	// TransientError means a remote/connectivity failure; callers should
	// retry on their own schedule rather than treat it as terminal.
	TransientError
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "Ok"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case Conflict:
		return "Conflict"
	case TransientError:
		return "TransientError"
	default:
		return "Unknown"
	}
}

// Record is the lease record as persisted in the external store.
type Record struct {
	Name                 string
	Namespace            string
	HolderIdentity       string // empty means unheld
	LeaseDurationSeconds int64
	AcquireTime          int64 // unix seconds
	RenewTime            int64 // unix seconds, 0 means absent
	ResourceVersion      string
}

// EventType identifies a watch mutation kind.
type EventType string

const (
	EventAdded    EventType = "ADDED"
	EventModified EventType = "MODIFIED"
	EventDeleted  EventType = "DELETED"
)

// WatchHandler is invoked for every mutation observed on a lease in the
// watched namespace.
type WatchHandler func(event EventType, record Record)

// OnClose is invoked exactly once when a watch stream terminates, with a
// non-nil err if termination was caused by a failure.
type OnClose func(err error)

// WatchHandle lets a caller cancel an in-flight watch.
type WatchHandle interface {
	Close()
}

// Client is the narrow surface the election engine needs from the lease
// store. Implementations are stateless beyond authentication configuration
// loaded once at construction.
type Client interface {
	// Read returns the current record for name/namespace, or NotFound.
	Read(ctx context.Context, name, namespace string) (Record, Outcome, error)

	// Create persists a new record. Returns AlreadyExists if one exists.
	Create(ctx context.Context, namespace string, record Record) (Record, Outcome, error)

	// Replace overwrites the record at name/namespace using the
	// resourceVersion carried on record. Returns Conflict on a version
	// mismatch, NotFound if the lease has since been removed.
	Replace(ctx context.Context, name, namespace string, record Record) (Record, Outcome, error)

	// Watch subscribes to mutations of all leases in namespace. handler
	// is invoked for every ADDED/MODIFIED/DELETED event; onClose fires
	// once when the stream ends. Watch returns once the subscription is
	// established; the stream itself runs until the handle is closed or
	// the server ends it.
	Watch(ctx context.Context, namespace string, handler WatchHandler, onClose OnClose) (WatchHandle, error)
}
