package election

import "github.com/coordkit/leaderelection/pkg/leaseclient"

// Lease is the pure-logic view over a leaseclient.Record, kept distinct
// from the wire record so the predicates below depend on nothing but
// plain fields and are trivially testable without a client.
type Lease struct {
	HolderIdentity       string
	LeaseDurationSeconds int64
	RenewTime            int64 // unix seconds, 0 means absent
}

// FromRecord narrows a leaseclient.Record to the fields the election
// logic's predicates need.
func FromRecord(r leaseclient.Record) Lease {
	return Lease{
		HolderIdentity:       r.HolderIdentity,
		LeaseDurationSeconds: r.LeaseDurationSeconds,
		RenewTime:            r.RenewTime,
	}
}

// IsExpired reports whether lease has passed its validity window as of
// nowUnix. A lease with no RenewTime is treated as already expired. Ties
// favor the incumbent: a lease exactly at its expiry instant is not yet
// expired (strict >).
func IsExpired(lease Lease, nowUnix int64) bool {
	if lease.RenewTime == 0 {
		return true
	}
	return nowUnix > lease.RenewTime+lease.LeaseDurationSeconds
}

// HeldByUs reports whether lease's current holder is identity.
func HeldByUs(lease Lease, identity string) bool {
	return lease.HolderIdentity == identity
}

// IsUnheld reports whether lease has no current holder.
func IsUnheld(lease Lease) bool {
	return lease.HolderIdentity == ""
}
