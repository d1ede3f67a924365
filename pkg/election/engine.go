package election

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/events"
	"github.com/coordkit/leaderelection/pkg/leaseclient"
	"github.com/coordkit/leaderelection/pkg/logging"
	"github.com/coordkit/leaderelection/pkg/metrics"
)

// bootstrapAcquisitionAttempts is the number of acquisition attempts made
// at startup before deferring entirely to the watch loop. Not exposed as
// a config option; the rationale for exactly three is unstated upstream
// and this port keeps it literal.
const bootstrapAcquisitionAttempts = 3

// StandardEngine is the Kubernetes-backed leader-election state machine
// (C7). It mutates its own isLeader/renewalTimer fields exclusively from
// calls made through its exported methods and the watch loop's callback,
// both of which serialize through mu — the single "logical execution
// context" the state machine requires.
type StandardEngine struct {
	cfg      *config.Config
	identity string
	client   leaseclient.Client
	bus      events.Bus
	recorder *metrics.Recorder
	clock    Clock
	log      logging.Logger

	mu           sync.Mutex
	started      bool
	isLeader     bool
	renewalTimer Timer
	leaderSince  time.Time
}

// NewStandardEngine builds an engine bound to client for lease RPCs and
// bus for elected/lost notifications. recorder may be nil, disabling
// metrics.
func NewStandardEngine(cfg *config.Config, identity string, client leaseclient.Client, bus events.Bus, recorder *metrics.Recorder, clock Clock) *StandardEngine {
	return &StandardEngine{
		cfg:      cfg,
		identity: identity,
		client:   client,
		bus:      bus,
		recorder: recorder,
		clock:    clock,
		log:      *logging.WithComponent(logging.LogTypeEngine, "engine"),
	}
}

// Start runs the bootstrap acquisition sequence. If awaitLeadership is
// true it blocks until the sequence completes (success or exhaustion of
// bootstrapAcquisitionAttempts); otherwise the sequence runs in the
// background and Start returns immediately. Calls after the first are
// no-ops.
func (e *StandardEngine) Start(ctx context.Context, awaitLeadership bool) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	if awaitLeadership {
		e.runBootstrapSequence(ctx)
		return nil
	}
	go e.runBootstrapSequence(ctx)
	return nil
}

func (e *StandardEngine) runBootstrapSequence(ctx context.Context) {
	spacing := time.Duration(e.cfg.LeaseDurationSeconds()) * 500 * time.Millisecond

	for attempt := 1; attempt <= bootstrapAcquisitionAttempts; attempt++ {
		if e.IsLeader() {
			return
		}

		e.tryAcquire(ctx)

		if e.IsLeader() || attempt == bootstrapAcquisitionAttempts {
			return
		}

		waited := make(chan struct{})
		timer := e.clock.AfterFunc(spacing, func() { close(waited) })
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-waited:
		}
	}
}

// IsLeader is a non-blocking snapshot of current leadership status.
func (e *StandardEngine) IsLeader() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isLeader
}

// tryAcquire reads the lease, then create-if-absent or
// replace-if-expired-or-unheld, then transitions to Leader if the
// resulting record is held by us.
func (e *StandardEngine) tryAcquire(ctx context.Context) {
	rctx, cancel := context.WithTimeout(ctx, config.LeaseClientTimeout)
	defer cancel()

	record, outcome, err := e.client.Read(rctx, e.cfg.LeaseName, e.cfg.Namespace)
	if err != nil {
		e.logError("read", err)
		return
	}

	now := e.clock.Now().Unix()

	switch outcome {
	case leaseclient.NotFound:
		created := leaseclient.Record{
			Name:                 e.cfg.LeaseName,
			Namespace:            e.cfg.Namespace,
			HolderIdentity:       e.identity,
			LeaseDurationSeconds: e.cfg.LeaseDurationSeconds(),
			AcquireTime:          now,
			RenewTime:            now,
		}

		cctx, ccancel := context.WithTimeout(ctx, config.LeaseClientTimeout)
		result, createOutcome, err := e.client.Create(cctx, e.cfg.Namespace, created)
		ccancel()
		if err != nil {
			e.logError("create", err)
			return
		}
		if createOutcome != leaseclient.Ok {
			e.log.Info("lease creation raced another writer", logging.KeyLeaseName, e.cfg.LeaseName, logging.KeyResult, createOutcome.String())
			return
		}
		if HeldByUs(FromRecord(result), e.identity) {
			e.becomeLeader()
		}
		return

	case leaseclient.Ok:
		lease := FromRecord(record)
		if IsExpired(lease, now) || IsUnheld(lease) {
			e.takeOver(ctx, record, now)
			return
		}
		if HeldByUs(lease, e.identity) {
			// Crash-restart within the lease duration: reclaim without rewriting.
			e.becomeLeader()
			return
		}
		e.log.Debug("lease held by peer, not expired", logging.KeyLeaseName, e.cfg.LeaseName, logging.KeyOwner, record.HolderIdentity)
		return

	default:
		e.logError("read", fmt.Errorf("unexpected outcome %s", outcome))
	}
}

func (e *StandardEngine) takeOver(ctx context.Context, record leaseclient.Record, now int64) {
	record.HolderIdentity = e.identity
	record.LeaseDurationSeconds = e.cfg.LeaseDurationSeconds()
	record.AcquireTime = now
	record.RenewTime = now

	rctx, cancel := context.WithTimeout(ctx, config.LeaseClientTimeout)
	defer cancel()

	result, outcome, err := e.client.Replace(rctx, e.cfg.LeaseName, e.cfg.Namespace, record)
	if err != nil {
		e.logError("replace", err)
		return
	}
	switch outcome {
	case leaseclient.Ok:
		if HeldByUs(FromRecord(result), e.identity) {
			e.becomeLeader()
		}
	case leaseclient.Conflict:
		e.log.Debug("replace conflict during takeover, remaining follower", logging.KeyLeaseName, e.cfg.LeaseName)
	case leaseclient.NotFound:
		e.log.Debug("lease vanished during takeover", logging.KeyLeaseName, e.cfg.LeaseName)
	}
}

// becomeLeader transitions Follower -> Leader, emitting "elected" exactly
// once on the false->true edge, then schedules the renewal timer.
// Idempotent: a no-op if already leader.
func (e *StandardEngine) becomeLeader() {
	e.mu.Lock()
	if e.isLeader {
		e.mu.Unlock()
		return
	}
	e.isLeader = true
	e.leaderSince = e.clock.Now()
	e.rescheduleRenewalLocked()
	e.mu.Unlock()

	e.log.Info("became leader", logging.KeyLeaseName, e.cfg.LeaseName, logging.KeyIdentity, e.identity)
	if e.recorder != nil {
		e.recorder.SetLeader(e.cfg.LeaseName, e.identity, true)
		e.recorder.RecordTransition(e.cfg.LeaseName, e.identity, "elected")
	}
	e.bus.Publish(events.TopicElected, events.Event{LeaseName: e.cfg.LeaseName})
}

// rescheduleRenewalLocked cancels any pending renewal timer and schedules
// a new one. Callers must hold e.mu.
func (e *StandardEngine) rescheduleRenewalLocked() {
	if e.renewalTimer != nil {
		e.renewalTimer.Stop()
	}
	e.renewalTimer = e.clock.AfterFunc(e.cfg.RenewalInterval, e.renew)
}

// renew re-reads the lease; if still held by us, writes a fresh
// RenewTime and reschedules. Any failure (not held, remote error,
// conflict) triggers loseLeadership.
func (e *StandardEngine) renew() {
	if !e.IsLeader() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.LeaseClientTimeout)
	defer cancel()

	record, outcome, err := e.client.Read(ctx, e.cfg.LeaseName, e.cfg.Namespace)
	if err != nil {
		e.logError("renew-read", err)
		e.loseLeadership()
		return
	}
	if outcome != leaseclient.Ok || !HeldByUs(FromRecord(record), e.identity) {
		e.loseLeadership()
		return
	}

	record.RenewTime = e.clock.Now().Unix()
	rctx, rcancel := context.WithTimeout(context.Background(), config.LeaseClientTimeout)
	updated, replaceOutcome, err := e.client.Replace(rctx, e.cfg.LeaseName, e.cfg.Namespace, record)
	rcancel()
	if err != nil {
		e.logError("renew-replace", err)
		e.loseLeadership()
		return
	}
	if replaceOutcome != leaseclient.Ok || !HeldByUs(FromRecord(updated), e.identity) {
		e.loseLeadership()
		return
	}

	e.mu.Lock()
	if e.isLeader {
		e.rescheduleRenewalLocked()
	}
	e.mu.Unlock()
}

// loseLeadership transitions Leader -> Follower, cancelling the renewal
// timer and emitting "lost" exactly once on the true->false edge.
// Idempotent: a no-op if not currently leader.
func (e *StandardEngine) loseLeadership() {
	e.mu.Lock()
	if !e.isLeader {
		e.mu.Unlock()
		return
	}
	e.isLeader = false
	if e.renewalTimer != nil {
		e.renewalTimer.Stop()
		e.renewalTimer = nil
	}
	since := e.leaderSince
	e.mu.Unlock()

	e.log.Info("lost leadership", logging.KeyLeaseName, e.cfg.LeaseName, logging.KeyIdentity, e.identity)
	if e.recorder != nil {
		e.recorder.SetLeader(e.cfg.LeaseName, e.identity, false)
		e.recorder.RecordTransition(e.cfg.LeaseName, e.identity, "lost")
		if !since.IsZero() {
			e.recorder.ObserveLeadershipDuration(e.cfg.LeaseName, e.identity, e.clock.Now().Sub(since).Seconds())
		}
	}
	e.bus.Publish(events.TopicLost, events.Event{LeaseName: e.cfg.LeaseName})
}

// Shutdown releases the lease if held and cancels the renewal timer.
// Errors from the release RPC are logged and swallowed: termination must
// not block on remote availability.
func (e *StandardEngine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	wasLeader := e.isLeader
	if e.renewalTimer != nil {
		e.renewalTimer.Stop()
		e.renewalTimer = nil
	}
	e.mu.Unlock()

	if !wasLeader {
		return nil
	}
	e.release(ctx)
	return nil
}

// release re-reads the lease and, if still held by us, clears the
// holder. Always clears isLeader regardless of RPC outcome.
func (e *StandardEngine) release(ctx context.Context) {
	defer func() {
		e.mu.Lock()
		e.isLeader = false
		e.mu.Unlock()
		if e.recorder != nil {
			e.recorder.SetLeader(e.cfg.LeaseName, e.identity, false)
		}
	}()

	rctx, cancel := context.WithTimeout(ctx, config.ReleaseTimeout)
	defer cancel()

	record, outcome, err := e.client.Read(rctx, e.cfg.LeaseName, e.cfg.Namespace)
	if err != nil {
		e.logError("release-read", err)
		return
	}
	if outcome != leaseclient.Ok || !HeldByUs(FromRecord(record), e.identity) {
		return
	}

	record.HolderIdentity = ""
	record.RenewTime = 0

	wctx, wcancel := context.WithTimeout(ctx, config.ReleaseTimeout)
	defer wcancel()
	if _, _, err := e.client.Replace(wctx, e.cfg.LeaseName, e.cfg.Namespace, record); err != nil {
		e.logError("release-replace", err)
	}
}

// HandleLeaseUpdate is the watch loop's callback for ADDED/MODIFIED
// events, invoked after the settle delay. It consults HeldByUs: if true
// and not leader, becomeLeader; if true and already leader, the renewal
// timer is left alone (no rewrite needed); if false and currently
// leader, loseLeadership.
func (e *StandardEngine) HandleLeaseUpdate(record leaseclient.Record) {
	lease := FromRecord(record)
	held := HeldByUs(lease, e.identity)

	if held {
		if !e.IsLeader() {
			e.becomeLeader()
		}
		return
	}
	if e.IsLeader() {
		e.loseLeadership()
	}
}

// HandleLeaseDeleted is the watch loop's callback for DELETED events,
// invoked after the settle delay. If this participant is currently a
// follower, it attempts acquisition; a leader observing its own lease's
// deletion is a remote anomaly and is handled by the next renewal tick
// failing, not by this callback.
func (e *StandardEngine) HandleLeaseDeleted(ctx context.Context) {
	if !e.IsLeader() {
		e.tryAcquire(ctx)
	}
}

func (e *StandardEngine) logError(operation string, err error) {
	e.log.Error("lease operation failed", logging.KeyOperation, operation, logging.KeyError, err.Error())
	if e.recorder != nil {
		e.recorder.RecordError(e.cfg.LeaseName, e.identity, operation)
	}
}
