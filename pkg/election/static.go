package election

import (
	"context"
	"sync"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/events"
	"github.com/coordkit/leaderelection/pkg/logging"
)

// StaticEngine always reports itself as leader and performs no lease
// RPCs. It backs degenerate single-node mode: when the process is not
// running under the orchestrator, isLeader is forced true at bootstrap
// and remains so for the process lifetime.
type StaticEngine struct {
	cfg *config.Config
	bus events.Bus
	log logging.Logger

	mu      sync.Mutex
	started bool
}

// NewStaticEngine builds a StaticEngine that emits "elected" once on
// Start and otherwise never touches bus again.
func NewStaticEngine(cfg *config.Config, bus events.Bus) *StaticEngine {
	return &StaticEngine{
		cfg: cfg,
		bus: bus,
		log: *logging.WithComponent(logging.LogTypeEngine, "static-engine"),
	}
}

// Start immediately emits "elected"; awaitLeadership has no effect since
// there is no acquisition sequence to await. Calls after the first are
// no-ops.
func (e *StaticEngine) Start(context.Context, bool) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = true
	e.mu.Unlock()

	e.log.Info("running in degenerate single-node mode, skipping lease operations", logging.KeyLeaseName, e.cfg.LeaseName)
	e.bus.Publish(events.TopicElected, events.Event{LeaseName: e.cfg.LeaseName})
	return nil
}

// IsLeader always returns true.
func (e *StaticEngine) IsLeader() bool { return true }

// Shutdown is a no-op: there is no lease to release.
func (e *StaticEngine) Shutdown(context.Context) error { return nil }
