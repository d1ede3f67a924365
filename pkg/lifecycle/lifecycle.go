// Package lifecycle bootstraps the watch loop and election engine at
// host startup and runs the graceful-release path on termination
// signals.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/election"
	"github.com/coordkit/leaderelection/pkg/logging"
)

// orchestratorEnvVar is the well-known service-host indicator whose
// presence means the process is running under the orchestrator. Its
// absence triggers degenerate single-node mode.
const orchestratorEnvVar = "KUBERNETES_SERVICE_HOST"

// Watcher is the subset of election.WatchLoop the lifecycle drives.
type Watcher interface {
	Start(ctx context.Context) error
	Stop()
}

// Lifecycle owns signal wiring and start/stop sequencing for the watch
// loop and engine. It is the long-lived value the host application
// constructs once at startup, per Design Note 9 ("ambient singleton
// service → explicit engine value").
type Lifecycle struct {
	watch  Watcher
	engine election.Engine
	log    logging.Logger
}

// New builds a Lifecycle over an already-constructed watch loop and
// engine. Pass a nil watch for degenerate single-node mode, in which
// case Start skips it entirely.
func New(watch Watcher, engine election.Engine) *Lifecycle {
	return &Lifecycle{
		watch:  watch,
		engine: engine,
		log:    *logging.WithComponent(logging.LogTypeLifecycle, "lifecycle"),
	}
}

// InOrchestrator reports whether the process environment indicates it is
// running under the orchestrator.
func InOrchestrator() bool {
	return os.Getenv(orchestratorEnvVar) != ""
}

// Start starts the watch loop unconditionally (so peer writes are
// observed promptly, even before the first acquisition attempt), then
// runs the engine's acquisition sequence per cfg.AwaitLeadership.
func (l *Lifecycle) Start(ctx context.Context, cfg *config.Config) error {
	if l.watch != nil {
		if err := l.watch.Start(ctx); err != nil {
			return err
		}
	}
	return l.engine.Start(ctx, cfg.AwaitLeadership)
}

// Run starts the lifecycle, blocks until a termination signal arrives,
// then runs the graceful-shutdown sequence. It returns once shutdown
// completes.
func (l *Lifecycle) Run(ctx context.Context, cfg *config.Config) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := l.Start(sigCtx, cfg); err != nil {
		return err
	}

	<-sigCtx.Done()
	l.log.Info("shutdown signal received, releasing leadership")

	return l.Shutdown(context.Background(), cfg)
}

// Shutdown stops the watch loop and invokes the engine's release path,
// bounded by config.ShutdownTimeout.
func (l *Lifecycle) Shutdown(ctx context.Context, cfg *config.Config) error {
	if l.watch != nil {
		l.watch.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, config.ShutdownTimeout)
	defer cancel()

	return l.engine.Shutdown(shutdownCtx)
}
