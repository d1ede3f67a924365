// Command electiondemo wires the election engine, lease client, watch
// loop, and lifecycle into a runnable process: config load, client
// construction, component start, block on termination signal, graceful
// stop, with a Prometheus metrics endpoint served alongside.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/election"
	"github.com/coordkit/leaderelection/pkg/events"
	"github.com/coordkit/leaderelection/pkg/leaseclient"
	"github.com/coordkit/leaderelection/pkg/lifecycle"
	"github.com/coordkit/leaderelection/pkg/logging"
	"github.com/coordkit/leaderelection/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.LogAtLevel == "debug" {
		level = slog.LevelDebug
	}
	logging.Init(level)

	recorder := metrics.New(metrics.Config{})
	go func() {
		log.Printf("metrics listening on %s", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, recorder.Handler()); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server failed: %v", err)
		}
	}()

	bus := events.NewInProcessBus()
	bus.Subscribe(events.TopicElected, func(e events.Event) {
		log.Printf("leader.elected lease=%s", e.LeaseName)
	})
	bus.Subscribe(events.TopicLost, func(e events.Event) {
		log.Printf("leader.lost lease=%s", e.LeaseName)
	})

	var lc *lifecycle.Lifecycle

	if !lifecycle.InOrchestrator() {
		log.Println("not running under the orchestrator, using degenerate single-node mode")
		engine := election.NewStaticEngine(cfg, bus)
		lc = lifecycle.New(nil, engine)
	} else {
		client, err := leaseclient.NewK8sClient(cfg.KubeConfig)
		if err != nil {
			log.Fatalf("failed to build lease client: %v", err)
		}

		identity, err := election.Identity()
		if err != nil {
			log.Fatalf("failed to compute identity: %v", err)
		}

		clock := election.NewRealClock()
		engine := election.NewStandardEngine(cfg, identity, client, bus, recorder, clock)
		watch := election.NewWatchLoop(cfg, client, engine, clock)
		lc = lifecycle.New(watch, engine)
	}

	if err := lc.Run(context.Background(), cfg); err != nil {
		log.Fatalf("lifecycle exited with error: %v", err)
	}
}
