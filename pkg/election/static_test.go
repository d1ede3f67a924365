package election

import (
	"context"
	"testing"

	"github.com/coordkit/leaderelection/pkg/events"
)

func TestStaticEngine_StartEmitsElectedAndSetsLeader(t *testing.T) {
	bus := &recordingBus{}
	engine := NewStaticEngine(testConfig(), bus)

	if err := engine.Start(context.Background(), true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !engine.IsLeader() {
		t.Error("IsLeader() = false, want true in degenerate mode")
	}
	if bus.count(events.TopicElected) != 1 {
		t.Errorf("elected count = %d, want 1", bus.count(events.TopicElected))
	}
}

func TestStaticEngine_ShutdownIsNoOp(t *testing.T) {
	bus := &recordingBus{}
	engine := NewStaticEngine(testConfig(), bus)
	engine.Start(context.Background(), false)

	if err := engine.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !engine.IsLeader() {
		t.Error("IsLeader() should remain true after Shutdown in degenerate mode")
	}
}
