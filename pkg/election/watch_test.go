package election

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/leaseclient"
)

type stubReceiver struct {
	mu      sync.Mutex
	updates []leaseclient.Record
	deletes int
}

func (r *stubReceiver) HandleLeaseUpdate(record leaseclient.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, record)
}

func (r *stubReceiver) HandleLeaseDeleted(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
}

func (r *stubReceiver) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *stubReceiver) deleteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletes
}

func watchTestConfig() *config.Config {
	return &config.Config{LeaseName: "L", Namespace: "N", RenewalInterval: time.Second, LogAtLevel: "log"}
}

func TestWatchLoop_DeliversUpdateAfterSettleDelay(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)

	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client.Create(context.Background(), "N", leaseclient.Record{Name: "L", HolderIdentity: "hostA"})

	if receiver.updateCount() != 0 {
		t.Fatal("update should not be delivered before settle delay elapses")
	}

	clock.Advance(config.WatchSettleDelay)

	if receiver.updateCount() != 1 {
		t.Errorf("update count = %d, want 1 after settle delay", receiver.updateCount())
	}
}

func TestWatchLoop_FiltersOtherLeaseNames(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)
	loop.Start(context.Background())

	client.Create(context.Background(), "N", leaseclient.Record{Name: "other-lease", HolderIdentity: "hostA"})
	clock.Advance(config.WatchSettleDelay)

	if receiver.updateCount() != 0 {
		t.Errorf("update count = %d, want 0 for a different lease name", receiver.updateCount())
	}
}

func TestWatchLoop_DeleteTriggersHandleLeaseDeletedAfterSettle(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)
	loop.Start(context.Background())

	client.Create(context.Background(), "N", leaseclient.Record{Name: "L", HolderIdentity: "hostA"})
	client.Delete("N", "L")
	clock.Advance(config.WatchSettleDelay)

	if receiver.deleteCount() != 1 {
		t.Errorf("delete count = %d, want 1", receiver.deleteCount())
	}
}

func TestWatchLoop_ReconnectsAfterStreamError(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)
	loop.Start(context.Background())

	client.CloseWatchers(errors.New("connection reset"))
	clock.Advance(config.WatchReconnectDelay)

	// After reconnect, a fresh event should still be delivered.
	client.Create(context.Background(), "N", leaseclient.Record{Name: "L", HolderIdentity: "hostA"})
	clock.Advance(config.WatchSettleDelay)

	if receiver.updateCount() != 1 {
		t.Errorf("update count = %d, want 1 after reconnect", receiver.updateCount())
	}
}

func TestWatchLoop_ReconnectsAfterGracefulClose(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)
	loop.Start(context.Background())

	client.CloseWatchers(nil) // graceful close, no error
	clock.Advance(config.WatchReconnectDelay)

	client.Create(context.Background(), "N", leaseclient.Record{Name: "L", HolderIdentity: "hostA"})
	clock.Advance(config.WatchSettleDelay)

	if receiver.updateCount() != 1 {
		t.Error("watch loop should unconditionally reconnect after a graceful close")
	}
}

func TestWatchLoop_StopPreventsReconnect(t *testing.T) {
	client := leaseclient.NewFakeClient()
	receiver := &stubReceiver{}
	clock := NewFakeClock(time.Unix(0, 0))
	loop := NewWatchLoop(watchTestConfig(), client, receiver, clock)
	loop.Start(context.Background())

	loop.Stop()
	client.CloseWatchers(nil)
	clock.Advance(config.WatchReconnectDelay)

	client.Create(context.Background(), "N", leaseclient.Record{Name: "L", HolderIdentity: "hostA"})
	clock.Advance(config.WatchSettleDelay)

	if receiver.updateCount() != 0 {
		t.Error("stopped watch loop should not reconnect or deliver events")
	}
}
