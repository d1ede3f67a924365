package election

import (
	"context"
	"sync"

	"github.com/coordkit/leaderelection/pkg/config"
	"github.com/coordkit/leaderelection/pkg/leaseclient"
	"github.com/coordkit/leaderelection/pkg/logging"
)

// Receiver is the subset of StandardEngine the watch loop calls back
// into. Separated from StandardEngine so tests can exercise WatchLoop
// against a recording stub.
type Receiver interface {
	HandleLeaseUpdate(record leaseclient.Record)
	HandleLeaseDeleted(ctx context.Context)
}

// WatchLoop subscribes to lease mutations and reconnects on stream
// termination. It filters events to the configured lease name and
// delays acting on them by WatchSettleDelay.
type WatchLoop struct {
	cfg      *config.Config
	client   leaseclient.Client
	receiver Receiver
	clock    Clock
	log      logging.Logger

	mu      sync.Mutex
	handle  leaseclient.WatchHandle
	stopped bool
}

// NewWatchLoop builds a watch loop bound to client, scoped to cfg's
// namespace and lease name, delivering events to receiver.
func NewWatchLoop(cfg *config.Config, client leaseclient.Client, receiver Receiver, clock Clock) *WatchLoop {
	return &WatchLoop{
		cfg:      cfg,
		client:   client,
		receiver: receiver,
		clock:    clock,
		log:      *logging.WithComponent(logging.LogTypeWatch, "watch"),
	}
}

// Start establishes the initial subscription and returns once it is
// established. Reconnects after any stream termination run in the
// background until Stop is called.
func (w *WatchLoop) Start(ctx context.Context) error {
	return w.connect(ctx)
}

// Stop ends the current subscription and prevents further reconnects.
func (w *WatchLoop) Stop() {
	w.mu.Lock()
	w.stopped = true
	handle := w.handle
	w.mu.Unlock()

	if handle != nil {
		handle.Close()
	}
}

func (w *WatchLoop) connect(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	handle, err := w.client.Watch(ctx, w.cfg.Namespace, w.onEvent(ctx), w.onClose(ctx))
	if err != nil {
		w.log.Error("failed to establish watch", logging.KeyError, err.Error())
		w.scheduleReconnect(ctx)
		return err
	}

	w.mu.Lock()
	w.handle = handle
	w.mu.Unlock()
	return nil
}

func (w *WatchLoop) onEvent(ctx context.Context) leaseclient.WatchHandler {
	return func(event leaseclient.EventType, record leaseclient.Record) {
		if record.Name != "" && record.Name != w.cfg.LeaseName {
			return
		}

		switch event {
		case leaseclient.EventAdded, leaseclient.EventModified:
			w.clock.AfterFunc(config.WatchSettleDelay, func() {
				w.receiver.HandleLeaseUpdate(record)
			})
		case leaseclient.EventDeleted:
			w.clock.AfterFunc(config.WatchSettleDelay, func() {
				w.receiver.HandleLeaseDeleted(ctx)
			})
		}
	}
}

func (w *WatchLoop) onClose(ctx context.Context) leaseclient.OnClose {
	return func(err error) {
		if err != nil {
			w.log.Error("watch stream terminated", logging.KeyError, err.Error())
		} else {
			w.log.Debug("watch stream closed")
		}
		w.scheduleReconnect(ctx)
	}
}

// scheduleReconnect waits WatchReconnectDelay then reconnects, unless
// Stop has been called. Reconnection is unconditional regardless of
// whether the prior stream ended in error or closed gracefully.
func (w *WatchLoop) scheduleReconnect(ctx context.Context) {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	w.clock.AfterFunc(config.WatchReconnectDelay, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		if err := ctx.Err(); err != nil {
			return
		}
		_ = w.connect(ctx)
	})
}
