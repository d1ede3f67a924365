package leaseclient

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient is an in-memory Client for deterministic engine and
// watch-loop tests. It stores any number of leases keyed by namespace and
// name, plus enough of resourceVersion bookkeeping to exercise Conflict.
type FakeClient struct {
	mu       sync.Mutex
	records  map[string]Record // key: namespace/name
	version  map[string]int
	watchers []*fakeWatchHandle

	// Hooks let tests inject failures without reimplementing FakeClient.
	ReadFunc    func(ctx context.Context, name, namespace string) (Record, Outcome, error)
	CreateFunc  func(ctx context.Context, namespace string, record Record) (Record, Outcome, error)
	ReplaceFunc func(ctx context.Context, name, namespace string, record Record) (Record, Outcome, error)
}

// NewFakeClient returns an empty fake lease store.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		records: make(map[string]Record),
		version: make(map[string]int),
	}
}

func key(namespace, name string) string { return namespace + "/" + name }

func (f *FakeClient) Read(ctx context.Context, name, namespace string) (Record, Outcome, error) {
	if f.ReadFunc != nil {
		return f.ReadFunc(ctx, name, namespace)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[key(namespace, name)]
	if !ok {
		return Record{}, NotFound, nil
	}
	return r, Ok, nil
}

func (f *FakeClient) Create(ctx context.Context, namespace string, record Record) (Record, Outcome, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, namespace, record)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(namespace, record.Name)
	if _, ok := f.records[k]; ok {
		return Record{}, AlreadyExists, nil
	}

	record.Namespace = namespace
	f.version[k] = 1
	record.ResourceVersion = fmt.Sprintf("%d", f.version[k])
	f.records[k] = record

	f.notify(EventAdded, record)
	return record, Ok, nil
}

func (f *FakeClient) Replace(ctx context.Context, name, namespace string, record Record) (Record, Outcome, error) {
	if f.ReplaceFunc != nil {
		return f.ReplaceFunc(ctx, name, namespace, record)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(namespace, name)
	existing, ok := f.records[k]
	if !ok {
		return Record{}, NotFound, nil
	}
	if record.ResourceVersion != existing.ResourceVersion {
		return Record{}, Conflict, nil
	}

	f.version[k]++
	record.Name = name
	record.Namespace = namespace
	record.ResourceVersion = fmt.Sprintf("%d", f.version[k])
	f.records[k] = record

	f.notify(EventModified, record)
	return record, Ok, nil
}

func (f *FakeClient) Watch(ctx context.Context, namespace string, handler WatchHandler, onClose OnClose) (WatchHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := &fakeWatchHandle{namespace: namespace, handler: handler, onClose: onClose}
	f.watchers = append(f.watchers, h)
	return h, nil
}

// notify delivers event to every open watcher scoped to record's
// namespace. Callers must hold f.mu.
func (f *FakeClient) notify(event EventType, record Record) {
	for _, w := range f.watchers {
		if w.closed || w.namespace != record.Namespace {
			continue
		}
		w.handler(event, record)
	}
}

// Delete removes the record directly, simulating an out-of-band delete,
// and notifies watchers with EventDeleted.
func (f *FakeClient) Delete(namespace, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := key(namespace, name)
	record, ok := f.records[k]
	if !ok {
		return
	}
	delete(f.records, k)
	delete(f.version, k)
	f.notify(EventDeleted, record)
}

// CloseWatchers ends every open watch with err, simulating a stream
// termination the watch loop must reconnect from.
func (f *FakeClient) CloseWatchers(err error) {
	f.mu.Lock()
	watchers := append([]*fakeWatchHandle(nil), f.watchers...)
	f.watchers = nil
	f.mu.Unlock()

	for _, w := range watchers {
		if !w.closed {
			w.closed = true
			w.onClose(err)
		}
	}
}

type fakeWatchHandle struct {
	namespace string
	handler   WatchHandler
	onClose   OnClose
	closed    bool
}

func (h *fakeWatchHandle) Close() {
	h.closed = true
}
