package leaseclient

import "context"

// StaticClient is a Client that never performs remote I/O. It backs
// degenerate single-node mode (process not running under the
// orchestrator), where the engine is configured to skip lease operations
// entirely; StaticClient exists so that misconfiguration cannot
// accidentally reach it and silently no-op instead of surfacing a wiring
// bug.
type StaticClient struct{}

// NewStaticClient returns a Client whose every call fails loudly; it
// should never be invoked by the engine in degenerate single-node mode.
func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

func (c *StaticClient) Read(context.Context, string, string) (Record, Outcome, error) {
	return Record{}, TransientError, errNotWired
}

func (c *StaticClient) Create(context.Context, string, Record) (Record, Outcome, error) {
	return Record{}, TransientError, errNotWired
}

func (c *StaticClient) Replace(context.Context, string, string, Record) (Record, Outcome, error) {
	return Record{}, TransientError, errNotWired
}

func (c *StaticClient) Watch(context.Context, string, WatchHandler, OnClose) (WatchHandle, error) {
	return nil, errNotWired
}

var errNotWired = staticError("leaseclient: StaticClient called; engine should be in degenerate single-node mode and never reach the lease store")

type staticError string

func (e staticError) Error() string { return string(e) }
