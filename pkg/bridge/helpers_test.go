package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/morezero/webview-bridge/pkg/scheduler"
	"github.com/morezero/webview-bridge/pkg/wire"
)

const testWindow = 10 * time.Millisecond

// recordingPusher keeps every batch it receives.
type recordingPusher struct {
	mu      sync.Mutex
	raw     []string
	batches [][]wire.Command
	err     error
}

func (r *recordingPusher) Push(_ context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cmds, err := wire.DecodeBatch(payload)
	if err != nil {
		return err
	}
	r.raw = append(r.raw, string(payload))
	r.batches = append(r.batches, cmds)
	return nil
}

func (r *recordingPusher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recordingPusher) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, b := range r.batches {
		for _, c := range b {
			out = append(out, c.ID)
		}
	}
	return out
}

type countingSignaler struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSignaler) Signal(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *countingSignaler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingObserver struct {
	mu      sync.Mutex
	queued  int
	flushes map[string]int
	hits    int
	misses  int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{flushes: make(map[string]int)}
}

func (o *recordingObserver) CommandQueued(_, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued++
}

func (o *recordingObserver) Flushed(mode string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes[mode] += n
}

func (o *recordingObserver) Dispatched(matched bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if matched {
		o.hits++
	} else {
		o.misses++
	}
}

// newTestBridge builds a bridge on a manual clock with ids starting at 100.
func newTestBridge(t *testing.T, opts Options) (*Bridge, *scheduler.ManualClock) {
	t.Helper()
	clock := scheduler.NewManualClock()
	opts.Clock = clock
	if opts.Window == 0 {
		opts.Window = testWindow
	}
	if opts.Seed == nil {
		opts.Seed = FixedSeed(100)
	}
	b, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("bridge:helpers_test - New: %v", err)
	}
	t.Cleanup(b.Close)
	return b, clock
}

// newReadyBridge is newTestBridge followed by SignalReady with the given plugins.
func newReadyBridge(t *testing.T, opts Options, plugins map[string][]string) (*Bridge, *scheduler.ManualClock) {
	t.Helper()
	b, clock := newTestBridge(t, opts)
	var names []string
	var methods [][]string
	for name, ms := range plugins {
		names = append(names, name)
		methods = append(methods, ms)
	}
	b.SignalReady(nil, names, methods)
	return b, clock
}

func rawArgs(t *testing.T, cmd wire.Command) string {
	t.Helper()
	raw, ok := cmd.Args.(json.RawMessage)
	if !ok {
		t.Fatalf("bridge:helpers_test - args of %d are %T, want json.RawMessage", cmd.ID, cmd.Args)
	}
	return string(raw)
}
