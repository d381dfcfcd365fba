// Package bridge is the script-side command bridge: it queues commands for the
// host, correlates responses with callers, builds plugin namespaces, and gates
// delivery on the host's readiness handshake.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/morezero/webview-bridge/pkg/scheduler"
	"github.com/morezero/webview-bridge/pkg/transport"
	"github.com/morezero/webview-bridge/pkg/wire"
)

const logPrefix = "bridge:bridge"

const defaultFlushTimeout = 5 * time.Second

// Options configures a Bridge. With neither Pusher nor Signaler set the bridge
// is pull-only and the host drains it through FetchMessages.
type Options struct {
	// Pusher receives each drained batch. Takes precedence over Signaler.
	Pusher transport.Pusher
	// Signaler is poked when commands are waiting to be pulled.
	Signaler transport.Signaler
	// Window is the debounce window. Defaults to scheduler.DefaultWindow.
	Window time.Duration
	Clock  scheduler.Clock
	// Seed supplies the first correlation id. Defaults to RandomSeed.
	Seed SeedSource
	// Strict rejects exec calls made before readiness with CodeNotReady.
	// Otherwise they are queued and delivered once the host is ready.
	Strict bool
	// OnReady runs once, after plugins are registered and before queued commands are flushed.
	OnReady func(settings any)
	// FlushTimeout bounds each transport call. Defaults to 5s.
	FlushTimeout time.Duration
	Observer     Observer
}

// Bridge is one bridge instance. All state is guarded by mu; handlers,
// listeners, hooks and transport calls always run with mu released.
// flushMu is held from drain to transport call so batches reach the host in
// drain order; it is never held while handlers run.
type Bridge struct {
	mu      sync.Mutex
	flushMu sync.Mutex
	ids     idGenerator
	queue   commandQueue
	pending pendingTable
	plugins pluginTable

	ready    bool
	readyCh  chan struct{}
	settings any

	sched        *scheduler.Debouncer
	pusher       transport.Pusher
	signaler     transport.Signaler
	strict       bool
	onReady      func(settings any)
	flushTimeout time.Duration
	observer     Observer
}

// New creates a NotReady bridge. ctx bounds the seed lookup only.
func New(ctx context.Context, opts Options) (*Bridge, error) {
	seed := opts.Seed
	if seed == nil {
		seed = RandomSeed{}
	}
	first, err := seed.Seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to seed correlation ids: %w", logPrefix, err)
	}
	ids := idGenerator{next: first}
	if bs, ok := seed.(BlockSeedSource); ok && bs.BlockSize() > 0 {
		ids.limit = first + bs.BlockSize()
	}

	observer := opts.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}
	flushTimeout := opts.FlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}

	b := &Bridge{
		ids:          ids,
		pending:      newPendingTable(),
		plugins:      newPluginTable(),
		readyCh:      make(chan struct{}),
		pusher:       opts.Pusher,
		signaler:     opts.Signaler,
		strict:       opts.Strict,
		onReady:      opts.OnReady,
		flushTimeout: flushTimeout,
		observer:     observer,
	}
	b.sched = scheduler.NewDebouncer(scheduler.DebouncerParams{
		Window: opts.Window,
		Clock:  opts.Clock,
		Flush:  b.flush,
	})

	slog.Debug(fmt.Sprintf("%s - created seed=%d mode=%s strict=%v", logPrefix, first, b.Mode(), b.strict))
	return b, nil
}

// Mode returns the flush strategy: "push", "signal" or "pull".
func (b *Bridge) Mode() string {
	switch {
	case b.pusher != nil:
		return string(transport.ModePush)
	case b.signaler != nil:
		return string(transport.ModeSignal)
	default:
		return string(transport.ModePull)
	}
}

// Exec queues a callback-style command. Handlers are kept only if at least
// one is set.
func (b *Bridge) Exec(service, action string, args any, cb Callbacks) error {
	_, err := b.enqueue(service, action, args, func(id int64) {
		b.pending.register(id, cb)
	})
	return err
}

// ExecPromise queues a promise-style command.
func (b *Bridge) ExecPromise(service, action string, args any) (*Promise, error) {
	var p *Promise
	_, err := b.enqueue(service, action, args, func(id int64) {
		p = newPromise(b, id)
		b.pending.registerPromise(id, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// enqueue is the shared exec primitive. record runs under the lock with the new id.
func (b *Bridge) enqueue(service, action string, args any, record func(id int64)) (int64, error) {
	b.mu.Lock()
	if b.strict && !b.ready {
		b.mu.Unlock()
		return 0, &BridgeError{
			Code:    CodeNotReady,
			Message: fmt.Sprintf("exec %s.%s before host readiness", service, action),
		}
	}
	id, exhausted := b.ids.nextID()
	record(id)
	b.queue.enqueue(wire.Command{ID: id, Service: service, Action: action, Args: args})
	ready := b.ready
	b.mu.Unlock()

	if exhausted {
		slog.Warn(fmt.Sprintf("%s - correlation id %d is past the reserved block; ids may collide after a reload", logPrefix, id))
	}

	b.observer.CommandQueued(service, action)
	if ready {
		b.sched.Trigger()
	}
	return id, nil
}

func (b *Bridge) addProgressListener(id int64, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.addProgress(id, fn)
}

// Dispatch routes one host response. A callback pair gets success or fail;
// a promise gets progress (keepCallback) or settles. Unknown ids are dropped.
func (b *Bridge) Dispatch(id int64, success bool, args any, keepCallback bool) {
	b.mu.Lock()
	r := b.pending.take(id, keepCallback)
	b.mu.Unlock()

	b.observer.Dispatched(r.matched())
	if !r.matched() {
		slog.Debug(fmt.Sprintf("%s - dispatch for unknown id %d ignored", logPrefix, id))
		return
	}

	if r.hasCallback {
		if success && r.callback.Success != nil {
			r.callback.Success(args)
		} else if !success && r.callback.Fail != nil {
			r.callback.Fail(args)
		}
	}

	if r.promise != nil {
		if keepCallback {
			for _, fn := range r.listeners {
				fn(args)
			}
			return
		}
		if success {
			r.promise.resolve(args)
		} else {
			r.promise.reject(args)
		}
	}
}

// DrainForDelivery removes and returns the commands queued at call time.
func (b *Bridge) DrainForDelivery() []wire.Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.drain()
}

// FetchMessages drains the queue as a JSON array. An empty queue yields "[]".
func (b *Bridge) FetchMessages() (string, error) {
	payload, n, dropped := encodeDeliverable(b.DrainForDelivery())
	for _, d := range dropped {
		b.Dispatch(d.id, false, d.err, false)
	}
	if n == 0 {
		return wire.EmptyBatch, nil
	}
	b.observer.Flushed(string(transport.ModePull), n)
	return string(payload), nil
}

// Pending returns how many commands are queued and how many ids await a response.
func (b *Bridge) Pending() (queued, awaiting int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.size(), b.pending.size()
}

// Flush delivers the queue now, bypassing the debounce window.
func (b *Bridge) Flush() {
	b.sched.Flush()
}

func (b *Bridge) flush() {
	if b.pusher != nil {
		b.flushPush()
		return
	}
	if b.signaler != nil {
		b.flushSignal()
	}
}

func (b *Bridge) flushPush() {
	for _, d := range b.pushBatch() {
		b.Dispatch(d.id, false, d.err, false)
	}
}

// droppedCommand is a drained command that could not be encoded.
type droppedCommand struct {
	id  int64
	err *BridgeError
}

// pushBatch drains and pushes under flushMu. Dropped commands are returned so
// their fail handlers run after flushMu is released.
func (b *Bridge) pushBatch() []droppedCommand {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	cmds := b.DrainForDelivery()
	if len(cmds) == 0 {
		return nil
	}
	payload, n, dropped := encodeDeliverable(cmds)
	if n == 0 {
		return dropped
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
	defer cancel()
	if err := b.pusher.Push(ctx, payload); err != nil {
		slog.Error(fmt.Sprintf("%s - push of %d commands failed: %v", logPrefix, n, err))
		return dropped
	}
	b.observer.Flushed(string(transport.ModePush), n)
	return dropped
}

func (b *Bridge) flushSignal() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	n := b.queue.size()
	b.mu.Unlock()
	if n == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.flushTimeout)
	defer cancel()
	if err := b.signaler.Signal(ctx); err != nil {
		slog.Error(fmt.Sprintf("%s - signal failed: %v", logPrefix, err))
		return
	}
	b.observer.Flushed(string(transport.ModeSignal), n)
}

// encodeDeliverable encodes a drained batch. Commands whose args cannot be
// encoded are left out and returned, so one bad payload never takes the rest
// of the batch down with it.
func encodeDeliverable(cmds []wire.Command) ([]byte, int, []droppedCommand) {
	payload, err := wire.EncodeBatch(cmds)
	if err == nil {
		return payload, len(cmds), nil
	}

	good := make([]wire.Command, 0, len(cmds))
	var dropped []droppedCommand
	for _, cmd := range cmds {
		if _, cerr := wire.EncodeBatch([]wire.Command{cmd}); cerr != nil {
			slog.Warn(fmt.Sprintf("%s - dropping command %d (%s.%s): %v", logPrefix, cmd.ID, cmd.Service, cmd.Action, cerr))
			dropped = append(dropped, droppedCommand{id: cmd.ID, err: &BridgeError{
				Code:    CodeInvalidBatch,
				Message: fmt.Sprintf("args of %s.%s could not be encoded: %v", cmd.Service, cmd.Action, cerr),
			}})
			continue
		}
		good = append(good, cmd)
	}
	if len(good) == 0 {
		return nil, 0, dropped
	}

	payload, err = wire.EncodeBatch(good)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode batch: %v", logPrefix, err))
		return nil, 0, dropped
	}
	return payload, len(good), dropped
}

// SignalReady performs the one-shot host handshake. pluginNames[i] is
// registered with methodsPerPlugin[i] (no methods if missing). Later calls are
// no-ops and return false.
func (b *Bridge) SignalReady(settings any, pluginNames []string, methodsPerPlugin [][]string) bool {
	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		slog.Debug(fmt.Sprintf("%s - duplicate ready signal ignored", logPrefix))
		return false
	}
	b.ready = true
	b.settings = settings
	for i, name := range pluginNames {
		var methods []string
		if i < len(methodsPerPlugin) {
			methods = methodsPerPlugin[i]
		}
		b.plugins.register(newPlugin(b, name, methods))
	}
	close(b.readyCh)
	queued := b.queue.size()
	onReady := b.onReady
	b.mu.Unlock()

	slog.Info(fmt.Sprintf("%s - ready plugins=%d queued=%d", logPrefix, len(pluginNames), queued))

	if onReady != nil {
		onReady(settings)
	}
	if queued > 0 {
		b.sched.Flush()
	}
	return true
}

// Ready is closed once the host has signalled readiness.
func (b *Bridge) Ready() <-chan struct{} {
	return b.readyCh
}

// WaitReady blocks until readiness or ctx is done.
func (b *Bridge) WaitReady(ctx context.Context) error {
	select {
	case <-b.readyCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsReady reports whether the handshake has happened.
func (b *Bridge) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// Settings returns the settings passed to SignalReady, or nil before readiness.
func (b *Bridge) Settings() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// RegisterPlugin builds a plugin namespace, replacing any plugin of the same
// name, and binds aliases already declared for it.
func (b *Bridge) RegisterPlugin(name string, methods []string) *Plugin {
	p := newPlugin(b, name, methods)
	b.mu.Lock()
	b.plugins.register(p)
	b.mu.Unlock()
	return p
}

// UnregisterPlugin removes a plugin. Its aliases rebind if it registers again.
func (b *Bridge) UnregisterPlugin(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.unregister(name)
}

// ClearPlugins removes every plugin and returns how many were removed.
func (b *Bridge) ClearPlugins() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.clear()
}

// DeclareAlias claims aliases given as canonical -> alias. If any alias is
// already claimed by another plugin nothing is applied and an
// ALIAS_CONFLICT error names it.
func (b *Bridge) DeclareAlias(pairs map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.declare(pairs)
}

// Aliases returns the declared aliases (alias -> canonical).
func (b *Bridge) Aliases() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.aliases()
}

// Plugin looks up a plugin by canonical name or bound alias.
func (b *Bridge) Plugin(name string) (*Plugin, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.lookup(name)
}

// LookupPlugin is Plugin returning an UNKNOWN_PLUGIN error instead of a bool.
func (b *Bridge) LookupPlugin(name string) (*Plugin, error) {
	p, ok := b.Plugin(name)
	if !ok {
		return nil, &BridgeError{Code: CodeUnknownPlugin, Message: fmt.Sprintf("no plugin registered as %s", name)}
	}
	return p, nil
}

// Plugins returns a snapshot of the namespace, aliases included.
func (b *Bridge) Plugins() map[string]*Plugin {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plugins.snapshot()
}

// Close stops the scheduler. Queued commands stay available to FetchMessages.
func (b *Bridge) Close() {
	b.sched.Stop()
}
