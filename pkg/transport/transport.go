// Package transport defines how the bridge notifies the host that commands are waiting.
package transport

import (
	"context"
	"fmt"
	"strings"
)

// Mode selects the flush strategy.
type Mode string

const (
	// ModePush hands the serialized batch straight to the host.
	ModePush Mode = "push"
	// ModeSignal only signals the host, which later pulls the queue.
	ModeSignal Mode = "signal"
	// ModePull never notifies the host; it polls the queue on its own schedule.
	ModePull Mode = "pull"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePush:
		return ModePush, nil
	case ModeSignal:
		return ModeSignal, nil
	case ModePull:
		return ModePull, nil
	default:
		return "", fmt.Errorf("transport:transport - unknown mode %q (use push, signal or pull)", s)
	}
}

// Pusher receives drained batches encoded as a JSON array.
type Pusher interface {
	Push(ctx context.Context, payload []byte) error
}

// Signaler tells the host to call back and fetch the queue.
type Signaler interface {
	Signal(ctx context.Context) error
}

// PushFunc adapts a function to Pusher.
type PushFunc func(ctx context.Context, payload []byte) error

// Push calls f.
func (f PushFunc) Push(ctx context.Context, payload []byte) error {
	return f(ctx, payload)
}

// SignalFunc adapts a function to Signaler.
type SignalFunc func(ctx context.Context) error

// Signal calls f.
func (f SignalFunc) Signal(ctx context.Context) error {
	return f(ctx)
}

// NoOpPusher discards batches (for in-process usage without a host).
type NoOpPusher struct{}

// Push is a no-op.
func (NoOpPusher) Push(_ context.Context, _ []byte) error {
	return nil
}

// NoOpSignaler ignores signals.
type NoOpSignaler struct{}

// Signal is a no-op.
func (NoOpSignaler) Signal(_ context.Context) error {
	return nil
}
