package transport

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/pkg/commsutil"
)

const commsLogPrefix = "transport:comms"

// CommsOpts configures the COMMS transports. Nil or zero values use defaults.
type CommsOpts struct {
	// Subject overrides the default push or signal subject.
	Subject string
}

// CommsPusher publishes batches to a COMMS subject the host subscribes to.
type CommsPusher struct {
	nc      *comms.Conn
	subject string
}

// NewCommsPusher creates a CommsPusher. Pass nil for opts to use defaults.
func NewCommsPusher(nc *comms.Conn, opts *CommsOpts) *CommsPusher {
	subject := commsutil.SubjectPush
	if opts != nil && opts.Subject != "" {
		subject = opts.Subject
	}
	return &CommsPusher{nc: nc, subject: subject}
}

// Push publishes the batch.
func (p *CommsPusher) Push(_ context.Context, payload []byte) error {
	if err := p.nc.Publish(p.subject, payload); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish batch to %s: %v", commsLogPrefix, p.subject, err))
		return fmt.Errorf("%s - publish to %s: %w", commsLogPrefix, p.subject, err)
	}
	slog.Debug(fmt.Sprintf("%s - Pushed %d bytes to %s", commsLogPrefix, len(payload), p.subject))
	return nil
}

// Subject returns the subject batches are published to.
func (p *CommsPusher) Subject() string {
	return p.subject
}

// CommsSignaler publishes an empty message; the host answers by issuing a
// fetchMessages request on the bridge's host subject.
type CommsSignaler struct {
	nc      *comms.Conn
	subject string
}

// NewCommsSignaler creates a CommsSignaler. Pass nil for opts to use defaults.
func NewCommsSignaler(nc *comms.Conn, opts *CommsOpts) *CommsSignaler {
	subject := commsutil.SubjectSignal
	if opts != nil && opts.Subject != "" {
		subject = opts.Subject
	}
	return &CommsSignaler{nc: nc, subject: subject}
}

// Signal publishes the wake-up message.
func (s *CommsSignaler) Signal(_ context.Context) error {
	if err := s.nc.Publish(s.subject, nil); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to signal %s: %v", commsLogPrefix, s.subject, err))
		return fmt.Errorf("%s - signal %s: %w", commsLogPrefix, s.subject, err)
	}
	return nil
}

// Subject returns the signal subject.
func (s *CommsSignaler) Subject() string {
	return s.subject
}
