package hostlink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/webview-bridge/pkg/wire"
)

const commsLogPrefix = "hostlink:comms"

// DefaultRequestTimeout bounds each request when SubscribeOpts.RequestTimeout is unset.
const DefaultRequestTimeout = 30 * time.Second

// SubscribeOpts configures Subscribe.
type SubscribeOpts struct {
	Subject        string
	RequestTimeout time.Duration
}

// Subscribe serves host requests on opts.Subject, replying to each message
// that carries a reply subject. ctx is the parent of every request context.
func Subscribe(ctx context.Context, nc *comms.Conn, d *Dispatcher, opts SubscribeOpts) (*comms.Subscription, error) {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	sub, err := nc.Subscribe(opts.Subject, func(msg *comms.Msg) {
		var req HostRequest
		if err := wire.DecodePayload(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", commsLogPrefix, err))
			respond(msg, &HostResponse{
				Ok: false,
				Error: &ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			})
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		respond(msg, d.Dispatch(reqCtx, &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", commsLogPrefix, opts.Subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", commsLogPrefix, opts.Subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *HostResponse) {
	if msg.Reply == "" {
		return
	}
	data, err := wire.EncodePayload(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", commsLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to respond: %v", commsLogPrefix, err))
	}
}
