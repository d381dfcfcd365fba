package hostlink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/webview-bridge/pkg/bridge"
	"github.com/morezero/webview-bridge/pkg/wire"
)

const logPrefix = "hostlink:dispatch"

// Dispatcher routes host requests to bridge entry points.
type Dispatcher struct {
	bridge *bridge.Bridge
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(b *bridge.Bridge) *Dispatcher {
	return &Dispatcher{bridge: b}
}

// Dispatch routes a request to the matching bridge operation and returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *HostRequest) *HostResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	if err := ctx.Err(); err != nil {
		return errorResponse(req.ID, "TIMEOUT", err.Error(), true)
	}

	switch req.Method {
	case MethodDispatch:
		return d.handleDispatch(req)
	case MethodDispatchBatch:
		return d.handleDispatchBatch(req)
	case MethodSignalReady:
		return d.handleSignalReady(req)
	case MethodFetchMessages:
		return d.handleFetchMessages(req)
	case MethodRegisterPlugin:
		return d.handleRegisterPlugin(req)
	case MethodUnregisterPlugin:
		return d.handleUnregisterPlugin(req)
	case MethodClearPlugins:
		return d.handleClearPlugins(req)
	case MethodHealth:
		return d.handleHealth(req)
	default:
		return errorResponse(req.ID, "METHOD_NOT_FOUND", fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handleDispatch(req *HostRequest) *HostResponse {
	var input DispatchParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse dispatch params", false)
	}
	d.route(input)
	return &HostResponse{ID: req.ID, Ok: true}
}

func (d *Dispatcher) handleDispatchBatch(req *HostRequest) *HostResponse {
	var input DispatchBatchParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse dispatchBatch params", false)
	}
	for _, r := range input.Responses {
		d.route(r)
	}
	return &HostResponse{ID: req.ID, Ok: true, Result: DispatchBatchResult{Routed: len(input.Responses)}}
}

func (d *Dispatcher) route(p DispatchParams) {
	var args any
	if len(p.Args) > 0 {
		args = p.Args
	}
	d.bridge.Dispatch(p.ID, p.Success, args, p.KeepCallback)
}

func (d *Dispatcher) handleSignalReady(req *HostRequest) *HostResponse {
	var input SignalReadyParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse signalReady params", false)
	}
	if err := bridge.CheckHostConstraint(input.BridgeVersion); err != nil {
		slog.Warn(fmt.Sprintf("%s - host requires bridge %q: %v", logPrefix, input.BridgeVersion, err))
		return bridgeErrorToResponse(req.ID, err)
	}

	var settings any
	if len(input.Settings) > 0 {
		settings = input.Settings
	}
	first := d.bridge.SignalReady(settings, input.PluginNames, input.MethodsPerPlugin)
	return &HostResponse{ID: req.ID, Ok: true, Result: SignalReadyResult{
		Ready:   true,
		First:   first,
		Version: bridge.Version,
	}}
}

func (d *Dispatcher) handleFetchMessages(req *HostRequest) *HostResponse {
	msgs, err := d.bridge.FetchMessages()
	if err != nil {
		return bridgeErrorToResponse(req.ID, err)
	}
	return &HostResponse{ID: req.ID, Ok: true, Result: json.RawMessage(msgs)}
}

func (d *Dispatcher) handleRegisterPlugin(req *HostRequest) *HostResponse {
	var input RegisterPluginParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse registerPlugin params", false)
	}
	if input.Name == "" {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Plugin name is required", false)
	}
	p := d.bridge.RegisterPlugin(input.Name, input.Methods)
	return &HostResponse{ID: req.ID, Ok: true, Result: RegisterPluginResult{Name: p.Name(), Methods: p.Methods()}}
}

func (d *Dispatcher) handleUnregisterPlugin(req *HostRequest) *HostResponse {
	var input UnregisterPluginParams
	if err := decodeParams(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse unregisterPlugin params", false)
	}
	if !d.bridge.UnregisterPlugin(input.Name) {
		return errorResponse(req.ID, bridge.CodeUnknownPlugin, fmt.Sprintf("Plugin not registered: %s", input.Name), false)
	}
	return &HostResponse{ID: req.ID, Ok: true, Result: RemovedResult{Removed: 1}}
}

func (d *Dispatcher) handleClearPlugins(req *HostRequest) *HostResponse {
	n := d.bridge.ClearPlugins()
	return &HostResponse{ID: req.ID, Ok: true, Result: RemovedResult{Removed: n}}
}

func (d *Dispatcher) handleHealth(req *HostRequest) *HostResponse {
	queued, awaiting := d.bridge.Pending()
	return &HostResponse{ID: req.ID, Ok: true, Result: HealthResult{
		Status:   "ok",
		Ready:    d.bridge.IsReady(),
		Mode:     d.bridge.Mode(),
		Version:  bridge.Version,
		Queued:   queued,
		Awaiting: awaiting,
		Plugins:  len(d.bridge.Plugins()),
	}}
}

// --- helpers ---

// decodeParams treats missing params as an empty object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return wire.DecodePayload(raw, v)
}

func errorResponse(id, code, message string, retryable bool) *HostResponse {
	return &HostResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func bridgeErrorToResponse(id string, err error) *HostResponse {
	if be, ok := err.(*bridge.BridgeError); ok {
		return &HostResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:    be.Code,
				Message: be.Message,
				Details: be.Details,
			},
		}
	}
	return errorResponse(id, "INTERNAL_ERROR", err.Error(), true)
}
