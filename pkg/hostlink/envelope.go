// Package hostlink routes host requests, carried as JSON envelopes, to a bridge.
package hostlink

import "encoding/json"

// Host request methods.
const (
	MethodDispatch         = "dispatch"
	MethodDispatchBatch    = "dispatchBatch"
	MethodSignalReady      = "signalReady"
	MethodFetchMessages    = "fetchMessages"
	MethodRegisterPlugin   = "registerPlugin"
	MethodUnregisterPlugin = "unregisterPlugin"
	MethodClearPlugins     = "clearPlugins"
	MethodHealth           = "health"
)

// HostRequest is the JSON envelope for requests from the host.
type HostRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// HostResponse is the JSON envelope returned to the host.
type HostResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// DispatchParams is one response for a correlation id. Args are handed to the
// caller's handlers as raw JSON.
type DispatchParams struct {
	ID           int64           `json:"id"`
	Success      bool            `json:"success"`
	Args         json.RawMessage `json:"args,omitempty"`
	KeepCallback bool            `json:"keepCallback"`
}

// DispatchBatchParams carries several responses delivered in one round trip.
type DispatchBatchParams struct {
	Responses []DispatchParams `json:"responses"`
}

// DispatchBatchResult counts how many responses were routed.
type DispatchBatchResult struct {
	Routed int `json:"routed"`
}

// SignalReadyParams is the readiness handshake.
type SignalReadyParams struct {
	Settings         json.RawMessage `json:"settings,omitempty"`
	PluginNames      []string        `json:"pluginNames"`
	MethodsPerPlugin [][]string      `json:"methodsPerPlugin"`
	// BridgeVersion is an optional SemVer range the bridge must satisfy.
	BridgeVersion string `json:"bridgeVersion,omitempty"`
}

// SignalReadyResult reports whether this call performed the transition.
type SignalReadyResult struct {
	Ready   bool   `json:"ready"`
	First   bool   `json:"first"`
	Version string `json:"version"`
}

// RegisterPluginParams registers or replaces one plugin.
type RegisterPluginParams struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

// RegisterPluginResult echoes the registered plugin.
type RegisterPluginResult struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

// UnregisterPluginParams names the plugin to remove.
type UnregisterPluginParams struct {
	Name string `json:"name"`
}

// RemovedResult reports how many plugins were removed.
type RemovedResult struct {
	Removed int `json:"removed"`
}

// HealthResult describes the bridge state.
type HealthResult struct {
	Status   string `json:"status"`
	Ready    bool   `json:"ready"`
	Mode     string `json:"mode"`
	Version  string `json:"version"`
	Queued   int    `json:"queued"`
	Awaiting int    `json:"awaiting"`
	Plugins  int    `json:"plugins"`
}
