package bridge

import (
	"errors"
	"fmt"
)

// Error codes carried by BridgeError.
const (
	// CodeAliasConflict is a configuration error: the alias is claimed by another plugin.
	CodeAliasConflict = "ALIAS_CONFLICT"
	// CodeNotReady is returned by strict bridges invoked before the host handshake.
	CodeNotReady = "NOT_READY"
	// CodeUnknownPlugin means no plugin or alias is registered under the name.
	CodeUnknownPlugin = "UNKNOWN_PLUGIN"
	// CodeUnknownMethod means the plugin does not declare the method.
	CodeUnknownMethod = "UNKNOWN_METHOD"
	// CodeInvalidBatch is delivered to the fail path of a command whose args could not be encoded.
	CodeInvalidBatch = "INVALID_BATCH"
	// CodeIncompatibleVersion means the host requires a bridge version this build does not satisfy.
	CodeIncompatibleVersion = "INCOMPATIBLE_VERSION"
)

// BridgeError is a structured error from the bridge.
type BridgeError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *BridgeError) Error() string {
	return e.Code + ": " + e.Message
}

// NewBridgeError creates a new BridgeError.
func NewBridgeError(code, message string) *BridgeError {
	return &BridgeError{Code: code, Message: message}
}

// IsCode reports whether err is, or wraps, a BridgeError with the given code.
func IsCode(err error, code string) bool {
	var be *BridgeError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// RejectedError is the error of a promise the host settled with success=false.
// Args holds the failure payload exactly as the host sent it.
type RejectedError struct {
	ID   int64
	Args any
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("command %d rejected: %v", e.ID, e.Args)
}
