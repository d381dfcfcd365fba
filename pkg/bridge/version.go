package bridge

import (
	"errors"
	"fmt"

	"github.com/morezero/webview-bridge/pkg/semver"
)

// Version is the bridge protocol version reported during the readiness handshake.
const Version = "1.3.0"

// CheckHostConstraint verifies that Version satisfies the range a host requires.
// An empty range accepts any version.
func CheckHostConstraint(rangeStr string) error {
	err := semver.CheckCompatible(Version, rangeStr)
	if err == nil {
		return nil
	}
	var incompatible *semver.IncompatibleError
	if errors.As(err, &incompatible) {
		return &BridgeError{
			Code:    CodeIncompatibleVersion,
			Message: fmt.Sprintf("bridge %s does not satisfy host requirement %q", Version, rangeStr),
		}
	}
	return &BridgeError{Code: CodeIncompatibleVersion, Message: err.Error()}
}
