package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectHost carries host -> bridge requests (dispatch, signalReady, fetchMessages).
	SubjectHost = "bridge.script.v1"
	// SubjectPush carries bridge -> host command batches.
	SubjectPush = "bridge.host.exec"
	// SubjectSignal carries bridge -> host "commands waiting" notifications.
	SubjectSignal = "bridge.host.signal"
)

// BuildInstanceSubject scopes a subject to one bridge instance.
// An empty instance returns the base subject unchanged.
func BuildInstanceSubject(base, instance string) string {
	if instance == "" {
		return base
	}
	safe := strings.ReplaceAll(instance, ".", "_")
	return fmt.Sprintf("%s.%s", base, safe)
}
