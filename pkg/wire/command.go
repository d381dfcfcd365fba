// Package wire defines the command batch format exchanged with the host.
package wire

import (
	"encoding/json"
	"fmt"
)

const logPrefix = "wire:command"

// Command is one queued request. On the wire it is the 4-element array
// [correlationId, service, action, args].
type Command struct {
	ID      int64
	Service string
	Action  string
	// Args is opaque and passed through unmodified.
	Args any
}

// MarshalJSON encodes the command as a 4-element array.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]any{c.ID, c.Service, c.Action, c.Args})
}

// UnmarshalJSON decodes a 4-element array. Args are kept as raw JSON.
func (c *Command) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("%s - command is not an array: %w", logPrefix, err)
	}
	if len(parts) != 4 {
		return fmt.Errorf("%s - command has %d elements, want 4", logPrefix, len(parts))
	}

	var out Command
	if err := json.Unmarshal(parts[0], &out.ID); err != nil {
		return fmt.Errorf("%s - invalid correlation id: %w", logPrefix, err)
	}
	if err := json.Unmarshal(parts[1], &out.Service); err != nil {
		return fmt.Errorf("%s - invalid service: %w", logPrefix, err)
	}
	if err := json.Unmarshal(parts[2], &out.Action); err != nil {
		return fmt.Errorf("%s - invalid action: %w", logPrefix, err)
	}
	out.Args = parts[3]

	*c = out
	return nil
}
