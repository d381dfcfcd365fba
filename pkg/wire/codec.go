package wire

import (
	"encoding/json"
	"fmt"
)

const codecLogPrefix = "wire:codec"

// EmptyBatch is the encoding of a batch with no commands.
const EmptyBatch = "[]"

// EncodeBatch serializes commands into a JSON array, preserving order.
// A nil or empty batch encodes as "[]".
func EncodeBatch(cmds []Command) ([]byte, error) {
	if len(cmds) == 0 {
		return []byte(EmptyBatch), nil
	}
	data, err := json.Marshal(cmds)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode batch of %d: %w", codecLogPrefix, len(cmds), err)
	}
	return data, nil
}

// DecodeBatch parses a JSON array of commands. An empty payload is an empty batch.
func DecodeBatch(data []byte) ([]Command, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var cmds []Command
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("%s - failed to decode batch: %w", codecLogPrefix, err)
	}
	return cmds, nil
}

// EncodePayload serializes a value to JSON bytes.
func EncodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodePayload deserializes JSON bytes into the given target.
func DecodePayload(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
