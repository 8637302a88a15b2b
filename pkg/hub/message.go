// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import (
	"encoding/json"

	"github.com/teslashibe/go-wayfinder/pkg/protocol"
)

// Message represents a JSON message to be broadcast to clients
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// NewProtocolMessage encodes a protocol envelope for broadcast
func NewProtocolMessage(msg *protocol.Message) (Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
