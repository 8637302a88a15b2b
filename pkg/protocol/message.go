// Package protocol defines the JSON messages exchanged between the
// navigation service, detector hosts and speaker devices.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Device → Service messages
	TypeDetections MessageType = "detections" // Detection batch, optional depth
	TypeReset      MessageType = "reset"      // Sensor session paused

	// Service → Device messages
	TypeResult MessageType = "result" // Processed frame
	TypeSpeak  MessageType = "speak"  // Utterance to synthesize
	TypeStop   MessageType = "stop"   // Interrupt current utterance
	TypeError  MessageType = "error"  // Request rejected

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Device → Service Message Types
// =============================================================================

// ProcessRequest is one detection batch. It is the body of
// POST /api/navigation/process and the data of a detections message.
type ProcessRequest struct {
	ViewWidth    int                       `json:"viewWidth"`
	ViewHeight   int                       `json:"viewHeight"`
	Detections   []navigation.RawDetection `json:"detections"`
	Depth        *DepthData                `json:"depth,omitempty"`
	SafeDistance float64                   `json:"safeDistance,omitempty"` // meters, 0 for default
}

// DepthData is a 16-bit depth plane. Data is base64 in JSON.
type DepthData struct {
	Timestamp   int64  `json:"timestamp"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	RowStride   int    `json:"rowStride,omitempty"`   // default width*2
	PixelStride int    `json:"pixelStride,omitempty"` // default 2
	Data        []byte `json:"data"`
}

// Plane converts the wire form into a depth plane, filling default strides.
func (d *DepthData) Plane() *depth.Plane {
	if d == nil {
		return nil
	}
	pixelStride := d.PixelStride
	if pixelStride == 0 {
		pixelStride = 2
	}
	rowStride := d.RowStride
	if rowStride == 0 {
		rowStride = d.Width * pixelStride
	}
	return &depth.Plane{
		Timestamp:   d.Timestamp,
		Width:       d.Width,
		Height:      d.Height,
		RowStride:   rowStride,
		PixelStride: pixelStride,
		Data:        d.Data,
	}
}

// Input converts the request into a navigator input.
func (r *ProcessRequest) Input() navigation.Input {
	return navigation.Input{
		ViewWidth:    r.ViewWidth,
		ViewHeight:   r.ViewHeight,
		Detections:   r.Detections,
		Depth:        r.Depth.Plane(),
		SafeDistance: r.SafeDistance,
	}
}

// =============================================================================
// Service → Device Message Types
// =============================================================================

// ProcessResult is the outcome of one detection batch.
type ProcessResult struct {
	RequestID   string                `json:"requestId"`
	Instruction string                `json:"instruction"`
	Obstacles   []navigation.Obstacle `json:"obstacles"`
	UsedDepth   bool                  `json:"usedDepth"`
	Spoken      bool                  `json:"spoken"`
}

// NewProcessResult builds the wire form of a navigator result.
func NewProcessResult(requestID string, res navigation.Result) ProcessResult {
	obstacles := res.Obstacles
	if obstacles == nil {
		obstacles = []navigation.Obstacle{}
	}
	return ProcessResult{
		RequestID:   requestID,
		Instruction: res.Instruction,
		Obstacles:   obstacles,
		UsedDepth:   res.UsedDepth,
		Spoken:      res.Spoken,
	}
}

// SpeakData asks a speaker device to say text. Flush drops anything the
// device is still saying.
type SpeakData struct {
	UtteranceID string `json:"utteranceId"`
	Text        string `json:"text"`
	Language    string `json:"language,omitempty"`
	Flush       bool   `json:"flush"`
}

// ErrorData describes a rejected request.
type ErrorData struct {
	RequestID string `json:"requestId,omitempty"`
	Message   string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
