package protocol

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-wayfinder/pkg/navigation"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewDetectionsMessage creates a detections message
func NewDetectionsMessage(req ProcessRequest) (*Message, error) {
	return NewMessage(TypeDetections, req)
}

// NewResultMessage creates a result message for a processed frame
func NewResultMessage(requestID string, res navigation.Result) (*Message, error) {
	return NewMessage(TypeResult, NewProcessResult(requestID, res))
}

// NewSpeakMessage creates a speak message that replaces whatever the
// device is currently saying.
func NewSpeakMessage(utteranceID, text, language string) (*Message, error) {
	return NewMessage(TypeSpeak, SpeakData{
		UtteranceID: utteranceID,
		Text:        text,
		Language:    language,
		Flush:       true,
	})
}

// NewStopMessage creates a stop message
func NewStopMessage() (*Message, error) {
	return NewMessage(TypeStop, nil)
}

// NewResetMessage creates a reset message
func NewResetMessage() (*Message, error) {
	return NewMessage(TypeReset, nil)
}

// NewErrorMessage creates an error message
func NewErrorMessage(requestID, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{RequestID: requestID, Message: message})
}

// NewPingMessage creates a ping message. An empty id gets a fresh UUID.
func NewPingMessage(id string) (*Message, error) {
	if id == "" {
		id = uuid.NewString()
	}
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetProcessRequest extracts a detection batch from a message
func (m *Message) GetProcessRequest() (*ProcessRequest, error) {
	var data ProcessRequest
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetProcessResult extracts a processed frame from a message
func (m *Message) GetProcessResult() (*ProcessResult, error) {
	var data ProcessResult
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSpeakData extracts speak data from a message
func (m *Message) GetSpeakData() (*SpeakData, error) {
	var data SpeakData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error details from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
