package speech

import (
	"context"
	"sync"
	"time"
)

// Mock implements Synthesizer for testing.
// All methods can be customized via function fields.
type Mock struct {
	// InitFunc is called when Init is invoked.
	// If nil, returns nil (ready immediately).
	InitFunc func(ctx context.Context) error

	// SpeakFunc is called when Speak is invoked.
	// If nil, returns nil.
	SpeakFunc func(text, utteranceID string) error

	// StopFunc is called when Stop is invoked.
	// If nil, returns nil.
	StopFunc func() error

	// CloseFunc is called when Close is invoked.
	// If nil, returns nil.
	CloseFunc func() error

	// Now stamps recorded calls. Defaults to time.Now.
	Now func() time.Time

	// Tracking
	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method      string
	Text        string
	UtteranceID string
	Time        time.Time
}

// NewMock creates a new mock synthesizer that is ready immediately.
func NewMock() *Mock {
	return &Mock{}
}

// NewGatedMock creates a mock whose Init blocks until the returned
// function is called with the init result.
func NewGatedMock() (*Mock, func(error)) {
	gate := make(chan error, 1)
	m := &Mock{
		InitFunc: func(ctx context.Context) error {
			select {
			case err := <-gate:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	return m, func(err error) { gate <- err }
}

// Init calls InitFunc and records the call.
func (m *Mock) Init(ctx context.Context) error {
	m.recordCall("Init", "", "")
	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

// Speak calls SpeakFunc and records the call.
func (m *Mock) Speak(text, utteranceID string) error {
	m.recordCall("Speak", text, utteranceID)
	if m.SpeakFunc != nil {
		return m.SpeakFunc(text, utteranceID)
	}
	return nil
}

// Stop calls StopFunc and records the call.
func (m *Mock) Stop() error {
	m.recordCall("Stop", "", "")
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.recordCall("Close", "", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// recordCall adds a call to the tracking list.
func (m *Mock) recordCall(method, text, utteranceID string) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{
		Method:      method,
		Text:        text,
		UtteranceID: utteranceID,
		Time:        now(),
	})
}

// Calls returns all recorded method calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Spoken returns the Speak calls in order.
func (m *Mock) Spoken() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, c := range m.calls {
		if c.Method == "Speak" {
			result = append(result, c)
		}
	}
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// LastCall returns the most recent call, or nil if none.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify Mock implements Synthesizer at compile time.
var _ Synthesizer = (*Mock)(nil)
