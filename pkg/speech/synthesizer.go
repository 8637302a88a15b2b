package speech

import (
	"context"
	"log/slog"
	"time"
)

// Synthesizer turns text into audible speech. Speak has flush semantics:
// it replaces whatever the synthesizer is currently saying.
type Synthesizer interface {
	// Init prepares the synthesizer. It may block until the engine is up.
	Init(ctx context.Context) error

	// Speak says text, interrupting any utterance in progress.
	Speak(text, utteranceID string) error

	// Stop interrupts the current utterance.
	Stop() error

	// Close releases the synthesizer.
	Close() error
}

// Request is one utterance owned by the dispatcher until it is spoken or
// superseded.
type Request struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	RequestedAt time.Time `json:"requestedAt"`
}

// LogSynthesizer "speaks" by writing utterances to the log. It backs the
// service when no speaker device is configured.
type LogSynthesizer struct {
	Logger *slog.Logger
}

// NewLogSynthesizer creates a log-only synthesizer.
func NewLogSynthesizer(logger *slog.Logger) *LogSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSynthesizer{Logger: logger.With("component", "speech.log")}
}

// Init is a no-op.
func (l *LogSynthesizer) Init(ctx context.Context) error {
	return ctx.Err()
}

// Speak logs the utterance.
func (l *LogSynthesizer) Speak(text, utteranceID string) error {
	l.Logger.Info("speak", "text", text, "utterance_id", utteranceID)
	return nil
}

// Stop is a no-op.
func (l *LogSynthesizer) Stop() error { return nil }

// Close is a no-op.
func (l *LogSynthesizer) Close() error { return nil }

var _ Synthesizer = (*LogSynthesizer)(nil)
