// Package speech rate-limits instruction text on its way to a speech
// synthesizer.
//
// A Dispatcher starts Uninitialized and becomes Ready once the synthesizer's
// Init succeeds. Text requested before that is held as a single pending
// utterance and spoken the moment the synthesizer is ready. Once Ready, at
// most one utterance is dispatched per rate-limit window; a request inside
// the window replaces any pending one and is dispatched when the window
// closes. Newest request wins: superseded text is dropped, never queued.
package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the dispatcher lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateShutdown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	State        string    `json:"state"`
	Requested    int64     `json:"requested"`
	Ignored      int64     `json:"ignored"`
	Superseded   int64     `json:"superseded"`
	Dispatched   int64     `json:"dispatched"`
	Failures     int64     `json:"failures"`
	Pending      bool      `json:"pending"`
	LastDispatch time.Time `json:"lastDispatch,omitempty"`
}

// Dispatcher owns the pending utterance and the rate-limit timer.
//
// All state is confined to one control goroutine. Speak, the readiness
// transition and timer callbacks are posted to it and run in order, so at
// most one pending utterance and one armed timer exist at any time.
type Dispatcher struct {
	synth  Synthesizer
	config *Config
	clock  Clock
	logger *slog.Logger

	events chan func()
	done   chan struct{}

	readyOnce sync.Once
	readyCh   chan struct{}
	initErr   error

	// Owned by the control goroutine.
	state         State
	pending       *Request
	timer         Timer
	timerSeq      uint64
	lastDispatch  time.Time
	hasDispatched bool
	stats         Stats
}

// NewDispatcher creates a dispatcher for synth and starts its control
// goroutine. Call Start to initialize the synthesizer.
func NewDispatcher(synth Synthesizer, opts ...Option) (*Dispatcher, error) {
	if synth == nil {
		return nil, ErrNoSynthesizer
	}

	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Dispatcher{
		synth:   synth,
		config:  cfg,
		clock:   cfg.Clock,
		logger:  cfg.Logger.With("component", "speech.dispatcher"),
		events:  make(chan func()),
		done:    make(chan struct{}),
		readyCh: make(chan struct{}),
	}
	go d.loop()
	return d, nil
}

func (d *Dispatcher) loop() {
	for {
		select {
		case fn := <-d.events:
			fn()
		case <-d.done:
			return
		}
	}
}

// do runs fn on the control goroutine and waits for it. It returns false
// once the dispatcher has shut down.
func (d *Dispatcher) do(fn func()) bool {
	finished := make(chan struct{})
	select {
	case d.events <- func() { fn(); close(finished) }:
	case <-d.done:
		return false
	}
	<-finished
	return true
}

// Start initializes the synthesizer in the background. The dispatcher
// becomes Ready when Init returns nil; pending text is then spoken at once.
// If Init fails the dispatcher stays Uninitialized and keeps holding the
// newest pending utterance.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		err := d.synth.Init(ctx)
		if err != nil {
			d.logger.Error("synthesizer init failed", "error", err)
			d.finishInit(err)
			return
		}
		d.do(d.markReady)
		d.finishInit(nil)
	}()
}

func (d *Dispatcher) finishInit(err error) {
	d.readyOnce.Do(func() {
		d.initErr = err
		close(d.readyCh)
	})
}

// WaitReady blocks until synthesizer initialization finishes and returns
// its error.
func (d *Dispatcher) WaitReady(ctx context.Context) error {
	select {
	case <-d.readyCh:
		return d.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Speak requests that text be spoken. Blank text is ignored, as is any
// request after Shutdown.
func (d *Dispatcher) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		d.do(func() { d.stats.Ignored++ })
		return
	}
	d.do(func() { d.speak(text) })
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	state := StateShutdown
	d.do(func() { state = d.state })
	return state
}

// Ready reports whether the synthesizer finished initializing.
func (d *Dispatcher) Ready() bool {
	return d.State() == StateReady
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	var s Stats
	if !d.do(func() { s = d.snapshot() }) {
		s = Stats{State: StateShutdown.String()}
	}
	return s
}

// Shutdown cancels the pending timer, drops the pending utterance and
// releases the synthesizer. It is terminal; later calls are no-ops.
func (d *Dispatcher) Shutdown() error {
	var first bool
	d.do(func() {
		if d.state == StateShutdown {
			return
		}
		first = true
		d.cancelTimer()
		if d.pending != nil {
			d.logger.Debug("dropping pending utterance on shutdown", "text", d.pending.Text)
		}
		d.pending = nil
		d.state = StateShutdown
	})
	if !first {
		return nil
	}
	close(d.done)

	stopErr := d.synth.Stop()
	closeErr := d.synth.Close()
	d.logger.Info("speech dispatcher shut down")
	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

func (d *Dispatcher) speak(text string) {
	if d.state == StateShutdown {
		return
	}
	d.stats.Requested++

	req := &Request{ID: uuid.NewString(), Text: text, RequestedAt: d.clock.Now()}

	if d.state != StateReady {
		d.replacePending(req)
		d.logger.Debug("synthesizer not ready, holding utterance", "text", text)
		return
	}

	elapsed := req.RequestedAt.Sub(d.lastDispatch)
	if !d.hasDispatched || elapsed >= d.config.RateLimit {
		d.cancelTimer()
		if d.pending != nil {
			d.stats.Superseded++
			d.pending = nil
		}
		d.dispatch(req)
		return
	}

	d.replacePending(req)
	d.arm(d.config.RateLimit - elapsed)
}

func (d *Dispatcher) replacePending(req *Request) {
	if d.pending != nil {
		d.stats.Superseded++
	}
	d.pending = req
}

// arm replaces any outstanding timer with one that fires after wait.
func (d *Dispatcher) arm(wait time.Duration) {
	d.cancelTimer()
	d.timerSeq++
	seq := d.timerSeq
	d.timer = d.clock.AfterFunc(wait, func() {
		d.do(func() { d.fire(seq) })
	})
}

func (d *Dispatcher) cancelTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.timerSeq++
}

// fire dispatches the pending utterance unconditionally. Callbacks from a
// timer that has since been replaced or cancelled are ignored.
func (d *Dispatcher) fire(seq uint64) {
	if seq != d.timerSeq || d.state != StateReady {
		return
	}
	d.timer = nil
	if req := d.pending; req != nil {
		d.pending = nil
		d.dispatch(req)
	}
}

func (d *Dispatcher) markReady() {
	if d.state != StateUninitialized {
		return
	}
	d.state = StateReady
	d.logger.Info("synthesizer ready")
	if req := d.pending; req != nil {
		d.pending = nil
		d.dispatch(req)
	}
}

func (d *Dispatcher) dispatch(req *Request) {
	d.lastDispatch = d.clock.Now()
	d.hasDispatched = true
	d.stats.Dispatched++

	if err := d.synth.Speak(req.Text, req.ID); err != nil {
		d.stats.Failures++
		d.logger.Warn("speak failed", "text", req.Text, "utterance_id", req.ID, "error", err)
		return
	}
	d.logger.Debug("dispatched", "text", req.Text, "utterance_id", req.ID,
		"waited", d.lastDispatch.Sub(req.RequestedAt))
}

func (d *Dispatcher) snapshot() Stats {
	s := d.stats
	s.State = d.state.String()
	s.Pending = d.pending != nil
	if d.hasDispatched {
		s.LastDispatch = d.lastDispatch
	}
	return s
}
