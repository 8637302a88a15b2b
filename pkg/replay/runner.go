package replay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// Epoch is the simulated wall time at offset zero.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Config holds runner settings.
type Config struct {
	Logger *slog.Logger

	// InitTimeout bounds each wait for the simulated synthesizer.
	InitTimeout time.Duration
}

// Option is a functional option for configuring a run.
type Option func(*Config)

// WithLogger sets the structured logger passed down to the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithInitTimeout sets how long to wait for the synthesizer to report
// ready after it is released.
func WithInitTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.InitTimeout = d
	}
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		Logger:      slog.Default(),
		InitTimeout: 5 * time.Second,
	}
}

// FrameResult is the outcome of one replayed frame.
type FrameResult struct {
	At          Duration `json:"at"`
	Instruction string   `json:"instruction"`
	Expected    string   `json:"expected,omitempty"`
	Obstacles   int      `json:"obstacles"`
	UsedDepth   bool     `json:"usedDepth"`
	Changed     bool     `json:"changed"`
}

// Report summarises a run.
type Report struct {
	Name     string        `json:"name"`
	Frames   []FrameResult `json:"frames"`
	Spoken   []Utterance   `json:"spoken"`
	Speech   speech.Stats  `json:"speech"`
	Depth    depth.Stats   `json:"depth"`
	Failures []string      `json:"failures,omitempty"`
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

func (r *Report) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run replays s through a fresh navigator and dispatcher on a manual
// clock. Utterances are stamped with their offset from the session start.
// The returned error covers setup problems; unmet expectations are
// reported in Report.Failures.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Report, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger.With("component", "replay", "scenario", s.Name)

	clock := speech.NewManualClock(Epoch)
	synth, release := newSynthesizer(s.SpeechReady.Duration > 0)
	synth.Now = clock.Now

	speechOpts := []speech.Option{speech.WithClock(clock), speech.WithLogger(cfg.Logger)}
	if s.RateLimit != nil {
		speechOpts = append(speechOpts, speech.WithRateLimit(s.RateLimit.Duration))
	}
	dispatcher, err := speech.NewDispatcher(synth, speechOpts...)
	if err != nil {
		return nil, err
	}
	defer dispatcher.Shutdown()

	navOpts, err := navigatorOptions(s, cfg.Logger)
	if err != nil {
		return nil, err
	}
	nav, err := navigation.New(depth.NewCache(depth.WithLogger(cfg.Logger)), dispatcher, navOpts...)
	if err != nil {
		return nil, err
	}

	dispatcher.Start(ctx)

	r := &runner{
		clock:      clock,
		dispatcher: dispatcher,
		release:    release,
		readyAt:    s.SpeechReady.Duration,
		timeout:    cfg.InitTimeout,
	}
	if release == nil {
		if err := r.waitReady(ctx); err != nil {
			return nil, err
		}
	}

	report := &Report{Name: s.Name}
	for i, f := range s.Frames {
		if err := r.advanceTo(ctx, f.At.Duration); err != nil {
			return nil, err
		}
		if f.Reset {
			nav.Reset()
		}

		in := navigation.Input{
			ViewWidth:  s.View.Width,
			ViewHeight: s.View.Height,
			Detections: f.Detections,
		}
		if f.Depth != nil {
			// Validate already decoded every depth spec once.
			in.Depth, _ = f.Depth.Plane()
		}

		res, err := nav.Process(in)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		report.Frames = append(report.Frames, FrameResult{
			At:          f.At,
			Instruction: res.Instruction,
			Expected:    f.Expect,
			Obstacles:   len(res.Obstacles),
			UsedDepth:   res.UsedDepth,
			Changed:     res.Spoken,
		})
		if f.Expect != "" && f.Expect != res.Instruction {
			report.failf("frame %d at %s: instruction %q, want %q", i, f.At, res.Instruction, f.Expect)
		}
	}

	// Let a deferred request, or a late synthesizer, drain.
	window := speech.DefaultRateLimit
	if s.RateLimit != nil {
		window = s.RateLimit.Duration
	}
	end := r.elapsed + window
	if r.release != nil && r.readyAt > end {
		end = r.readyAt
	}
	if err := r.advanceTo(ctx, end); err != nil {
		return nil, err
	}

	for _, call := range synth.Spoken() {
		report.Spoken = append(report.Spoken, Utterance{
			At:   Duration{call.Time.Sub(Epoch)},
			Text: call.Text,
		})
	}
	report.Speech = dispatcher.Stats()
	report.Depth = nav.DepthStats()
	checkSpoken(report, s.ExpectSpoken)

	logger.Info("replay finished",
		"frames", len(report.Frames),
		"spoken", len(report.Spoken),
		"failures", len(report.Failures),
	)
	return report, nil
}

func newSynthesizer(gated bool) (*speech.Mock, func(error)) {
	if gated {
		return speech.NewGatedMock()
	}
	return speech.NewMock(), nil
}

func navigatorOptions(s *Scenario, logger *slog.Logger) ([]navigation.Option, error) {
	phrases, err := navigation.PhrasebookFor(s.Language)
	if err != nil {
		return nil, err
	}
	opts := []navigation.Option{
		navigation.WithPhrasebook(phrases),
		navigation.WithLogger(logger),
	}
	if s.SafeDistance > 0 {
		opts = append(opts, navigation.WithSafeDistance(s.SafeDistance))
	}
	return opts, nil
}

type runner struct {
	clock      *speech.ManualClock
	dispatcher *speech.Dispatcher
	release    func(error)
	readyAt    time.Duration
	timeout    time.Duration
	elapsed    time.Duration
}

// advanceTo moves the simulated clock forward to offset, releasing the
// synthesizer on the way when its ready time falls inside the step.
func (r *runner) advanceTo(ctx context.Context, offset time.Duration) error {
	if r.release != nil && r.readyAt <= offset {
		r.step(r.readyAt)
		release := r.release
		r.release = nil
		release(nil)
		if err := r.waitReady(ctx); err != nil {
			return err
		}
	}
	r.step(offset)
	return nil
}

func (r *runner) step(offset time.Duration) {
	if offset <= r.elapsed {
		return
	}
	r.clock.Advance(offset - r.elapsed)
	r.elapsed = offset
}

func (r *runner) waitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.dispatcher.WaitReady(ctx); err != nil {
		return fmt.Errorf("replay: synthesizer init: %w", err)
	}
	return nil
}

func checkSpoken(r *Report, want []Utterance) {
	if len(want) == 0 {
		return
	}
	if len(r.Spoken) != len(want) {
		r.failf("spoke %d utterances, want %d: %v", len(r.Spoken), len(want), texts(r.Spoken))
	}
	for i := 0; i < len(want) && i < len(r.Spoken); i++ {
		got, exp := r.Spoken[i], want[i]
		if got.Text != exp.Text || got.At.Duration != exp.At.Duration {
			r.failf("utterance %d: %q at %s, want %q at %s", i, got.Text, got.At, exp.Text, exp.At)
		}
	}
}

func texts(us []Utterance) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Text
	}
	return out
}
