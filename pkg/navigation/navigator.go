package navigation

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
)

// Speaker receives instructions to announce. speech.Dispatcher implements it.
type Speaker interface {
	Speak(text string)
}

// Config holds Navigator settings.
// Use functional options (WithXxx) to set these values.
type Config struct {
	SafeDistance float64    // meters, default 1.2
	Stride       int        // depth sampling step in view pixels, default 4
	MaxViewSize  int        // largest accepted view side in pixels, default 16384
	Phrases      Phrasebook // default English
	Logger       *slog.Logger
}

// Option is a functional option for configuring a Navigator.
type Option func(*Config)

// WithSafeDistance sets the default blocking distance in meters.
func WithSafeDistance(meters float64) Option {
	return func(c *Config) {
		c.SafeDistance = meters
	}
}

// WithStride sets the depth sampling stride.
func WithStride(stride int) Option {
	return func(c *Config) {
		c.Stride = stride
	}
}

// WithPhrasebook sets the instruction language.
func WithPhrasebook(p Phrasebook) Option {
	return func(c *Config) {
		c.Phrases = p
	}
}

// WithMaxViewSize sets the largest view width or height Process accepts.
func WithMaxViewSize(px int) Option {
	return func(c *Config) {
		c.MaxViewSize = px
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default navigator configuration.
func DefaultConfig() Config {
	return Config{
		SafeDistance: DefaultSafeDistance,
		Stride:       depth.DefaultStride,
		MaxViewSize:  DefaultMaxViewSize,
		Phrases:      English,
		Logger:       slog.Default(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !validSafeDistance(c.SafeDistance) {
		return ErrInvalidSafeDistance
	}
	if c.MaxViewSize <= 0 {
		return ErrInvalidMaxView
	}
	return nil
}

func validSafeDistance(d float64) bool {
	return d > 0 && !math.IsInf(d, 0) && !math.IsNaN(d)
}

// DefaultMaxViewSize bounds view dimensions. Depth sampling walks the view
// in stride steps, so its cost grows with the square of the view side.
const DefaultMaxViewSize = 16384

// Input is one detection batch from the detector host.
type Input struct {
	ViewWidth  int
	ViewHeight int
	Detections []RawDetection

	// Depth is nil when the sensor session is not tracking.
	Depth *depth.Plane

	// SafeDistance overrides the navigator default when positive.
	SafeDistance float64
}

// Result is what the pipeline hands back for one frame.
type Result struct {
	Instruction string     `json:"instruction"`
	Obstacles   []Obstacle `json:"obstacles"`
	UsedDepth   bool       `json:"usedDepth"`

	// Spoken is true when the instruction changed and was sent to the Speaker.
	Spoken bool `json:"-"`
}

// Navigator runs the per-frame pipeline:
// parse → depth → obstacles → instruction → speak on change.
//
// Frame processing is serialised; a Navigator may be shared between
// request handlers. The Speaker is called after the frame lock is released.
type Navigator struct {
	cache   *depth.Cache
	speaker Speaker
	config  Config
	logger  *slog.Logger

	mu              sync.Mutex
	lastInstruction string
	changeSeq       uint64

	speakMu      sync.Mutex
	announcedSeq uint64
}

// New creates a Navigator. cache must not be nil; speaker may be nil when
// the caller only wants the results.
func New(cache *depth.Cache, speaker Speaker, opts ...Option) (*Navigator, error) {
	if cache == nil {
		return nil, errors.New("navigation: depth cache required")
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Navigator{
		cache:   cache,
		speaker: speaker,
		config:  cfg,
		logger:  cfg.Logger.With("component", "navigation"),
	}, nil
}

// Process handles one detection batch. Only a non-positive or oversized
// view is an error; malformed detections are dropped and missing depth
// falls back to the box heuristic.
func (n *Navigator) Process(in Input) (Result, error) {
	if in.ViewWidth <= 0 || in.ViewHeight <= 0 {
		return Result{}, ErrInvalidView
	}
	if in.ViewWidth > n.config.MaxViewSize || in.ViewHeight > n.config.MaxViewSize {
		return Result{}, ErrViewTooLarge
	}

	safe := n.config.SafeDistance
	if validSafeDistance(in.SafeDistance) {
		safe = in.SafeDistance
	}

	n.mu.Lock()
	dets := ParseDetections(in.Detections, in.ViewWidth, in.ViewHeight)

	var frame *depth.Frame
	if in.Depth != nil {
		f, err := n.cache.EnsurePlane(in.Depth)
		if err != nil {
			n.logger.Debug("depth unavailable for frame", "error", err)
		} else {
			frame = f
		}
	}

	obstacles := BuildObstacles(dets, frame, in.ViewWidth, in.ViewHeight, n.config.Stride)
	engine := Engine{Phrases: n.config.Phrases, SafeDistance: safe}
	instruction := engine.Decide(obstacles)

	result := Result{
		Instruction: instruction,
		Obstacles:   obstacles,
		UsedDepth:   frame != nil,
	}

	var seq uint64
	if instruction != "" && instruction != n.lastInstruction {
		n.lastInstruction = instruction
		n.changeSeq++
		seq = n.changeSeq
		result.Spoken = true
	}
	n.mu.Unlock()

	if result.Spoken {
		n.announce(seq, instruction)
		n.logger.Info("instruction changed",
			"instruction", instruction,
			"obstacles", len(obstacles),
			"used_depth", result.UsedDepth,
		)
	}

	return result, nil
}

// announce hands a changed instruction to the speaker outside the frame
// lock, so a slow speaker never stalls frame processing. A change that was
// overtaken by a newer one while waiting is dropped.
func (n *Navigator) announce(seq uint64, instruction string) {
	if n.speaker == nil {
		return
	}
	n.speakMu.Lock()
	defer n.speakMu.Unlock()
	if seq <= n.announcedSeq {
		return
	}
	n.announcedSeq = seq
	n.speaker.Speak(instruction)
}

// Reset clears cached depth. Call it when the sensor session pauses so a
// tracking gap never serves stale distances.
func (n *Navigator) Reset() {
	n.cache.Reset()
	n.logger.Debug("depth cache reset")
}

// LastInstruction returns the most recently announced instruction.
func (n *Navigator) LastInstruction() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastInstruction
}

// Config returns the navigator configuration.
func (n *Navigator) Config() Config {
	return n.config
}

// DepthStats returns the depth cache counters.
func (n *Navigator) DepthStats() depth.Stats {
	return n.cache.Stats()
}
