package depth

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// AcquireFunc fetches the raw plane for the current sensor frame. It is only
// called when the cache does not already hold that frame's timestamp.
type AcquireFunc func() (*Plane, error)

// Cache holds the most recently decoded depth frame, keyed by timestamp.
//
// Decoding is serialised so a given timestamp is decoded at most once.
// Reset never waits on a decode in progress: it bumps a generation counter
// and the decode that straddled the reset is dropped.
type Cache struct {
	logger *slog.Logger

	// decodeMu serialises the acquire/decode path.
	decodeMu sync.Mutex

	mu    sync.Mutex
	frame *Frame
	gen   uint64

	decodes   atomic.Uint64
	hits      atomic.Uint64
	failures  atomic.Uint64
	discarded atomic.Uint64
	resets    atomic.Uint64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Decodes   uint64 `json:"decodes"`
	Hits      uint64 `json:"hits"`
	Failures  uint64 `json:"failures"`
	Discarded uint64 `json:"discarded"`
	Resets    uint64 `json:"resets"`
	Timestamp int64  `json:"timestamp"` // cached frame, 0 when empty
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithLogger sets the structured logger for the cache.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger.With("component", "depth.cache")
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		logger: slog.Default().With("component", "depth.cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure returns the decoded frame for timestamp, acquiring and decoding it
// only when the cache holds a different timestamp (or nothing).
//
// Any failure is returned wrapped in ErrUnavailable and never panics;
// callers are expected to carry on without depth.
func (c *Cache) Ensure(timestamp int64, acquire AcquireFunc) (frame *Frame, err error) {
	if timestamp == 0 {
		return nil, ErrNoTimestamp
	}

	if f := c.lookup(timestamp); f != nil {
		c.hits.Add(1)
		return f, nil
	}
	if acquire == nil {
		return nil, ErrNoSource
	}

	c.decodeMu.Lock()
	defer c.decodeMu.Unlock()

	// Another caller may have decoded this timestamp while we waited.
	c.mu.Lock()
	if c.frame != nil && c.frame.Timestamp == timestamp {
		f := c.frame
		c.mu.Unlock()
		c.hits.Add(1)
		return f, nil
	}
	gen := c.gen
	c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.failures.Add(1)
			frame, err = nil, &DecodeError{Timestamp: timestamp, Reason: "panic", Err: fmt.Errorf("%v", r)}
			c.logger.Warn("depth decode panicked", "timestamp", timestamp, "panic", r)
		}
	}()

	plane, err := acquire()
	if err != nil {
		c.failures.Add(1)
		c.logger.Debug("depth acquire failed", "timestamp", timestamp, "error", err)
		return nil, &DecodeError{Timestamp: timestamp, Reason: "acquire", Err: err}
	}
	if plane == nil {
		c.failures.Add(1)
		return nil, &DecodeError{Timestamp: timestamp, Reason: "no plane"}
	}

	decoded, err := plane.decode()
	if err != nil {
		c.failures.Add(1)
		c.logger.Debug("depth decode failed", "timestamp", timestamp, "error", err)
		return nil, err
	}
	decoded.Timestamp = timestamp
	c.decodes.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		c.discarded.Add(1)
		c.logger.Debug("depth decode discarded after reset", "timestamp", timestamp)
		return nil, ErrDiscarded
	}
	c.frame = decoded
	return decoded, nil
}

// EnsurePlane is Ensure for a plane that is already in hand.
func (c *Cache) EnsurePlane(p *Plane) (*Frame, error) {
	if p == nil {
		return nil, ErrNoSource
	}
	return c.Ensure(p.Timestamp, func() (*Plane, error) { return p, nil })
}

// Current returns the cached frame or nil.
func (c *Cache) Current() *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Reset drops the cached frame. Safe to call at any time and repeatedly.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.frame = nil
	c.gen++
	c.mu.Unlock()
	c.resets.Add(1)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Decodes:   c.decodes.Load(),
		Hits:      c.hits.Load(),
		Failures:  c.failures.Load(),
		Discarded: c.discarded.Load(),
		Resets:    c.resets.Load(),
	}
	if f := c.Current(); f != nil {
		s.Timestamp = f.Timestamp
	}
	return s
}

func (c *Cache) lookup(timestamp int64) *Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame != nil && c.frame.Timestamp == timestamp {
		return c.frame
	}
	return nil
}
