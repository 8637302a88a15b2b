// Package server exposes the navigation pipeline over HTTP and WebSocket.
//
// Detector hosts post detection batches to /api/navigation/process or
// stream them over /ws/device. Every processed frame is broadcast to
// dashboards on /ws/results.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-wayfinder/pkg/hub"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/protocol"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// ErrNoNavigator is returned when a server is built without a navigator.
var ErrNoNavigator = errors.New("server: navigator required")

// SpeechStatus reports dispatcher counters for /api/status.
type SpeechStatus interface {
	Stats() speech.Stats
}

// Config holds server settings.
// Use functional options (WithXxx) to set these values.
type Config struct {
	Addr      string
	BodyLimit int
	Speech    SpeechStatus
	Logger    *slog.Logger
}

// Option is a functional option for configuring a Server.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithBodyLimit sets the maximum request body in bytes. Depth planes make
// requests large.
func WithBodyLimit(n int) Option {
	return func(c *Config) {
		c.BodyLimit = n
	}
}

// WithSpeech reports the given dispatcher's stats on /api/status.
func WithSpeech(s SpeechStatus) Option {
	return func(c *Config) {
		c.Speech = s
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		BodyLimit: 8 * 1024 * 1024,
		Logger:    slog.Default(),
	}
}

// Server is the navigation HTTP/WebSocket service.
type Server struct {
	app     *fiber.App
	config  Config
	logger  *slog.Logger
	nav     *navigation.Navigator
	results *hub.Hub
	devices *DeviceHub
	started time.Time
}

// New creates a server around nav and registers its routes.
func New(nav *navigation.Navigator, opts ...Option) (*Server, error) {
	if nav == nil {
		return nil, ErrNoNavigator
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		config:  cfg,
		logger:  cfg.Logger.With("component", "server"),
		nav:     nav,
		results: hub.New("results", hub.WithLogger(cfg.Logger), hub.WithReplayLatest(true)),
		started: time.Now(),
	}
	s.devices = NewDeviceHub(nav, cfg.Logger)
	s.devices.OnResult(s.publish)

	app := fiber.New(fiber.Config{
		AppName:               "Wayfinder",
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/navigation/process", s.handleProcess)
	api.Post("/navigation/reset", s.handleReset)
	api.Get("/devices", s.handleDevices)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/results", s.results.Handler())
	s.devices.RegisterRoutes(app)

	s.app = app
	return s, nil
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Devices returns the device hub. It doubles as a speech synthesizer that
// speaks through connected devices.
func (s *Server) Devices() *DeviceHub {
	return s.devices
}

// Results returns the dashboard broadcast hub.
func (s *Server) Results() *hub.Hub {
	return s.results
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.results.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

// publish broadcasts a processed frame to dashboards.
func (s *Server) publish(result protocol.ProcessResult) {
	msg, err := protocol.NewMessage(protocol.TypeResult, result)
	if err != nil {
		s.logger.Warn("encode result", "error", err)
		return
	}
	if err := s.results.BroadcastMessage(msg); err != nil {
		s.logger.Warn("broadcast result", "error", err)
	}
}
