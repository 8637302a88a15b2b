package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-wayfinder/internal/config"
	"github.com/teslashibe/go-wayfinder/internal/log"
	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/server"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

func newServeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the navigation service",
		Long: `Run the HTTP/WebSocket navigation service.

Detector hosts post frames to /api/navigation/process or stream them over
/ws/device. Dashboards watch results on /ws/results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, appConfig, log.L())
		},
	}

	flags := cmd.Flags()
	flags.String("addr", defaults.Server.Addr, "listen address")
	flags.Float64("safe-distance", defaults.Navigation.SafeDistance, "blocking distance in meters")
	flags.String("language", defaults.Navigation.Language, "instruction language (en, es)")
	flags.String("backend", defaults.Speech.Backend, "speech backend: log, remote, device")
	flags.String("remote-url", "", "speaker WebSocket URL for the remote backend")
	flags.Duration("rate-limit", defaults.Speech.RateLimit, "minimum gap between utterances")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	navOpts, err := cfg.NavigatorOptions()
	if err != nil {
		return err
	}
	navOpts = append(navOpts, navigation.WithLogger(logger))

	// The device backend speaks through the server's device hub, which
	// needs the navigator, which needs a speaker. speechLink closes the loop.
	link := &speechLink{}
	nav, err := navigation.New(depth.NewCache(depth.WithLogger(logger)), link, navOpts...)
	if err != nil {
		return err
	}

	srv, err := server.New(nav,
		server.WithAddr(cfg.Server.Addr),
		server.WithBodyLimit(cfg.Server.BodyLimit),
		server.WithSpeech(link),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	synth, err := newSynthesizer(cfg, srv, logger)
	if err != nil {
		return err
	}
	dispatcher, err := speech.NewDispatcher(synth,
		speech.WithRateLimit(cfg.Speech.RateLimit),
		speech.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	link.set(dispatcher)
	defer func() {
		if err := dispatcher.Shutdown(); err != nil {
			logger.Warn("speech shutdown", "error", err)
		}
	}()

	initCtx := ctx
	if cfg.Speech.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, cfg.Speech.InitTimeout)
		defer cancel()
	}
	dispatcher.Start(initCtx)

	logger.Info("wayfinder starting",
		"addr", cfg.Server.Addr,
		"backend", cfg.Speech.Backend,
		"language", nav.Config().Phrases.Language,
		"safe_distance", nav.Config().SafeDistance,
		"rate_limit", cfg.Speech.RateLimit,
	)
	return srv.Run(ctx)
}

func newSynthesizer(cfg *config.Config, srv *server.Server, logger *slog.Logger) (speech.Synthesizer, error) {
	switch cfg.Speech.Backend {
	case config.BackendLog:
		return speech.NewLogSynthesizer(logger), nil
	case config.BackendRemote:
		return speech.NewRemoteSynthesizer(cfg.Speech.RemoteURL,
			speech.WithRemoteLanguage(cfg.Navigation.Language),
			speech.WithRemoteLogger(logger),
			speech.WithReconnect(true),
		)
	case config.BackendDevice:
		return srv.Devices(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Speech.Backend)
	}
}

// speechLink forwards instructions to the dispatcher once it exists.
type speechLink struct {
	d atomic.Pointer[speech.Dispatcher]
}

func (l *speechLink) set(d *speech.Dispatcher) {
	l.d.Store(d)
}

func (l *speechLink) Speak(text string) {
	if d := l.d.Load(); d != nil {
		d.Speak(text)
	}
}

func (l *speechLink) Stats() speech.Stats {
	if d := l.d.Load(); d != nil {
		return d.Stats()
	}
	return speech.Stats{State: speech.StateUninitialized.String()}
}
