package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayfinder.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if *cfg != want {
		t.Errorf("defaults:\n got %+v\nwant %+v", *cfg, want)
	}
	if cfg.Speech.RateLimit != 1200*time.Millisecond {
		t.Errorf("rate limit: %v", cfg.Speech.RateLimit)
	}
	if cfg.Log.Format != "" {
		t.Errorf("log format should default to empty so GO_ENV picks it: %q", cfg.Log.Format)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
navigation:
  safe_distance: 1.5
  language: es
speech:
  rate_limit: 2s
  backend: device
log:
  level: debug
`)
	t.Setenv("WAYFINDER_SPEECH_RATE_LIMIT", "1500ms")
	t.Setenv("WAYFINDER_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: %q", cfg.Server.Addr)
	}
	if cfg.Navigation.SafeDistance != 1.5 || cfg.Navigation.Language != "es" {
		t.Errorf("navigation: %+v", cfg.Navigation)
	}
	if cfg.Speech.RateLimit != 1500*time.Millisecond {
		t.Errorf("env should override file: rate limit %v", cfg.Speech.RateLimit)
	}
	if cfg.Speech.Backend != BackendDevice {
		t.Errorf("backend: %q", cfg.Speech.Backend)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log: %+v", cfg.Log)
	}
	if cfg.Navigation.Stride != 4 {
		t.Errorf("unset keys keep defaults: stride %d", cfg.Navigation.Stride)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for an explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"zero safe distance", func(c *Config) { c.Navigation.SafeDistance = 0 }, navigation.ErrInvalidSafeDistance},
		{"zero max view", func(c *Config) { c.Navigation.MaxViewSize = 0 }, navigation.ErrInvalidMaxView},
		{"unknown language", func(c *Config) { c.Navigation.Language = "xx" }, navigation.ErrUnknownLanguage},
		{"negative rate limit", func(c *Config) { c.Speech.RateLimit = -time.Second }, speech.ErrInvalidRateLimit},
		{"unknown backend", func(c *Config) { c.Speech.Backend = "carrier-pigeon" }, ErrInvalidBackend},
		{"remote without url", func(c *Config) { c.Speech.Backend = BackendRemote }, ErrMissingURL},
		{"remote with url", func(c *Config) {
			c.Speech.Backend = BackendRemote
			c.Speech.RemoteURL = "ws://speaker.local/ws"
		}, nil},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNavigatorOptions(t *testing.T) {
	cfg := Default()
	cfg.Navigation.Language = "es-MX"
	cfg.Navigation.SafeDistance = 2

	opts, err := cfg.NavigatorOptions()
	if err != nil {
		t.Fatalf("NavigatorOptions: %v", err)
	}
	nc := navigation.DefaultConfig()
	for _, opt := range opts {
		opt(&nc)
	}
	if nc.SafeDistance != 2 || nc.Phrases.Language != "es" || nc.MaxViewSize != navigation.DefaultMaxViewSize {
		t.Errorf("navigator config: %+v", nc)
	}
}
