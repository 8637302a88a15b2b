// Package config loads wayfinder process configuration from an optional
// YAML file and WAYFINDER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teslashibe/go-wayfinder/pkg/depth"
	"github.com/teslashibe/go-wayfinder/pkg/navigation"
	"github.com/teslashibe/go-wayfinder/pkg/speech"
)

// EnvPrefix is prepended to every environment override, e.g.
// WAYFINDER_SPEECH_RATE_LIMIT=1500ms.
const EnvPrefix = "WAYFINDER"

// Speech backends.
const (
	BackendLog    = "log"    // write utterances to the log
	BackendRemote = "remote" // dial a speaker device
	BackendDevice = "device" // speak through devices connected to /ws/device
)

// Sentinel errors for invalid configuration.
var (
	ErrInvalidBackend = errors.New("config: unknown speech backend")
	ErrMissingURL     = errors.New("config: speech.remote_url required for the remote backend")
	ErrInvalidFormat  = errors.New("config: log.format must be text or json")
)

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	BodyLimit int    `mapstructure:"body_limit"`
}

// NavigationConfig configures the pipeline.
type NavigationConfig struct {
	SafeDistance float64 `mapstructure:"safe_distance"`
	Stride       int     `mapstructure:"stride"`
	MaxViewSize  int     `mapstructure:"max_view_size"`
	Language     string  `mapstructure:"language"`
}

// SpeechConfig configures the dispatcher and its synthesizer.
type SpeechConfig struct {
	RateLimit   time.Duration `mapstructure:"rate_limit"`
	Backend     string        `mapstructure:"backend"`
	RemoteURL   string        `mapstructure:"remote_url"`
	InitTimeout time.Duration `mapstructure:"init_timeout"` // 0 waits forever
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			BodyLimit: 8 * 1024 * 1024,
		},
		Navigation: NavigationConfig{
			SafeDistance: navigation.DefaultSafeDistance,
			Stride:       depth.DefaultStride,
			MaxViewSize:  navigation.DefaultMaxViewSize,
			Language:     "en",
		},
		Speech: SpeechConfig{
			RateLimit: speech.DefaultRateLimit,
			Backend:   BackendLog,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "",
		},
	}
}

// Loader reads configuration through viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment overrides
// registered.
func NewLoader() *Loader {
	v := viper.New()
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("navigation.safe_distance", d.Navigation.SafeDistance)
	v.SetDefault("navigation.stride", d.Navigation.Stride)
	v.SetDefault("navigation.max_view_size", d.Navigation.MaxViewSize)
	v.SetDefault("navigation.language", d.Navigation.Language)
	v.SetDefault("speech.rate_limit", d.Speech.RateLimit)
	v.SetDefault("speech.backend", d.Speech.Backend)
	v.SetDefault("speech.remote_url", d.Speech.RemoteURL)
	v.SetDefault("speech.init_timeout", d.Speech.InitTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Viper exposes the underlying instance so commands can bind flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads path (if non-empty), or wayfinder.yaml from the working
// directory or ./config when present, then validates the result.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		l.v.SetConfigName("wayfinder")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("config")
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// ConfigFile returns the file the loader read, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !(c.Navigation.SafeDistance > 0) {
		return navigation.ErrInvalidSafeDistance
	}
	if _, err := navigation.PhrasebookFor(c.Navigation.Language); err != nil {
		return err
	}
	if c.Navigation.MaxViewSize <= 0 {
		return navigation.ErrInvalidMaxView
	}
	if c.Speech.RateLimit < 0 {
		return speech.ErrInvalidRateLimit
	}
	switch c.Speech.Backend {
	case BackendLog, BackendDevice:
	case BackendRemote:
		if c.Speech.RemoteURL == "" {
			return ErrMissingURL
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Speech.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return ErrInvalidFormat
	}
	return nil
}

// NavigatorOptions converts the navigation section into navigator options.
func (c *Config) NavigatorOptions() ([]navigation.Option, error) {
	phrases, err := navigation.PhrasebookFor(c.Navigation.Language)
	if err != nil {
		return nil, err
	}
	return []navigation.Option{
		navigation.WithSafeDistance(c.Navigation.SafeDistance),
		navigation.WithStride(c.Navigation.Stride),
		navigation.WithMaxViewSize(c.Navigation.MaxViewSize),
		navigation.WithPhrasebook(phrases),
	}, nil
}
