// Wayfinder - spoken walking guidance from on-device object detections.
// Serves the navigation pipeline over HTTP/WebSocket and replays recorded
// scenarios offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teslashibe/go-wayfinder/internal/config"
	"github.com/teslashibe/go-wayfinder/internal/log"
)

var (
	configPath string
	appConfig  *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Default()

	root := &cobra.Command{
		Use:          "wayfinder",
		Short:        "Spoken walking guidance from object detections",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loader := config.NewLoader()
			if err := bindFlags(loader.Viper(), cmd.Flags()); err != nil {
				return err
			}
			cfg, err := loader.Load(configPath)
			if err != nil {
				return err
			}
			appConfig = cfg

			logger := log.Init(cfg.Log.Level, cfg.Log.Format)
			if file := loader.ConfigFile(); file != "" {
				logger.Debug("config loaded", "file", file)
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default: ./wayfinder.yaml or ./config/wayfinder.yaml)")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log-format", defaults.Log.Format, "log format: text or json (default json when GO_ENV=production, else text)")

	root.AddCommand(newServeCmd(), newReplayCmd())
	return root
}

// flagKeys maps command-line flags to config keys. Flags a command does not
// define are skipped.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"addr":          "server.addr",
	"safe-distance": "navigation.safe_distance",
	"language":      "navigation.language",
	"backend":       "speech.backend",
	"remote-url":    "speech.remote_url",
	"rate-limit":    "speech.rate_limit",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}
