package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/notune/speechcap/internal/config"
	"github.com/notune/speechcap/internal/logging"
)

// Shared by all subcommands, set in PersistentPreRunE.
var (
	cfg *config.Config
	log zerolog.Logger
)

func newRootCmd() *cobra.Command {
	var configPath string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "speechcap",
		Short: "Speech capture and transcription",
		Long: `speechcap captures audio from a microphone or the system output and
feeds it to a speech-to-text engine. It can type transcripts into the
focused application, print live captions, or transcribe audio files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			switch cmd.Name() {
			case "devices", "model":
				// Setup and inspection commands run without a complete
				// engine config.
			default:
				if err := cfg.Validate(); err != nil {
					return fmt.Errorf("config validation: %w", err)
				}
			}
			log = logging.New(cfg.Log)

			if configPath == "" {
				if path, err := config.WriteDefault(); err != nil {
					log.Warn().Err(err).Msg("writing default config")
				} else if path != "" {
					log.Info().Str("path", path).Msg("wrote default config")
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/speechcap/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn or error")

	cmd.AddCommand(
		newListenCmd(),
		newSubtitlesCmd(),
		newFileCmd(),
		newDevicesCmd(),
		newModelCmd(),
	)

	return cmd
}

// loadConfig loads the config from the given path, or falls back to the
// default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}
