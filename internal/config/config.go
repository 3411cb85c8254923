package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Capture CaptureConfig `yaml:"capture"`
	Listen  ListenConfig  `yaml:"listen"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig selects and configures the transcription backend.
type EngineConfig struct {
	Backend   string `yaml:"backend"` // "whisper" or "server"
	ModelPath string `yaml:"model_path"`
	ServerURL string `yaml:"server_url"`
	Language  string `yaml:"language"` // empty lets the model decide
}

// CaptureConfig holds audio capture settings.
type CaptureConfig struct {
	Source          string  `yaml:"source"`          // "mic" or "loopback"
	Device          string  `yaml:"device"`          // substring of the device name, empty picks the default
	UpdateInterval  float64 `yaml:"update_interval"` // seconds between subtitle updates
	PauseOtherAudio bool    `yaml:"pause_other_audio"`
}

// ListenConfig holds settings for the dictation flow.
type ListenConfig struct {
	Hotkey           []string `yaml:"hotkey"`
	HotkeyMode       string   `yaml:"hotkey_mode"`   // "hold" or "toggle"
	InjectMethod     string   `yaml:"inject_method"` // "type", "paste" or "none"
	AutoStart        bool     `yaml:"auto_start"`
	SelectTranscript bool     `yaml:"select_transcript"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to stderr only
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "speechcap")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the default directory for downloaded models.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "speechcap", "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	modelPath := filepath.Join(DefaultModelsDir(), "ggml-base.en.bin")

	return &Config{
		Engine: EngineConfig{
			Backend:   "whisper",
			ModelPath: modelPath,
		},
		Capture: CaptureConfig{
			Source:          "mic",
			UpdateInterval:  2.0,
			PauseOtherAudio: true,
		},
		Listen: ListenConfig{
			Hotkey:       []string{"ctrl", "shift", "r"},
			HotkeyMode:   "toggle",
			InjectMethod: "type",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// WriteDefault writes a commented default config file to the default path
// unless one already exists. It returns the path written, or "" when a
// config file was already present.
func WriteDefault() (string, error) {
	dir := DefaultConfigDir()
	if dir == "" {
		return "", fmt.Errorf("cannot determine home directory")
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	header := "# speechcap configuration. Values below are the defaults.\n\n"

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Engine.ModelPath = expandTilde(cfg.Engine.ModelPath)
	cfg.Log.File = expandTilde(cfg.Log.File)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	switch c.Engine.Backend {
	case "whisper", "":
		if c.Engine.ModelPath == "" {
			return fmt.Errorf("engine.model_path must not be empty")
		}
	case "server":
		if c.Engine.ServerURL == "" {
			return fmt.Errorf("engine.server_url must not be empty for the server backend")
		}
	default:
		return fmt.Errorf("engine.backend must be \"whisper\" or \"server\", got %q", c.Engine.Backend)
	}

	switch c.Capture.Source {
	case "mic", "loopback":
	default:
		return fmt.Errorf("capture.source must be \"mic\" or \"loopback\", got %q", c.Capture.Source)
	}

	if c.Capture.UpdateInterval < 0 {
		return fmt.Errorf("capture.update_interval must be >= 0")
	}

	if len(c.Listen.Hotkey) == 0 {
		return fmt.Errorf("listen.hotkey must not be empty")
	}

	switch c.Listen.HotkeyMode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("listen.hotkey_mode must be \"hold\" or \"toggle\", got %q", c.Listen.HotkeyMode)
	}

	switch c.Listen.InjectMethod {
	case "type", "paste", "none":
	default:
		return fmt.Errorf("listen.inject_method must be \"type\", \"paste\" or \"none\", got %q", c.Listen.InjectMethod)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
