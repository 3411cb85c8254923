package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "speechcap.log")

	logger := New(config.LogConfig{Level: "debug", File: path})
	logger.Info().Msg("hello from test")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message, got %q", data)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New(config.LogConfig{Level: "chatty"})
	if got := logger.GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("level = %v, want %v", got, zerolog.InfoLevel)
	}
}

func TestNewLevelApplied(t *testing.T) {
	logger := New(config.LogConfig{Level: "error"})
	if got := logger.GetLevel(); got != zerolog.ErrorLevel {
		t.Errorf("level = %v, want %v", got, zerolog.ErrorLevel)
	}
}
