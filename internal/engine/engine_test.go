package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/notune/speechcap/internal/config"
)

func TestText(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: time.Second, Text: "hello"},
		{Start: time.Second, End: 2 * time.Second, Text: "world"},
	}
	if got, want := Text(segs), "hello world"; got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestTextEmpty(t *testing.T) {
	if got := Text(nil); got != "" {
		t.Errorf("Text(nil) = %q, want empty string", got)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(&config.EngineConfig{Backend: "bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("New error = %v, want unknown backend error", err)
	}
}

func TestNewServerBackendRequiresURL(t *testing.T) {
	if _, err := New(&config.EngineConfig{Backend: "server"}); err == nil {
		t.Error("New with empty server URL should fail")
	}
}

func TestNewWhisperBackendRequiresModel(t *testing.T) {
	if _, err := New(&config.EngineConfig{Backend: "whisper"}); err == nil {
		t.Error("New with empty model path should fail")
	}
}
