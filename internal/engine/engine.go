// Package engine provides the speech-to-text backends behind the live
// capture and file transcription paths.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default)
//   - server: a running whisper-server over HTTP, for CGO-free builds
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/notune/speechcap/internal/config"
)

// Segment is one timed span of transcribed speech. Start and End are
// offsets from the beginning of the audio handed to Transcribe.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcriber converts audio to text.
type Transcriber interface {
	// Transcribe converts mono 16kHz float32 samples to timed segments.
	// It blocks for the duration of inference.
	Transcribe(samples []float32) ([]Segment, error)
	// Close releases backend resources.
	Close() error
}

// Text joins segments into a single transcript string.
func Text(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		parts = append(parts, s.Text)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.EngineConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "server":
		return NewServerTranscriber(cfg.ServerURL, cfg.Language)
	case "whisper", "":
		return NewWhisperTranscriber(cfg.ModelPath, cfg.Language)
	default:
		return nil, fmt.Errorf("engine: unknown backend %q (supported: whisper, server)", cfg.Backend)
	}
}
