package engine

import (
	"errors"
	"fmt"
	"io"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Compile-time assertion that WhisperTranscriber implements Transcriber.
var _ Transcriber = (*WhisperTranscriber)(nil)

// WhisperTranscriber wraps a local whisper.cpp model. The whisper.cpp
// static library and headers must be available at link time.
type WhisperTranscriber struct {
	model    whisper.Model
	language string
}

// NewWhisperTranscriber loads a whisper ggml model from the given path.
// The caller must call Close when done.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	if modelPath == "" {
		return nil, errors.New("engine: model path must not be empty")
	}
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("engine: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Transcribe runs whisper.cpp over the samples. Each session gets a fresh
// context from the shared model, so concurrent calls do not interfere.
func (t *WhisperTranscriber) Transcribe(samples []float32) ([]Segment, error) {
	ctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("engine: create context: %w", err)
	}
	if t.language != "" {
		if err := ctx.SetLanguage(t.language); err != nil {
			return nil, fmt.Errorf("engine: set language %q: %w", t.language, err)
		}
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("engine: process: %w", err)
	}

	var segs []Segment
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("engine: next segment: %w", err)
		}
		segs = append(segs, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segs, nil
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}
