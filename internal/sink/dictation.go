package sink

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/audio"
	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
)

// Compile-time assertion that DictationSink implements Sink.
var _ Sink = (*DictationSink)(nil)

// DictationSink buffers a whole utterance and transcribes it in one shot.
// The owning surface calls Finalize after the capture session has stopped,
// or Discard when the session was cancelled. Transcription runs on its own
// goroutine so Finalize returns immediately; the result arrives as a
// TranscriptReady event carrying the session id the surface passed in.
type DictationSink struct {
	tr   engine.Transcriber
	disp *events.Dispatcher
	log  zerolog.Logger

	mu        sync.Mutex
	buf       []float32
	lastLevel time.Time
}

// NewDictation creates a dictation sink publishing through disp.
func NewDictation(tr engine.Transcriber, disp *events.Dispatcher, log zerolog.Logger) *DictationSink {
	return &DictationSink{tr: tr, disp: disp, log: log}
}

// Init resets the utterance buffer and announces the listening state.
func (s *DictationSink) Init() error {
	s.mu.Lock()
	s.buf = nil
	s.lastLevel = time.Time{}
	s.mu.Unlock()
	s.disp.Publish(events.StatusChanged{Text: "Listening..."})
	return nil
}

// Push appends the frame to the utterance buffer and emits a throttled
// AudioLevel event for the meter.
func (s *DictationSink) Push(frame []float32) {
	s.mu.Lock()
	s.buf = append(s.buf, frame...)
	emit := time.Since(s.lastLevel) >= levelInterval
	if emit {
		s.lastLevel = time.Now()
	}
	s.mu.Unlock()

	if emit {
		s.disp.Publish(events.AudioLevel{Level: audio.Level(frame)})
	}
}

// SetUpdateInterval is a no-op; dictation transcribes once on Finalize.
func (s *DictationSink) SetUpdateInterval(time.Duration) {}

// Close marks the end of audio intake. The buffered utterance stays
// available for Finalize or Discard.
func (s *DictationSink) Close() error { return nil }

// Finalize transcribes the buffered utterance on a background goroutine
// and publishes the transcript tagged with sessionID. An empty buffer just
// clears the status.
func (s *DictationSink) Finalize(sessionID string) {
	s.mu.Lock()
	buf := s.buf
	s.buf = nil
	s.mu.Unlock()

	if len(buf) == 0 {
		s.disp.Publish(events.StatusChanged{Text: ""})
		return
	}

	s.disp.Publish(events.StatusChanged{Text: "Transcribing..."})
	go func() {
		segs, err := s.tr.Transcribe(buf)
		if err != nil {
			s.log.Error().Err(err).Msg("transcription failed")
			s.disp.Publish(events.StatusChanged{Text: ""})
			return
		}
		if text := engine.Text(segs); text != "" {
			s.disp.Publish(events.TranscriptReady{SessionID: sessionID, Text: text})
		}
		s.disp.Publish(events.StatusChanged{Text: ""})
	}()
}

// Discard drops the buffered utterance without transcribing it.
func (s *DictationSink) Discard() {
	s.mu.Lock()
	s.buf = nil
	s.mu.Unlock()
	s.disp.Publish(events.StatusChanged{Text: ""})
}
