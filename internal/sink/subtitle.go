package sink

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/audio"
	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
)

const (
	// windowSamples is the rolling transcription window, 3 s at 16 kHz.
	windowSamples = 48000

	defaultInterval = 2 * time.Second
	minInterval     = 1 * time.Second
	maxInterval     = 5 * time.Second

	// silenceRMS gates inference: ticks whose fresh audio stays at or
	// below this level are skipped.
	silenceRMS = 0.002

	// mergeTolerance absorbs timing jitter between overlapping windows
	// when deciding whether a segment was already committed.
	mergeTolerance = 50 * time.Millisecond
)

// Compile-time assertion that SubtitleSink implements Sink.
var _ Sink = (*SubtitleSink)(nil)

// SubtitleSink produces live captions. Push appends frames to a rolling
// window; a worker wakes every update interval and, when the fresh audio
// is not silence, transcribes the window. Segments are matched against the
// committed timeline so text that was already published is not repeated,
// and newly committed text goes out as a SubtitleText event.
type SubtitleSink struct {
	tr   engine.Transcriber
	disp *events.Dispatcher
	log  zerolog.Logger

	mu          sync.Mutex
	window      []float32
	totalPushed uint64
	freshSumSq  float64
	freshCount  int
	interval    time.Duration
	lastLevel   time.Time
	stop        chan struct{}
	done        chan struct{}

	// committedEnd is touched only by the worker goroutine.
	committedEnd time.Duration
}

// NewSubtitle creates a subtitle sink publishing through disp.
func NewSubtitle(tr engine.Transcriber, disp *events.Dispatcher, log zerolog.Logger) *SubtitleSink {
	return &SubtitleSink{tr: tr, disp: disp, log: log, interval: defaultInterval}
}

// Init resets the window and starts the caption worker.
func (s *SubtitleSink) Init() error {
	s.mu.Lock()
	s.window = nil
	s.totalPushed = 0
	s.freshSumSq = 0
	s.freshCount = 0
	s.lastLevel = time.Time{}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()
	s.committedEnd = 0

	go s.worker(stop, done)
	return nil
}

// Push appends the frame to the rolling window and emits a throttled
// AudioLevel event.
func (s *SubtitleSink) Push(frame []float32) {
	s.mu.Lock()
	s.window = append(s.window, frame...)
	if n := len(s.window) - windowSamples; n > 0 {
		s.window = append(s.window[:0], s.window[n:]...)
	}
	s.totalPushed += uint64(len(frame))
	for _, v := range frame {
		s.freshSumSq += float64(v) * float64(v)
	}
	s.freshCount += len(frame)

	emit := time.Since(s.lastLevel) >= levelInterval
	if emit {
		s.lastLevel = time.Now()
	}
	s.mu.Unlock()

	if emit {
		s.disp.Publish(events.AudioLevel{Level: audio.Level(frame)})
	}
}

// SetUpdateInterval sets the caption cadence, clamped to 1-5 seconds.
func (s *SubtitleSink) SetUpdateInterval(d time.Duration) {
	if d < minInterval {
		d = minInterval
	} else if d > maxInterval {
		d = maxInterval
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// Close stops the caption worker and waits for it to exit.
func (s *SubtitleSink) Close() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (s *SubtitleSink) worker(stop, done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		d := s.interval
		s.mu.Unlock()
		select {
		case <-stop:
			return
		case <-time.After(d):
			s.tick()
		}
	}
}

// tick transcribes the current window when the audio since the last tick
// is loud enough, then commits segments the timeline has not seen yet.
func (s *SubtitleSink) tick() {
	s.mu.Lock()
	if s.freshCount == 0 {
		s.mu.Unlock()
		return
	}
	rms := math.Sqrt(s.freshSumSq / float64(s.freshCount))
	s.freshSumSq = 0
	s.freshCount = 0
	if rms <= silenceRMS {
		s.mu.Unlock()
		return
	}
	window := append([]float32(nil), s.window...)
	windowStart := s.totalPushed - uint64(len(window))
	s.mu.Unlock()

	segs, err := s.tr.Transcribe(window)
	if err != nil {
		s.log.Warn().Err(err).Msg("subtitle transcription failed")
		return
	}

	base := time.Duration(windowStart) * time.Second / sampleRate
	var fresh []string
	for _, seg := range segs {
		if base+seg.Start < s.committedEnd-mergeTolerance {
			continue
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			fresh = append(fresh, text)
		}
		if end := base + seg.End; end > s.committedEnd {
			s.committedEnd = end
		}
	}
	if len(fresh) > 0 {
		s.disp.Publish(events.SubtitleText{Text: strings.Join(fresh, " ")})
	}
}
