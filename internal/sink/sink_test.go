package sink

import (
	"sync"
	"testing"
	"time"

	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
)

// scriptedTranscriber returns canned segments per call and records the
// samples it was given.
type scriptedTranscriber struct {
	mu      sync.Mutex
	inputs  [][]float32
	scripts [][]engine.Segment
	errs    []error
}

func (f *scriptedTranscriber) Transcribe(samples []float32) ([]engine.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.inputs)
	f.inputs = append(f.inputs, append([]float32(nil), samples...))
	var segs []engine.Segment
	if i < len(f.scripts) {
		segs = f.scripts[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return segs, err
}

func (f *scriptedTranscriber) Close() error { return nil }

func (f *scriptedTranscriber) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *scriptedTranscriber) input(i int) []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[i]
}

// collector records dispatcher deliveries for inspection.
type collector struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *collector) handle(ev events.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.events))
	copy(out, c.events)
	return out
}

func statuses(evs []events.Event) []string {
	var out []string
	for _, ev := range evs {
		if s, ok := ev.(events.StatusChanged); ok {
			out = append(out, s.Text)
		}
	}
	return out
}

func transcripts(evs []events.Event) []events.TranscriptReady {
	var out []events.TranscriptReady
	for _, ev := range evs {
		if tr, ok := ev.(events.TranscriptReady); ok {
			out = append(out, tr)
		}
	}
	return out
}

func subtitleTexts(evs []events.Event) []string {
	var out []string
	for _, ev := range evs {
		if s, ok := ev.(events.SubtitleText); ok {
			out = append(out, s.Text)
		}
	}
	return out
}

func levels(evs []events.Event) []float32 {
	var out []float32
	for _, ev := range evs {
		if l, ok := ev.(events.AudioLevel); ok {
			out = append(out, l.Level)
		}
	}
	return out
}

// loudSamples returns n samples well above the silence gate.
func loudSamples(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 0.1
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
