package sink

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"github.com/notune/speechcap/internal/engine"
	"github.com/notune/speechcap/internal/events"
)

func TestDictationFinalizePublishesTranscript(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := &scriptedTranscriber{scripts: [][]engine.Segment{
		{
			{Start: 0, End: time.Second, Text: "hello"},
			{Start: time.Second, End: 2 * time.Second, Text: "world"},
		},
	}}
	d := events.NewDispatcher(zerolog.Nop())
	c := &collector{}
	if err := d.Subscribe(c.handle); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	s := NewDictation(tr, d, zerolog.Nop())

	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	s.Push(loudSamples(1024))
	s.Push(loudSamples(1024))
	s.Close()
	s.Finalize("sess-1")

	waitFor(t, func() bool {
		sts := statuses(c.snapshot())
		return len(sts) > 0 && sts[len(sts)-1] == ""
	})
	d.Close()

	evs := c.snapshot()
	sts := statuses(evs)
	want := []string{"Listening...", "Transcribing...", ""}
	if len(sts) != len(want) {
		t.Fatalf("statuses = %q, want %q", sts, want)
	}
	for i := range want {
		if sts[i] != want[i] {
			t.Errorf("status %d = %q, want %q", i, sts[i], want[i])
		}
	}

	trs := transcripts(evs)
	if len(trs) != 1 {
		t.Fatalf("got %d transcripts, want 1", len(trs))
	}
	if trs[0].SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", trs[0].SessionID, "sess-1")
	}
	if trs[0].Text != "hello world" {
		t.Errorf("Text = %q, want %q", trs[0].Text, "hello world")
	}

	if got := len(tr.input(0)); got != 2048 {
		t.Errorf("transcriber got %d samples, want 2048", got)
	}
}

func TestDictationDiscardDropsAudio(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := &scriptedTranscriber{}
	d := events.NewDispatcher(zerolog.Nop())
	c := &collector{}
	if err := d.Subscribe(c.handle); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	s := NewDictation(tr, d, zerolog.Nop())

	s.Init()
	s.Push(loudSamples(1024))
	s.Close()
	s.Discard()
	d.Close()

	if got := tr.calls(); got != 0 {
		t.Errorf("transcriber calls = %d, want 0", got)
	}
	evs := c.snapshot()
	if n := len(transcripts(evs)); n != 0 {
		t.Errorf("got %d transcripts after Discard, want 0", n)
	}
	sts := statuses(evs)
	if len(sts) != 2 || sts[0] != "Listening..." || sts[1] != "" {
		t.Errorf("statuses = %q, want [Listening... and empty]", sts)
	}
}

func TestDictationEmptyFinalize(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := &scriptedTranscriber{}
	d := events.NewDispatcher(zerolog.Nop())
	c := &collector{}
	if err := d.Subscribe(c.handle); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	s := NewDictation(tr, d, zerolog.Nop())

	s.Init()
	s.Close()
	s.Finalize("sess-1")
	d.Close()

	if got := tr.calls(); got != 0 {
		t.Errorf("transcriber calls = %d, want 0", got)
	}
	if n := len(transcripts(c.snapshot())); n != 0 {
		t.Errorf("got %d transcripts for empty buffer, want 0", n)
	}
}

func TestDictationTranscribeErrorClearsStatus(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := &scriptedTranscriber{errs: []error{errors.New("inference failed")}}
	d := events.NewDispatcher(zerolog.Nop())
	c := &collector{}
	if err := d.Subscribe(c.handle); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	s := NewDictation(tr, d, zerolog.Nop())

	s.Init()
	s.Push(loudSamples(1024))
	s.Close()
	s.Finalize("sess-1")

	waitFor(t, func() bool {
		sts := statuses(c.snapshot())
		return len(sts) > 0 && sts[len(sts)-1] == ""
	})
	d.Close()

	if n := len(transcripts(c.snapshot())); n != 0 {
		t.Errorf("got %d transcripts after failed inference, want 0", n)
	}
}

func TestDictationLevelEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	tr := &scriptedTranscriber{}
	d := events.NewDispatcher(zerolog.Nop())
	c := &collector{}
	if err := d.Subscribe(c.handle); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	s := NewDictation(tr, d, zerolog.Nop())

	s.Init()
	frame := []float32{0.1, -0.1, 0.1, -0.1}
	s.Push(frame)

	// Park the throttle stamp in the future so the next push is silent.
	s.mu.Lock()
	s.lastLevel = time.Now().Add(time.Hour)
	s.mu.Unlock()
	s.Push(frame)

	s.Close()
	d.Close()

	lvls := levels(c.snapshot())
	if len(lvls) != 1 {
		t.Fatalf("got %d level events, want 1", len(lvls))
	}
	// RMS 0.1 scaled by 6.
	if math.Abs(float64(lvls[0])-0.6) > 1e-4 {
		t.Errorf("level = %v, want 0.6", lvls[0])
	}
}
