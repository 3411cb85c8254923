// Command test-capture is a manual test for the audio capture path.
// It records from the configured source for a few seconds and prints a
// live level meter plus frame statistics.
//
// Usage:
//
//	go run ./cmd/test-capture [--seconds 5] [--source mic|loopback] [--device name]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/audio"
	"github.com/notune/speechcap/internal/capture"
	"github.com/notune/speechcap/internal/events"
)

// meterSink feeds frame levels into the dispatcher and counts what the
// producer delivers.
type meterSink struct {
	disp    *events.Dispatcher
	frames  atomic.Uint64
	samples atomic.Uint64
}

func (m *meterSink) Init() error { return nil }

func (m *meterSink) Push(frame []float32) {
	m.frames.Add(1)
	m.samples.Add(uint64(len(frame)))
	m.disp.Publish(events.AudioLevel{Level: audio.Level(frame)})
}

func (m *meterSink) SetUpdateInterval(time.Duration) {}

func (m *meterSink) Close() error { return nil }

func main() {
	seconds := flag.Int("seconds", 5, "capture duration")
	source := flag.String("source", "mic", "capture source: mic or loopback")
	device := flag.String("device", "", "capture device name substring")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()

	disp := events.NewDispatcher(log, events.WithLatestOnlyLevels())
	snk := &meterSink{disp: disp}

	if err := disp.Subscribe(func(ev events.Event) {
		switch e := ev.(type) {
		case events.AudioLevel:
			bar := int(e.Level * 40)
			fmt.Printf("\r[%-40s] %3.0f%%", strings.Repeat("#", bar), e.Level*100)
		case events.CaptureFailed:
			fmt.Printf("\nCapture failed: %v\n", e.Err)
		}
	}); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	cc := capture.Config{Device: *device}
	if *source == "loopback" {
		cc.Source = capture.SourceLoopback
		cc.Grant = &capture.LoopbackGrant{ID: uuid.NewString()}
	}

	fmt.Printf("Capturing %s for %d seconds...\n", *source, *seconds)

	session, err := capture.Start(cc, snk,
		capture.WithLogger(log),
		capture.WithDispatcher(disp),
	)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	time.Sleep(time.Duration(*seconds) * time.Second)
	session.Stop()
	disp.Close()

	frames := snk.frames.Load()
	samples := snk.samples.Load()
	fmt.Printf("\n\nFrames:  %d\n", frames)
	fmt.Printf("Samples: %d (%.1fs at 16kHz)\n", samples, float64(samples)/16000)

	if err := session.Err(); err != nil {
		fmt.Println("Session error:", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}
