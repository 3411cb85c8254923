// Package sink implements the consumers on the far side of the capture
// pipeline. A sink receives converted 16 kHz mono frames from a live
// capture session or the file decode path and turns them into transcripts,
// publishing its results through the event dispatcher.
//
// Two sinks exist: DictationSink accumulates a whole utterance and
// transcribes it once on Finalize; SubtitleSink transcribes a rolling
// window on a timer for live captions.
package sink

import "time"

// Sink consumes converted audio frames from a capture or decode source.
// Push must not block the producer beyond a buffer append. Init and Close
// bracket one logical session; a sink is reusable after Close.
type Sink interface {
	Init() error
	Push(frame []float32)
	SetUpdateInterval(d time.Duration)
	Close() error
}

const (
	// sampleRate is the fixed rate of frames arriving at a sink.
	sampleRate = 16000

	// levelInterval throttles AudioLevel events on the push path.
	levelInterval = 50 * time.Millisecond
)
