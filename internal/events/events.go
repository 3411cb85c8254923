// Package events carries inference and session notifications from the
// goroutines that produce them to the single presentation surface that
// consumes them. The surface registers one handler; a dedicated delivery
// goroutine drains a FIFO queue so handlers always run on the same
// goroutine, in publish order, regardless of which thread the engine or
// the capture loop called from.
package events

// Event is one notification delivered to the subscriber. The concrete
// types below are the only implementations.
type Event interface {
	event()
}

// StatusChanged reports a human-readable engine or session phase, such as
// model loading progress. An empty Text clears the status display.
type StatusChanged struct {
	Text string
}

// TranscriptReady carries the final transcript of a dictation session or a
// file transcription. SessionID identifies which session produced it so a
// surface can ignore results from a session it has already abandoned.
type TranscriptReady struct {
	SessionID string
	Text      string
}

// AudioLevel reports the current input level in [0.0, 1.0] for meter
// display. Emitted at most every 50ms while capturing.
type AudioLevel struct {
	Level float32
}

// SubtitleText carries the rolling caption text for overlay display.
type SubtitleText struct {
	Text string
}

// CaptureFailed reports a fatal device error that ended a session.
type CaptureFailed struct {
	Err error
}

func (StatusChanged) event()   {}
func (TranscriptReady) event() {}
func (AudioLevel) event()      {}
func (SubtitleText) event()    {}
func (CaptureFailed) event()   {}
