// Package capture owns the live audio path: a session state machine that
// opens a capture device, runs a producer goroutine converting raw PCM into
// normalized float32 frames, and hands the frames to an inference sink.
// Stop and Cancel join the producer before returning, so a caller that has
// seen either return knows no further frames will arrive.
package capture

import (
	"time"
)

// SourceKind selects which system audio source a session captures.
type SourceKind int

const (
	// SourceMic captures the default microphone input.
	SourceMic SourceKind = iota
	// SourceLoopback captures the system audio output. Requires a
	// LoopbackGrant and a platform backend with loopback support.
	SourceLoopback
)

func (s SourceKind) String() string {
	switch s {
	case SourceMic:
		return "mic"
	case SourceLoopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// LoopbackGrant is the externally-granted authorization for capturing
// system audio output. The platform issues it; this package only checks
// that one is present.
type LoopbackGrant struct {
	ID string
}

const (
	// targetSampleRate is the rate every frame leaves this package at.
	// The device backend converts to it regardless of hardware rate.
	targetSampleRate = 16000

	// chunkSamples is the producer read granularity. At 16 kHz a chunk is
	// 64ms of audio, small enough that Stop feels immediate.
	chunkSamples = 1024

	// bufferFloorSamples is the minimum device buffering requested, one
	// second of audio. Short device periods below it get absorbed instead
	// of dropped when the producer falls briefly behind.
	bufferFloorSamples = 16000
)

// Config describes one capture session.
type Config struct {
	// SampleRate of frames delivered to the sink. Zero means 16000.
	SampleRate int
	// Channels delivered to the sink. Zero means mono.
	Channels int
	// BitDepth of the device format. Zero means 16.
	BitDepth int
	// BufferSize is the requested device buffer in samples. Values below
	// the one-second floor are raised to it.
	BufferSize int
	// Source selects microphone or system loopback.
	Source SourceKind
	// Grant authorizes loopback capture. Ignored for SourceMic.
	Grant *LoopbackGrant
	// Device optionally selects a capture device by name substring.
	// Empty means the system default.
	Device string
	// UpdateInterval is forwarded to the sink at session start.
	UpdateInterval time.Duration
	// PauseOtherAudio asks the focus coordinator to pause other players
	// for the duration of the session.
	PauseOtherAudio bool
}

// withDefaults fills the zero fields.
func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = targetSampleRate
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.BitDepth == 0 {
		c.BitDepth = 16
	}
	if c.BufferSize < bufferFloorSamples {
		c.BufferSize = bufferFloorSamples
	}
	return c
}

// Device is a live audio source delivering raw little-endian PCM at the
// session's configured format.
//
// Read blocks until data is available and returns io.EOF once the device
// has been closed and remaining buffered audio is drained. A device that
// dies returns ErrDeviceLost (possibly wrapped). Close stops the stream
// and is idempotent; it unblocks a pending Read.
type Device interface {
	Read(p []byte) (int, error)
	Close() error
}

// DeviceInfo describes an enumerated capture device.
type DeviceInfo struct {
	Index     int
	Name      string
	ID        string
	IsDefault bool
}
