// Package hotkey provides a global hotkey listener using gohook.
// It supports "hold" mode (press to capture, release to stop) and
// "toggle" mode (press to start a capture session, press again to stop it).
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
)

// EventType indicates whether capture should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start capture).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop capture).
	EventStop
)

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	mode string // "hold" or "toggle"
	log  zerolog.Logger
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	active bool
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "r"]).
// mode must be "hold" or "toggle".
func NewListener(keys []string, mode string, log zerolog.Logger) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		log:  log,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when Stop is called.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// SetActive realigns toggle state with the actual capture state, for
// surfaces whose session can end without a hotkey press (device loss,
// auto-started sessions).
func (l *Listener) SetActive(active bool) {
	l.mu.Lock()
	l.active = active
	l.mu.Unlock()
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	l.log.Debug().Strs("keys", l.keys).Str("mode", l.mode).Msg("hotkey listener starting")

	switch l.mode {
	case "hold":
		l.registerHold()
	default: // "toggle"
		l.registerToggle()
	}

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// registerHold implements push-to-talk:
// KeyDown -> EventStart, KeyUp -> EventStop.
func (l *Listener) registerHold() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit(EventStart)
	})
	hook.Register(hook.KeyUp, l.keys, func(e hook.Event) {
		l.emit(EventStop)
	})
}

// registerToggle implements toggle mode:
// first press -> EventStart, second press -> EventStop, and so on.
func (l *Listener) registerToggle() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.mu.Lock()
		l.active = !l.active
		start := l.active
		l.mu.Unlock()

		if start {
			l.emit(EventStart)
		} else {
			l.emit(EventStop)
		}
	})
}

func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default: // don't block the hook thread if the channel is full
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
