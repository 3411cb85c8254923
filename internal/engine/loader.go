package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// LoadState tracks the lifecycle of a shared Transcriber.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadDone
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadDone:
		return "done"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loader constructs a Transcriber once and shares it among callers. Loading
// a GGML model can take several seconds, so the first EnsureLoaded performs
// the load while concurrent callers wait for the same outcome. A failed
// load sticks: subsequent calls return the stored error until Close resets
// the loader.
type Loader struct {
	factory func() (Transcriber, error)
	notify  func(status string)
	log     zerolog.Logger

	mu    sync.Mutex
	state LoadState
	tr    Transcriber
	err   error
	done  chan struct{}
}

// NewLoader wraps factory in a load-once guard. notify receives short
// human-readable progress strings for a status UI and may be nil.
func NewLoader(factory func() (Transcriber, error), notify func(string), log zerolog.Logger) *Loader {
	if notify == nil {
		notify = func(string) {}
	}
	return &Loader{factory: factory, notify: notify, log: log}
}

// State reports the current load state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// EnsureLoaded returns the shared Transcriber, loading it on first use.
// Callers waiting on a load in progress honor ctx; the goroutine actually
// running the factory does not, since model loading cannot be interrupted.
func (l *Loader) EnsureLoaded(ctx context.Context) (Transcriber, error) {
	l.mu.Lock()
	switch l.state {
	case LoadDone:
		tr := l.tr
		l.mu.Unlock()
		return tr, nil
	case LoadFailed:
		err := l.err
		l.mu.Unlock()
		return nil, err
	case LoadLoading:
		done := l.done
		l.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		l.mu.Lock()
		tr, err := l.tr, l.err
		l.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return tr, nil
	}

	l.state = LoadLoading
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	l.notify("Loading model...")
	l.log.Info().Msg("loading transcription engine")
	tr, err := l.factory()

	l.mu.Lock()
	if err != nil {
		l.state = LoadFailed
		l.err = err
	} else {
		l.state = LoadDone
		l.tr = tr
	}
	close(done)
	l.mu.Unlock()

	if err != nil {
		l.log.Error().Err(err).Msg("engine load failed")
		l.notify("Model load failed")
		return nil, err
	}
	l.log.Info().Msg("transcription engine ready")
	l.notify("Ready")
	return tr, nil
}

// Close releases the loaded transcriber and returns the loader to idle so
// a later EnsureLoaded starts fresh. Closing during an in-flight load is
// refused rather than racing the factory.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == LoadLoading {
		return errors.New("engine: close while load in progress")
	}
	var err error
	if l.tr != nil {
		err = l.tr.Close()
	}
	l.tr = nil
	l.err = nil
	l.done = nil
	l.state = LoadIdle
	return err
}
