package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notune/speechcap/internal/audio"
	"github.com/notune/speechcap/internal/events"
	"github.com/notune/speechcap/internal/focus"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateCapturing
	StateStopping
	StateCancelling
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateCancelling:
		return "cancelling"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sink consumes the converted frames a session produces. Push must not
// block beyond a hand-off; Init and Close bracket one logical session and
// are always paired, whichever way the session ends.
type Sink interface {
	Init() error
	Push(frame []float32)
	SetUpdateInterval(d time.Duration)
	Close() error
}

// One session may capture at a time per process. Start refuses while the
// slot is taken; the slot frees when the session reaches Idle or Failed.
var (
	activeMu sync.Mutex
	active   *Session
)

// Session is one capture run: a device, a producer goroutine and the frames
// it pushes into the sink. Obtain one from Start; finish it with Stop or
// Cancel, both of which join the producer before returning.
type Session struct {
	id  string
	cfg Config
	log zerolog.Logger

	snk    Sink
	coord  focus.Coordinator
	disp   *events.Dispatcher
	opener func(Config, zerolog.Logger) (Device, error)

	mu        sync.Mutex
	state     State
	err       error
	cancelled bool
	token     *focus.Token

	dev  Device
	done chan struct{} // closed when the producer goroutine exits
	term chan struct{} // closed when teardown is complete
}

// StartOption adjusts how Start wires a session.
type StartOption func(*Session)

// WithLogger sets the session logger. Default is a disabled logger.
func WithLogger(log zerolog.Logger) StartOption {
	return func(s *Session) { s.log = log }
}

// WithFocus sets the focus coordinator consulted when the config asks for
// other audio to be paused. Default is the no-op coordinator.
func WithFocus(c focus.Coordinator) StartOption {
	return func(s *Session) { s.coord = c }
}

// WithDispatcher sets the dispatcher that receives a CaptureFailed event
// if the device dies mid-session. Without one, failures are still visible
// through Err and Wait.
func WithDispatcher(d *events.Dispatcher) StartOption {
	return func(s *Session) { s.disp = d }
}

// WithDeviceOpener replaces the device factory. Tests use it to capture
// from a scripted fake instead of hardware.
func WithDeviceOpener(open func(Config, zerolog.Logger) (Device, error)) StartOption {
	return func(s *Session) { s.opener = open }
}

// Start acquires focus, opens the capture device, initializes the sink and
// spawns the producer. It fails with ErrSessionActive while another session
// holds the process slot, and with an ErrDeviceUnavailable wrap when the
// device cannot be opened at the configured format. On success the session
// is Capturing.
func Start(cfg Config, snk Sink, opts ...StartOption) (*Session, error) {
	if snk == nil {
		return nil, errors.New("capture: nil sink")
	}
	cfg = cfg.withDefaults()

	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		log:    zerolog.Nop(),
		snk:    snk,
		coord:  focus.Noop(),
		opener: OpenDevice,
		state:  StateStarting,
		done:   make(chan struct{}),
		term:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("session", s.id).Logger()

	activeMu.Lock()
	if active != nil {
		activeMu.Unlock()
		return nil, ErrSessionActive
	}
	active = s
	activeMu.Unlock()

	// Focus first. Best effort: a denied or absent focus service never
	// blocks capture.
	if cfg.PauseOtherAudio {
		s.token = s.coord.Request()
	}

	dev, err := s.opener(cfg, s.log)
	if err != nil {
		s.releaseFocus()
		s.clearActive()
		return nil, err
	}
	s.dev = dev

	if err := snk.Init(); err != nil {
		if cerr := dev.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("closing device after sink init failure")
		}
		s.releaseFocus()
		s.clearActive()
		return nil, fmt.Errorf("initializing sink: %w", err)
	}
	if cfg.UpdateInterval > 0 {
		snk.SetUpdateInterval(cfg.UpdateInterval)
	}

	s.mu.Lock()
	s.state = StateCapturing
	s.mu.Unlock()

	s.log.Info().Str("source", cfg.Source.String()).Int("rate", cfg.SampleRate).Msg("capture started")

	go s.run()
	return s, nil
}

// ID identifies this session in TranscriptReady events.
func (s *Session) ID() string { return s.id }

// State reports the current lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the fatal error after the session has Failed, nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancelled reports whether the session ended via Cancel. Surfaces use it
// to drop a result they no longer want.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Wait blocks until the session has fully torn down, whichever way it
// ended.
func (s *Session) Wait() {
	<-s.term
}

// Stop ends the session gracefully: the producer finishes its current
// read, drains what the device had buffered, and exits; then the device,
// sink and focus token are released. Blocks until all of that is done.
func (s *Session) Stop() {
	s.shutdown(StateStopping, false)
}

// Cancel is Stop with intent: the caller wants the in-flight result
// discarded. The device-level teardown is identical; the session is marked
// cancelled so the owning surface can suppress a late transcript.
func (s *Session) Cancel() {
	s.shutdown(StateCancelling, true)
}

func (s *Session) shutdown(via State, cancelled bool) {
	s.mu.Lock()
	if s.state != StateCapturing {
		// Already stopping, failed, or finished. Wait for whichever
		// path owns the teardown so this call keeps join semantics.
		s.mu.Unlock()
		<-s.term
		return
	}
	s.state = via
	s.cancelled = cancelled
	s.mu.Unlock()

	s.log.Debug().Str("via", via.String()).Msg("stopping capture")

	// Closing the device is what unblocks the producer's read. Remaining
	// buffered audio still drains through before it sees io.EOF.
	if err := s.dev.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing capture device")
	}
	<-s.done

	s.finish(StateIdle, nil)
}

// run wraps the producer loop and owns the failure teardown. A clean exit
// leaves teardown to the Stop or Cancel that triggered it.
func (s *Session) run() {
	fatal := s.produce()

	s.mu.Lock()
	wasCapturing := s.state == StateCapturing
	if wasCapturing && fatal != nil {
		s.state = StateFailed
	}
	s.mu.Unlock()

	close(s.done)

	if wasCapturing && fatal != nil {
		s.log.Error().Err(fatal).Msg("capture failed")
		if err := s.dev.Close(); err != nil {
			s.log.Warn().Err(err).Msg("closing capture device after failure")
		}
		if s.disp != nil {
			s.disp.Publish(events.CaptureFailed{Err: fatal})
		}
		s.finish(StateFailed, fatal)
	}
}

// produce reads fixed-size chunks until the device ends or dies. It returns
// nil on a clean end (device closed by Stop/Cancel) and the fatal error
// otherwise. Transient device errors are logged and retried in place.
func (s *Session) produce() error {
	raw := make([]byte, chunkSamples*2)

	for {
		n, err := s.dev.Read(raw)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrDeviceLost):
			return err
		default:
			// Invalid-operation and bad-value class errors clear on the
			// next read. Keep going.
			s.log.Warn().Err(err).Msg("transient device read error")
			continue
		}

		if n == 0 {
			// Benign: a loopback source with nothing playing reads empty.
			continue
		}

		s.snk.Push(audio.ConvertS16LE(raw[:n]))
	}
}

// finish releases everything except the device (closed by whoever initiated
// the shutdown), records the terminal state and frees the process slot.
func (s *Session) finish(terminal State, fatal error) {
	if err := s.snk.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing sink")
	}
	s.releaseFocus()

	s.mu.Lock()
	s.state = terminal
	s.err = fatal
	s.mu.Unlock()

	s.clearActive()
	close(s.term)

	s.log.Info().Str("state", terminal.String()).Msg("capture ended")
}

func (s *Session) releaseFocus() {
	s.mu.Lock()
	tok := s.token
	s.token = nil
	s.mu.Unlock()
	if tok != nil {
		s.coord.Abandon(tok)
	}
}

func (s *Session) clearActive() {
	activeMu.Lock()
	if active == s {
		active = nil
	}
	activeMu.Unlock()
}
