package events

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrAlreadySubscribed is returned by Subscribe while another handler is
// registered.
var ErrAlreadySubscribed = errors.New("events: dispatcher already has a subscriber")

// Handler receives events on the dispatcher's delivery goroutine. It must
// not call back into the dispatcher's Close.
type Handler func(Event)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLatestOnlyLevels makes adjacent queued AudioLevel events collapse to
// the newest one. Slow subscribers then see the current level instead of a
// backlog of stale meter values. All other event kinds are never coalesced.
func WithLatestOnlyLevels() Option {
	return func(d *Dispatcher) {
		d.coalesceLevels = true
	}
}

// Dispatcher queues events from any goroutine and delivers them to a single
// subscriber, strictly in publish order, on one delivery goroutine.
//
// Publish never blocks the caller beyond the queue append. A handler that
// is mid-delivery when Unsubscribe is called still completes that delivery;
// there is no cancellation primitive for an invocation already in flight.
type Dispatcher struct {
	log            zerolog.Logger
	coalesceLevels bool

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	handler Handler
	closed  bool

	done chan struct{}
}

// NewDispatcher starts the delivery goroutine. Call Close to stop it.
func NewDispatcher(log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:  log.With().Str("component", "events").Logger(),
		done: make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Publish enqueues ev for delivery. Events published before a subscriber
// registers are held and delivered once one does. After Close the event is
// dropped.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.log.Debug().Type("event", ev).Msg("dropping event published after close")
		return
	}
	if d.coalesceLevels && len(d.queue) > 0 {
		if _, isLevel := ev.(AudioLevel); isLevel {
			if _, lastIsLevel := d.queue[len(d.queue)-1].(AudioLevel); lastIsLevel {
				d.queue[len(d.queue)-1] = ev
				return
			}
		}
	}
	d.queue = append(d.queue, ev)
	d.cond.Signal()
}

// Subscribe registers the single handler. It fails if another handler is
// registered; Unsubscribe first.
func (d *Dispatcher) Subscribe(h Handler) error {
	if h == nil {
		return errors.New("events: nil handler")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handler != nil {
		return ErrAlreadySubscribed
	}
	d.handler = h
	d.cond.Signal()
	return nil
}

// Unsubscribe deregisters the handler and discards any queued events. A
// delivery already handed to the handler completes; no new deliveries
// start afterwards. Queued events are discarded rather than held because
// the next subscriber belongs to a new session and must not see results
// from the old one.
func (d *Dispatcher) Unsubscribe() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.queue); n > 0 {
		d.log.Debug().Int("dropped", n).Msg("discarding queued events on unsubscribe")
	}
	d.handler = nil
	d.queue = nil
}

// Close delivers the remaining queue to the current subscriber, if any,
// then stops the delivery goroutine. Publish and Subscribe are no-ops
// afterwards.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.cond.Signal()
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for !d.closed && (len(d.queue) == 0 || d.handler == nil) {
			d.cond.Wait()
		}
		if d.closed && (len(d.queue) == 0 || d.handler == nil) {
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue = d.queue[1:]
		h := d.handler
		d.mu.Unlock()

		// Handler runs outside the lock so Publish and Unsubscribe
		// never wait on a slow subscriber.
		h(ev)
	}
}
