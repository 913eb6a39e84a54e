package table

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/protocol"
)

// DefaultEnqueueTimeout bounds how long a publish waits on one full queue.
const DefaultEnqueueTimeout = 50 * time.Millisecond

// Broadcaster fans events out to every attached connection's queue. It
// only enqueues; each connection's forwarder owns its socket.
type Broadcaster struct {
	registry *Registry
	clock    quartz.Clock
	timeout  time.Duration
	logger   *log.Logger
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithClock sets the clock used for enqueue deadlines.
func WithClock(clock quartz.Clock) BroadcasterOption {
	return func(b *Broadcaster) { b.clock = clock }
}

// WithEnqueueTimeout sets how long to wait on a full queue before giving
// up on that connection.
func WithEnqueueTimeout(d time.Duration) BroadcasterOption {
	return func(b *Broadcaster) { b.timeout = d }
}

// NewBroadcaster creates a broadcaster over registry.
func NewBroadcaster(registry *Registry, logger *log.Logger, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		registry: registry,
		clock:    quartz.NewReal(),
		timeout:  DefaultEnqueueTimeout,
		logger:   logger.WithPrefix("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish enqueues ev for every attached connection except exclude and
// returns the number of queues that accepted it. A queue that stays full
// past the enqueue timeout is closed, which disconnects that client; its
// own disconnect path removes it from the registry.
func (b *Broadcaster) Publish(ev protocol.Event, exclude string) int {
	data, err := protocol.Encode(ev)
	if err != nil {
		b.logger.Error("Failed to encode event", "type", ev.EventType(), "error", err)
		return 0
	}

	recipients := b.registry.Recipients(exclude)
	delivered := 0
	for _, r := range recipients {
		if err := b.enqueue(r.Queue, data); err != nil {
			b.logger.Warn("Dropped event for connection", "id", r.ID, "type", ev.EventType(), "error", err)
			continue
		}
		delivered++
	}

	b.logger.Debug("Published event", "type", ev.EventType(), "recipients", delivered, "attached", len(recipients))
	return delivered
}

// SendTo enqueues ev for a single connection.
func (b *Broadcaster) SendTo(id string, ev protocol.Event) error {
	c, ok := b.registry.FindByID(id)
	if !ok {
		return ErrUnknownConnection
	}
	if !c.Attached() {
		return ErrNotReady
	}

	data, err := protocol.Encode(ev)
	if err != nil {
		return err
	}
	return b.enqueue(c.Outbox(), data)
}

func (b *Broadcaster) enqueue(q *Queue, data []byte) error {
	err := q.TryEnqueue(data)
	if !errors.Is(err, ErrQueueFull) {
		return err
	}

	expired := make(chan struct{})
	timer := b.clock.AfterFunc(b.timeout, func() {
		close(expired)
	})
	defer timer.Stop()

	if err := q.Offer(data, expired); err != nil {
		if errors.Is(err, ErrQueueFull) {
			q.Close()
		}
		return err
	}
	return nil
}
