package table

import (
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/protocol"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// recorder is a Publisher that keeps every event in order.
type recorder struct {
	mu     sync.Mutex
	events []protocol.Event
}

func (r *recorder) Publish(ev protocol.Event, exclude string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return 1
}

func (r *recorder) all() []protocol.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Event(nil), r.events...)
}

func (r *recorder) ofType(t protocol.MessageType) []protocol.Event {
	var out []protocol.Event
	for _, ev := range r.all() {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) last() protocol.Event {
	events := r.all()
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	seq      *Sequencer
	registry *Registry
	dealer   *Dealer
	stack    *deck.Stack
	events   *recorder
}

// newFixture builds a sequencer whose source deals cards in the given
// compact notation before falling back to a seeded shoe.
func newFixture(t *testing.T, chips uint32, cards string) *fixture {
	t.Helper()

	f := &fixture{
		registry: NewRegistry(chips),
		dealer:   NewDealer(),
		stack:    deck.NewStack(deck.MustParseCards(cards), deck.NewShoe(1, 99)),
		events:   &recorder{},
	}
	f.seq = NewSequencer(f.registry, f.dealer, f.stack, f.events, DefaultRules(), testLogger())
	return f
}

// join registers and attaches a connection, returning its identity.
func (f *fixture) join(t *testing.T, name string) string {
	t.Helper()

	id := NewIdentity()
	f.registry.Register(id, name)
	require.NoError(t, f.seq.Attach(id, NewQueue(16)))
	return id
}

func (f *fixture) handle(t *testing.T, id string, cmd protocol.Command) {
	t.Helper()
	require.NoError(t, f.seq.Handle(id, cmd))
}

func (f *fixture) lastStartTurn(t *testing.T) protocol.StartTurn {
	t.Helper()

	turns := f.events.ofType(protocol.TypeStartTurn)
	require.NotEmpty(t, turns, "no start_turn event")
	return turns[len(turns)-1].(protocol.StartTurn)
}

func (f *fixture) roundResults(t *testing.T) protocol.RoundFinished {
	t.Helper()

	rounds := f.events.ofType(protocol.TypeRoundFinished)
	require.Len(t, rounds, 1, "expected exactly one round_finished event")
	return rounds[0].(protocol.RoundFinished)
}
