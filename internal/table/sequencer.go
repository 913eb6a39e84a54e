package table

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

// Publisher delivers events to attached connections.
type Publisher interface {
	Publish(ev protocol.Event, exclude string) int
}

// Rules are the table's tunable game rules.
type Rules struct {
	StandOn int // dealer stops drawing at this total
	MaxDraw int // largest DrawCards count accepted
}

// DefaultRules returns the house rules.
func DefaultRules() Rules {
	return Rules{StandOn: DefaultStandOn, MaxDraw: deck.CardsPerDeck}
}

// Sequencer drives the round: whose turn it is, the dealer's play and
// settlement. Transitions are serialized by its own lock. The registry
// and dealer locks are only ever taken inside it, one at a time.
type Sequencer struct {
	mu        sync.Mutex
	state     State
	registry  *Registry
	dealer    *Dealer
	source    deck.Source
	publisher Publisher
	rules     Rules
	logger    *log.Logger
}

// NewSequencer creates a sequencer waiting for the host to start.
func NewSequencer(registry *Registry, dealer *Dealer, source deck.Source, publisher Publisher, rules Rules, logger *log.Logger) *Sequencer {
	if rules.StandOn <= 0 {
		rules.StandOn = DefaultStandOn
	}
	if rules.MaxDraw <= 0 {
		rules.MaxDraw = deck.CardsPerDeck
	}
	return &Sequencer{
		state:     State{Phase: AwaitingStart},
		registry:  registry,
		dealer:    dealer,
		source:    source,
		publisher: publisher,
		rules:     rules,
		logger:    logger.WithPrefix("table"),
	}
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach binds a connection's outbound queue and tells everyone else it
// has joined.
func (s *Sequencer) Attach(id string, q *Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.registry.FindByID(id); ok && prev.Attached() && prev.Outbox() != q && !prev.Outbox().Closed() {
		return ErrAlreadyAttached
	}
	if !s.registry.AttachSender(id, q) {
		return ErrUnknownConnection
	}
	c, ok := s.registry.FindByID(id)
	if !ok {
		return ErrUnknownConnection
	}

	s.logger.Info("Connection attached", "id", id, "name", c.Player.UserName, "position", c.Position)
	s.publisher.Publish(protocol.PlayerJoined{
		ClientID: id,
		UserName: c.Player.UserName,
		Position: c.Position,
	}, id)
	return nil
}

// Handle applies one command from connection id and publishes whatever
// events the transition produces. Events are published before the lock is
// released so every connection sees them in transition order.
func (s *Sequencer) Handle(id string, cmd protocol.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, events, err := s.transition(s.state, id, cmd)
	if err != nil {
		s.logger.Debug("Rejected command", "id", id, "command", cmd.CommandType(), "state", s.state, "error", err)
		return err
	}

	if next != s.state {
		s.logger.Info("State changed", "from", s.state, "to", next, "command", cmd.CommandType())
	}
	s.state = next
	s.publish(events)
	return nil
}

// Leave unregisters a connection. If it held the turn the turn passes on
// exactly as if it had ended its turn. Unknown identities are ignored.
func (s *Sequencer) Leave(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.registry.Unregister(id)
	if !ok {
		return
	}
	s.logger.Info("Connection left", "id", id, "name", c.Player.UserName, "position", c.Position)

	events := []protocol.Event{protocol.PlayerLeft{
		ClientID: id,
		UserName: c.Player.UserName,
		HostID:   s.registry.Host(),
	}}
	switch {
	case s.registry.Len() == 0:
		// an empty table starts over, even after a finished game
		s.state = State{Phase: AwaitingStart}
	case s.state.acting(c.Position):
		next, more := s.advance(c.Position)
		s.state = next
		events = append(events, more...)
	}
	s.publish(events)
}

func (s *Sequencer) publish(events []protocol.Event) {
	for _, ev := range events {
		s.publisher.Publish(ev, "")
	}
}

// transition is the single state transition function. It validates cmd
// against st and either returns the next state with its events or an
// error leaving st untouched.
func (s *Sequencer) transition(st State, id string, cmd protocol.Command) (State, []protocol.Event, error) {
	conn, ok := s.registry.FindByID(id)
	if !ok {
		return st, nil, ErrUnknownConnection
	}
	if !conn.Attached() {
		return st, nil, ErrNotReady
	}
	if st.Phase == GameOver {
		return st, nil, ErrGameOver
	}

	if _, ok := cmd.(protocol.Start); ok {
		return s.start(st, conn)
	}

	if st.Phase != PlayerActing {
		return st, nil, fmt.Errorf("%w: %s during %s", ErrWrongPhase, cmd.CommandType(), st.Phase)
	}
	if !st.acting(conn.Position) {
		return st, nil, ErrNotYourTurn
	}

	switch c := cmd.(type) {
	case protocol.Bet:
		return st, nil, s.bet(conn, c.Amount)
	case protocol.DrawCards:
		ev, err := s.draw(conn, int(c.Count))
		if err != nil {
			return st, nil, err
		}
		return st, []protocol.Event{ev}, nil
	case protocol.Hit:
		ev, err := s.draw(conn, 1)
		if err != nil {
			return st, nil, err
		}
		return st, []protocol.Event{ev}, nil
	case protocol.EndTurn:
		if err := s.commit(conn, c.Player); err != nil {
			return st, nil, err
		}
		next, events := s.advance(conn.Position)
		return next, events, nil
	default:
		return st, nil, fmt.Errorf("%w: %s", ErrInvalidCommand, cmd.CommandType())
	}
}

func (s *Sequencer) start(st State, conn Connection) (State, []protocol.Event, error) {
	if st.Phase != AwaitingStart {
		return st, nil, fmt.Errorf("%w: start during %s", ErrWrongPhase, st.Phase)
	}
	if !s.registry.IsHost(conn.ID) {
		return st, nil, ErrNotHost
	}

	first, ok := s.registry.NextAttachedAfter(-1)
	if !ok {
		return st, nil, ErrUnknownConnection
	}

	s.dealer.Deal(s.source.Draw(2))
	ev, next := s.startTurn(first)
	s.logger.Info("Round started", "dealer", s.dealer.HandValue(), "first", first.ID)
	return next, []protocol.Event{ev}, nil
}

func (s *Sequencer) startTurn(c Connection) (protocol.Event, State) {
	card, _ := s.dealer.FaceUpCard()
	return protocol.StartTurn{
		ActiveClientID: c.ID,
		UserName:       c.Player.UserName,
		DealerCard:     card,
	}, State{Phase: PlayerActing, Position: c.Position}
}

func (s *Sequencer) bet(conn Connection, amount uint32) error {
	_, err := s.registry.UpdatePlayer(conn.ID, func(p *game.Player) error {
		if amount > p.Chips {
			return fmt.Errorf("%w: bet %d with %d chips", ErrInsufficientChips, amount, p.Chips)
		}
		p.CurrentBet = amount
		return nil
	})
	return err
}

func (s *Sequencer) draw(conn Connection, n int) (protocol.Event, error) {
	if n < 1 || n > s.rules.MaxDraw {
		return nil, fmt.Errorf("%w: draw count %d outside 1..%d", ErrInvalidCommand, n, s.rules.MaxDraw)
	}

	// Draw before taking the registry lock.
	cards := s.source.Draw(n)
	p, err := s.registry.UpdatePlayer(conn.ID, func(p *game.Player) error {
		p.AddCards(cards...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Cards drawn", "id", conn.ID, "count", n, "hand_value", p.HandValue)
	return protocol.CardsDrawn{ClientID: conn.ID, Cards: cards}, nil
}

// commit stores the client's final view of its hand and bet. Name, role
// and chips stay as the server has them and the hand is rescored here.
func (s *Sequencer) commit(conn Connection, snapshot *game.Player) error {
	if snapshot == nil {
		return nil
	}
	_, err := s.registry.UpdatePlayer(conn.ID, func(p *game.Player) error {
		if snapshot.CurrentBet > p.Chips {
			return fmt.Errorf("%w: bet %d with %d chips", ErrInsufficientChips, snapshot.CurrentBet, p.Chips)
		}
		p.SetHand(snapshot.Hand)
		p.CurrentBet = snapshot.CurrentBet
		return nil
	})
	return err
}

// advance hands the turn to the next position after from, or plays the
// dealer and settles the round when nobody is left.
func (s *Sequencer) advance(from int) (State, []protocol.Event) {
	if next, ok := s.registry.NextAttachedAfter(from); ok {
		ev, st := s.startTurn(next)
		return st, []protocol.Event{ev}
	}
	return s.resolve()
}

// resolve runs DealerResolving through RoundFinished and lands in
// AwaitingStart, or GameOver if nobody has chips left.
func (s *Sequencer) resolve() (State, []protocol.Event) {
	s.logger.Debug("State changed", "to", State{Phase: DealerResolving})
	dealer := s.dealer.Play(s.source, s.rules.StandOn)

	results := []game.TurnResult{{Player: dealer, EndState: game.Push}}
	solvent := false
	s.registry.UpdateAll(func(id string, p *game.Player) {
		state := game.Resolve(p.HandValue, dealer.HandValue, game.IsBlackjack(*p))
		*p = game.ApplyPayout(*p, state)
		results = append(results, game.TurnResult{ClientID: id, Player: p.Clone(), EndState: state})
		p.ResetHand()

		s.logger.Info("Hand settled", "id", id, "name", p.UserName, "result", state, "chips", p.Chips)
		if p.Chips > 0 {
			solvent = true
		}
	})
	s.logger.Debug("State changed", "to", State{Phase: RoundFinished})

	events := []protocol.Event{protocol.RoundFinished{Results: results}}
	if !solvent {
		s.logger.Info("Game finished, no chips left")
		return State{Phase: GameOver}, append(events, protocol.GameFinished{})
	}
	return State{Phase: AwaitingStart}, events
}
