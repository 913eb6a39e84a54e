package client

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/protocol"
)

// Strategy is the fixed policy an autoplaying bot follows.
type Strategy struct {
	Bet     uint32 // stake per round, capped at the current balance
	StandOn int    // stop hitting at this total
	Rounds  int    // leave after this many rounds, 0 plays until the game ends
	Players int    // a hosting bot waits for this many seats before starting
}

// Bot plays a seat automatically: bet, draw two, hit below StandOn, end turn.
type Bot struct {
	client   *Client
	strategy Strategy
	logger   *log.Logger

	mu      sync.Mutex
	hand    []deck.Card
	chips   uint32
	known   bool // chips reflects a settled round
	seated  int
	started bool // a round is running or Start has been sent
	rounds  int
	results []game.TurnResult

	finished chan struct{}
	once     sync.Once
}

// NewBot attaches a bot to c. Create it before c.Connect so no event is
// missed.
func NewBot(c *Client, s Strategy, logger *log.Logger) *Bot {
	if s.StandOn <= 0 {
		s.StandOn = 17
	}
	b := &Bot{
		client:   c,
		strategy: s,
		logger:   logger.WithPrefix("bot"),
		seated:   1,
		finished: make(chan struct{}),
	}

	c.On(protocol.TypePlayerJoined, b.onPlayerJoined)
	c.On(protocol.TypePlayerLeft, b.onPlayerLeft)
	c.On(protocol.TypeStartTurn, b.onStartTurn)
	c.On(protocol.TypeCardsDrawn, b.onCardsDrawn)
	c.On(protocol.TypeRoundFinished, b.onRoundFinished)
	c.On(protocol.TypeGameFinished, func(protocol.Event) { b.finish() })
	c.On(protocol.TypeError, b.onError)
	return b
}

// Run blocks until the bot has played its rounds, the game ends, the
// socket drops or ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.maybeStart()
	b.mu.Unlock()

	select {
	case <-b.finished:
		return nil
	case <-b.client.Done():
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns this bot's settled hands, oldest first.
func (b *Bot) Results() []game.TurnResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]game.TurnResult(nil), b.results...)
}

func (b *Bot) onPlayerJoined(protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seated++
	b.maybeStart()
}

func (b *Bot) onPlayerLeft(protocol.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seated > 1 {
		b.seated--
	}
	// this seat may have just become host
	b.maybeStart()
}

func (b *Bot) onStartTurn(ev protocol.Event) {
	st := ev.(protocol.StartTurn)

	b.mu.Lock()
	b.started = true
	if st.ActiveClientID != b.client.ID() {
		b.mu.Unlock()
		return
	}
	b.hand = nil
	bet := b.strategy.Bet
	if b.known && bet > b.chips {
		bet = b.chips
	}
	b.mu.Unlock()

	b.logger.Debug("Our turn", "dealer_card", st.DealerCard, "bet", bet)
	b.send(protocol.Bet{Amount: bet})
	b.send(protocol.DrawCards{Count: 2})
}

func (b *Bot) onCardsDrawn(ev protocol.Event) {
	cd := ev.(protocol.CardsDrawn)
	if cd.ClientID != b.client.ID() {
		return
	}

	b.mu.Lock()
	b.hand = append(b.hand, cd.Cards...)
	score := game.Score(b.hand)
	b.mu.Unlock()

	if score < b.strategy.StandOn {
		b.send(protocol.Hit{})
		return
	}
	b.logger.Debug("Standing", "hand_value", score)
	b.send(protocol.EndTurn{})
}

func (b *Bot) onRoundFinished(ev protocol.Event) {
	rf := ev.(protocol.RoundFinished)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.rounds++
	b.started = false
	for _, r := range rf.Results {
		if r.ClientID == b.client.ID() {
			b.results = append(b.results, r)
			b.chips = r.Player.Chips
			b.known = true
		}
	}
	b.logger.Info("Round finished", "round", b.rounds, "chips", b.chips)

	if b.strategy.Rounds > 0 && b.rounds >= b.strategy.Rounds {
		b.finish()
		return
	}
	b.maybeStart()
}

func (b *Bot) onError(ev protocol.Event) {
	e := ev.(protocol.Error)
	b.logger.Warn("Server rejected command", "code", e.Code, "message", e.Message)
}

// maybeStart sends Start when this bot hosts and the table is full
// enough. Callers hold b.mu.
func (b *Bot) maybeStart() {
	if b.started || !b.client.IsHost() || b.seated < b.strategy.Players {
		return
	}
	select {
	case <-b.finished:
		return
	default:
	}
	b.started = true
	b.send(protocol.Start{})
}

func (b *Bot) send(cmd protocol.Command) {
	if err := b.client.Send(cmd); err != nil {
		b.logger.Warn("Failed to send command", "type", cmd.CommandType(), "error", err)
	}
}

func (b *Bot) finish() {
	b.once.Do(func() { close(b.finished) })
}
