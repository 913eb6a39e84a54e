package table

import (
	"sync"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// DefaultStandOn is the total at which the dealer stops drawing.
const DefaultStandOn = 17

// Dealer is the house hand, shared by every connection and guarded
// separately from the registry.
type Dealer struct {
	mu     sync.Mutex
	player game.Player
}

// NewDealer creates the dealer with an empty hand.
func NewDealer() *Dealer {
	return &Dealer{player: game.NewDealer()}
}

// Deal replaces the dealer's hand with cards.
func (d *Dealer) Deal(cards []deck.Card) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.player.SetHand(cards)
}

// FaceUpCard returns the first card of the dealer's hand.
func (d *Dealer) FaceUpCard() (deck.Card, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.player.Hand) == 0 {
		return deck.Card{}, false
	}
	return d.player.Hand[0], true
}

// HandValue returns the dealer's current score.
func (d *Dealer) HandValue() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.player.HandValue
}

// Play draws from src until the hand scores at least standOn. The lock is
// released around each draw.
func (d *Dealer) Play(src deck.Source, standOn int) game.Player {
	for d.HandValue() < standOn {
		cards := src.Draw(1)

		d.mu.Lock()
		d.player.AddCards(cards...)
		d.mu.Unlock()
	}
	return d.Snapshot()
}

// Snapshot returns a copy of the dealer's record.
func (d *Dealer) Snapshot() game.Player {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.player.Clone()
}
