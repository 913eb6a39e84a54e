package game

import (
	"fmt"

	"github.com/lox/blackjack/internal/deck"
)

// Role distinguishes seated humans from the house.
type Role int

const (
	Human Role = iota
	Dealer
)

// String returns the string representation of a role
func (r Role) String() string {
	switch r {
	case Human:
		return "Human"
	case Dealer:
		return "Dealer"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if r != Human && r != Dealer {
		return nil, fmt.Errorf("invalid role: %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Human":
		*r = Human
	case "Dealer":
		*r = Dealer
	default:
		return fmt.Errorf("invalid role: %q", text)
	}
	return nil
}

// Player is a participant's seat state. Hand and HandValue always change
// together through the methods below.
type Player struct {
	UserName   string      `json:"user_name"`
	Role       Role        `json:"player_type"`
	Hand       []deck.Card `json:"hand"`
	HandValue  int         `json:"hand_value"`
	Chips      uint32      `json:"chips"`
	CurrentBet uint32      `json:"current_bet"`
}

// NewPlayer creates a human player with an empty hand.
func NewPlayer(name string, chips uint32) Player {
	return Player{
		UserName: name,
		Role:     Human,
		Hand:     []deck.Card{},
		Chips:    chips,
	}
}

// NewDealer creates the house player.
func NewDealer() Player {
	return Player{
		UserName: "Dealer",
		Role:     Dealer,
		Hand:     []deck.Card{},
	}
}

// AddCards appends cards to the hand and rescores it.
func (p *Player) AddCards(cards ...deck.Card) {
	p.Hand = append(p.Hand, cards...)
	p.HandValue = Score(p.Hand)
}

// SetHand replaces the hand and rescores it.
func (p *Player) SetHand(cards []deck.Card) {
	p.Hand = append([]deck.Card{}, cards...)
	p.HandValue = Score(p.Hand)
}

// ResetHand clears the hand and the current bet.
func (p *Player) ResetHand() {
	p.Hand = []deck.Card{}
	p.HandValue = 0
	p.CurrentBet = 0
}

// Clone returns a copy that shares no memory with p.
func (p Player) Clone() Player {
	p.Hand = append([]deck.Card{}, p.Hand...)
	return p
}
