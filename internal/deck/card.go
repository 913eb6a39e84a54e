package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitNames = [...]string{"Spades", "Hearts", "Diamonds", "Clubs"}

// String returns the string representation of a suit
func (s Suit) String() string {
	if s < Spades || s > Clubs {
		return "Unknown"
	}
	return suitNames[s]
}

// Symbol returns the single glyph used in compact card notation
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// MarshalText encodes the suit by name so the wire format is readable.
func (s Suit) MarshalText() ([]byte, error) {
	if s < Spades || s > Clubs {
		return nil, fmt.Errorf("invalid suit: %d", int(s))
	}
	return []byte(suitNames[s]), nil
}

// UnmarshalText decodes a suit name.
func (s *Suit) UnmarshalText(text []byte) error {
	for i, name := range suitNames {
		if strings.EqualFold(name, string(text)) {
			*s = Suit(i)
			return nil
		}
	}
	return fmt.Errorf("invalid suit: %q", text)
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankNames = map[Rank]string{
	Two: "Two", Three: "Three", Four: "Four", Five: "Five", Six: "Six",
	Seven: "Seven", Eight: "Eight", Nine: "Nine", Ten: "Ten",
	Jack: "Jack", Queen: "Queen", King: "King", Ace: "Ace",
}

// String returns the string representation of a rank
func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Short returns the one character rank used in compact notation ("T" for ten).
func (r Rank) Short() string {
	if r < Two || r > Ace {
		return "?"
	}
	return "23456789TJQKA"[r-Two : r-Two+1]
}

// Value returns the blackjack face value of the rank. Face cards count ten
// and an ace counts eleven before any soft-ace adjustment.
func (r Rank) Value() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten && r <= King:
		return 10
	case r >= Two && r < Ten:
		return int(r)
	default:
		return 0
	}
}

// MarshalText encodes the rank by name.
func (r Rank) MarshalText() ([]byte, error) {
	name, ok := rankNames[r]
	if !ok {
		return nil, fmt.Errorf("invalid rank: %d", int(r))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a rank name.
func (r *Rank) UnmarshalText(text []byte) error {
	for rank, name := range rankNames {
		if strings.EqualFold(name, string(text)) {
			*r = rank
			return nil
		}
	}
	return fmt.Errorf("invalid rank: %q", text)
}

// Card represents a playing card
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the compact representation of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.Short() + c.Suit.Symbol()
}

// Value returns the blackjack face value of the card
func (c Card) Value() int {
	return c.Rank.Value()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// ParseCards parses compact notation such as "AsKhTd" into cards.
// Ranks are 2-9, T, J, Q, K, A and suits are s, h, d, c (case insensitive).
func ParseCards(s string) ([]Card, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %q", s)
	}

	cards := make([]Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		rank := strings.Index("23456789TJQKA", strings.ToUpper(s[i:i+1]))
		if rank < 0 {
			return nil, fmt.Errorf("invalid rank %q in %q", s[i], s)
		}
		suit := strings.Index("SHDC", strings.ToUpper(s[i+1:i+2]))
		if suit < 0 {
			return nil, fmt.Errorf("invalid suit %q in %q", s[i+1], s)
		}
		cards = append(cards, NewCard(Two+Rank(rank), Suit(suit)))
	}
	return cards, nil
}

// MustParseCards is like ParseCards but panics on error. Intended for tests.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}
