package deck

import (
	rand "math/rand/v2"
	"sync"
)

// CardsPerDeck is the size of a single standard deck.
const CardsPerDeck = 52

// Source deals cards on demand. Implementations never run out.
type Source interface {
	Draw(n int) []Card
}

// Shoe is a multi-deck Source. When the cards run out a fresh set of
// decks is shuffled in, so Draw always returns exactly n cards.
// It is safe for concurrent use.
type Shoe struct {
	mu    sync.Mutex
	decks int
	cards []Card
	rng   *rand.Rand
}

// NewShoe creates a shoe holding the given number of decks, shuffled with
// a generator deterministically derived from seed.
func NewShoe(decks int, seed int64) *Shoe {
	if decks < 1 {
		decks = 1
	}
	s := &Shoe{
		decks: decks,
		cards: make([]Card, 0, decks*CardsPerDeck),
		rng:   newRNG(seed),
	}
	s.refill()
	return s
}

// Draw removes and returns the next n cards.
func (s *Shoe) Draw(n int) []Card {
	if n <= 0 {
		return []Card{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drawn := make([]Card, 0, n)
	for len(drawn) < n {
		if len(s.cards) == 0 {
			s.refill()
		}
		last := len(s.cards) - 1
		drawn = append(drawn, s.cards[last])
		s.cards = s.cards[:last]
	}
	return drawn
}

// Remaining returns the number of cards left before the next reshuffle.
func (s *Shoe) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// refill replaces the shoe contents with freshly shuffled decks. Callers
// hold s.mu or own s exclusively.
func (s *Shoe) refill() {
	s.cards = s.cards[:0]
	for d := 0; d < s.decks; d++ {
		s.cards = append(s.cards, NewDeck()...)
	}
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// NewDeck returns the 52 cards of a single deck in suit-major order.
func NewDeck() []Card {
	cards := make([]Card, 0, CardsPerDeck)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Stack is a Source that deals a fixed sequence of cards, falling back to
// another Source once the sequence is used up. It is used to script hands.
type Stack struct {
	mu       sync.Mutex
	cards    []Card
	fallback Source
}

// NewStack returns a Stack dealing cards in order, then from fallback.
// A nil fallback deals from a single seeded deck.
func NewStack(cards []Card, fallback Source) *Stack {
	if fallback == nil {
		fallback = NewShoe(1, 0)
	}
	return &Stack{cards: append([]Card(nil), cards...), fallback: fallback}
}

// Push appends cards to the end of the scripted sequence.
func (s *Stack) Push(cards ...Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, cards...)
}

// Draw implements Source.
func (s *Stack) Draw(n int) []Card {
	if n <= 0 {
		return []Card{}
	}

	s.mu.Lock()
	take := min(n, len(s.cards))
	drawn := append([]Card(nil), s.cards[:take]...)
	s.cards = s.cards[take:]
	s.mu.Unlock()

	if take < n {
		drawn = append(drawn, s.fallback.Draw(n-take)...)
	}
	return drawn
}

const goldenRatio64 = 0x9e3779b97f4a7c15

// newRNG derives the two PCG seeds from a single int64 so every shoe built
// from the same seed deals the same sequence.
func newRNG(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
