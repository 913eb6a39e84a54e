package game

import (
	"math"

	"github.com/lox/blackjack/internal/deck"
)

// BlackjackValue is the best possible hand score.
const BlackjackValue = 21

// softAceAdjustment is subtracted once when a hand holding an ace busts.
const softAceAdjustment = 10

// Score returns the blackjack value of a hand. Only a single ace is ever
// counted low, matching the house rules this server implements.
func Score(hand []deck.Card) int {
	total := 0
	hasAce := false
	for _, c := range hand {
		total += c.Value()
		if c.IsAce() {
			hasAce = true
		}
	}

	if total > BlackjackValue && hasAce {
		total -= softAceAdjustment
	}
	return total
}

// IsBust reports whether a score exceeds 21.
func IsBust(score int) bool {
	return score > BlackjackValue
}

// IsBlackjack reports whether the player holds a two card 21.
func IsBlackjack(p Player) bool {
	return len(p.Hand) == 2 && p.HandValue == BlackjackValue
}

// Resolve decides the outcome of a player's hand against the dealer's.
// The push condition is checked before blackjack, so a two card 21 tied
// with a dealer 21 pushes.
func Resolve(playerScore, dealerScore int, blackjack bool) EndState {
	switch {
	case (IsBust(dealerScore) && IsBust(playerScore)) || dealerScore == playerScore:
		return Push
	case blackjack:
		return Blackjack
	case IsBust(dealerScore) || (!IsBust(playerScore) && playerScore > dealerScore):
		return Win
	default:
		return Loss
	}
}

// blackjackMultiplier is the number of bets paid on a blackjack.
const blackjackMultiplier = 3

// ApplyPayout settles the current bet into the chip balance. The balance
// saturates at zero on a loss and at math.MaxUint32 on a win.
func ApplyPayout(p Player, state EndState) Player {
	switch state {
	case Win:
		p.Chips = credit(p.Chips, uint64(p.CurrentBet))
	case Loss:
		if p.CurrentBet >= p.Chips {
			p.Chips = 0
		} else {
			p.Chips -= p.CurrentBet
		}
	case Blackjack:
		p.Chips = credit(p.Chips, uint64(p.CurrentBet)*blackjackMultiplier)
	case Push:
		// stake returned unchanged
	}
	return p
}

func credit(chips uint32, amount uint64) uint32 {
	total := uint64(chips) + amount
	if total > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(total)
}
