package table

import "fmt"

// Phase is where the table is in the round cycle.
type Phase int

const (
	AwaitingStart Phase = iota
	PlayerActing
	DealerResolving
	RoundFinished
	GameOver
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case AwaitingStart:
		return "Awaiting Start"
	case PlayerActing:
		return "Player Acting"
	case DealerResolving:
		return "Dealer Resolving"
	case RoundFinished:
		return "Round Finished"
	case GameOver:
		return "Game Over"
	default:
		return "Unknown"
	}
}

// State is the sequencer's position in the round. Position is only
// meaningful while a player is acting.
type State struct {
	Phase    Phase
	Position int
}

func (s State) String() string {
	if s.Phase == PlayerActing {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Position)
	}
	return s.Phase.String()
}

// acting reports whether position holds the turn.
func (s State) acting(position int) bool {
	return s.Phase == PlayerActing && s.Position == position
}
