package game

import "fmt"

// EndState is how a player's hand finished against the dealer.
type EndState int

const (
	Win EndState = iota
	Loss
	Blackjack
	Push
)

var endStateNames = [...]string{"Win", "Loss", "Blackjack", "Push"}

// String returns the string representation of an end state
func (s EndState) String() string {
	if s < Win || s > Push {
		return "Unknown"
	}
	return endStateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s EndState) MarshalText() ([]byte, error) {
	if s < Win || s > Push {
		return nil, fmt.Errorf("invalid end state: %d", int(s))
	}
	return []byte(endStateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *EndState) UnmarshalText(text []byte) error {
	for i, name := range endStateNames {
		if name == string(text) {
			*s = EndState(i)
			return nil
		}
	}
	return fmt.Errorf("invalid end state: %q", text)
}

// TurnResult pairs a player's settled state with how their hand ended.
// ClientID is empty for the dealer.
type TurnResult struct {
	ClientID string   `json:"client_id,omitempty"`
	Player   Player   `json:"player"`
	EndState EndState `json:"end_state"`
}
