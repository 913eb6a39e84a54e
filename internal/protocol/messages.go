package protocol

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeStart     MessageType = "start"
	TypeBet       MessageType = "bet"
	TypeDrawCards MessageType = "draw_cards"
	TypeHit       MessageType = "hit"
	TypeEndTurn   MessageType = "end_turn"

	// Server -> Client
	TypeStartTurn     MessageType = "start_turn"
	TypeCardsDrawn    MessageType = "cards_drawn"
	TypeRoundFinished MessageType = "round_finished"
	TypeGameFinished  MessageType = "game_finished"
	TypePlayerJoined  MessageType = "player_joined"
	TypePlayerLeft    MessageType = "player_left"
	TypeError         MessageType = "error"
)

// String returns the string representation of a message type
func (t MessageType) String() string {
	return string(t)
}

// Envelope is the frame every message travels in.
type Envelope struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Command is a client request.
type Command interface {
	CommandType() MessageType
}

// Event is a server notification.
type Event interface {
	EventType() MessageType
}

// Client -> Server Messages

// Start begins a round. Only the host may send it.
type Start struct{}

// Bet sets the sender's wager for the current round.
type Bet struct {
	Amount uint32 `json:"amount"`
}

// DrawCards deals Count cards into the sender's hand.
type DrawCards struct {
	Count uint16 `json:"count"`
}

// Hit deals a single card into the sender's hand.
type Hit struct{}

// EndTurn finishes the sender's turn. Player is the client's final view of
// its seat; it may be omitted to keep the server's record as is.
type EndTurn struct {
	Player *game.Player `json:"player,omitempty"`
}

func (Start) CommandType() MessageType     { return TypeStart }
func (Bet) CommandType() MessageType       { return TypeBet }
func (DrawCards) CommandType() MessageType { return TypeDrawCards }
func (Hit) CommandType() MessageType       { return TypeHit }
func (EndTurn) CommandType() MessageType   { return TypeEndTurn }

// Server -> Client Messages

// StartTurn announces whose turn it is and the dealer's face up card.
type StartTurn struct {
	ActiveClientID string    `json:"active_client_id"`
	UserName       string    `json:"user_name"`
	DealerCard     deck.Card `json:"dealer_card"`
}

// CardsDrawn carries the cards just dealt to the acting player.
type CardsDrawn struct {
	ClientID string      `json:"client_id"`
	Cards    []deck.Card `json:"cards"`
}

// RoundFinished carries every settled hand. The dealer's result comes first.
type RoundFinished struct {
	Results []game.TurnResult `json:"results"`
}

// GameFinished is sent once nobody has chips left.
type GameFinished struct{}

// PlayerJoined is sent to everyone else when a connection comes online.
type PlayerJoined struct {
	ClientID string `json:"client_id"`
	UserName string `json:"user_name"`
	Position int    `json:"position"`
}

// PlayerLeft is sent when a connection goes away.
type PlayerLeft struct {
	ClientID string `json:"client_id"`
	UserName string `json:"user_name"`
	HostID   string `json:"host_id,omitempty"` // host after the departure
}

// Error is sent only to the connection whose message failed.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (StartTurn) EventType() MessageType     { return TypeStartTurn }
func (CardsDrawn) EventType() MessageType    { return TypeCardsDrawn }
func (RoundFinished) EventType() MessageType { return TypeRoundFinished }
func (GameFinished) EventType() MessageType  { return TypeGameFinished }
func (PlayerJoined) EventType() MessageType  { return TypePlayerJoined }
func (PlayerLeft) EventType() MessageType    { return TypePlayerLeft }
func (Error) EventType() MessageType         { return TypeError }

// Error codes
const (
	CodeInvalidMessage    = "invalid_message"
	CodeUnknownType       = "unknown_message_type"
	CodeNotReady          = "not_ready"
	CodeNotHost           = "not_host"
	CodeNotYourTurn       = "not_your_turn"
	CodeWrongPhase        = "wrong_phase"
	CodeInvalidCommand    = "invalid_command"
	CodeInsufficientChips = "insufficient_chips"
	CodeGameOver          = "game_over"
	CodeUnknownClient     = "unknown_client"
	CodeInternal          = "internal_error"
)

// Registration

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	UserName string `json:"user_name"`
}

// RegisterResponse tells a new participant where to connect.
type RegisterResponse struct {
	URL    string `json:"url"`
	IsHost bool   `json:"is_host"`
	ID     string `json:"id"`
}
