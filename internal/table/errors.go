package table

import (
	"errors"

	"github.com/lox/blackjack/internal/protocol"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotReady          = errors.New("connection not ready")
	ErrAlreadyAttached   = errors.New("connection already attached")
	ErrNotHost           = errors.New("only the host can start a round")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrWrongPhase        = errors.New("command not allowed at this point in the round")
	ErrInvalidCommand    = errors.New("invalid command")
	ErrInsufficientChips = errors.New("bet exceeds chip balance")
	ErrGameOver          = errors.New("game is over")

	ErrQueueFull   = errors.New("outbound queue full")
	ErrQueueClosed = errors.New("outbound queue closed")
)

// ErrorCode maps a command error onto the code sent back to the client.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownConnection):
		return protocol.CodeUnknownClient
	case errors.Is(err, ErrNotReady):
		return protocol.CodeNotReady
	case errors.Is(err, ErrNotHost):
		return protocol.CodeNotHost
	case errors.Is(err, ErrNotYourTurn):
		return protocol.CodeNotYourTurn
	case errors.Is(err, ErrWrongPhase):
		return protocol.CodeWrongPhase
	case errors.Is(err, ErrInvalidCommand):
		return protocol.CodeInvalidCommand
	case errors.Is(err, ErrInsufficientChips):
		return protocol.CodeInsufficientChips
	case errors.Is(err, ErrGameOver):
		return protocol.CodeGameOver
	case errors.Is(err, protocol.ErrUnknownMessageType):
		return protocol.CodeUnknownType
	case errors.Is(err, protocol.ErrMalformed):
		return protocol.CodeInvalidMessage
	default:
		return protocol.CodeInternal
	}
}
