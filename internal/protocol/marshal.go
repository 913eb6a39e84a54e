package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownMessageType is returned for a frame whose type is not part of
	// the vocabulary.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrMalformed is returned for frames that are not valid envelopes.
	ErrMalformed = errors.New("malformed message")
)

// now is replaced in tests.
var now = time.Now

// Encode wraps a command or event in an envelope and serializes it.
func Encode(v any) ([]byte, error) {
	var typ MessageType
	switch msg := v.(type) {
	case Event:
		typ = msg.EventType()
	case Command:
		typ = msg.CommandType()
	default:
		return nil, ErrUnknownMessageType
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", typ, err)
	}

	return json.Marshal(Envelope{
		Type:      typ,
		Data:      data,
		Timestamp: now().UTC(),
	})
}

// IsKeepalive reports whether a text frame is a bare ping from the client.
func IsKeepalive(frame []byte) bool {
	return strings.TrimSpace(string(frame)) == "ping"
}

// DecodeCommand parses a client frame into one of the Command types.
func DecodeCommand(frame []byte) (Command, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var cmd Command
	switch env.Type {
	case TypeStart:
		cmd = &Start{}
	case TypeBet:
		cmd = &Bet{}
	case TypeDrawCards:
		cmd = &DrawCards{}
	case TypeHit:
		cmd = &Hit{}
	case TypeEndTurn:
		cmd = &EndTurn{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}

	if err := decodeData(env, cmd); err != nil {
		return nil, err
	}
	return deref(cmd), nil
}

// DecodeEvent parses a server frame into one of the Event types.
func DecodeEvent(frame []byte) (Event, error) {
	env, err := decodeEnvelope(frame)
	if err != nil {
		return nil, err
	}

	var ev Event
	switch env.Type {
	case TypeStartTurn:
		ev = &StartTurn{}
	case TypeCardsDrawn:
		ev = &CardsDrawn{}
	case TypeRoundFinished:
		ev = &RoundFinished{}
	case TypeGameFinished:
		ev = &GameFinished{}
	case TypePlayerJoined:
		ev = &PlayerJoined{}
	case TypePlayerLeft:
		ev = &PlayerLeft{}
	case TypeError:
		ev = &Error{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}

	if err := decodeData(env, ev); err != nil {
		return nil, err
	}
	return derefEvent(ev), nil
}

func decodeEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env, nil
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return nil
}

// deref returns commands by value so callers can type switch on the
// plain struct types.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *Start:
		return *c
	case *Bet:
		return *c
	case *DrawCards:
		return *c
	case *Hit:
		return *c
	case *EndTurn:
		return *c
	}
	return cmd
}

func derefEvent(ev Event) Event {
	switch e := ev.(type) {
	case *StartTurn:
		return *e
	case *CardsDrawn:
		return *e
	case *RoundFinished:
		return *e
	case *GameFinished:
		return *e
	case *PlayerJoined:
		return *e
	case *PlayerLeft:
		return *e
	case *Error:
		return *e
	}
	return ev
}
