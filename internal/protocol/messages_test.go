package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

func TestDecodeCommand(t *testing.T) {
	snapshot := game.NewPlayer("alice", 500)
	snapshot.SetHand(deck.MustParseCards("KsQh"))

	tests := []struct {
		name  string
		frame string
		want  Command
	}{
		{"start", `{"type":"start"}`, Start{}},
		{"start with null data", `{"type":"start","data":null}`, Start{}},
		{"bet", `{"type":"bet","data":{"amount":100}}`, Bet{Amount: 100}},
		{"draw cards", `{"type":"draw_cards","data":{"count":2}}`, DrawCards{Count: 2}},
		{"hit", `{"type":"hit","data":{}}`, Hit{}},
		{"end turn without snapshot", `{"type":"end_turn"}`, EndTurn{}},
		{
			"end turn with snapshot",
			`{"type":"end_turn","data":{"player":{"user_name":"alice","player_type":"Human","hand":[{"rank":"King","suit":"Spades"},{"rank":"Queen","suit":"Hearts"}],"hand_value":20,"chips":500,"current_bet":0}}}`,
			EndTurn{Player: &snapshot},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		err   error
	}{
		{"not json", `hello`, ErrMalformed},
		{"missing type", `{"data":{}}`, ErrMalformed},
		{"bad payload", `{"type":"bet","data":{"amount":"lots"}}`, ErrMalformed},
		{"negative amount", `{"type":"bet","data":{"amount":-5}}`, ErrMalformed},
		{"count overflows u16", `{"type":"draw_cards","data":{"count":70000}}`, ErrMalformed},
		{"unknown", `{"type":"split"}`, ErrUnknownMessageType},
		{"event is not a command", `{"type":"start_turn"}`, ErrUnknownMessageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand([]byte(tt.frame))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncodeEventEnvelope(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	data, err := Encode(StartTurn{
		ActiveClientID: "abc",
		UserName:       "alice",
		DealerCard:     deck.NewCard(deck.Ace, deck.Spades),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "start_turn",
		"data": {
			"active_client_id": "abc",
			"user_name": "alice",
			"dealer_card": {"rank": "Ace", "suit": "Spades"}
		},
		"timestamp": "2024-03-01T12:00:00Z"
	}`, string(data))
}

func TestEncodeDecodeEvents(t *testing.T) {
	dealer := game.NewDealer()
	dealer.SetHand(deck.MustParseCards("Ts8d"))

	events := []Event{
		StartTurn{ActiveClientID: "a", UserName: "alice", DealerCard: deck.NewCard(deck.Two, deck.Clubs)},
		CardsDrawn{ClientID: "a", Cards: deck.MustParseCards("AsKh")},
		RoundFinished{Results: []game.TurnResult{
			{Player: dealer, EndState: game.Push},
			{ClientID: "a", Player: game.NewPlayer("alice", 550), EndState: game.Win},
		}},
		GameFinished{},
		PlayerJoined{ClientID: "b", UserName: "bob", Position: 1},
		PlayerLeft{ClientID: "b", UserName: "bob", HostID: "a"},
		Error{Code: CodeNotYourTurn, Message: "wait"},
	}

	for _, ev := range events {
		t.Run(ev.EventType().String(), func(t *testing.T) {
			data, err := Encode(ev)
			require.NoError(t, err)

			got, err := DecodeEvent(data)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	data, err := Encode(DrawCards{Count: 3})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, TypeDrawCards, env.Type)

	cmd, err := DecodeCommand(data)
	require.NoError(t, err)
	assert.Equal(t, DrawCards{Count: 3}, cmd)
}

func TestEncodeRejectsUnknownValue(t *testing.T) {
	_, err := Encode(struct{}{})
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestIsKeepalive(t *testing.T) {
	assert.True(t, IsKeepalive([]byte("ping")))
	assert.True(t, IsKeepalive([]byte("ping\n")))
	assert.False(t, IsKeepalive([]byte(`{"type":"hit"}`)))
}
