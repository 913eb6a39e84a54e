package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
)

func TestPlayerHandValueTracksHand(t *testing.T) {
	p := NewPlayer("alice", 500)
	assert.Equal(t, 0, p.HandValue)

	p.AddCards(deck.MustParseCards("Ks")...)
	assert.Equal(t, 10, p.HandValue)

	p.AddCards(deck.MustParseCards("As")...)
	assert.Equal(t, 21, p.HandValue)

	p.SetHand(deck.MustParseCards("9h9d"))
	assert.Equal(t, 18, p.HandValue)
	assert.Len(t, p.Hand, 2)

	p.CurrentBet = 50
	p.ResetHand()
	assert.Empty(t, p.Hand)
	assert.Equal(t, 0, p.HandValue)
	assert.Equal(t, uint32(0), p.CurrentBet)
	assert.Equal(t, uint32(500), p.Chips)
}

func TestPlayerCloneIsIndependent(t *testing.T) {
	p := NewPlayer("alice", 500)
	p.AddCards(deck.MustParseCards("2s3s")...)

	c := p.Clone()
	c.Hand[0] = deck.NewCard(deck.Ace, deck.Hearts)

	assert.Equal(t, deck.Two, p.Hand[0].Rank)
}

func TestPlayerJSON(t *testing.T) {
	p := NewDealer()
	p.AddCards(deck.MustParseCards("Tc")...)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"user_name": "Dealer",
		"player_type": "Dealer",
		"hand": [{"rank": "Ten", "suit": "Clubs"}],
		"hand_value": 10,
		"chips": 0,
		"current_bet": 0
	}`, string(data))

	var decoded Player
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, p, decoded)
}

func TestTurnResultJSON(t *testing.T) {
	data, err := json.Marshal(TurnResult{Player: NewPlayer("bob", 10), EndState: Blackjack})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"end_state":"Blackjack"`)
	assert.NotContains(t, string(data), `client_id`, "dealer rows carry no identity")

	data, err = json.Marshal(TurnResult{ClientID: "abc", Player: NewPlayer("bob", 10), EndState: Win})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"client_id":"abc"`)
}
