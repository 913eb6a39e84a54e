package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "blackjack",
			input: "AsKh",
			expected: []Card{
				{Rank: Ace, Suit: Spades},
				{Rank: King, Suit: Hearts},
			},
		},
		{
			name:  "ten and low cards",
			input: "Td5c2d",
			expected: []Card{
				{Rank: Ten, Suit: Diamonds},
				{Rank: Five, Suit: Clubs},
				{Rank: Two, Suit: Diamonds},
			},
		},
		{
			name:  "case insensitive",
			input: "asKHqDjc",
			expected: []Card{
				{Rank: Ace, Suit: Spades},
				{Rank: King, Suit: Hearts},
				{Rank: Queen, Suit: Diamonds},
				{Rank: Jack, Suit: Clubs},
			},
		},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AsKx", wantErr: true},
		{name: "odd length", input: "AsK", wantErr: true},
		{name: "empty string", input: "", expected: []Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMustParseCardsPanics(t *testing.T) {
	assert.Panics(t, func() { MustParseCards("invalid") })
}

func TestRankValue(t *testing.T) {
	tests := []struct {
		rank Rank
		want int
	}{
		{Two, 2}, {Five, 5}, {Nine, 9}, {Ten, 10},
		{Jack, 10}, {Queen, 10}, {King, 10}, {Ace, 11},
	}

	for _, tt := range tests {
		t.Run(tt.rank.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rank.Value())
		})
	}
}

func TestCardJSON(t *testing.T) {
	card := NewCard(Queen, Diamonds)

	data, err := json.Marshal(card)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":"Queen","suit":"Diamonds"}`, string(data))

	var decoded Card
	require.NoError(t, json.Unmarshal([]byte(`{"rank":"ace","suit":"spades"}`), &decoded))
	assert.Equal(t, NewCard(Ace, Spades), decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"rank":"Joker","suit":"Spades"}`), &decoded))
}

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", NewCard(Ace, Spades).String())
	assert.Equal(t, "T♥", NewCard(Ten, Hearts).String())
}
