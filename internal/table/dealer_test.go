package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
)

func TestDealerPlayStandsOn17(t *testing.T) {
	tests := []struct {
		name  string
		hand  string
		draws string
		want  int
		cards int
	}{
		{"stands on dealt 17", "Ts7d", "", 17, 2},
		{"draws to 17", "Ts3d", "4c", 17, 3},
		{"draws until bust", "Ks4d", "Kc", 24, 3},
		{"soft ace counts high", "As6d", "", 17, 2},
		{"draws several", "2s3d", "4c5h6s", 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDealer()
			d.Deal(deck.MustParseCards(tt.hand))

			got := d.Play(deck.NewStack(deck.MustParseCards(tt.draws), nil), DefaultStandOn)
			assert.Equal(t, tt.want, got.HandValue)
			assert.Len(t, got.Hand, tt.cards)
		})
	}
}

func TestDealerFaceUpCard(t *testing.T) {
	d := NewDealer()
	_, ok := d.FaceUpCard()
	assert.False(t, ok)

	d.Deal(deck.MustParseCards("QhAs"))
	card, ok := d.FaceUpCard()
	require.True(t, ok)
	assert.Equal(t, deck.NewCard(deck.Queen, deck.Hearts), card)
	assert.Equal(t, 21, d.HandValue())

	d.Deal(deck.MustParseCards("2c3c"))
	assert.Equal(t, 5, d.Snapshot().HandValue, "deal replaces the previous hand")
}
