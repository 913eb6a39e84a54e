package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

func TestRegistryRegisterAssignsPositions(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)

	pos, host := r.Register("a", "alice")
	assert.Equal(t, 0, pos)
	assert.True(t, host)

	pos, host = r.Register("b", "bob")
	assert.Equal(t, 1, pos)
	assert.False(t, host)

	c, ok := r.FindByID("b")
	require.True(t, ok)
	assert.Equal(t, "bob", c.Player.UserName)
	assert.Equal(t, uint32(DefaultStartingChips), c.Player.Chips)
	assert.Empty(t, c.Player.Hand)
	assert.False(t, c.Attached())

	pos, _ = r.Register("b", "bob again")
	assert.Equal(t, 1, pos, "re-registering keeps the position")
	assert.Equal(t, 2, r.Len())
}

func TestRegistryPositionsNeverReused(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("b", "bob")
	r.Register("c", "carol")

	r.Unregister("b")
	pos, _ := r.Register("d", "dave")
	assert.Equal(t, 3, pos)

	_, ok := r.FindByPosition(1)
	assert.False(t, ok)

	c, ok := r.FindByPosition(2)
	require.True(t, ok)
	assert.Equal(t, "c", c.ID)
}

func TestRegistryNextAttachedAfterSkipsGaps(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	for _, id := range []string{"a", "b", "c"} {
		r.Register(id, id)
		require.True(t, r.AttachSender(id, NewQueue(1)))
	}
	r.Unregister("b")

	next, ok := r.NextAttachedAfter(0)
	require.True(t, ok)
	assert.Equal(t, "c", next.ID)

	first, ok := r.NextAttachedAfter(-1)
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)

	_, ok = r.NextAttachedAfter(2)
	assert.False(t, ok)
}

func TestRegistryNextAttachedAfterSkipsUnattached(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("ghost", "ghost")
	r.Register("c", "carol")
	require.True(t, r.AttachSender("a", NewQueue(1)))
	require.True(t, r.AttachSender("c", NewQueue(1)))

	next, ok := r.NextAttachedAfter(0)
	require.True(t, ok)
	assert.Equal(t, "c", next.ID)

	_, ok = r.NextAttachedAfter(2)
	assert.False(t, ok)

	// the seat takes turns once its socket is up
	require.True(t, r.AttachSender("ghost", NewQueue(1)))
	next, ok = r.NextAttachedAfter(0)
	require.True(t, ok)
	assert.Equal(t, "ghost", next.ID)
}

func TestRegistryHandoverPrefersAttached(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("ghost", "ghost")
	r.Register("c", "carol")
	require.True(t, r.AttachSender("c", NewQueue(1)))

	r.Unregister("a")
	assert.Equal(t, "c", r.Host())

	r.Unregister("c")
	assert.Equal(t, "ghost", r.Host())
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("b", "bob")

	_, ok := r.Unregister("never-registered")
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())

	removed, ok := r.Unregister("b")
	require.True(t, ok)
	assert.Equal(t, "b", removed.ID)

	before := r.Snapshot()
	_, ok = r.Unregister("b")
	assert.False(t, ok)
	assert.Equal(t, before, r.Snapshot())
}

func TestRegistryHostHandover(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("b", "bob")
	r.Register("c", "carol")
	assert.True(t, r.IsHost("a"))

	r.Unregister("a")
	assert.True(t, r.IsHost("b"))

	r.Unregister("b")
	r.Unregister("c")
	assert.Equal(t, "", r.Host())

	_, host := r.Register("d", "dave")
	assert.True(t, host, "first connection of an empty registry hosts")
}

func TestRegistryAttachSender(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	r.Register("b", "bob")

	assert.False(t, r.AttachSender("missing", NewQueue(1)))
	assert.Empty(t, r.Recipients(""))

	q := NewQueue(1)
	require.True(t, r.AttachSender("a", q))
	require.True(t, r.AttachSender("a", q))

	c, _ := r.FindByID("a")
	assert.True(t, c.Attached())
	assert.Same(t, q, c.Outbox())

	recipients := r.Recipients("")
	require.Len(t, recipients, 1)
	assert.Equal(t, "a", recipients[0].ID)
	assert.Empty(t, r.Recipients("a"))
}

func TestRegistryUpdatePlayer(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")

	p, err := r.UpdatePlayer("a", func(p *game.Player) error {
		p.AddCards(deck.MustParseCards("AsKh")...)
		p.CurrentBet = 25
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 21, p.HandValue)

	boom := errors.New("boom")
	_, err = r.UpdatePlayer("a", func(p *game.Player) error {
		p.CurrentBet = 400
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, _ := r.FindByID("a")
	assert.Equal(t, uint32(25), c.Player.CurrentBet, "failed update leaves the player unchanged")

	_, err = r.UpdatePlayer("missing", func(*game.Player) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownConnection)
}

func TestRegistrySnapshotsAreCopies(t *testing.T) {
	r := NewRegistry(DefaultStartingChips)
	r.Register("a", "alice")
	_, err := r.UpdatePlayer("a", func(p *game.Player) error {
		p.AddCards(deck.MustParseCards("2s")...)
		return nil
	})
	require.NoError(t, err)

	c, _ := r.FindByID("a")
	c.Player.Hand[0] = deck.NewCard(deck.Ace, deck.Spades)
	c.Player.Chips = 0

	fresh, _ := r.FindByID("a")
	assert.Equal(t, deck.Two, fresh.Player.Hand[0].Rank)
	assert.Equal(t, uint32(DefaultStartingChips), fresh.Player.Chips)
}
