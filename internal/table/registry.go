package table

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lox/blackjack/internal/game"
)

// DefaultStartingChips is the balance every new player sits down with.
const DefaultStartingChips = 500

// NewIdentity returns a fresh opaque session identifier.
func NewIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Connection is one registered participant.
type Connection struct {
	ID       string
	Position int
	Player   game.Player
	outbox   *Queue
}

// Attached reports whether the socket handshake has completed.
func (c Connection) Attached() bool {
	return c.outbox != nil
}

// Outbox returns the connection's outbound queue, nil until attached.
func (c Connection) Outbox() *Queue {
	return c.outbox
}

func (c *Connection) snapshot() Connection {
	cp := *c
	cp.Player = c.Player.Clone()
	return cp
}

// Recipient is an attached connection's identity and queue.
type Recipient struct {
	ID    string
	Queue *Queue
}

// Registry holds the connections in turn order. Every method takes the
// lock for the in-memory work only and returns copies, so callers never
// hold it while blocking.
type Registry struct {
	mu            sync.Mutex
	conns         []*Connection
	nextPosition  int
	hostID        string
	startingChips uint32
}

// NewRegistry creates an empty registry.
func NewRegistry(startingChips uint32) *Registry {
	return &Registry{startingChips: startingChips}
}

// Register adds a connection at the next turn position. The first
// connection of an empty registry becomes the host. Registering an
// identity twice returns its existing position.
func (r *Registry) Register(id, name string) (position int, isHost bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.find(id); c != nil {
		return c.Position, r.hostID == id
	}

	position = r.nextPosition
	r.nextPosition++
	r.conns = append(r.conns, &Connection{
		ID:       id,
		Position: position,
		Player:   game.NewPlayer(name, r.startingChips),
	})

	if r.hostID == "" {
		r.hostID = id
	}
	return position, r.hostID == id
}

// AttachSender sets the outbound queue once the socket is up. It returns
// false if the identity is not registered.
func (r *Registry) AttachSender(id string, q *Queue) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return false
	}
	c.outbox = q
	return true
}

// FindByID looks a connection up by identity.
func (r *Registry) FindByID(id string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.find(id); c != nil {
		return c.snapshot(), true
	}
	return Connection{}, false
}

// FindByPosition looks a connection up by its exact turn position.
func (r *Registry) FindByPosition(position int) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conns {
		if c.Position == position {
			return c.snapshot(), true
		}
	}
	return Connection{}, false
}

// NextAttachedAfter returns the attached connection with the lowest
// position greater than position. Gaps left by departed connections and
// seats whose socket is not open yet are skipped.
func (r *Registry) NextAttachedAfter(position int) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// conns is kept in ascending position order
	i := sort.Search(len(r.conns), func(i int) bool {
		return r.conns[i].Position > position
	})
	for ; i < len(r.conns); i++ {
		if r.conns[i].outbox != nil {
			return r.conns[i].snapshot(), true
		}
	}
	return Connection{}, false
}

// Unregister removes a connection, returning what was removed. Unknown
// identities are ignored. If the host leaves, the attached connection with
// the lowest position takes over, or the lowest position if none is
// attached.
func (r *Registry) Unregister(id string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.conns {
		if c.ID != id {
			continue
		}
		r.conns = append(r.conns[:i], r.conns[i+1:]...)
		if r.hostID == id {
			r.hostID = r.successor()
		}
		return c.snapshot(), true
	}
	return Connection{}, false
}

// UpdatePlayer applies fn to one connection's player under the lock. fn
// must not block. If fn returns an error the player is left unchanged.
func (r *Registry) UpdatePlayer(id string, fn func(*game.Player) error) (game.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.find(id)
	if c == nil {
		return game.Player{}, ErrUnknownConnection
	}

	p := c.Player.Clone()
	if err := fn(&p); err != nil {
		return game.Player{}, err
	}
	c.Player = p
	return p.Clone(), nil
}

// UpdateAll applies fn to every connection in turn order under the lock.
// fn must not block.
func (r *Registry) UpdateAll(fn func(id string, p *game.Player)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conns {
		fn(c.ID, &c.Player)
	}
}

// Snapshot returns copies of every connection in turn order.
func (r *Registry) Snapshot() []Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Connection, len(r.conns))
	for i, c := range r.conns {
		out[i] = c.snapshot()
	}
	return out
}

// Recipients returns every attached connection except exclude.
func (r *Registry) Recipients(exclude string) []Recipient {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Recipient, 0, len(r.conns))
	for _, c := range r.conns {
		if c.outbox == nil || (exclude != "" && c.ID == exclude) {
			continue
		}
		out = append(out, Recipient{ID: c.ID, Queue: c.outbox})
	}
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Host returns the identity allowed to start rounds.
func (r *Registry) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// IsHost reports whether id is the current host.
func (r *Registry) IsHost(id string) bool {
	return id != "" && r.Host() == id
}

func (r *Registry) successor() string {
	for _, c := range r.conns {
		if c.outbox != nil {
			return c.ID
		}
	}
	if len(r.conns) > 0 {
		return r.conns[0].ID
	}
	return ""
}

func (r *Registry) find(id string) *Connection {
	for _, c := range r.conns {
		if c.ID == id {
			return c
		}
	}
	return nil
}
