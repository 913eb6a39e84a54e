package server

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/table"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection runs the reader and forwarder for one attached socket
type Connection struct {
	id          string
	conn        *websocket.Conn
	queue       *table.Queue
	sequencer   *table.Sequencer
	broadcaster *table.Broadcaster
	logger      *log.Logger
}

// NewConnection wraps an upgraded socket for the given identity
func NewConnection(id string, conn *websocket.Conn, sequencer *table.Sequencer, broadcaster *table.Broadcaster, queueSize int, logger *log.Logger) *Connection {
	return &Connection{
		id:          id,
		conn:        conn,
		queue:       table.NewQueue(queueSize),
		sequencer:   sequencer,
		broadcaster: broadcaster,
		logger:      logger.WithPrefix("conn").With("id", id),
	}
}

// Run attaches the connection's queue and runs both pumps until either
// stops or ctx is cancelled. The connection leaves the table and the
// socket is closed on return.
func (c *Connection) Run(ctx context.Context) error {
	defer func() {
		c.queue.Close()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	if err := c.sequencer.Attach(c.id, c.queue); err != nil {
		return err
	}
	defer c.sequencer.Leave(c.id)
	c.logger.Info("Client connected")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readPump(ctx) })
	g.Go(func() error { return c.writePump(ctx) })

	err := g.Wait()
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		c.logger.Error("WebSocket error", "error", err)
	} else {
		c.logger.Info("Client disconnected")
	}
	return err
}

// readPump decodes inbound frames in order and hands them to the sequencer
func (c *Connection) readPump(ctx context.Context) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.handleFrame(frame)
	}
}

func (c *Connection) handleFrame(frame []byte) {
	if protocol.IsKeepalive(frame) {
		return
	}

	cmd, err := protocol.DecodeCommand(frame)
	if err != nil {
		c.logger.Warn("Dropped undecodable message", "error", err)
		c.sendError(err)
		return
	}

	c.logger.Debug("Received command", "type", cmd.CommandType())
	if err := c.sequencer.Handle(c.id, cmd); err != nil {
		c.sendError(err)
	}
}

func (c *Connection) sendError(err error) {
	ev := protocol.Error{Code: table.ErrorCode(err), Message: err.Error()}
	if sendErr := c.broadcaster.SendTo(c.id, ev); sendErr != nil {
		c.logger.Debug("Failed to send error", "error", sendErr)
	}
}

// writePump drains the queue onto the socket and keeps it alive with pings
func (c *Connection) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // unblocks readPump
	}()

	for {
		select {
		case message := <-c.queue.C():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}

		case <-c.queue.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return table.ErrQueueClosed

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}

		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return ctx.Err()
		}
	}
}
