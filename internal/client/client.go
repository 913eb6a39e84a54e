package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/protocol"
)

var (
	ErrNotRegistered = errors.New("not registered")
	ErrNotConnected  = errors.New("not connected")
)

// EventHandler handles one decoded server event. Handlers run on the read
// loop in arrival order and must not block.
type EventHandler func(protocol.Event)

// Client registers with a table server and exchanges messages over the
// returned websocket.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger

	mu       sync.RWMutex
	reg      *protocol.RegisterResponse
	name     string
	conn     *websocket.Conn
	handlers map[protocol.MessageType][]EventHandler
	done     chan struct{}

	writeMu sync.Mutex
}

// New creates a client for the server at baseURL, e.g. http://localhost:8000
func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logger.WithPrefix("client"),
		handlers: make(map[protocol.MessageType][]EventHandler),
		done:     make(chan struct{}),
	}
}

// Register allocates a seat at the table.
func (c *Client) Register(ctx context.Context, name string) (protocol.RegisterResponse, error) {
	body, err := json.Marshal(protocol.RegisterRequest{UserName: name})
	if err != nil {
		return protocol.RegisterResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return protocol.RegisterResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.RegisterResponse{}, fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return protocol.RegisterResponse{}, fmt.Errorf("register: unexpected status %d", resp.StatusCode)
	}

	var reg protocol.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return protocol.RegisterResponse{}, fmt.Errorf("register: %w", err)
	}

	c.mu.Lock()
	c.reg = &reg
	c.name = strings.TrimSpace(name)
	c.mu.Unlock()

	c.logger.Info("Registered", "name", name, "id", reg.ID, "host", reg.IsHost)
	return reg, nil
}

// Unregister gives the seat back. An open socket is closed by the server.
func (c *Client) Unregister(ctx context.Context) error {
	reg, err := c.registration()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/register/"+reg.ID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unregister: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unregister: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Connect opens the websocket from the registration and starts reading.
func (c *Client) Connect(ctx context.Context) error {
	reg, err := c.registration()
	if err != nil {
		return err
	}

	c.logger.Info("Connecting to server", "url", reg.URL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, reg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readMessages(conn)
	return nil
}

// ID returns the identity assigned at registration.
func (c *Client) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.reg == nil {
		return ""
	}
	return c.reg.ID
}

// Name returns the display name used at registration.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// IsHost reports whether this client may start rounds. It follows host
// handovers announced in player_left events.
func (c *Client) IsHost() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg != nil && c.reg.IsHost
}

// On registers a handler for one event type.
func (c *Client) On(t protocol.MessageType, h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = append(c.handlers[t], h)
}

// Send writes a command to the server.
func (c *Client) Send(cmd protocol.Command) error {
	data, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

// Ping sends the text keepalive the server ignores.
func (c *Client) Ping() error {
	return c.write(websocket.TextMessage, []byte("ping"))
}

// Done is closed once the read loop stops.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and drops the socket.
func (c *Client) Close() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return nil
	}

	_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}

func (c *Client) registration() (protocol.RegisterResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.reg == nil {
		return protocol.RegisterResponse{}, ErrNotRegistered
	}
	return *c.reg, nil
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(messageType, data)
}

func (c *Client) readMessages(conn *websocket.Conn) {
	defer close(c.done)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		ev, err := protocol.DecodeEvent(frame)
		if err != nil {
			c.logger.Warn("Dropped undecodable event", "error", err)
			continue
		}
		c.observe(ev)
		c.dispatch(ev)
	}
}

// observe keeps the host flag current across handovers.
func (c *Client) observe(ev protocol.Event) {
	left, ok := ev.(protocol.PlayerLeft)
	if !ok || left.HostID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reg != nil {
		c.reg.IsHost = left.HostID == c.reg.ID
	}
}

func (c *Client) dispatch(ev protocol.Event) {
	c.mu.RLock()
	handlers := c.handlers[ev.EventType()]
	c.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// WaitForHealthy polls the server's health endpoint until it answers or
// ctx is done.
func WaitForHealthy(ctx context.Context, baseURL string) error {
	healthURL := strings.TrimRight(baseURL, "/") + "/health"
	client := &http.Client{Timeout: 500 * time.Millisecond}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s not healthy: %w", baseURL, ctx.Err())
		case <-ticker.C:
		}
	}
}
