package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/protocol"
	"github.com/lox/blackjack/internal/table"
)

// Server exposes the table over HTTP registration and WebSocket play
type Server struct {
	cfg         *Config
	upgrader    websocket.Upgrader
	logger      *log.Logger
	registry    *table.Registry
	broadcaster *table.Broadcaster
	sequencer   *table.Sequencer
	ctx         context.Context
	cancel      context.CancelFunc
	conns       sync.WaitGroup

	mu         sync.Mutex
	httpServer *http.Server
}

type options struct {
	source deck.Source
	clock  quartz.Clock
	seed   int64
}

// Option configures a Server
type Option func(*options)

// WithSource replaces the shoe the table deals from
func WithSource(src deck.Source) Option {
	return func(o *options) { o.source = src }
}

// WithSeed seeds the default shoe
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithClock sets the clock used for enqueue deadlines
func WithClock(clock quartz.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// NewServer creates a server with a single table built from cfg
func NewServer(cfg *Config, logger *log.Logger, opts ...Option) *Server {
	o := options{clock: quartz.NewReal(), seed: time.Now().UnixNano()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == nil {
		o.source = deck.NewShoe(cfg.Table.Decks, o.seed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	registry := table.NewRegistry(uint32(cfg.Table.StartingChips))
	broadcaster := table.NewBroadcaster(registry, logger,
		table.WithClock(o.clock),
		table.WithEnqueueTimeout(cfg.EnqueueTimeout()))

	return &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			// Clients are terminal programs, not browsers
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("server"),
		registry:    registry,
		broadcaster: broadcaster,
		sequencer:   table.NewSequencer(registry, table.NewDealer(), o.source, broadcaster, cfg.Rules(), logger),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("DELETE /register/{id}", s.handleUnregister)
	mux.HandleFunc("GET /ws/{id}", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start listens on addr and serves until Shutdown
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("Starting server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Shutdown stops accepting requests and closes every connection
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// Sequencer exposes the table state machine
func (s *Server) Sequencer() *table.Sequencer {
	return s.sequencer
}

// Registry exposes the connection registry
func (s *Server) Registry() *table.Registry {
	return s.registry
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req protocol.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "invalid registration body", http.StatusBadRequest)
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" {
		http.Error(w, "user_name required", http.StatusBadRequest)
		return
	}

	id := table.NewIdentity()
	position, isHost := s.registry.Register(id, req.UserName)
	s.logger.Info("Registration", "name", req.UserName, "id", id, "position", position, "host", isHost)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(protocol.RegisterResponse{
		URL:    fmt.Sprintf("%s/ws/%s", s.publicURL(r), id),
		IsHost: isHost,
		ID:     id,
	})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if c, ok := s.registry.FindByID(id); ok && c.Attached() {
		// closing the queue drops the socket
		c.Outbox().Close()
	}
	s.sequencer.Leave(id)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, ok := s.registry.FindByID(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if c.Attached() {
		http.Error(w, "already connected", http.StatusConflict)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	s.conns.Add(1)
	defer s.conns.Done()

	conn := NewConnection(id, ws, s.sequencer, s.broadcaster, s.cfg.Table.OutboxSize, s.logger)
	if err := conn.Run(s.ctx); err != nil {
		s.logger.Debug("Connection ended", "id", id, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) publicURL(r *http.Request) string {
	if s.cfg.Server.PublicURL != "" {
		return s.cfg.Server.PublicURL
	}
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	return scheme + "://" + r.Host
}
