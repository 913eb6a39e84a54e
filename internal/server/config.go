package server

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjack/internal/table"
)

// Config represents the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	PublicURL string `hcl:"public_url,optional"` // e.g. ws://cards.example.com, defaults to the request host
}

// TableSettings contains the game rules and per-connection limits
type TableSettings struct {
	StartingChips    int `hcl:"starting_chips,optional"`
	Decks            int `hcl:"decks,optional"`
	DealerStandsOn   int `hcl:"dealer_stands_on,optional"`
	MaxDraw          int `hcl:"max_draw,optional"`
	OutboxSize       int `hcl:"outbox_size,optional"`
	EnqueueTimeoutMs int `hcl:"enqueue_timeout_ms,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(src, filename)
}

// ParseConfig decodes HCL source and applies defaults for missing values.
func ParseConfig(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Table == nil {
		c.Table = &TableSettings{}
	}

	if c.Server.Address == "" {
		c.Server.Address = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")

	if c.Table.StartingChips == 0 {
		c.Table.StartingChips = table.DefaultStartingChips
	}
	if c.Table.Decks == 0 {
		c.Table.Decks = 1
	}
	if c.Table.DealerStandsOn == 0 {
		c.Table.DealerStandsOn = table.DefaultStandOn
	}
	if c.Table.MaxDraw == 0 {
		c.Table.MaxDraw = 52
	}
	if c.Table.OutboxSize == 0 {
		c.Table.OutboxSize = 256
	}
	if c.Table.EnqueueTimeoutMs == 0 {
		c.Table.EnqueueTimeoutMs = int(table.DefaultEnqueueTimeout / time.Millisecond)
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	if c.Server.PublicURL != "" &&
		!strings.HasPrefix(c.Server.PublicURL, "ws://") &&
		!strings.HasPrefix(c.Server.PublicURL, "wss://") {
		return fmt.Errorf("public url must use ws:// or wss://: %s", c.Server.PublicURL)
	}

	t := c.Table
	if t.StartingChips <= 0 || int64(t.StartingChips) > math.MaxUint32 {
		return fmt.Errorf("starting chips must be between 1 and %d", uint32(math.MaxUint32))
	}
	if t.Decks < 1 || t.Decks > 8 {
		return fmt.Errorf("decks must be between 1 and 8")
	}
	if t.DealerStandsOn < 2 || t.DealerStandsOn > 21 {
		return fmt.Errorf("dealer must stand on a total between 2 and 21")
	}
	if t.MaxDraw < 1 {
		return fmt.Errorf("max draw must be positive")
	}
	if t.OutboxSize < 1 {
		return fmt.Errorf("outbox size must be positive")
	}
	if t.EnqueueTimeoutMs < 1 {
		return fmt.Errorf("enqueue timeout must be positive")
	}
	return nil
}

// ListenAddress returns the host:port to bind
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EnqueueTimeout returns how long a publish waits on one full queue
func (c *Config) EnqueueTimeout() time.Duration {
	return time.Duration(c.Table.EnqueueTimeoutMs) * time.Millisecond
}

// Rules returns the table rules
func (c *Config) Rules() table.Rules {
	return table.Rules{
		StandOn: c.Table.DealerStandsOn,
		MaxDraw: c.Table.MaxDraw,
	}
}
