package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/client"
)

type CLI struct {
	Server  string `default:"http://127.0.0.1:8000" help:"Server base URL"`
	Name    string `default:"bot" help:"Display name at the table"`
	Bet     uint32 `default:"50" help:"Stake per round"`
	StandOn int    `default:"17" help:"Stop hitting at this total"`
	Rounds  int    `default:"0" help:"Rounds to play before leaving, 0 until the game ends"`
	Players int    `default:"1" help:"When hosting, wait for this many seats before starting"`
	Debug   bool   `help:"Enable debug logging"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack-bot"),
		kong.Description("Headless player that autoplays a blackjack seat"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cli.Run())
}

func (c *CLI) Run() error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          c.Name,
	})
	if c.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForHealthy(waitCtx, c.Server); err != nil {
		return err
	}

	cl := client.New(c.Server, logger)
	if _, err := cl.Register(ctx, c.Name); err != nil {
		return err
	}
	defer func() {
		unregisterCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cl.Unregister(unregisterCtx); err != nil {
			logger.Debug("Unregister failed", "error", err)
		}
	}()

	bot := client.NewBot(cl, client.Strategy{
		Bet:     c.Bet,
		StandOn: c.StandOn,
		Rounds:  c.Rounds,
		Players: c.Players,
	}, logger)

	if err := cl.Connect(ctx); err != nil {
		return err
	}
	defer cl.Close()

	err := bot.Run(ctx)
	logger.Info("Leaving table", "rounds", len(bot.Results()))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
