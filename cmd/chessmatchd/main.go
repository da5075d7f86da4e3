// Command chessmatchd runs the chess match-making and relay server.
//
// Usage:
//
//	chessmatchd <CONFIG-FILE>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/chessmatch/chessmatchd/internal/config"
	"github.com/chessmatch/chessmatchd/internal/lobby"
	"github.com/chessmatch/chessmatchd/internal/server"
	"github.com/chessmatch/chessmatchd/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: chessmatchd <CONFIG-FILE>")
		return 2
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		color.Red("failed to load config: %v", err)
		return 1
	}

	logLevel := slog.LevelInfo
	if cfg.Trace {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	color.Green("chessmatchd starting on %s", cfg.ListenAddr())
	color.Yellow("idle timeout: %v, allow_reset_puzzle: %v, max_running_matches: %d",
		cfg.IdleTimeout(), cfg.AllowResetPuzzle, cfg.MaxRunningMatches)

	lob := lobby.New(lobby.Policy{
		Variants:          cfg.VariantAllowList(),
		BanPublicMatch:    cfg.BanPublicMatch,
		BanPrivateMatch:   cfg.BanPrivateMatch,
		MaxRunningMatches: cfg.MaxRunningMatches,
	}, log)

	srv := server.New(cfg.ListenAddr(), lob, session.Policy{
		AllowResetPuzzle: cfg.AllowResetPuzzle,
		IdleTimeout:      cfg.IdleTimeout(),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)

		<-sig
		color.Cyan("shutdown signal received, draining sessions...")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		color.Red("server exited with error: %v", err)
		return 1
	}

	color.Green("chessmatchd stopped cleanly")
	return 0
}
