package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/oxpoll/cliparse"
	"github.com/danielhkuo/oxpoll/db"
	"github.com/danielhkuo/oxpoll/middleware"
	"github.com/danielhkuo/oxpoll/reaper"
	"github.com/danielhkuo/oxpoll/rooms"
	"github.com/danielhkuo/oxpoll/router"
	"github.com/danielhkuo/oxpoll/store"
)

func main() {
	if err := cliparse.LoadDotEnv(); err != nil {
		slog.Error("Error loading environment", "error", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "cleanup" {
		if err := runCleanup(os.Args[2:]); err != nil {
			slog.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(os.Args[1:]); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func runServer(args []string) error {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	registry := rooms.NewRegistry()
	pollStore := store.New(dbConn, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reaper.New(pollStore, cfg.IdleThreshold, cfg.ReapInterval).Run(ctx)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(cfg.AllowedOrigins)(router.NewRouter(pollStore, registry, cfg)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			// Hijacked WebSocket connections are not tracked by Shutdown
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "base_url", cfg.BaseURL)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// runCleanup performs one idle sweep and prints what it selected
func runCleanup(args []string) error {
	cfg, err := cliparse.ParseCleanupFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	// Nobody is connected to a one-shot process, so no registry
	threshold := time.Duration(cfg.Minutes) * time.Minute
	r := reaper.New(store.New(dbConn, nil), threshold, time.Minute)

	res, err := r.Sweep(context.Background(), cfg.DryRun)
	if err != nil {
		return err
	}

	for _, p := range res.Selected {
		fmt.Printf("%s  code=%s  last activity %s  %q\n",
			p.ID, p.ShortCode, humanize.Time(p.LastActivity), p.Text)
	}

	if cfg.DryRun {
		fmt.Printf("Would deactivate %s idle polls (inactive for more than %d minutes)\n",
			humanize.Comma(int64(len(res.Selected))), cfg.Minutes)
		return nil
	}
	fmt.Printf("Deactivated %s idle polls (inactive for more than %d minutes)\n",
		humanize.Comma(res.Deactivated), cfg.Minutes)
	return nil
}
