package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fintechbank/txwatch/internal/backend"
	"github.com/fintechbank/txwatch/internal/logger"
	"github.com/fintechbank/txwatch/internal/notify"
	"github.com/fintechbank/txwatch/internal/reconcile"
)

func main() {
	var (
		backendURL = flag.String("backend-url", envOr("TXWATCH_BACKEND_URL", "http://localhost:8000"), "Fraud gateway base URL (or set TXWATCH_BACKEND_URL)")
		accountID  = flag.String("account", os.Getenv("TXWATCH_ACCOUNT_ID"), "Account id to reconcile (or set TXWATCH_ACCOUNT_ID)")
		token      = flag.String("token", os.Getenv("TXWATCH_TOKEN"), "Session bearer token (or set TXWATCH_TOKEN)")
		stateDir   = flag.String("state-dir", envOr("TXWATCH_STATE_DIR", defaultStateDir()), "Directory for the local notification journal")
		interval   = flag.Duration("interval", reconcile.DefaultInterval, "Polling interval")
	)
	flag.Parse()

	log := logger.New()

	if *accountID == "" {
		log.Fatal().Msg("Error: --account is required")
	}

	storage, err := notify.NewFileStorage(*stateDir)
	if err != nil {
		log.Fatal().Err(err).Str("state_dir", *stateDir).Msg("Failed to open local storage")
	}

	journal := notify.NewStore(storage, log)
	journal.OnEmit = func(e notify.Entry) {
		log.Info().
			Str("notification_id", e.ID).
			Str("kind", string(e.Kind)).
			Str("title", e.Title).
			Msg(e.Message)
	}

	client := backend.NewClient(*backendURL, *token, log)
	poller := reconcile.NewPoller(client, journal, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().
		Str("backend_url", *backendURL).
		Str("account_id", *accountID).
		Dur("interval", *interval).
		Int("unread", journal.Unread()).
		Msg("Starting account holder daemon")

	runner := reconcile.StartRunner(ctx, poller, *accountID, *interval, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down, cancelling poll schedule...")

	shutdownDone := make(chan struct{})
	go func() {
		runner.Stop()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
	case <-time.After(30 * time.Second):
		log.Error().Msg("Timed out waiting for in-flight poll")
	}

	log.Info().Msg("Account holder daemon exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".txwatch"
	}
	return filepath.Join(home, ".txwatch")
}
