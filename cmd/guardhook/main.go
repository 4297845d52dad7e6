package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/guardhook/internal/adapter/driven/github"
	"github.com/ericfisherdev/guardhook/internal/adapter/driven/githubauth"
	"github.com/ericfisherdev/guardhook/internal/adapter/driven/scanapi"
	httphandler "github.com/ericfisherdev/guardhook/internal/adapter/driving/http"
	"github.com/ericfisherdev/guardhook/internal/application"
	"github.com/ericfisherdev/guardhook/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing or malformed values,
	// including the App signing key).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"app_id", cfg.AppID,
		"scan_url", cfg.ScanURL,
		"scan_timeout", cfg.ScanTimeout,
		"scan_retries", cfg.ScanRetries,
		"signature_verification", cfg.HasWebhookSecret(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Wire driven adapters.
	broker := githubauth.NewBroker(cfg.AppID, cfg.PrivateKey)
	fetcher := githubadapter.NewFetcher()
	publisher := githubadapter.NewPublisher(cfg.StatusContext)
	scanner := scanapi.NewClient(cfg.ScanURL, cfg.ScanTimeout, cfg.ScanRetries)

	// 4. Create the pipeline service.
	pipeline := application.NewPipelineService(broker, fetcher, scanner, publisher, cfg.DetectAI)

	// 5. Create HTTP handler and register routes.
	handler := httphandler.NewHandler(pipeline, cfg.WebhookSecret, slog.Default())
	mux := httphandler.NewServeMux(handler, slog.Default())

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Start the server.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("guardhook listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server failure.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	// 8. Graceful shutdown with a 30s drain so in-flight events reach a
	// terminal state and no PR is left without feedback.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
