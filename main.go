package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/travelmind/booking/config"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	// Try to load from config.yaml first, fallback to environment variables
	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	router, dispatcher, err := SetupRouter(cfg, sugar)
	if err != nil {
		sugar.Fatalw("failed to set up service", "error", err)
	}

	// The dispatcher drains the outbox next to the HTTP server; both stop
	// on the same shutdown signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go dispatcher.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	sugar.Infow("starting booking service", "port", cfg.Port)
	if err := serveUntilShutdown(ctx, srv, sugar); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
	sugar.Info("server stopped gracefully")
}

// serveUntilShutdown runs the server and drains it when ctx is cancelled, so
// a termination signal stops the listener instead of leaving it serving with
// the default signal behavior suppressed.
func serveUntilShutdown(ctx context.Context, srv *http.Server, log *zap.SugaredLogger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
