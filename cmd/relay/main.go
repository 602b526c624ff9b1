//go:build !lambda
// +build !lambda

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyphera/payment-alerts/internal/logger"
	"github.com/cyphera/payment-alerts/internal/server"

	"go.uber.org/zap"
)

// @title           Payment Alerts Relay
// @version         1.0
// @description     Receives Stripe payment failure webhooks, emails an alert and records each failure in Airtable.
// @BasePath        /

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logs := bootstrap(ctx)
	defer logger.Sync()

	router := server.NewRouter(ctx, cfg, logs, server.NewCollaborators(cfg))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Error starting server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
