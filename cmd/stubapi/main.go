package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/barberbook/bookingkit/internal/config"
	"github.com/barberbook/bookingkit/internal/stubapi"
	"github.com/barberbook/bookingkit/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting barberbook stub API",
		"env", cfg.Env,
		"port", cfg.StubPort,
	)

	server := stubapi.New(stubapi.Config{
		JWTSecret: cfg.StubJWTSecret,
		TokenTTL:  cfg.StubTokenTTL,
		DayStart:  cfg.StubDayStart,
		DayEnd:    cfg.StubDayEnd,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.StubPort,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("stub API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down stub API...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("stub API stopped")
}
