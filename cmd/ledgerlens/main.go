package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/savegress/ledgerlens/internal/api"
	"github.com/savegress/ledgerlens/internal/config"
	stripeconnector "github.com/savegress/ledgerlens/internal/connectors/stripe"
	"github.com/savegress/ledgerlens/internal/ledger"
	"github.com/savegress/ledgerlens/internal/reporting"
)

func main() {
	log.Println("Starting LedgerLens...")

	// Load configuration
	cfg := loadConfig()

	if err := cfg.Reconciliation.Policy().Validate(); err != nil {
		log.Fatalf("Invalid tolerance policy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Internal side: the system-of-record ledger
	ledgerRepo, err := ledger.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to ledger database: %v", err)
	}
	defer ledgerRepo.Close()

	// External side: Stripe balance transactions
	stripeSource := stripeconnector.New(cfg.Stripe.SecretKey)

	reportStore := reporting.NewStore()

	// Create API server
	server := api.NewServer(cfg, ledgerRepo, stripeSource, reportStore)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("LedgerLens API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down LedgerLens...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("LedgerLens stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("LEDGERLENS_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
