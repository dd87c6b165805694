//go:build !lambda

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyphera/authority-proxy/internal/client/chain"
	"github.com/cyphera/authority-proxy/internal/config"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/server"
	"github.com/cyphera/authority-proxy/internal/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title           Authority Proxy API
// @version         1.0
// @description     Plans and builds Metaplex metadata authority delegations through a mint wrapper vault

// @host      localhost:8000
// @BasePath  /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	logger.InitLogger(cfg.Stage)
	defer func() { _ = logger.Sync() }()

	rpcClient := chain.NewClient(cfg.RPCURL)
	delegationService := services.NewDelegationService(cfg.MintWrapperProgramID, rpcClient)

	s := server.New(cfg, delegationService)
	defer s.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.APIPort),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.APIPort),
			zap.String("rpc_url", cfg.RPCURL),
			zap.String("mint_wrapper_program", cfg.MintWrapperProgramID.String()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
