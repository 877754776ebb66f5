package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"bronze-trades-generator/internal/config"
	"bronze-trades-generator/internal/database"
	"bronze-trades-generator/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	apiHandler := NewAPIHandler(log, db)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, apiHandler.Routes()); err != nil {
		log.Error("Web server failed", zap.Error(err))
	}
}
