package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bronze-trades-generator/internal/cdc"
	"bronze-trades-generator/internal/config"
	"bronze-trades-generator/internal/database"
	"bronze-trades-generator/internal/generator"
	"bronze-trades-generator/internal/logger"
	"bronze-trades-generator/internal/writer"
)

// app owns every long-lived resource a command needs. Close releases them.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	db        *gorm.DB
	publisher cdc.Publisher
	generator *generator.Generator
	writer    *writer.Writer
}

func newApp(configDir string) (*app, error) {
	// Load application configuration
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}
	log.Info("Configuration loaded", zap.String("driver", cfg.Database.Driver))

	// Initialize database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Info("Database connection successful.")

	// Initialize change event publisher
	var publisher cdc.Publisher = cdc.NopPublisher{}
	if cfg.CDC.Enabled {
		publisher, err = cdc.NewRabbitPublisher(cfg.CDC.URL, cfg.CDC.Exchange, log)
		if err != nil {
			_ = database.Close(db)
			_ = log.Sync()
			return nil, err
		}
	}

	gen := generator.New(generator.WithSeed(cfg.Generator.Seed))

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		publisher: publisher,
		generator: gen,
		writer:    writer.NewWriter(db, gen, publisher, log),
	}, nil
}

// Close releases the publisher and the database connection. Both are
// attempted even if the first fails.
func (a *app) Close() error {
	err := errors.Join(a.publisher.Close(), database.Close(a.db))
	if err != nil {
		a.log.Error("Failed to release resources", zap.Error(err))
	} else {
		a.log.Info("Resources released.")
	}
	_ = a.log.Sync()
	return err
}
