package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ocrpipeline/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// db is the optional extraction event log. nil when DB_DSN is not set.
var db *gorm.DB

func initDB(cfg Config) {
	if cfg.DBDSN == "" {
		log.Printf("DB_DSN not set, extraction event log disabled")
		return
	}
	gdb, err := openDB(cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}
	// Any permission errors on migration are logged and ignored.
	if cfg.DBAutoMigrate {
		if err := gdb.AutoMigrate(&models.ExtractionEvent{}); err != nil {
			log.Printf("migration warning (extraction_events): %v", err)
		}
	}
	db = gdb
}

func openDB(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// migrateDB creates or updates the event log schema regardless of
// DB_AUTO_MIGRATE. It backs the `migrate` subcommand.
func migrateDB(cfg Config) error {
	if cfg.DBDSN == "" {
		return errors.New("DB_DSN is not set")
	}
	gdb, err := openDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := gdb.AutoMigrate(&models.ExtractionEvent{}); err != nil {
		return fmt.Errorf("migrate extraction_events: %w", err)
	}
	return nil
}

// recordEvent stores ev when the event log is enabled. Failures are logged only.
func recordEvent(ctx context.Context, ev *models.ExtractionEvent) {
	if db == nil {
		return
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		log.Printf("event log write failed session=%s outcome=%s: %v", shortID(ev.SessionID), ev.Outcome, err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
