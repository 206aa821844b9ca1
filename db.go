package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cashmate/pkg/article"
	"cashmate/pkg/config"
	"cashmate/pkg/store"

	"gorm.io/gorm"
)

// initDB connects to postgres, migrates when DB_AUTO_MIGRATE is set and
// seeds the default articles.
func initDB(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	if cfg.DB.DSN == "" {
		return nil, errors.New("DB_DSN is not set; a postgres DSN is required")
	}
	db, err := store.Open(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		// tables that fail to migrate are logged; the rest still run
		if err := store.Migrate(db, log); err != nil {
			log.Warn("migration incomplete", "error", err)
		}
	}
	if err := seedDB(ctx, db, log); err != nil {
		log.Warn("seeding failed", "error", err)
	}
	return db, nil
}

func seedDB(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	_, err := article.NewService(db, log).Seed(ctx)
	return err
}

func ensureUploadDir(base string) error {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return fmt.Errorf("create upload dir %s: %w", base, err)
	}
	return nil
}
