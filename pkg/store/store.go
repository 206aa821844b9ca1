// Package store opens and migrates the relational database.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cashmate/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// uniqueViolation is the postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Open connects to postgres using dsn.
func Open(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), Config(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Config returns the gorm configuration shared by the server and tests.
// Timestamps are always written in UTC so month/week ranges compare cleanly.
func Config(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:  logger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Migrate runs AutoMigrate for every model individually so a failure on one
// table does not block the others. Failures are logged and joined.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	var errs []error
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			log.Warn("migration warning", "model", fmt.Sprintf("%T", m), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsUniqueViolation reports whether err was caused by a unique constraint,
// either as a postgres error code or a driver message (sqlite in tests).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
