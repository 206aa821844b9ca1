// Package testutil provides helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"cashmate/models"
	"cashmate/pkg/store"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh in-memory sqlite database with every model migrated.
// The database is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), store.Config(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FullName: email, HashedPassword: []byte("x")}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// CreateKategori inserts a category.
func CreateKategori(t testing.TB, db *gorm.DB, nama string, tipe models.Tipe) *models.Kategori {
	t.Helper()
	k := &models.Kategori{Nama: nama, Tipe: tipe}
	if err := db.Create(k).Error; err != nil {
		t.Fatalf("create kategori %s: %v", nama, err)
	}
	return k
}
