// Package kategori is the shared category registry.
package kategori

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/store"

	"gorm.io/gorm"
)

// Registry lists and find-or-creates categories. Categories are global and
// not scoped to a user.
type Registry struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewRegistry(db *gorm.DB, log *slog.Logger) *Registry {
	return &Registry{db: db, log: log}
}

// Input is the payload of FindOrCreate.
type Input struct {
	Nama string      `json:"nama" validate:"required,max=100"`
	Tipe models.Tipe `json:"tipe" validate:"required"`
}

// Validate checks in before any persistence.
func (in Input) Validate() *apperr.Error {
	if verr := apperr.ValidateStruct(in); verr != nil {
		return verr
	}
	if !in.Tipe.Valid() {
		return apperr.Validation("Data tidak valid", apperr.FieldError{
			Field: "tipe", Message: "Value must be one of: pemasukan pengeluaran", Type: "oneof",
		})
	}
	return nil
}

// List returns every category ordered by id.
func (r *Registry) List(ctx context.Context) ([]models.Kategori, error) {
	items := []models.Kategori{}
	if err := r.db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list kategori: %w", err))
	}
	return items, nil
}

// FindOrCreate returns the category matching (nama, tipe), creating it when
// absent. created reports whether a new row was inserted. A concurrent insert
// of the same pair hits the unique index and resolves to the existing row.
func (r *Registry) FindOrCreate(ctx context.Context, in Input) (k *models.Kategori, created bool, err error) {
	in.Nama = strings.TrimSpace(in.Nama)
	if verr := in.Validate(); verr != nil {
		return nil, false, verr
	}
	existing, err := r.find(ctx, in)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	k = &models.Kategori{Nama: in.Nama, Tipe: in.Tipe}
	if err := r.db.WithContext(ctx).Create(k).Error; err != nil {
		if !store.IsUniqueViolation(err) {
			return nil, false, apperr.Internal(fmt.Errorf("create kategori: %w", err))
		}
		r.log.Debug("kategori created concurrently", "nama", in.Nama, "tipe", in.Tipe)
		existing, err := r.find(ctx, in)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, apperr.Internal(errors.New("kategori vanished after unique violation"))
		}
		return existing, false, nil
	}
	return k, true, nil
}

func (r *Registry) find(ctx context.Context, in Input) (*models.Kategori, error) {
	var k models.Kategori
	err := r.db.WithContext(ctx).Where("nama = ? AND tipe = ?", in.Nama, in.Tipe).First(&k).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("find kategori: %w", err))
	}
	return &k, nil
}
