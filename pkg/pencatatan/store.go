// Package pencatatan stores financial records. Every query is scoped to the
// owning user in SQL; a record owned by someone else is indistinguishable
// from a missing one.
package pencatatan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashmate/models"
	"cashmate/pkg/apperr"

	"gorm.io/gorm"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// Store is the access-scoped record store.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewStore(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// owned starts a query restricted to rows of userID.
func (s *Store) owned(ctx context.Context, userID uint) *gorm.DB {
	return s.db.WithContext(ctx).Where("user_id = ?", userID)
}

// Filter narrows List. Bulan is "YYYY-MM", Minggu is the first day
// ("YYYY-MM-DD") of a 7 day window. Both may be combined.
type Filter struct {
	Bulan        string
	Minggu       string
	WithKategori bool
}

// List returns user's records, newest first.
func (s *Store) List(ctx context.Context, user *models.User, f Filter) ([]models.Pencatatan, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	q := s.owned(ctx, user.ID)
	if f.Bulan != "" {
		start, end, verr := monthRange(f.Bulan)
		if verr != nil {
			return nil, verr
		}
		q = q.Where("created_at >= ? AND created_at < ?", start, end)
	}
	if f.Minggu != "" {
		start, err := time.Parse(dayLayout, f.Minggu)
		if err != nil {
			return nil, apperr.Validation("Data tidak valid", apperr.FieldError{
				Field: "minggu", Message: "Expected format YYYY-MM-DD", Type: "format",
			})
		}
		q = q.Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 7))
	}
	if f.WithKategori {
		q = q.Preload("Kategori")
	}
	items := []models.Pencatatan{}
	if err := q.Order("created_at desc").Order("id desc").Find(&items).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list pencatatan: %w", err))
	}
	return items, nil
}

// Create stores a record owned by user. The owner never comes from input.
func (s *Store) Create(ctx context.Context, user *models.User, in Input) (*models.Pencatatan, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	if verr := in.validate(true); verr != nil {
		return nil, verr
	}
	if err := s.requireKategori(ctx, *in.KategoriID); err != nil {
		return nil, err
	}
	rec := models.Pencatatan{
		Jumlah:     *in.Jumlah,
		Tipe:       *in.Tipe,
		Catatan:    in.Catatan,
		UserID:     user.ID,
		KategoriID: *in.KategoriID,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("create pencatatan: %w", err))
	}
	s.log.Info("pencatatan created", "user_id", user.ID, "id", rec.ID)
	return &rec, nil
}

// Get returns record id when it belongs to user.
func (s *Store) Get(ctx context.Context, user *models.User, id uint) (*models.Pencatatan, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	var rec models.Pencatatan
	err := s.owned(ctx, user.ID).Where("id = ?", id).Preload("Kategori").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get pencatatan: %w", err))
	}
	return &rec, nil
}

// Update changes only the supplied fields of a record owned by user.
func (s *Store) Update(ctx context.Context, user *models.User, id uint, in Input) (*models.Pencatatan, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	if verr := in.validate(false); verr != nil {
		return nil, verr
	}
	if _, err := s.Get(ctx, user, id); err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if in.Jumlah != nil {
		changes["jumlah"] = *in.Jumlah
	}
	if in.Tipe != nil {
		changes["tipe"] = *in.Tipe
	}
	if in.Catatan != nil {
		changes["catatan"] = *in.Catatan
	}
	if in.KategoriID != nil {
		if err := s.requireKategori(ctx, *in.KategoriID); err != nil {
			return nil, err
		}
		changes["kategori_id"] = *in.KategoriID
	}
	if len(changes) > 0 {
		res := s.owned(ctx, user.ID).Model(&models.Pencatatan{}).
			Where("id = ?", id).
			Updates(changes)
		if res.Error != nil {
			return nil, apperr.Internal(fmt.Errorf("update pencatatan: %w", res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, notFound()
		}
	}
	return s.Get(ctx, user, id)
}

// Delete removes a record owned by user in a single owner-scoped statement.
func (s *Store) Delete(ctx context.Context, user *models.User, id uint) error {
	if user == nil {
		return apperr.Unauthenticated()
	}
	res := s.owned(ctx, user.ID).Where("id = ?", id).Delete(&models.Pencatatan{})
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("delete pencatatan: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return notFound()
	}
	s.log.Info("pencatatan deleted", "user_id", user.ID, "id", id)
	return nil
}

func (s *Store) requireKategori(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Kategori{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Internal(fmt.Errorf("check kategori: %w", err))
	}
	if n == 0 {
		return apperr.Validation("Data tidak valid", apperr.FieldError{
			Field: "kategori", Message: "Kategori tidak ditemukan", Type: "exists",
		})
	}
	return nil
}

func monthRange(bulan string) (time.Time, time.Time, *apperr.Error) {
	t, err := time.Parse(monthLayout, bulan)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("Data tidak valid", apperr.FieldError{
			Field: "bulan", Message: "Expected format YYYY-MM", Type: "format",
		})
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

func notFound() *apperr.Error {
	return apperr.NotFound("Catatan tidak ditemukan atau bukan milik Anda")
}
