// Package profile reads and updates the caller's profile, including the
// avatar picture.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/avatar"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxAvatarBytes = 2 << 20
	AvatarSize     = 256
)

var avatarFormats = map[string]struct {
	format      imaging.Format
	contentType string
}{
	".jpg":  {imaging.JPEG, "image/jpeg"},
	".jpeg": {imaging.JPEG, "image/jpeg"},
	".png":  {imaging.PNG, "image/png"},
}

// AvatarFile is an uploaded picture.
type AvatarFile struct {
	Name   string
	Size   int64
	Reader io.Reader
}

type UpdateInput struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Avatar   *AvatarFile `validate:"-"`
}

type Service struct {
	db      *gorm.DB
	avatars avatar.Store
	log     *slog.Logger
}

func NewService(db *gorm.DB, avatars avatar.Store, log *slog.Logger) *Service {
	return &Service{db: db, avatars: avatars, log: log}
}

// Get returns the current state of user.
func (s *Service) Get(ctx context.Context, user *models.User) (*models.User, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	var fresh models.User
	err := s.db.WithContext(ctx).First(&fresh, user.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load profile: %w", err))
	}
	return &fresh, nil
}

// Update sets the display name and, when supplied, replaces the avatar.
func (s *Service) Update(ctx context.Context, user *models.User, in UpdateInput) (*models.User, error) {
	if user == nil {
		return nil, apperr.Unauthenticated()
	}
	in.FullName = strings.TrimSpace(in.FullName)
	if verr := apperr.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	changes := map[string]any{"full_name": in.FullName}
	if in.Avatar != nil {
		url, err := s.storeAvatar(ctx, in.Avatar)
		if err != nil {
			return nil, err
		}
		changes["avatar"] = url
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(changes).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("update profile: %w", err))
	}
	s.log.Info("profile updated", "user_id", user.ID, "avatar", in.Avatar != nil)
	return s.Get(ctx, user)
}

func (s *Service) storeAvatar(ctx context.Context, f *AvatarFile) (string, error) {
	ext := strings.ToLower(filepath.Ext(f.Name))
	fmtInfo, ok := avatarFormats[ext]
	if !ok {
		return "", avatarError("File harus berupa jpg, jpeg atau png", "extnames")
	}
	if f.Size > MaxAvatarBytes {
		return "", avatarError("Ukuran file maksimal 2MB", "size")
	}
	raw, err := io.ReadAll(io.LimitReader(f.Reader, MaxAvatarBytes+1))
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("read avatar: %w", err))
	}
	if len(raw) > MaxAvatarBytes {
		return "", avatarError("Ukuran file maksimal 2MB", "size")
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", avatarError("File bukan gambar yang valid", "image")
	}
	out, err := encode(imaging.Fill(img, AvatarSize, AvatarSize, imaging.Center, imaging.Lanczos), fmtInfo.format)
	if err != nil {
		return "", apperr.Internal(err)
	}

	key := "avatar/" + uuid.NewString() + ext
	url, err := s.avatars.Put(ctx, key, out, fmtInfo.contentType)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return url, nil
}

func encode(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func avatarError(msg, typ string) *apperr.Error {
	return apperr.Validation("Data tidak valid", apperr.FieldError{Field: "avatar", Message: msg, Type: typ})
}
