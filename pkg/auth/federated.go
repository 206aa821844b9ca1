package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultFederatedName = "Pengguna Google"

// Assertion is an identity statement from an external provider. It must be
// verified (signature and audience) before it reaches this package.
type Assertion struct {
	Email         string
	DisplayName   string
	PictureURL    string
	ExternalID    string
	EmailVerified bool
}

// ReconcileFederatedLogin finds or creates the local user for a verified
// assertion, merges newly learned attributes forward and issues a token.
func (s *Service) ReconcileFederatedLogin(ctx context.Context, a Assertion) (*models.User, IssuedToken, error) {
	a.Email = strings.TrimSpace(a.Email)
	if a.Email == "" || a.ExternalID == "" {
		return nil, IssuedToken{}, apperr.Validation("Informasi email atau Google ID tidak lengkap dari Google.").
			WithCode("incomplete_assertion")
	}

	user, created, err := s.findOrCreateFederated(ctx, a)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	if !created {
		if err := s.mergeFederated(ctx, user, a); err != nil {
			return nil, IssuedToken{}, err
		}
	} else {
		s.sendWelcome(ctx, user)
	}

	tok, err := s.tokens.Issue(ctx, user, models.AbilityAll)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	s.log.Info("federated login succeeded", "user_id", user.ID, "created", created)
	return user, tok, nil
}

func (s *Service) findOrCreateFederated(ctx context.Context, a Assertion) (*models.User, bool, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("email = ?", a.Email).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperr.Internal(fmt.Errorf("lookup email: %w", err))
	}

	// random placeholder: the password path stays closed until one is set
	hash, err := hashPassword(uuid.NewString(), s.cost)
	if err != nil {
		return nil, false, apperr.Internal(fmt.Errorf("hash placeholder: %w", err))
	}
	name := strings.TrimSpace(a.DisplayName)
	if name == "" {
		name = defaultFederatedName
	}
	externalID := a.ExternalID
	user = models.User{
		Email:           a.Email,
		FullName:        name,
		HashedPassword:  hash,
		GoogleID:        &externalID,
		NoLocalPassword: true,
	}
	if a.PictureURL != "" {
		pic := a.PictureURL
		user.Avatar = &pic
	}
	if a.EmailVerified {
		now := s.now()
		user.EmailVerifiedAt = &now
	}
	if err := db.Create(&user).Error; err != nil {
		if !store.IsUniqueViolation(err) {
			return nil, false, apperr.Internal(fmt.Errorf("create user: %w", err))
		}
		// a concurrent login created the account first
		var existing models.User
		if err := db.Where("email = ?", a.Email).First(&existing).Error; err != nil {
			return nil, false, apperr.Internal(fmt.Errorf("reload user: %w", err))
		}
		return &existing, false, nil
	}
	return &user, true, nil
}

// mergeFederated only fills attributes that are still empty; it never
// overwrites or downgrades existing values.
func (s *Service) mergeFederated(ctx context.Context, user *models.User, a Assertion) error {
	changes := map[string]any{}
	if user.GoogleID == nil || *user.GoogleID == "" {
		externalID := a.ExternalID
		user.GoogleID = &externalID
		changes["google_id"] = externalID
	}
	if (user.Avatar == nil || *user.Avatar == "") && a.PictureURL != "" {
		pic := a.PictureURL
		user.Avatar = &pic
		changes["avatar"] = pic
	}
	if user.EmailVerifiedAt == nil && a.EmailVerified {
		now := s.now()
		user.EmailVerifiedAt = &now
		changes["email_verified_at"] = now
	}
	if len(changes) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(changes).Error
	if err != nil {
		return apperr.Internal(fmt.Errorf("merge federated identity: %w", err))
	}
	s.log.Info("federated identity merged", "user_id", user.ID, "fields", len(changes))
	return nil
}
