// Package auth verifies credentials, manages bearer tokens and reconciles
// federated (Google) identities with local accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cashmate/models"
	"cashmate/pkg/apperr"
	"cashmate/pkg/store"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// WelcomeMailer delivers the welcome email to new accounts.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, email, fullName string) error
}

// Options configures a Service.
type Options struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
	Mailer     WelcomeMailer
	Logger     *slog.Logger
}

// Service implements registration, login, logout, password changes and
// federated login on top of the user and token tables.
type Service struct {
	db     *gorm.DB
	tokens *TokenManager
	mailer WelcomeMailer
	cost   int
	log    *slog.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	tm := NewTokenManager(db, opts.Secret, opts.TokenTTL, log)
	return &Service{db: db, tokens: tm, mailer: opts.Mailer, cost: cost, log: log, now: tm.now}
}

// Tokens exposes the token manager used by the HTTP façade.
func (s *Service) Tokens() *TokenManager { return s.tokens }

// RegisterInput is the payload of a local registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	FullName string `json:"fullName" validate:"required,max=100"`
}

// Register creates a local account. The password is hashed before the insert.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if verr := apperr.ValidateStruct(in); verr != nil {
		return nil, verr
	}

	db := s.db.WithContext(ctx)
	// pre-check existing (optimistic)
	var existing models.User
	err := db.Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, duplicateEmail()
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Internal(fmt.Errorf("lookup email: %w", err))
	}

	hash, err := hashPassword(in.Password, s.cost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	user := models.User{Email: in.Email, FullName: in.FullName, HashedPassword: hash}
	if err := db.Create(&user).Error; err != nil {
		if store.IsUniqueViolation(err) { // race condition after initial check
			return nil, duplicateEmail()
		}
		return nil, apperr.Internal(fmt.Errorf("create user: %w", err))
	}
	s.log.Info("user registered", "user_id", user.ID)
	s.sendWelcome(ctx, &user)
	return &user, nil
}

// Login verifies email and password and issues a token. Unknown email and
// wrong password produce the same InvalidCredentials error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, IssuedToken, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, IssuedToken{}, apperr.Internal(fmt.Errorf("lookup email: %w", err))
		}
		CheckPassword(dummyHash(), password)
		return nil, IssuedToken{}, apperr.InvalidCredentials()
	}
	if !CheckPassword(user.HashedPassword, password) {
		s.log.Info("login rejected", "user_id", user.ID)
		return nil, IssuedToken{}, apperr.InvalidCredentials()
	}
	tok, err := s.tokens.Issue(ctx, &user, models.AbilityAll)
	if err != nil {
		return nil, IssuedToken{}, err
	}
	s.log.Info("login succeeded", "user_id", user.ID)
	return &user, tok, nil
}

// Logout revokes only the token used by the current session.
func (s *Service) Logout(ctx context.Context, sess *Session) error {
	if sess == nil {
		return apperr.Unauthenticated()
	}
	if err := s.tokens.Revoke(ctx, &sess.Token); err != nil {
		return err
	}
	s.log.Info("logout", "user_id", sess.User.ID, "token_id", sess.Token.ID)
	return nil
}

// ValidateToken resolves a raw bearer token.
func (s *Service) ValidateToken(ctx context.Context, raw string) (*Session, error) {
	return s.tokens.Validate(ctx, raw)
}

// ChangePasswordInput is the payload of a password change.
type ChangePasswordInput struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangePassword replaces user's password. Accounts created by federated
// login that never had a local password may set one without OldPassword.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, in ChangePasswordInput) error {
	if user == nil {
		return apperr.Unauthenticated()
	}
	if verr := apperr.ValidateStruct(in); verr != nil {
		return verr
	}
	if !user.NoLocalPassword && !CheckPassword(user.HashedPassword, in.OldPassword) {
		return apperr.Validation("Password lama tidak cocok").WithCode("password_mismatch")
	}
	hash, err := hashPassword(in.NewPassword, s.cost)
	if err != nil {
		return apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{"password": hash, "no_local_password": false}).Error
	if err != nil {
		return apperr.Internal(fmt.Errorf("update password: %w", err))
	}
	user.HashedPassword = hash
	user.NoLocalPassword = false
	s.log.Info("password changed", "user_id", user.ID)
	return nil
}

// ResetPassword sets a new password for the account with email and revokes
// every token it holds. Used by operator tooling.
func (s *Service) ResetPassword(ctx context.Context, email, password string) (*models.User, error) {
	if len(password) < MinPasswordLength {
		return nil, apperr.Validation("Data tidak valid", apperr.FieldError{
			Field: "password", Message: fmt.Sprintf("Value must be at least %d characters", MinPasswordLength), Type: "min",
		})
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User tidak ditemukan")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("lookup email: %w", err))
	}
	hash, err := hashPassword(password, s.cost)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]any{"password": hash, "no_local_password": false}).Error; err != nil {
			return err
		}
		return tx.Where("tokenable_id = ?", user.ID).Delete(&models.AccessToken{}).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("reset password: %w", err))
	}
	s.log.Info("password reset", "user_id", user.ID)
	return &user, nil
}

func (s *Service) sendWelcome(ctx context.Context, u *models.User) {
	if s.mailer == nil || u.Email == "" || u.FullName == "" {
		return
	}
	if err := s.mailer.SendWelcome(ctx, u.Email, u.FullName); err != nil {
		s.log.Warn("welcome email failed", "user_id", u.ID, "error", err)
	}
}

func duplicateEmail() *apperr.Error {
	return apperr.DuplicateIdentity("Email sudah terdaftar, silakan gunakan email lain atau login.")
}
