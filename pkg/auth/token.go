package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cashmate/models"
	"cashmate/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultTokenTTL is the lifetime of tokens issued by login.
	DefaultTokenTTL = 72 * time.Hour
	tokenType       = "auth_token"
)

// Claims is the signed envelope of an access token. ID (jti) is the
// identifier of the persisted token row.
type Claims struct {
	UserID    uint     `json:"uid"`
	Abilities []string `json:"abl,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken carries a freshly issued raw token. Value is only available
// here; the database keeps its hash.
type IssuedToken struct {
	Type      string    `json:"type"`
	Value     string    `json:"token"`
	Abilities []string  `json:"abilities"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Session is the identity resolved from a valid bearer token.
type Session struct {
	User  models.User
	Token models.AccessToken
}

// TokenManager issues, validates and revokes access tokens.
type TokenManager struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewTokenManager(db *gorm.DB, secret []byte, ttl time.Duration, log *slog.Logger) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{db: db, secret: secret, ttl: ttl, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Issue creates a token for user with the given abilities ("*" when none).
func (m *TokenManager) Issue(ctx context.Context, user *models.User, abilities ...string) (IssuedToken, error) {
	if len(abilities) == 0 {
		abilities = []string{models.AbilityAll}
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		UserID:    user.ID,
		Abilities: abilities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, apperr.Internal(fmt.Errorf("sign token: %w", err))
	}
	row := models.AccessToken{
		UserID:     user.ID,
		Type:       tokenType,
		Identifier: claims.ID,
		Hash:       hashToken(raw),
		Abilities:  strings.Join(abilities, ","),
		ExpiresAt:  &exp,
	}
	if err := m.db.WithContext(ctx).Create(&row).Error; err != nil {
		return IssuedToken{}, apperr.Internal(fmt.Errorf("store token: %w", err))
	}
	return IssuedToken{Type: "bearer", Value: raw, Abilities: abilities, ExpiresAt: exp}, nil
}

// Validate resolves raw to a Session. Every rejection (missing, malformed,
// forged, unknown, expired, revoked) is reported as Unauthenticated.
func (m *TokenManager) Validate(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Unauthenticated()
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid || claims.ID == "" {
		m.log.Debug("token rejected", "reason", "envelope", "error", err)
		return nil, apperr.Unauthenticated()
	}

	var row models.AccessToken
	err = m.db.WithContext(ctx).Where("identifier = ?", claims.ID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		m.log.Debug("token rejected", "reason", "revoked or unknown")
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load token: %w", err))
	}
	if subtle.ConstantTimeCompare([]byte(row.Hash), []byte(hashToken(raw))) != 1 || row.UserID != claims.UserID {
		m.log.Warn("token rejected", "reason", "hash mismatch", "token_id", row.ID)
		return nil, apperr.Unauthenticated()
	}
	now := m.now()
	if row.Expired(now) {
		return nil, apperr.Unauthenticated()
	}

	var user models.User
	err = m.db.WithContext(ctx).First(&user, row.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated()
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load token owner: %w", err))
	}

	if err := m.db.WithContext(ctx).Model(&row).UpdateColumn("last_used_at", now).Error; err != nil {
		m.log.Warn("failed to touch token", "token_id", row.ID, "error", err)
	} else {
		row.LastUsedAt = &now
	}
	return &Session{User: user, Token: row}, nil
}

// Revoke deletes exactly the given token, scoped to its owner.
func (m *TokenManager) Revoke(ctx context.Context, token *models.AccessToken) error {
	if token == nil || token.ID == 0 {
		return apperr.Unauthenticated()
	}
	res := m.db.WithContext(ctx).
		Where("id = ? AND tokenable_id = ?", token.ID, token.UserID).
		Delete(&models.AccessToken{})
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("delete token: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.Unauthenticated()
	}
	return nil
}

// PruneExpired deletes tokens whose expiry has passed. With dryRun set it
// only counts them.
func (m *TokenManager) PruneExpired(ctx context.Context, dryRun bool) (int64, error) {
	q := m.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", m.now())
	if dryRun {
		var n int64
		if err := q.Model(&models.AccessToken{}).Count(&n).Error; err != nil {
			return 0, fmt.Errorf("count expired tokens: %w", err)
		}
		return n, nil
	}
	res := q.Delete(&models.AccessToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", res.Error)
	}
	m.log.Info("expired tokens pruned", "count", res.RowsAffected)
	return res.RowsAffected, nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
