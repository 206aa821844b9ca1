package models

import (
	"strings"
	"time"
)

// AbilityAll grants every capability.
const AbilityAll = "*"

// AccessToken stores the SHA-256 hash of an issued bearer token. The raw
// value is handed to the client once and never persisted.
type AccessToken struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	UserID     uint       `gorm:"column:tokenable_id;index;not null"`
	User       User       `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Type       string     `gorm:"size:32;not null;default:auth_token"`
	Identifier string     `gorm:"size:36;not null;uniqueIndex"`
	Hash       string     `gorm:"size:64;not null"`
	Abilities  string     `gorm:"type:text;not null"`
	LastUsedAt *time.Time
	ExpiresAt  *time.Time `gorm:"index"`
}

func (AccessToken) TableName() string { return "auth_access_tokens" }

// AbilityList splits the stored comma-separated abilities.
func (t *AccessToken) AbilityList() []string {
	if t.Abilities == "" {
		return nil
	}
	return strings.Split(t.Abilities, ",")
}

// Can reports whether the token grants ability.
func (t *AccessToken) Can(ability string) bool {
	for _, a := range t.AbilityList() {
		if a == AbilityAll || a == ability {
			return true
		}
	}
	return false
}

// Expired reports whether the token is past its expiry at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
