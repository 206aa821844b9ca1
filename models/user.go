package models

import (
	"time"
)

// User model. HashedPassword always holds a bcrypt hash, never plaintext.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Email           string     `gorm:"size:254;not null;uniqueIndex" json:"email"`
	HashedPassword  []byte     `gorm:"column:password;not null" json:"-"`
	FullName        string     `gorm:"size:100" json:"fullName"`
	Avatar          *string    `gorm:"size:512" json:"avatar"`
	GoogleID        *string    `gorm:"size:255;index" json:"-"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	// NoLocalPassword marks accounts created through federated login whose
	// stored hash belongs to a random placeholder nobody knows.
	NoLocalPassword bool `gorm:"not null;default:false" json:"-"`
}

// UserSummary is the public shape of a user returned by auth and profile endpoints.
type UserSummary struct {
	ID       uint    `json:"id"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Avatar   *string `json:"avatar"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, FullName: u.FullName, Avatar: u.Avatar}
}
