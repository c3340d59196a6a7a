package model

import (
	"time"
)

// User is read-only for the API; rows come from the identity provider or
// boardctl seed.
type User struct {
	ID        string    `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Image     string
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// DisplayName falls back to the email when the user has no name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
