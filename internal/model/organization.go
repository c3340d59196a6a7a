package model

import (
	"time"

	"orderlyflow/internal/api"
)

type Organization struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"not null"`
	Slug      string    `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Member links a user to an organization with a role.
type Member struct {
	ID             string    `gorm:"primaryKey"`
	OrganizationID string    `gorm:"not null;index"`
	UserID         string    `gorm:"not null;index"`
	Role           string    `gorm:"not null;check:role IN ('owner', 'admin', 'member')"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`

	Organization Organization `gorm:"foreignKey:OrganizationID"`
	User         User         `gorm:"foreignKey:UserID"`
}

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

func (m *Member) ToAPI() api.Member {
	return api.Member{
		ID:        m.ID,
		UserID:    m.UserID,
		Role:      m.Role,
		UserName:  m.User.DisplayName(),
		UserEmail: m.User.Email,
		UserImage: m.User.Image,
	}
}
