package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleCoreContributor Role = "CORE_CONTRIBUTOR"
	RoleAdmin           Role = "ADMIN"
	RoleSuperAdmin      Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCoreContributor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	DiscordID *string   `gorm:"uniqueIndex;size:32" json:"discordId,omitempty"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;index" json:"email,omitempty"`
	Image     string    `json:"image"`
	Role      Role      `gorm:"size:20;default:CORE_CONTRIBUTOR;not null" json:"role"`
	Bio       string    `gorm:"size:500" json:"bio"`
	AvatarURL string    `json:"avatarUrl"`
	CVURL     string    `json:"cvUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	if u.Role == "" {
		u.Role = RoleCoreContributor
	}
	return nil
}
