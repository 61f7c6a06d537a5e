package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	WorkGroupActive   = "ACTIVE"
	WorkGroupInactive = "INACTIVE"
)

// 工作组内角色，与全局 Role 无关
const (
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

type WorkGroup struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Name         string            `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Type         string            `gorm:"size:50" json:"type"`
	Description  string            `gorm:"type:text" json:"description"`
	Mission      string            `gorm:"type:text" json:"mission"`
	Status       string            `gorm:"size:20;default:ACTIVE;not null" json:"status"`
	AnnualBudget float64           `gorm:"default:0" json:"annualBudget"`
	CreatedByID  string            `gorm:"size:36;index" json:"createdById"`
	Members      []WorkGroupMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"members,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`

	MemberCount int `gorm:"-" json:"memberCount"`
}

func (w *WorkGroup) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	if w.Status == "" {
		w.Status = WorkGroupActive
	}
	return nil
}

// WorkGroupMember 每个 (用户, 工作组) 仅一行
type WorkGroupMember struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	WorkGroupID string    `gorm:"size:36;not null;uniqueIndex:idx_workgroup_user" json:"workGroupId"`
	UserID      string    `gorm:"size:36;not null;uniqueIndex:idx_workgroup_user;index" json:"userId"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Role        string    `gorm:"size:20;not null;default:member" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *WorkGroupMember) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	if m.Role == "" {
		m.Role = MemberRoleMember
	}
	return nil
}
