package models

import (
	"time"

	"gorm.io/gorm"
)

type ObjectionStatus string

const (
	ObjectionPending ObjectionStatus = "PENDIENTE"
	ObjectionValid   ObjectionStatus = "VALIDA"
	ObjectionInvalid ObjectionStatus = "INVALIDA"
)

// Objection 与 OBJETAR 投票一一对应
type Objection struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	VoteID       string          `gorm:"size:36;not null;uniqueIndex" json:"voteId"`
	Vote         *Vote           `gorm:"foreignKey:VoteID" json:"vote,omitempty"`
	Status       ObjectionStatus `gorm:"size:20;not null;default:PENDIENTE;index" json:"status"`
	ResolvedByID *string         `gorm:"size:36" json:"resolvedById"`
	ResolvedBy   *User           `gorm:"foreignKey:ResolvedByID" json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time      `json:"resolvedAt"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (o *Objection) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = ObjectionPending
	}
	return nil
}
