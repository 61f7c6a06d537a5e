package models

import (
	"time"

	"gorm.io/gorm"
)

type RoundStatus string

const (
	RoundActive    RoundStatus = "ACTIVA"
	RoundClosed    RoundStatus = "CERRADA"
	RoundConsensed RoundStatus = "CONSENSADA"
)

// VotingRound 每份报告同一时间至多一个 ACTIVA 轮次（由部分唯一索引保证）
type VotingRound struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	ReportID    string      `gorm:"size:36;not null;uniqueIndex:idx_round_number" json:"reportId"`
	RoundNumber int         `gorm:"not null;uniqueIndex:idx_round_number" json:"roundNumber"`
	Status      RoundStatus `gorm:"size:20;not null;default:ACTIVA;index" json:"status"`
	StartedAt   time.Time   `gorm:"not null" json:"startedAt"`
	EndedAt     *time.Time  `json:"endedAt"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (r *VotingRound) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = RoundActive
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return nil
}
