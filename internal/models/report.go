package models

import (
	"time"

	"gorm.io/gorm"
)

type ConsensusStatus string

const (
	ConsensusPending     ConsensusStatus = "PENDING"
	ConsensusInConsensus ConsensusStatus = "IN_CONSENSUS"
	ConsensusConsensed   ConsensusStatus = "CONSENSED"
)

func (s ConsensusStatus) Valid() bool {
	switch s {
	case ConsensusPending, ConsensusInConsensus, ConsensusConsensed:
		return true
	}
	return false
}

var Quarters = []string{"Q1", "Q2", "Q3", "Q4"}

// Report 工作组季度报告，每个 (工作组, 年, 季度) 一份
type Report struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	WorkGroupID     string          `gorm:"size:36;not null;uniqueIndex:idx_report_period" json:"workGroupId"`
	WorkGroup       *WorkGroup      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"workGroup,omitempty"`
	CreatedByID     string          `gorm:"size:36;not null;index" json:"createdById"`
	CreatedBy       *User           `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"createdBy,omitempty"`
	Year            int             `gorm:"not null;uniqueIndex:idx_report_period" json:"year"`
	Quarter         string          `gorm:"size:2;not null;uniqueIndex:idx_report_period" json:"quarter"`
	Detail          string          `gorm:"type:text" json:"detail"`
	TheoryOfChange  string          `gorm:"type:text" json:"theoryOfChange"`
	Plans           string          `gorm:"type:text" json:"plans"`
	Challenges      string          `gorm:"type:text" json:"challenges"`
	ConsensusStatus ConsensusStatus `gorm:"size:20;not null;default:PENDING;index" json:"consensusStatus"`
	BudgetItems     []BudgetItem    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"budgetItems,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	// 非数据库字段，用于查询时填充
	TotalBudget  float64 `gorm:"-" json:"totalBudget"`
	VoteCount    int64   `gorm:"-" json:"voteCount"`
	CurrentRound int     `gorm:"-" json:"currentRound"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.ConsensusStatus == "" {
		r.ConsensusStatus = ConsensusPending
	}
	return nil
}

// SumBudget 按已加载的 BudgetItems 计算 TotalBudget
func (r *Report) SumBudget() {
	total := 0.0
	for _, item := range r.BudgetItems {
		total += item.Amount
	}
	r.TotalBudget = total
}

type BudgetItem struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ReportID    string    `gorm:"size:36;not null;index" json:"reportId"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:50" json:"category"`
	Amount      float64   `gorm:"not null;default:0" json:"amount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (b *BudgetItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
