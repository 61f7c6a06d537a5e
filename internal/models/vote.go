package models

import (
	"time"

	"gorm.io/gorm"
)

type VoteType string

const (
	VoteInFavor VoteType = "A_FAVOR"
	VoteAgainst VoteType = "EN_CONTRA"
	VoteObject  VoteType = "OBJETAR"
	VoteAbstain VoteType = "ABSTENERSE"
)

var VoteTypes = []VoteType{VoteInFavor, VoteAgainst, VoteObject, VoteAbstain}

func (t VoteType) Valid() bool {
	for _, v := range VoteTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Vote 共识投票，每个 (用户, 轮次) 仅一票，重复投票覆盖原记录
type Vote struct {
	ID        string       `gorm:"primaryKey;size:36" json:"id"`
	ReportID  string       `gorm:"size:36;not null;index" json:"reportId"`
	RoundID   string       `gorm:"size:36;not null;uniqueIndex:idx_vote_user_round" json:"roundId"`
	Round     *VotingRound `gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    string       `gorm:"size:36;not null;uniqueIndex:idx_vote_user_round" json:"userId"`
	User      *User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	VoteType  VoteType     `gorm:"size:20;not null" json:"voteType"`
	Comment   string       `gorm:"type:text;not null" json:"comment"`
	Objection *Objection   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"objection,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
