package models

import (
	"time"

	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalInReview ProposalStatus = "IN_REVIEW"
	ProposalApproved ProposalStatus = "APPROVED"
	ProposalRejected ProposalStatus = "REJECTED"
	ProposalExpired  ProposalStatus = "EXPIRED"
)

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalInReview, ProposalApproved, ProposalRejected, ProposalExpired:
		return true
	}
	return false
}

type ProposalVoteType string

const (
	ProposalVotePositive ProposalVoteType = "POSITIVE"
	ProposalVoteNegative ProposalVoteType = "NEGATIVE"
	ProposalVoteAbstain  ProposalVoteType = "ABSTAIN"
)

// TallyColumn 返回该投票类型对应的计数列
func (t ProposalVoteType) TallyColumn() (string, bool) {
	switch t {
	case ProposalVotePositive:
		return "positive_votes", true
	case ProposalVoteNegative:
		return "negative_votes", true
	case ProposalVoteAbstain:
		return "abstain_votes", true
	}
	return "", false
}

type Proposal struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	AuthorID      string         `gorm:"size:36;not null;index" json:"authorId"`
	Author        *User          `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author,omitempty"`
	WorkGroupID   *string        `gorm:"size:36;index" json:"workGroupId"`
	Status        ProposalStatus `gorm:"size:20;not null;default:IN_REVIEW;index" json:"status"`
	ExpiresAt     time.Time      `gorm:"not null;index" json:"expiresAt"`
	PositiveVotes int            `gorm:"not null;default:0" json:"positiveVotes"`
	NegativeVotes int            `gorm:"not null;default:0" json:"negativeVotes"`
	AbstainVotes  int            `gorm:"not null;default:0" json:"abstainVotes"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// 非数据库字段，用于查询时填充
	CommentCount    int               `gorm:"-" json:"commentCount"`
	UserVote        *ProposalVoteType `gorm:"-" json:"userVote"`
	Excerpt         string            `gorm:"-" json:"excerpt,omitempty"`
	DescriptionHTML string            `gorm:"-" json:"descriptionHtml,omitempty"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = ProposalInReview
	}
	return nil
}

// ProposalVote 每个 (用户, 提案) 仅一票
type ProposalVote struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	ProposalID string           `gorm:"size:36;not null;uniqueIndex:idx_proposal_vote_user" json:"proposalId"`
	UserID     string           `gorm:"size:36;not null;uniqueIndex:idx_proposal_vote_user" json:"userId"`
	VoteType   ProposalVoteType `gorm:"size:20;not null" json:"voteType"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func (v *ProposalVote) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
