package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comment 提案或报告下的讨论，回复仅一层
type Comment struct {
	ID         string                     `gorm:"primaryKey;size:36" json:"id"`
	UserID     string                     `gorm:"size:36;not null;index" json:"userId"`
	User       *User                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user,omitempty"`
	ProposalID *string                    `gorm:"size:36;index" json:"proposalId"`
	ReportID   *string                    `gorm:"size:36;index" json:"reportId"`
	ParentID   *string                    `gorm:"size:36;index" json:"parentId"`
	Content    string                     `gorm:"type:text;not null" json:"content"`
	Likes      datatypes.JSONSlice[string] `gorm:"not null" json:"likes"`
	Dislikes   datatypes.JSONSlice[string] `gorm:"not null" json:"dislikes"`
	CreatedAt  time.Time                  `json:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt"`

	// 非数据库字段
	ContentHTML  string    `gorm:"-" json:"contentHtml"`
	LikeCount    int       `gorm:"-" json:"likeCount"`
	DislikeCount int       `gorm:"-" json:"dislikeCount"`
	UserReaction string    `gorm:"-" json:"userReaction,omitempty"`
	Replies      []Comment `gorm:"-" json:"replies,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	if c.Likes == nil {
		c.Likes = datatypes.JSONSlice[string]{}
	}
	if c.Dislikes == nil {
		c.Dislikes = datatypes.JSONSlice[string]{}
	}
	return nil
}
