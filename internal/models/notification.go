package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationObjectionRaised   NotificationType = "objection_raised"
	NotificationObjectionResolved NotificationType = "objection_resolved"
	NotificationRoundOpened       NotificationType = "round_opened"
	NotificationReportConsensed   NotificationType = "report_consensed"
	NotificationCommentReply      NotificationType = "comment_reply"
)

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	UserID    string           `gorm:"size:36;not null;index" json:"userId"` // Receiver
	ActorID   *string          `gorm:"size:36;index" json:"actorId"`         // Sender
	Actor     *User            `gorm:"foreignKey:ActorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"actor,omitempty"`
	Type      NotificationType `gorm:"size:30;not null" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	Link      string           `json:"link"`
	IsRead    bool             `gorm:"default:false;index" json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
