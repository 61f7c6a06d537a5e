package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"govhub/internal/db"
	"govhub/internal/models"
	"govhub/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Reaction string

const (
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

const msgCommentNotFound = "Comment not found"

// CommentTarget 评论所属的提案或报告，二者只填一个
type CommentTarget struct {
	ProposalID string
	ReportID   string
}

func (t CommentTarget) scope(tx *gorm.DB) *gorm.DB {
	if t.ProposalID != "" {
		return tx.Where("proposal_id = ?", t.ProposalID)
	}
	return tx.Where("report_id = ?", t.ReportID)
}

func (t CommentTarget) link() string {
	if t.ProposalID != "" {
		return "/proposals/" + t.ProposalID
	}
	return reportLink(t.ReportID)
}

func (t CommentTarget) ensureExists(tx *gorm.DB) error {
	if t.ProposalID != "" {
		_, err := findProposal(tx, t.ProposalID)
		return err
	}
	_, err := findReport(tx, t.ReportID)
	return err
}

func findComment(tx *gorm.DB, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := tx.First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(msgCommentNotFound)
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return &comment, nil
}

// ToggleReaction 点赞/点踩切换：重复操作取消，切换时移除相反的反应
func ToggleReaction(ctx context.Context, user *models.User, commentID string, reaction Reaction) (*models.Comment, error) {
	var comment *models.Comment
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		c, err := findComment(query, commentID)
		if err != nil {
			return err
		}

		likes, dislikes := []string(c.Likes), []string(c.Dislikes)
		switch reaction {
		case ReactionLike:
			likes, dislikes = applyReaction(likes, dislikes, user.ID)
		case ReactionDislike:
			dislikes, likes = applyReaction(dislikes, likes, user.ID)
		default:
			return validationError("Invalid reaction")
		}
		c.Likes, c.Dislikes = likes, dislikes

		comment = c
		return tx.Model(c).UpdateColumns(map[string]any{
			"likes":    c.Likes,
			"dislikes": c.Dislikes,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := db.DB.WithContext(ctx).Preload("User").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}
	decorateComment(comment, user.ID)
	return comment, nil
}

// applyReaction 已在 target 中则移除，否则加入 target 并从 opposite 移除
func applyReaction(target, opposite []string, userID string) ([]string, []string) {
	if i := slices.Index(target, userID); i >= 0 {
		return slices.Delete(target, i, i+1), opposite
	}
	target = append(target, userID)
	if i := slices.Index(opposite, userID); i >= 0 {
		opposite = slices.Delete(opposite, i, i+1)
	}
	return target, opposite
}

func decorateComment(c *models.Comment, viewerID string) {
	c.ContentHTML = utils.RenderMarkdown(c.Content)
	c.LikeCount = len(c.Likes)
	c.DislikeCount = len(c.Dislikes)
	c.UserReaction = ""
	if viewerID != "" {
		if slices.Contains(c.Likes, viewerID) {
			c.UserReaction = string(ReactionLike)
		} else if slices.Contains(c.Dislikes, viewerID) {
			c.UserReaction = string(ReactionDislike)
		}
	}
}

// ListComments 返回一级评论及其回复，按时间正序
func ListComments(ctx context.Context, target CommentTarget, viewerID string) ([]models.Comment, error) {
	conn := db.DB.WithContext(ctx)
	if err := target.ensureExists(conn); err != nil {
		return nil, err
	}

	var all []models.Comment
	if err := target.scope(conn).Preload("User").Order("created_at ASC").Find(&all).Error; err != nil {
		return nil, err
	}

	replies := make(map[string][]models.Comment)
	for i := range all {
		decorateComment(&all[i], viewerID)
		if p := all[i].ParentID; p != nil {
			replies[*p] = append(replies[*p], all[i])
		}
	}

	threads := []models.Comment{}
	for _, c := range all {
		if c.ParentID == nil {
			c.Replies = replies[c.ID]
			threads = append(threads, c)
		}
	}
	return threads, nil
}

// CreateComment parentID 非空时为回复，只允许一层
func CreateComment(ctx context.Context, user *models.User, target CommentTarget, content string, parentID *string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("Content is required")
	}

	conn := db.DB.WithContext(ctx)
	if err := target.ensureExists(conn); err != nil {
		return nil, err
	}

	comment := models.Comment{
		UserID:  user.ID,
		Content: content,
	}
	if target.ProposalID != "" {
		comment.ProposalID = &target.ProposalID
	} else {
		comment.ReportID = &target.ReportID
	}

	var parent *models.Comment
	if parentID != nil && *parentID != "" {
		p, err := findComment(conn, *parentID)
		if err != nil {
			return nil, err
		}
		if !sameThread(p, target) {
			return nil, validationError("Parent comment belongs to a different thread")
		}
		if p.ParentID != nil {
			return nil, validationError("Replies can only be one level deep")
		}
		parent = p
		comment.ParentID = &p.ID
	}

	if err := conn.Create(&comment).Error; err != nil {
		return nil, err
	}

	if parent != nil {
		notify(ctx, models.Notification{
			UserID:  parent.UserID,
			ActorID: &user.ID,
			Type:    models.NotificationCommentReply,
			Message: fmt.Sprintf("%s replied to your comment", user.Name),
			Link:    target.link(),
		})
	}

	comment.User = user
	decorateComment(&comment, user.ID)
	return &comment, nil
}

func sameThread(c *models.Comment, target CommentTarget) bool {
	if target.ProposalID != "" {
		return c.ProposalID != nil && *c.ProposalID == target.ProposalID
	}
	return c.ReportID != nil && *c.ReportID == target.ReportID
}

// UpdateComment 仅作者可编辑
func UpdateComment(ctx context.Context, user *models.User, commentID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("Content is required")
	}
	conn := db.DB.WithContext(ctx)
	comment, err := findComment(conn, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != user.ID {
		return nil, ErrForbidden
	}
	if err := conn.Model(comment).Update("content", content).Error; err != nil {
		return nil, err
	}
	comment.Content = content
	comment.User = user
	decorateComment(comment, user.ID)
	return comment, nil
}

// DeleteComment 作者或全局管理员可删除，回复一并删除
func DeleteComment(ctx context.Context, user *models.User, commentID string) error {
	conn := db.DB.WithContext(ctx)
	comment, err := findComment(conn, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != user.ID && !IsGlobalAdmin(user) {
		return ErrForbidden
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(comment).Error
	})
}

// countCommentsByProposal 按提案统计评论数
func countCommentsByProposal(tx *gorm.DB, proposalIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(proposalIDs))
	if len(proposalIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ProposalID string
		Total      int
	}
	err := tx.Model(&models.Comment{}).
		Select("proposal_id, COUNT(*) AS total").
		Where("proposal_id IN ?", proposalIDs).
		Group("proposal_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ProposalID] = r.Total
	}
	return counts, nil
}
