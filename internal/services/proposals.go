package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"govhub/internal/db"
	"govhub/internal/metrics"
	"govhub/internal/models"
	"govhub/internal/utils"

	"gorm.io/gorm"
)

const ProposalPageSize = 20

func findProposal(tx *gorm.DB, id string) (*models.Proposal, error) {
	var proposal models.Proposal
	if err := tx.First(&proposal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Proposal not found")
		}
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	return &proposal, nil
}

// VoteOnProposal 投票或改票，计数在同一事务内调整
func VoteOnProposal(ctx context.Context, user *models.User, proposalID string, voteType models.ProposalVoteType) (*models.Proposal, error) {
	newColumn, ok := voteType.TallyColumn()
	if !ok {
		return nil, validationError("Invalid vote type")
	}

	conn := db.DB.WithContext(ctx)
	proposal, err := findProposal(conn, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status == models.ProposalInReview && time.Now().After(proposal.ExpiresAt) {
		if err := conn.Model(proposal).Update("status", models.ProposalExpired).Error; err != nil {
			return nil, err
		}
		metrics.RecordExpired("proposal", 1)
		return nil, conflict("Proposal has expired")
	}
	if proposal.Status != models.ProposalInReview {
		return nil, conflict("Proposal is not open for voting")
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		var existing models.ProposalVote
		err := tx.Where("user_id = ? AND proposal_id = ?", user.ID, proposal.ID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vote := models.ProposalVote{ProposalID: proposal.ID, UserID: user.ID, VoteType: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			return tx.Model(&models.Proposal{}).Where("id = ?", proposal.ID).
				UpdateColumn(newColumn, gorm.Expr(newColumn+" + 1")).Error
		}
		if err != nil {
			return err
		}

		if existing.VoteType == voteType {
			return nil
		}
		oldColumn, _ := existing.VoteType.TallyColumn()
		if err := tx.Model(&existing).Update("vote_type", voteType).Error; err != nil {
			return err
		}
		return tx.Model(&models.Proposal{}).Where("id = ?", proposal.ID).
			UpdateColumns(map[string]any{
				oldColumn: gorm.Expr(oldColumn + " - 1"),
				newColumn: gorm.Expr(newColumn + " + 1"),
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Vote already submitted, please retry")
		}
		return nil, err
	}

	metrics.RecordProposalVote(string(voteType))
	return GetProposal(ctx, proposal.ID, user.ID)
}

type ProposalPage struct {
	Items      []models.Proposal `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"totalPages"`
}

// ListProposals 最新在前，每页 ProposalPageSize 条
func ListProposals(ctx context.Context, status string, page int, viewerID string) (*ProposalPage, error) {
	if page < 1 {
		page = 1
	}
	if status != "" && !models.ProposalStatus(status).Valid() {
		return nil, validationError("Invalid status")
	}
	conn := db.DB.WithContext(ctx)
	filtered := func() *gorm.DB {
		q := conn.Model(&models.Proposal{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	out := &ProposalPage{Items: []models.Proposal{}, Page: page, PageSize: ProposalPageSize}
	if err := filtered().Count(&out.Total).Error; err != nil {
		return nil, err
	}
	out.TotalPages = int((out.Total + ProposalPageSize - 1) / ProposalPageSize)

	if err := filtered().Preload("Author").
		Order("created_at DESC").
		Offset((page - 1) * ProposalPageSize).
		Limit(ProposalPageSize).
		Find(&out.Items).Error; err != nil {
		return nil, err
	}
	if err := decorateProposals(conn, out.Items, viewerID); err != nil {
		return nil, err
	}
	for i := range out.Items {
		out.Items[i].Excerpt = utils.PlainTextExcerpt(out.Items[i].Description, 200)
	}
	return out, nil
}

// GetProposal 带作者、评论数和当前用户的投票
func GetProposal(ctx context.Context, id, viewerID string) (*models.Proposal, error) {
	conn := db.DB.WithContext(ctx)
	var proposal models.Proposal
	if err := conn.Preload("Author").First(&proposal, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Proposal not found")
		}
		return nil, err
	}
	items := []models.Proposal{proposal}
	if err := decorateProposals(conn, items, viewerID); err != nil {
		return nil, err
	}
	proposal = items[0]
	proposal.DescriptionHTML = utils.RenderMarkdown(proposal.Description)
	return &proposal, nil
}

func decorateProposals(tx *gorm.DB, items []models.Proposal, viewerID string) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}

	counts, err := countCommentsByProposal(tx, ids)
	if err != nil {
		return err
	}

	userVotes := map[string]models.ProposalVoteType{}
	if viewerID != "" {
		var votes []models.ProposalVote
		if err := tx.Where("user_id = ? AND proposal_id IN ?", viewerID, ids).Find(&votes).Error; err != nil {
			return err
		}
		for _, v := range votes {
			userVotes[v.ProposalID] = v.VoteType
		}
	}

	for i := range items {
		items[i].CommentCount = counts[items[i].ID]
		if vt, ok := userVotes[items[i].ID]; ok {
			items[i].UserVote = &vt
		}
	}
	return nil
}

type CreateProposalInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	WorkGroupID *string `json:"workGroupId"`
}

func CreateProposal(ctx context.Context, user *models.User, in CreateProposalInput, duration time.Duration) (*models.Proposal, error) {
	title := strings.TrimSpace(in.Title)
	if utf8.RuneCountInString(title) < 3 {
		return nil, validationError("Title must be at least 3 characters long")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, validationError("Description is required")
	}

	conn := db.DB.WithContext(ctx)
	if in.WorkGroupID != nil && *in.WorkGroupID == "" {
		in.WorkGroupID = nil
	}
	if in.WorkGroupID != nil {
		if _, err := findWorkGroup(conn, *in.WorkGroupID); err != nil {
			return nil, err
		}
	}

	proposal := models.Proposal{
		Title:       title,
		Description: in.Description,
		AuthorID:    user.ID,
		WorkGroupID: in.WorkGroupID,
		Status:      models.ProposalInReview,
		ExpiresAt:   time.Now().Add(duration),
	}
	if err := conn.Create(&proposal).Error; err != nil {
		return nil, err
	}
	proposal.Author = user
	proposal.DescriptionHTML = utils.RenderMarkdown(proposal.Description)
	return &proposal, nil
}

type UpdateProposalInput struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Status      *models.ProposalStatus `json:"status"`
}

// UpdateProposal 作者可在评审期内修改内容；全局管理员还可修改状态
func UpdateProposal(ctx context.Context, user *models.User, id string, in UpdateProposalInput, duration time.Duration) (*models.Proposal, error) {
	conn := db.DB.WithContext(ctx)
	proposal, err := findProposal(conn, id)
	if err != nil {
		return nil, err
	}
	isAdmin := IsGlobalAdmin(user)
	if proposal.AuthorID != user.ID && !isAdmin {
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if in.Title != nil || in.Description != nil {
		if proposal.Status != models.ProposalInReview {
			return nil, conflict("Only proposals in review can be edited")
		}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if utf8.RuneCountInString(title) < 3 {
				return nil, validationError("Title must be at least 3 characters long")
			}
			updates["title"] = title
		}
		if in.Description != nil {
			if strings.TrimSpace(*in.Description) == "" {
				return nil, validationError("Description is required")
			}
			updates["description"] = *in.Description
		}
	}

	if in.Status != nil {
		if !isAdmin {
			return nil, ErrForbidden
		}
		switch *in.Status {
		case models.ProposalApproved, models.ProposalRejected:
		case models.ProposalInReview:
			if time.Now().After(proposal.ExpiresAt) {
				updates["expires_at"] = time.Now().Add(duration)
			}
		default:
			return nil, validationError("Invalid status")
		}
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := conn.Model(proposal).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetProposal(ctx, proposal.ID, user.ID)
}

// DeleteProposal 作者或全局管理员可删除，连同投票与评论
func DeleteProposal(ctx context.Context, user *models.User, id string) error {
	conn := db.DB.WithContext(ctx)
	proposal, err := findProposal(conn, id)
	if err != nil {
		return err
	}
	if proposal.AuthorID != user.ID && !IsGlobalAdmin(user) {
		return ErrForbidden
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", proposal.ID).Delete(&models.ProposalVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ?", proposal.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(proposal).Error
	})
}
