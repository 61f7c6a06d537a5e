package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"govhub/internal/db"
	"govhub/internal/metrics"
	"govhub/internal/models"

	"gorm.io/gorm"
)

// ResolveObjection 工作组管理员裁定异议，允许重复裁定
func ResolveObjection(ctx context.Context, user *models.User, objectionID string, status models.ObjectionStatus) (*models.Objection, error) {
	if status != models.ObjectionValid && status != models.ObjectionInvalid {
		return nil, validationError("Invalid status")
	}

	conn := db.DB.WithContext(ctx)
	var objection models.Objection
	if err := conn.Preload("Vote").First(&objection, "id = ?", objectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Objection not found")
		}
		return nil, fmt.Errorf("load objection: %w", err)
	}
	if objection.Vote == nil {
		return nil, notFound("Objection not found")
	}

	report, err := findReport(conn, objection.Vote.ReportID)
	if err != nil {
		return nil, err
	}
	if err := requireWorkGroupAdmin(ctx, user, report.WorkGroupID); err != nil {
		return nil, err
	}

	now := time.Now()
	if err := conn.Model(&objection).Updates(map[string]any{
		"status":         status,
		"resolved_by_id": user.ID,
		"resolved_at":    now,
	}).Error; err != nil {
		return nil, err
	}

	metrics.RecordObjectionResolved(string(status))
	notify(ctx, models.Notification{
		UserID:  objection.Vote.UserID,
		ActorID: &user.ID,
		Type:    models.NotificationObjectionResolved,
		Message: fmt.Sprintf("Your objection was marked %s", status),
		Link:    reportLink(report.ID),
	})

	if err := conn.Preload("Vote.User").Preload("ResolvedBy").First(&objection, "id = ?", objection.ID).Error; err != nil {
		return nil, err
	}
	return &objection, nil
}

// ListReportObjections 报告所有轮次的异议
func ListReportObjections(ctx context.Context, reportID string) ([]models.Objection, error) {
	conn := db.DB.WithContext(ctx)
	if _, err := findReport(conn, reportID); err != nil {
		return nil, err
	}
	objections := []models.Objection{}
	err := conn.
		Joins("JOIN votes ON votes.id = objections.vote_id").
		Where("votes.report_id = ?", reportID).
		Preload("Vote.User").
		Preload("ResolvedBy").
		Order("objections.created_at ASC").
		Find(&objections).Error
	return objections, err
}
