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

const (
	msgReportNotFound    = "Report not found"
	msgReportConsensed   = "Report is already consensed"
	msgActiveRoundExists = "There is already an active round"
)

func findReport(tx *gorm.DB, id string) (*models.Report, error) {
	var report models.Report
	if err := tx.First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(msgReportNotFound)
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return &report, nil
}

// SetConsensusStatus 修改报告共识状态；存在 VALIDA 异议时拒绝标记为 CONSENSED
func SetConsensusStatus(ctx context.Context, user *models.User, reportID string, status models.ConsensusStatus) (*models.Report, error) {
	if !status.Valid() {
		return nil, validationError("Invalid consensus status")
	}

	report, err := findReport(db.DB.WithContext(ctx), reportID)
	if err != nil {
		return nil, err
	}
	if err := requireWorkGroupAdmin(ctx, user, report.WorkGroupID); err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if status == models.ConsensusConsensed {
			var valid int64
			err := tx.Model(&models.Objection{}).
				Joins("JOIN votes ON votes.id = objections.vote_id").
				Where("votes.report_id = ? AND objections.status = ?", report.ID, models.ObjectionValid).
				Count(&valid).Error
			if err != nil {
				return err
			}
			if valid > 0 {
				return conflict("Cannot mark as consensed while there are valid objections")
			}
		}

		if err := tx.Model(report).Update("consensus_status", status).Error; err != nil {
			return err
		}
		report.ConsensusStatus = status

		if status == models.ConsensusConsensed {
			return tx.Model(&models.VotingRound{}).
				Where("report_id = ? AND status = ?", report.ID, models.RoundActive).
				Updates(map[string]any{"status": models.RoundConsensed, "ended_at": now}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status == models.ConsensusConsensed {
		notify(ctx, models.Notification{
			UserID:  report.CreatedByID,
			ActorID: &user.ID,
			Type:    models.NotificationReportConsensed,
			Message: fmt.Sprintf("Report %d %s reached consensus", report.Year, report.Quarter),
			Link:    reportLink(report.ID),
		})
	}
	return report, nil
}

// StartRound 开启新一轮投票，同一事务内关闭上一轮
func StartRound(ctx context.Context, user *models.User, reportID string) (*models.VotingRound, error) {
	report, err := findReport(db.DB.WithContext(ctx), reportID)
	if err != nil {
		return nil, err
	}
	if err := requireWorkGroupAdmin(ctx, user, report.WorkGroupID); err != nil {
		return nil, err
	}
	if report.ConsensusStatus == models.ConsensusConsensed {
		return nil, conflict(msgReportConsensed)
	}

	var round models.VotingRound
	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.VotingRound{}).
			Where("report_id = ? AND status = ?", report.ID, models.RoundActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return conflict(msgActiveRoundExists)
		}

		now := time.Now()
		next := 1
		var last models.VotingRound
		err := tx.Where("report_id = ?", report.ID).Order("round_number DESC").First(&last).Error
		switch {
		case err == nil:
			next = last.RoundNumber + 1
			if last.EndedAt == nil {
				if err := tx.Model(&last).Updates(map[string]any{"status": models.RoundClosed, "ended_at": now}).Error; err != nil {
					return err
				}
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		round = models.VotingRound{
			ReportID:    report.ID,
			RoundNumber: next,
			Status:      models.RoundActive,
			StartedAt:   now,
		}
		if err := tx.Create(&round).Error; err != nil {
			return err
		}

		if report.ConsensusStatus == models.ConsensusPending {
			if err := tx.Model(report).Update("consensus_status", models.ConsensusInConsensus).Error; err != nil {
				return err
			}
			report.ConsensusStatus = models.ConsensusInConsensus
		}
		return nil
	})
	if err != nil {
		// 并发开启时由部分唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict(msgActiveRoundExists)
		}
		return nil, err
	}

	metrics.RecordRoundOpened()
	notifyWorkGroup(ctx, report.WorkGroupID, user.ID, models.NotificationRoundOpened,
		fmt.Sprintf("Voting round %d opened for report %d %s", round.RoundNumber, report.Year, report.Quarter),
		reportLink(report.ID))
	return &round, nil
}

// ListRounds 按轮次编号升序
func ListRounds(ctx context.Context, reportID string) ([]models.VotingRound, error) {
	if _, err := findReport(db.DB.WithContext(ctx), reportID); err != nil {
		return nil, err
	}
	var rounds []models.VotingRound
	if err := db.DB.WithContext(ctx).Where("report_id = ?", reportID).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func reportLink(reportID string) string {
	return "/quarterly-reports/" + reportID
}
