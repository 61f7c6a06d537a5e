package services

import (
	"context"
	"time"

	"govhub/internal/db"
	"govhub/internal/logger"
	"govhub/internal/metrics"
	"govhub/internal/models"

	"github.com/sirupsen/logrus"
)

type ExpiryResult struct {
	ExpiredProposals int64 `json:"expiredProposals"`
	ClosedRounds     int64 `json:"closedRounds"`
}

// RunExpiry 过期评审期结束的提案，关闭超过 roundDuration 的进行中轮次
func RunExpiry(ctx context.Context, now time.Time, roundDuration time.Duration) (*ExpiryResult, error) {
	conn := db.DB.WithContext(ctx)
	out := &ExpiryResult{}

	res := conn.Model(&models.Proposal{}).
		Where("status = ? AND expires_at < ?", models.ProposalInReview, now).
		Update("status", models.ProposalExpired)
	if res.Error != nil {
		return nil, res.Error
	}
	out.ExpiredProposals = res.RowsAffected

	res = conn.Model(&models.VotingRound{}).
		Where("status = ? AND started_at < ?", models.RoundActive, now.Add(-roundDuration)).
		Updates(map[string]any{"status": models.RoundClosed, "ended_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	out.ClosedRounds = res.RowsAffected

	metrics.RecordExpired("proposal", out.ExpiredProposals)
	metrics.RecordExpired("round", out.ClosedRounds)
	if out.ExpiredProposals > 0 || out.ClosedRounds > 0 {
		InvalidateDashboard()
	}
	logger.Log.WithFields(logrus.Fields{
		"expired_proposals": out.ExpiredProposals,
		"closed_rounds":     out.ClosedRounds,
	}).Info("expiry job finished")
	return out, nil
}
