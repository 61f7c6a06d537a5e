package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"govhub/internal/db"
	"govhub/internal/metrics"
	"govhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CastVoteInput struct {
	ReportID string          `json:"reportId"`
	VoteType models.VoteType `json:"voteType"`
	Comment  string          `json:"comment"`
}

// CastVote 在当前进行中的轮次投票；同一用户同一轮次覆盖旧票。
// created 表示新插入了一票。
func CastVote(ctx context.Context, user *models.User, in CastVoteInput, minCommentLength int) (vote *models.Vote, created bool, err error) {
	in.ReportID = strings.TrimSpace(in.ReportID)
	if in.ReportID == "" || in.VoteType == "" || strings.TrimSpace(in.Comment) == "" {
		return nil, false, validationError("Missing required fields")
	}
	if !in.VoteType.Valid() {
		return nil, false, validationError("Invalid vote type")
	}
	if utf8.RuneCountInString(in.Comment) < minCommentLength {
		return nil, false, validationError("Comment must be at least %d characters long", minCommentLength)
	}

	report, err := findReport(db.DB.WithContext(ctx), in.ReportID)
	if err != nil {
		return nil, false, err
	}
	if report.ConsensusStatus == models.ConsensusConsensed {
		return nil, false, conflict(msgReportConsensed)
	}

	var round models.VotingRound
	err = db.DB.WithContext(ctx).
		Where("report_id = ? AND status = ?", report.ID, models.RoundActive).
		First(&round).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, conflict("No active voting round found")
	}
	if err != nil {
		return nil, false, fmt.Errorf("load active round: %w", err)
	}

	var result models.Vote
	objectionRaised := false
	err = db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := tx.Where("user_id = ? AND round_id = ?", user.ID, round.ID).First(&existing).Error
		switch {
		case err == nil:
			previous := existing.VoteType
			if err := tx.Model(&existing).Updates(map[string]any{
				"vote_type": in.VoteType,
				"comment":   in.Comment,
			}).Error; err != nil {
				return err
			}
			// 不再反对时撤回异议
			if previous == models.VoteObject && in.VoteType != models.VoteObject {
				if err := tx.Where("vote_id = ?", existing.ID).Delete(&models.Objection{}).Error; err != nil {
					return err
				}
			}
			result = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = models.Vote{
				ReportID: report.ID,
				RoundID:  round.ID,
				UserID:   user.ID,
				VoteType: in.VoteType,
				Comment:  in.Comment,
			}
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		if in.VoteType == models.VoteObject {
			// 已处理过的异议保持原状态
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "vote_id"}},
				DoNothing: true,
			}).Create(&models.Objection{VoteID: result.ID, Status: models.ObjectionPending})
			if res.Error != nil {
				return res.Error
			}
			objectionRaised = res.RowsAffected > 0
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 同一用户并发投票，另一请求已插入
			return nil, false, conflict("Vote already submitted, please retry")
		}
		return nil, false, err
	}

	metrics.RecordVote(string(in.VoteType))
	if objectionRaised {
		notifyWorkGroupAdmins(ctx, report.WorkGroupID, user.ID, models.NotificationObjectionRaised,
			fmt.Sprintf("%s raised an objection in round %d", user.Name, round.RoundNumber),
			reportLink(report.ID))
	}

	if err := db.DB.WithContext(ctx).Preload("Objection").First(&result, "id = ?", result.ID).Error; err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

type VoteSummary struct {
	Total      int                            `json:"total"`
	ByType     map[models.VoteType]int        `json:"byType"`
	Objections map[models.ObjectionStatus]int `json:"objections"`
}

type RoundVotes struct {
	Round   *models.VotingRound `json:"round"`
	Votes   []models.Vote       `json:"votes"`
	Summary VoteSummary         `json:"summary"`
}

// ListReportVotes roundNumber 为 0 时取进行中的轮次，没有则取最近一轮
func ListReportVotes(ctx context.Context, reportID string, roundNumber int) (*RoundVotes, error) {
	conn := db.DB.WithContext(ctx)
	if _, err := findReport(conn, reportID); err != nil {
		return nil, err
	}

	out := &RoundVotes{
		Votes:   []models.Vote{},
		Summary: newVoteSummary(),
	}

	var round models.VotingRound
	var err error
	if roundNumber > 0 {
		err = conn.Where("report_id = ? AND round_number = ?", reportID, roundNumber).First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Voting round not found")
		}
	} else {
		err = conn.Where("report_id = ? AND status = ?", reportID, models.RoundActive).First(&round).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = conn.Where("report_id = ?", reportID).Order("round_number DESC").First(&round).Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, nil
		}
	}
	if err != nil {
		return nil, err
	}
	out.Round = &round

	if err := conn.Preload("User").Preload("Objection").
		Where("round_id = ?", round.ID).
		Order("created_at ASC").
		Find(&out.Votes).Error; err != nil {
		return nil, err
	}

	for _, v := range out.Votes {
		out.Summary.Total++
		out.Summary.ByType[v.VoteType]++
		if v.Objection != nil {
			out.Summary.Objections[v.Objection.Status]++
		}
	}
	return out, nil
}

func newVoteSummary() VoteSummary {
	s := VoteSummary{
		ByType:     make(map[models.VoteType]int, len(models.VoteTypes)),
		Objections: make(map[models.ObjectionStatus]int, 3),
	}
	for _, t := range models.VoteTypes {
		s.ByType[t] = 0
	}
	for _, st := range []models.ObjectionStatus{models.ObjectionPending, models.ObjectionValid, models.ObjectionInvalid} {
		s.Objections[st] = 0
	}
	return s
}
