package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"govhub/internal/db"
	"govhub/internal/models"
	"govhub/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ReportFilter struct {
	ConsensusStatus string
	WorkGroupID     string
	Year            int
	Quarter         string
}

// ListReports 按年份、季度倒序，附带预算合计、票数和当前轮次
func ListReports(ctx context.Context, f ReportFilter) ([]models.Report, error) {
	if f.ConsensusStatus != "" && !models.ConsensusStatus(f.ConsensusStatus).Valid() {
		return nil, validationError("Invalid consensus status")
	}
	if f.Quarter != "" && !slices.Contains(models.Quarters, f.Quarter) {
		return nil, validationError("Invalid quarter")
	}

	conn := db.DB.WithContext(ctx)
	query := conn.Preload("WorkGroup").Preload("CreatedBy").Preload("BudgetItems")
	if f.ConsensusStatus != "" {
		query = query.Where("consensus_status = ?", f.ConsensusStatus)
	}
	if f.WorkGroupID != "" {
		query = query.Where("work_group_id = ?", f.WorkGroupID)
	}
	if f.Year > 0 {
		query = query.Where("year = ?", f.Year)
	}
	if f.Quarter != "" {
		query = query.Where("quarter = ?", f.Quarter)
	}

	reports := []models.Report{}
	if err := query.Order("year DESC, quarter DESC, created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return reports, nil
	}

	ids := make([]string, len(reports))
	for i := range reports {
		ids[i] = reports[i].ID
	}

	var voteRows []struct {
		ReportID string
		Total    int64
	}
	if err := conn.Model(&models.Vote{}).
		Select("report_id, COUNT(*) AS total").
		Where("report_id IN ?", ids).
		Group("report_id").
		Scan(&voteRows).Error; err != nil {
		return nil, err
	}
	var roundRows []struct {
		ReportID string
		Latest   int
	}
	if err := conn.Model(&models.VotingRound{}).
		Select("report_id, MAX(round_number) AS latest").
		Where("report_id IN ?", ids).
		Group("report_id").
		Scan(&roundRows).Error; err != nil {
		return nil, err
	}

	votes := make(map[string]int64, len(voteRows))
	for _, r := range voteRows {
		votes[r.ReportID] = r.Total
	}
	rounds := make(map[string]int, len(roundRows))
	for _, r := range roundRows {
		rounds[r.ReportID] = r.Latest
	}
	for i := range reports {
		reports[i].SumBudget()
		reports[i].VoteCount = votes[reports[i].ID]
		reports[i].CurrentRound = rounds[reports[i].ID]
	}
	return reports, nil
}

// ListWorkGroupReports 工作组的全部季度报告
func ListWorkGroupReports(ctx context.Context, workGroupID string) ([]models.Report, error) {
	if _, err := findWorkGroup(db.DB.WithContext(ctx), workGroupID); err != nil {
		return nil, err
	}
	return ListReports(ctx, ReportFilter{WorkGroupID: workGroupID})
}

type BudgetItemInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
}

type ReportInput struct {
	Year           int               `json:"year"`
	Quarter        string            `json:"quarter"`
	Detail         string            `json:"detail"`
	TheoryOfChange string            `json:"theoryOfChange"`
	Plans          string            `json:"plans"`
	Challenges     string            `json:"challenges"`
	BudgetItems    []BudgetItemInput `json:"budgetItems"`
}

func buildBudgetItems(reportID string, in []BudgetItemInput) ([]models.BudgetItem, error) {
	items := make([]models.BudgetItem, 0, len(in))
	for _, b := range in {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, validationError("Budget item name is required")
		}
		if b.Amount < 0 {
			return nil, validationError("Budget item amounts cannot be negative")
		}
		items = append(items, models.BudgetItem{
			ReportID:    reportID,
			Name:        name,
			Description: b.Description,
			Category:    strings.TrimSpace(b.Category),
			Amount:      b.Amount,
		})
	}
	return items, nil
}

// CreateReport 工作组成员提交季度报告，每季度仅一份
func CreateReport(ctx context.Context, user *models.User, workGroupID string, in ReportInput) (*models.Report, error) {
	conn := db.DB.WithContext(ctx)
	if _, err := findWorkGroup(conn, workGroupID); err != nil {
		return nil, err
	}
	ok, err := IsWorkGroupMember(ctx, user, workGroupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	if in.Year < 2000 || in.Year > 2100 {
		return nil, validationError("Invalid year")
	}
	if !slices.Contains(models.Quarters, in.Quarter) {
		return nil, validationError("Invalid quarter")
	}
	items, err := buildBudgetItems("", in.BudgetItems)
	if err != nil {
		return nil, err
	}

	report := models.Report{
		WorkGroupID:     workGroupID,
		CreatedByID:     user.ID,
		Year:            in.Year,
		Quarter:         in.Quarter,
		Detail:          in.Detail,
		TheoryOfChange:  in.TheoryOfChange,
		Plans:           in.Plans,
		Challenges:      in.Challenges,
		ConsensusStatus: models.ConsensusPending,
		BudgetItems:     items,
	}
	// 关联的预算条目随报告一起写入
	err = conn.Create(&report).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict("A report for this quarter already exists")
	}
	if err != nil {
		return nil, err
	}
	report.SumBudget()
	return &report, nil
}

type ReportDetail struct {
	models.Report
	Rounds       []models.VotingRound `json:"rounds"`
	SectionsHTML map[string]string    `json:"sectionsHtml"`
}

// GetReportDetail 报告、预算、轮次与票数并行读取
func GetReportDetail(ctx context.Context, id string) (*ReportDetail, error) {
	conn := db.DB.WithContext(ctx)
	var report models.Report
	if err := conn.Preload("WorkGroup").Preload("CreatedBy").First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(msgReportNotFound)
		}
		return nil, err
	}

	var (
		items  []models.BudgetItem
		rounds []models.VotingRound
		votes  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.DB.WithContext(gctx).Where("report_id = ?", id).Order("created_at ASC").Find(&items).Error
	})
	g.Go(func() error {
		return db.DB.WithContext(gctx).Where("report_id = ?", id).Order("round_number ASC").Find(&rounds).Error
	})
	g.Go(func() error {
		return db.DB.WithContext(gctx).Model(&models.Vote{}).Where("report_id = ?", id).Count(&votes).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.BudgetItems = items
	report.SumBudget()
	report.VoteCount = votes
	if n := len(rounds); n > 0 {
		report.CurrentRound = rounds[n-1].RoundNumber
	}
	if rounds == nil {
		rounds = []models.VotingRound{}
	}

	return &ReportDetail{
		Report: report,
		Rounds: rounds,
		SectionsHTML: map[string]string{
			"detail":         utils.RenderMarkdown(report.Detail),
			"theoryOfChange": utils.RenderMarkdown(report.TheoryOfChange),
			"plans":          utils.RenderMarkdown(report.Plans),
			"challenges":     utils.RenderMarkdown(report.Challenges),
		},
	}, nil
}

type UpdateReportInput struct {
	Detail         *string            `json:"detail"`
	TheoryOfChange *string            `json:"theoryOfChange"`
	Plans          *string            `json:"plans"`
	Challenges     *string            `json:"challenges"`
	BudgetItems    *[]BudgetItemInput `json:"budgetItems"`
}

// UpdateReport 仅创建者可编辑；预算条目整体替换
func UpdateReport(ctx context.Context, user *models.User, id string, in UpdateReportInput) (*ReportDetail, error) {
	conn := db.DB.WithContext(ctx)
	report, err := findReport(conn, id)
	if err != nil {
		return nil, err
	}
	if report.CreatedByID != user.ID {
		return nil, ErrForbidden
	}
	if report.ConsensusStatus == models.ConsensusConsensed {
		return nil, conflict("Cannot edit a consensed report")
	}

	var items []models.BudgetItem
	if in.BudgetItems != nil {
		if items, err = buildBudgetItems(report.ID, *in.BudgetItems); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{}
	if in.Detail != nil {
		updates["detail"] = *in.Detail
	}
	if in.TheoryOfChange != nil {
		updates["theory_of_change"] = *in.TheoryOfChange
	}
	if in.Plans != nil {
		updates["plans"] = *in.Plans
	}
	if in.Challenges != nil {
		updates["challenges"] = *in.Challenges
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(report).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.BudgetItems == nil {
			return nil
		}
		if err := tx.Where("report_id = ?", report.ID).Delete(&models.BudgetItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return GetReportDetail(ctx, report.ID)
}
