package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"govhub/internal/db"
	"govhub/internal/models"

	"gorm.io/gorm"
)

func findWorkGroup(tx *gorm.DB, id string) (*models.WorkGroup, error) {
	var wg models.WorkGroup
	if err := tx.First(&wg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Workgroup not found")
		}
		return nil, fmt.Errorf("load workgroup: %w", err)
	}
	return &wg, nil
}

// ListWorkGroups 按名称排序，附带成员数
func ListWorkGroups(ctx context.Context) ([]models.WorkGroup, error) {
	conn := db.DB.WithContext(ctx)
	groups := []models.WorkGroup{}
	if err := conn.Order("name ASC").Find(&groups).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		WorkGroupID string
		Total       int
	}
	if err := conn.Model(&models.WorkGroupMember{}).
		Select("work_group_id, COUNT(*) AS total").
		Group("work_group_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.WorkGroupID] = r.Total
	}
	for i := range groups {
		groups[i].MemberCount = counts[groups[i].ID]
	}
	return groups, nil
}

func GetWorkGroup(ctx context.Context, id string) (*models.WorkGroup, error) {
	var wg models.WorkGroup
	err := db.DB.WithContext(ctx).
		Preload("Members", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Members.User").
		First(&wg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Workgroup not found")
	}
	if err != nil {
		return nil, err
	}
	wg.MemberCount = len(wg.Members)
	return &wg, nil
}

type CreateWorkGroupInput struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Mission      string  `json:"mission"`
	AnnualBudget float64 `json:"annualBudget"`
}

// CreateWorkGroup 仅全局管理员；创建者成为工作组 admin
func CreateWorkGroup(ctx context.Context, user *models.User, in CreateWorkGroupInput) (*models.WorkGroup, error) {
	if !IsGlobalAdmin(user) {
		return nil, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("Name is required")
	}
	if in.AnnualBudget < 0 {
		return nil, validationError("Annual budget cannot be negative")
	}

	wg := models.WorkGroup{
		Name:         name,
		Type:         strings.TrimSpace(in.Type),
		Description:  in.Description,
		Mission:      in.Mission,
		AnnualBudget: in.AnnualBudget,
		Status:       models.WorkGroupActive,
		CreatedByID:  user.ID,
	}
	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&wg).Error; err != nil {
			return err
		}
		return tx.Create(&models.WorkGroupMember{
			WorkGroupID: wg.ID,
			UserID:      user.ID,
			Role:        models.MemberRoleAdmin,
		}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflict("A workgroup with this name already exists")
	}
	if err != nil {
		return nil, err
	}
	return GetWorkGroup(ctx, wg.ID)
}

type MemberInput struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// AddMember 已是成员时更新角色
func AddMember(ctx context.Context, user *models.User, workGroupID string, in MemberInput) (*models.WorkGroupMember, error) {
	conn := db.DB.WithContext(ctx)
	if _, err := findWorkGroup(conn, workGroupID); err != nil {
		return nil, err
	}
	if err := requireWorkGroupAdmin(ctx, user, workGroupID); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.MemberRoleMember
	}
	if in.Role != models.MemberRoleAdmin && in.Role != models.MemberRoleMember {
		return nil, validationError("Invalid role")
	}
	if in.UserID == "" {
		return nil, validationError("Missing required fields")
	}
	var target models.User
	if err := conn.First(&target, "id = ?", in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	var member models.WorkGroupMember
	err := conn.Where("work_group_id = ? AND user_id = ?", workGroupID, target.ID).First(&member).Error
	switch {
	case err == nil:
		if err := conn.Model(&member).Update("role", in.Role).Error; err != nil {
			return nil, err
		}
		member.Role = in.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
		member = models.WorkGroupMember{WorkGroupID: workGroupID, UserID: target.ID, Role: in.Role}
		if err := conn.Create(&member).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	member.User = target
	return &member, nil
}

func RemoveMember(ctx context.Context, user *models.User, workGroupID, userID string) error {
	conn := db.DB.WithContext(ctx)
	if _, err := findWorkGroup(conn, workGroupID); err != nil {
		return err
	}
	if err := requireWorkGroupAdmin(ctx, user, workGroupID); err != nil {
		return err
	}
	res := conn.Where("work_group_id = ? AND user_id = ?", workGroupID, userID).Delete(&models.WorkGroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Member not found")
	}
	return nil
}
