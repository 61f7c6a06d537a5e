package services

import (
	"context"
	"errors"

	"govhub/internal/db"
	"govhub/internal/models"

	"gorm.io/gorm"
)

// IsGlobalAdmin ADMIN 或 SUPER_ADMIN
func IsGlobalAdmin(user *models.User) bool {
	return user != nil && (user.Role == models.RoleAdmin || user.Role == models.RoleSuperAdmin)
}

// CanManageWorkGroup 全局管理员或工作组 admin 成员
func CanManageWorkGroup(ctx context.Context, user *models.User, workGroupID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if IsGlobalAdmin(user) {
		return true, nil
	}
	member, err := findMembership(ctx, user.ID, workGroupID)
	if err != nil || member == nil {
		return false, err
	}
	return member.Role == models.MemberRoleAdmin, nil
}

// IsWorkGroupMember 任意成员身份，全局管理员视为成员
func IsWorkGroupMember(ctx context.Context, user *models.User, workGroupID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	if IsGlobalAdmin(user) {
		return true, nil
	}
	member, err := findMembership(ctx, user.ID, workGroupID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

func findMembership(ctx context.Context, userID, workGroupID string) (*models.WorkGroupMember, error) {
	var member models.WorkGroupMember
	err := db.DB.WithContext(ctx).
		Where("work_group_id = ? AND user_id = ?", workGroupID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// requireWorkGroupAdmin 无权限时返回 ErrForbidden
func requireWorkGroupAdmin(ctx context.Context, user *models.User, workGroupID string) error {
	ok, err := CanManageWorkGroup(ctx, user, workGroupID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
