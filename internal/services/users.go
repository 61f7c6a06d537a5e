package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"govhub/internal/db"
	"govhub/internal/models"

	"gorm.io/gorm"
)

// DiscordProfile /users/@me 的返回结构
type DiscordProfile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Email      string `json:"email"`
	Avatar     string `json:"avatar"`
}

func (p DiscordProfile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}

func (p DiscordProfile) AvatarURL() string {
	if p.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", p.ID, p.Avatar)
}

// UpsertDiscordUser 按 discordId 创建或更新用户，superAdminIDs 中的账号提升为 SUPER_ADMIN
func UpsertDiscordUser(ctx context.Context, profile DiscordProfile, superAdminIDs []string) (*models.User, error) {
	if profile.ID == "" {
		return nil, validationError("Discord profile is missing an id")
	}
	conn := db.DB.WithContext(ctx)

	var user models.User
	err := conn.Where("discord_id = ?", profile.ID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		discordID := profile.ID
		user = models.User{
			DiscordID: &discordID,
			Name:      profile.DisplayName(),
			Email:     profile.Email,
			Image:     profile.AvatarURL(),
			Role:      models.RoleCoreContributor,
		}
		if slices.Contains(superAdminIDs, profile.ID) {
			user.Role = models.RoleSuperAdmin
		}
		if err := conn.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]any{
		"name":  profile.DisplayName(),
		"email": profile.Email,
		"image": profile.AvatarURL(),
	}
	if slices.Contains(superAdminIDs, profile.ID) && user.Role != models.RoleSuperAdmin {
		updates["role"] = models.RoleSuperAdmin
	}
	if err := conn.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetUser(ctx, user.ID)
}

func GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := db.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

type ProfileInput struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatarUrl"`
	CVURL     *string `json:"cvUrl"`
}

func UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) (*models.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, validationError("Name is required")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > 500 {
			return nil, validationError("Bio must be at most 500 characters")
		}
		updates["bio"] = *in.Bio
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if in.CVURL != nil {
		updates["cv_url"] = strings.TrimSpace(*in.CVURL)
	}
	if len(updates) > 0 {
		if err := db.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetUser(ctx, user.ID)
}

// ListUsers 仅全局管理员
func ListUsers(ctx context.Context, caller *models.User) ([]models.User, error) {
	if !IsGlobalAdmin(caller) {
		return nil, ErrForbidden
	}
	users := []models.User{}
	err := db.DB.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// SetUserRole SUPER_ADMIN 的授予与撤销只能由 SUPER_ADMIN 执行，且不能修改自己的角色
func SetUserRole(ctx context.Context, caller *models.User, targetID string, role models.Role) (*models.User, error) {
	if !IsGlobalAdmin(caller) {
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, validationError("Invalid role")
	}
	if caller.ID == targetID {
		return nil, validationError("You cannot change your own role")
	}
	target, err := GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if (role == models.RoleSuperAdmin || target.Role == models.RoleSuperAdmin) && caller.Role != models.RoleSuperAdmin {
		return nil, ErrForbidden
	}
	if err := db.DB.WithContext(ctx).Model(target).Update("role", role).Error; err != nil {
		return nil, err
	}
	target.Role = role
	return target, nil
}
