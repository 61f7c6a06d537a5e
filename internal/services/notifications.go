package services

import (
	"context"

	"govhub/internal/db"
	"govhub/internal/logger"
	"govhub/internal/models"

	"github.com/sirupsen/logrus"
)

// notify 写入通知，失败只记录日志，不影响触发请求
func notify(ctx context.Context, n models.Notification) {
	if n.UserID == "" || (n.ActorID != nil && *n.ActorID == n.UserID) {
		return
	}
	if err := db.DB.WithContext(ctx).Create(&n).Error; err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": n.UserID,
			"type":    n.Type,
		}).WithError(err).Warn("failed to create notification")
	}
}

// notifyWorkGroup 通知工作组全部成员
func notifyWorkGroup(ctx context.Context, workGroupID, actorID string, typ models.NotificationType, message, link string) {
	notifyMembers(ctx, workGroupID, actorID, typ, message, link, false)
}

func notifyWorkGroupAdmins(ctx context.Context, workGroupID, actorID string, typ models.NotificationType, message, link string) {
	notifyMembers(ctx, workGroupID, actorID, typ, message, link, true)
}

func notifyMembers(ctx context.Context, workGroupID, actorID string, typ models.NotificationType, message, link string, adminsOnly bool) {
	query := db.DB.WithContext(ctx).Model(&models.WorkGroupMember{}).Where("work_group_id = ?", workGroupID)
	if adminsOnly {
		query = query.Where("role = ?", models.MemberRoleAdmin)
	}
	var userIDs []string
	if err := query.Pluck("user_id", &userIDs).Error; err != nil {
		logger.Log.WithError(err).WithField("work_group_id", workGroupID).Warn("failed to load notification recipients")
		return
	}
	for _, uid := range userIDs {
		notify(ctx, models.Notification{
			UserID:  uid,
			ActorID: &actorID,
			Type:    typ,
			Message: message,
			Link:    link,
		})
	}
}

// ListNotifications 最近 50 条，最新在前
func ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	err := db.DB.WithContext(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&list).Error
	return list, err
}

func UnreadNotificationCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := db.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead 只能操作自己的通知
func MarkNotificationRead(ctx context.Context, userID, id string) error {
	res := db.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Notification not found")
	}
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, userID string) error {
	return db.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func DeleteNotification(ctx context.Context, userID, id string) error {
	res := db.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("Notification not found")
	}
	return nil
}
