package services

import (
	"context"
	"time"

	"govhub/internal/db"
	"govhub/internal/models"
	"govhub/internal/utils"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	dashboardCacheKey = "dashboard:counts"
	dashboardCacheTTL = time.Minute
)

type DashboardCounts struct {
	Proposals         map[string]int64 `json:"proposals"`
	Reports           map[string]int64 `json:"reports"`
	WorkGroups        int64            `json:"workGroups"`
	ActiveRounds      int64            `json:"activeRounds"`
	PendingObjections int64            `json:"pendingObjections"`
}

type Dashboard struct {
	DashboardCounts
	UnreadNotifications int64 `json:"unreadNotifications"`
}

// GetDashboard 汇总计数缓存一分钟，未读通知数按用户实时查询
func GetDashboard(ctx context.Context, user *models.User) (*Dashboard, error) {
	counts, err := dashboardCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := &Dashboard{DashboardCounts: *counts}
	if user != nil {
		if out.UnreadNotifications, err = UnreadNotificationCount(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	cache := utils.GetCache()
	if cached, ok := cache.Get(dashboardCacheKey).(*DashboardCounts); ok {
		return cached, nil
	}

	counts := &DashboardCounts{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := groupCount(db.DB.WithContext(gctx).Model(&models.Proposal{}), "status")
		counts.Proposals = m
		return err
	})
	g.Go(func() error {
		m, err := groupCount(db.DB.WithContext(gctx).Model(&models.Report{}), "consensus_status")
		counts.Reports = m
		return err
	})
	g.Go(func() error {
		return db.DB.WithContext(gctx).Model(&models.WorkGroup{}).
			Where("status = ?", models.WorkGroupActive).
			Count(&counts.WorkGroups).Error
	})
	g.Go(func() error {
		return db.DB.WithContext(gctx).Model(&models.VotingRound{}).
			Where("status = ?", models.RoundActive).
			Count(&counts.ActiveRounds).Error
	})
	g.Go(func() error {
		return db.DB.WithContext(gctx).Model(&models.Objection{}).
			Where("status = ?", models.ObjectionPending).
			Count(&counts.PendingObjections).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cache.Set(dashboardCacheKey, counts, dashboardCacheTTL)
	return counts, nil
}

func groupCount(query *gorm.DB, column string) (map[string]int64, error) {
	var rows []struct {
		Bucket string
		Total  int64
	}
	if err := query.Select(column + " AS bucket, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Bucket] = r.Total
	}
	return out, nil
}

// InvalidateDashboard 写操作后主动失效汇总缓存
func InvalidateDashboard() {
	utils.GetCache().Delete(dashboardCacheKey)
}
