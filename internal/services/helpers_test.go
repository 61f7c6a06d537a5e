package services

import (
	"context"
	"testing"
	"time"

	"govhub/internal/db"
	"govhub/internal/models"
	"govhub/internal/utils"

	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// setupTestDB 每个测试使用独立的内存库
func setupTestDB(t *testing.T) {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)

	prev := db.DB
	db.DB = conn
	utils.GetCache().Purge()
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
		db.DB = prev
	})
}

func createUser(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: name, Role: role}
	require.NoError(t, db.DB.Create(u).Error)
	return u
}

// createWorkGroup admin 为工作组 admin，members 为普通成员
func createWorkGroup(t *testing.T, name string, admin *models.User, members ...*models.User) *models.WorkGroup {
	t.Helper()
	wg := &models.WorkGroup{Name: name, CreatedByID: admin.ID}
	require.NoError(t, db.DB.Create(wg).Error)
	require.NoError(t, db.DB.Create(&models.WorkGroupMember{
		WorkGroupID: wg.ID, UserID: admin.ID, Role: models.MemberRoleAdmin,
	}).Error)
	for _, m := range members {
		require.NoError(t, db.DB.Create(&models.WorkGroupMember{
			WorkGroupID: wg.ID, UserID: m.ID, Role: models.MemberRoleMember,
		}).Error)
	}
	return wg
}

func createReport(t *testing.T, id string, wg *models.WorkGroup, creator *models.User) *models.Report {
	t.Helper()
	r := &models.Report{
		ID:          id,
		WorkGroupID: wg.ID,
		CreatedByID: creator.ID,
		Year:        2025,
		Quarter:     "Q1",
		Detail:      "Quarterly activity",
	}
	require.NoError(t, db.DB.Create(r).Error)
	return r
}

func createProposal(t *testing.T, id string, author *models.User, expiresIn time.Duration) *models.Proposal {
	t.Helper()
	p := &models.Proposal{
		ID:          id,
		Title:       "Fund the translation sprint",
		Description: "We propose to translate the docs.",
		AuthorID:    author.ID,
		ExpiresAt:   time.Now().Add(expiresIn),
	}
	require.NoError(t, db.DB.Create(p).Error)
	return p
}

// consensusFixture 工作组 + 报告 r1 + 一个 admin 与两个成员
type consensusFixture struct {
	admin   *models.User
	alice   *models.User
	bob     *models.User
	outside *models.User
	wg      *models.WorkGroup
	report  *models.Report
}

func newConsensusFixture(t *testing.T) *consensusFixture {
	t.Helper()
	f := &consensusFixture{
		admin:   createUser(t, "Wg Admin", models.RoleCoreContributor),
		alice:   createUser(t, "Alice", models.RoleCoreContributor),
		bob:     createUser(t, "Bob", models.RoleCoreContributor),
		outside: createUser(t, "Outsider", models.RoleCoreContributor),
	}
	f.wg = createWorkGroup(t, "Education", f.admin, f.alice, f.bob)
	f.report = createReport(t, "r1", f.wg, f.alice)
	return f
}

func reloadReport(t *testing.T, id string) *models.Report {
	t.Helper()
	var r models.Report
	require.NoError(t, db.DB.First(&r, "id = ?", id).Error)
	return &r
}

func countRows(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.DB.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
