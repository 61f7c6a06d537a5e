package services

import (
	"testing"

	"govhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkGroup(t *testing.T) {
	setupTestDB(t)
	admin := createUser(t, "Admin", models.RoleAdmin)
	member := createUser(t, "Member", models.RoleCoreContributor)

	_, err := CreateWorkGroup(ctx, member, CreateWorkGroupInput{Name: "Docs"})
	assert.ErrorIs(t, err, ErrForbidden)

	wg, err := CreateWorkGroup(ctx, admin, CreateWorkGroupInput{Name: "Docs", Type: "team", AnnualBudget: 1200})
	require.NoError(t, err)
	assert.Equal(t, models.WorkGroupActive, wg.Status)
	require.Len(t, wg.Members, 1)
	assert.Equal(t, models.MemberRoleAdmin, wg.Members[0].Role)
	assert.Equal(t, admin.ID, wg.Members[0].User.ID)

	_, err = CreateWorkGroup(ctx, admin, CreateWorkGroupInput{Name: "Docs"})
	require.Error(t, err)
	assert.Equal(t, "A workgroup with this name already exists", err.Error())
}

func TestWorkGroupMembership(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	_, err := AddMember(ctx, f.alice, f.wg.ID, MemberInput{UserID: f.outside.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	m, err := AddMember(ctx, f.admin, f.wg.ID, MemberInput{UserID: f.outside.ID})
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleMember, m.Role)

	// 重复添加时更新角色
	m, err = AddMember(ctx, f.admin, f.wg.ID, MemberInput{UserID: f.outside.ID, Role: models.MemberRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleAdmin, m.Role)
	ok, err := CanManageWorkGroup(ctx, f.outside, f.wg.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = AddMember(ctx, f.admin, f.wg.ID, MemberInput{UserID: f.bob.ID, Role: "owner"})
	assert.True(t, IsKind(err, KindValidation))
	_, err = AddMember(ctx, f.admin, f.wg.ID, MemberInput{UserID: "ghost"})
	assert.True(t, IsKind(err, KindNotFound))

	require.NoError(t, RemoveMember(ctx, f.admin, f.wg.ID, f.bob.ID))
	assert.True(t, IsKind(RemoveMember(ctx, f.admin, f.wg.ID, f.bob.ID), KindNotFound))

	groups, err := ListWorkGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].MemberCount)
}

func TestAuthorizationHelpers(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)
	super := createUser(t, "Super", models.RoleSuperAdmin)

	assert.True(t, IsGlobalAdmin(super))
	assert.False(t, IsGlobalAdmin(f.admin))
	assert.False(t, IsGlobalAdmin(nil))

	ok, err := IsWorkGroupMember(ctx, f.bob, f.wg.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = IsWorkGroupMember(ctx, f.outside, f.wg.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = CanManageWorkGroup(ctx, f.bob, f.wg.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = CanManageWorkGroup(ctx, super, f.wg.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
