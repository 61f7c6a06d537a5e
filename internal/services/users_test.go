package services

import (
	"testing"

	"govhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertDiscordUser(t *testing.T) {
	setupTestDB(t)

	profile := DiscordProfile{ID: "1001", Username: "ana", GlobalName: "Ana", Avatar: "abc"}
	u, err := UpsertDiscordUser(ctx, profile, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, models.RoleCoreContributor, u.Role)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/1001/abc.png", u.Image)

	profile.GlobalName = ""
	again, err := UpsertDiscordUser(ctx, profile, []string{"1001"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "ana", again.Name)
	assert.Equal(t, models.RoleSuperAdmin, again.Role)
	assert.Equal(t, int64(1), countRows(t, &models.User{}, "discord_id = ?", "1001"))

	_, err = UpsertDiscordUser(ctx, DiscordProfile{}, nil)
	assert.True(t, IsKind(err, KindValidation))
}

func TestSetUserRole(t *testing.T) {
	setupTestDB(t)
	super := createUser(t, "Super", models.RoleSuperAdmin)
	admin := createUser(t, "Admin", models.RoleAdmin)
	member := createUser(t, "Member", models.RoleCoreContributor)

	_, err := SetUserRole(ctx, member, admin.ID, models.RoleCoreContributor)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = SetUserRole(ctx, admin, member.ID, "OWNER")
	assert.True(t, IsKind(err, KindValidation))

	_, err = SetUserRole(ctx, admin, admin.ID, models.RoleCoreContributor)
	require.Error(t, err)
	assert.Equal(t, "You cannot change your own role", err.Error())

	// ADMIN 不能授予或撤销 SUPER_ADMIN
	_, err = SetUserRole(ctx, admin, member.ID, models.RoleSuperAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = SetUserRole(ctx, admin, super.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	u, err := SetUserRole(ctx, admin, member.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	u, err = SetUserRole(ctx, super, member.ID, models.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, u.Role)

	_, err = SetUserRole(ctx, super, "ghost", models.RoleAdmin)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestUpdateProfile(t *testing.T) {
	setupTestDB(t)
	u := createUser(t, "Name", models.RoleCoreContributor)

	empty := " "
	_, err := UpdateProfile(ctx, u, ProfileInput{Name: &empty})
	assert.True(t, IsKind(err, KindValidation))

	bio := "Educator"
	cv := "https://blob.example.org/uploads/cv.pdf"
	updated, err := UpdateProfile(ctx, u, ProfileInput{Bio: &bio, CVURL: &cv})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, cv, updated.CVURL)

	_, err = ListUsers(ctx, u)
	assert.ErrorIs(t, err, ErrForbidden)
}
