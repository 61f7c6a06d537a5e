package services

import (
	"testing"
	"time"

	"govhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardCountsAreCached(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)
	createProposal(t, "p1", f.alice, time.Hour)
	_, err := StartRound(ctx, f.admin, "r1")
	require.NoError(t, err)

	d, err := GetDashboard(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Proposals[string(models.ProposalInReview)])
	assert.Equal(t, int64(1), d.Reports[string(models.ConsensusInConsensus)])
	assert.Equal(t, int64(1), d.ActiveRounds)
	assert.Equal(t, int64(1), d.WorkGroups)
	assert.Equal(t, int64(1), d.UnreadNotifications)

	createProposal(t, "p2", f.alice, time.Hour)
	cached, err := GetDashboard(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.Proposals[string(models.ProposalInReview)])

	InvalidateDashboard()
	fresh, err := GetDashboard(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.Proposals[string(models.ProposalInReview)])
}
