package services

import (
	"sync"
	"testing"
	"time"

	"govhub/internal/db"
	"govhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSetConsensusStatusRejectsUnknownStatus(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	_, err := SetConsensusStatus(ctx, f.admin, f.report.ID, "DONE")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "Invalid consensus status", err.Error())
}

func TestSetConsensusStatusNotFoundAndForbidden(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	_, err := SetConsensusStatus(ctx, f.admin, "missing", models.ConsensusConsensed)
	assert.True(t, IsKind(err, KindNotFound))

	// 普通成员与外部用户都不能修改状态
	for _, u := range []*models.User{f.alice, f.outside} {
		_, err = SetConsensusStatus(ctx, u, f.report.ID, models.ConsensusConsensed)
		assert.True(t, IsKind(err, KindForbidden), u.Name)
	}

	globalAdmin := createUser(t, "Global", models.RoleAdmin)
	report, err := SetConsensusStatus(ctx, globalAdmin, f.report.ID, models.ConsensusInConsensus)
	require.NoError(t, err)
	assert.Equal(t, models.ConsensusInConsensus, report.ConsensusStatus)
}

func TestConsensedBlockedByValidObjection(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)
	round, err := StartRound(ctx, f.admin, f.report.ID)
	require.NoError(t, err)

	vote, _, err := CastVote(ctx, f.bob, CastVoteInput{
		ReportID: "r1", VoteType: models.VoteObject, Comment: "too vague, please clarify",
	}, 10)
	require.NoError(t, err)
	require.NotNil(t, vote.Objection)
	_, err = ResolveObjection(ctx, f.admin, vote.Objection.ID, models.ObjectionValid)
	require.NoError(t, err)

	_, err = SetConsensusStatus(ctx, f.admin, "r1", models.ConsensusConsensed)
	require.Error(t, err)
	assert.Equal(t, "Cannot mark as consensed while there are valid objections", err.Error())
	assert.True(t, IsKind(err, KindConflict))

	// 报告与轮次均未改变
	assert.Equal(t, models.ConsensusInConsensus, reloadReport(t, "r1").ConsensusStatus)
	var r models.VotingRound
	require.NoError(t, db.DB.First(&r, "id = ?", round.ID).Error)
	assert.Equal(t, models.RoundActive, r.Status)
	assert.Nil(t, r.EndedAt)
}

func TestConsensedAllowedWhenObjectionInvalid(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)
	round, err := StartRound(ctx, f.admin, f.report.ID)
	require.NoError(t, err)

	vote, _, err := CastVote(ctx, f.bob, CastVoteInput{
		ReportID: "r1", VoteType: models.VoteObject, Comment: "missing budget detail",
	}, 10)
	require.NoError(t, err)
	_, err = ResolveObjection(ctx, f.admin, vote.Objection.ID, models.ObjectionInvalid)
	require.NoError(t, err)

	report, err := SetConsensusStatus(ctx, f.admin, "r1", models.ConsensusConsensed)
	require.NoError(t, err)
	assert.Equal(t, models.ConsensusConsensed, report.ConsensusStatus)

	var r models.VotingRound
	require.NoError(t, db.DB.First(&r, "id = ?", round.ID).Error)
	assert.Equal(t, models.RoundConsensed, r.Status)
	assert.NotNil(t, r.EndedAt)

	// 报告创建者收到通知
	assert.Equal(t, int64(1), countRows(t, &models.Notification{}, "user_id = ? AND type = ?",
		f.alice.ID, models.NotificationReportConsensed))
}

func TestStartRoundTwiceRejected(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	first, err := StartRound(ctx, f.admin, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.RoundNumber)
	assert.Equal(t, models.RoundActive, first.Status)
	assert.Equal(t, models.ConsensusInConsensus, reloadReport(t, "r1").ConsensusStatus)

	_, err = StartRound(ctx, f.admin, "r1")
	require.Error(t, err)
	assert.Equal(t, "There is already an active round", err.Error())
	assert.Equal(t, int64(1), countRows(t, &models.VotingRound{}, "report_id = ?", "r1"))
}

func TestStartRoundNumbersAndClosesPrevious(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	first, err := StartRound(ctx, f.admin, "r1")
	require.NoError(t, err)
	// 轮次被外部关闭但未记录结束时间
	require.NoError(t, db.DB.Model(first).Update("status", models.RoundClosed).Error)

	second, err := StartRound(ctx, f.admin, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.RoundNumber)

	var prev models.VotingRound
	require.NoError(t, db.DB.First(&prev, "id = ?", first.ID).Error)
	assert.Equal(t, models.RoundClosed, prev.Status)
	assert.NotNil(t, prev.EndedAt)

	rounds, err := ListRounds(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 1, rounds[0].RoundNumber)
	assert.Equal(t, 2, rounds[1].RoundNumber)

	// 成员收到开启轮次的通知，发起人自己不收
	assert.Equal(t, int64(2), countRows(t, &models.Notification{}, "user_id = ? AND type = ?",
		f.alice.ID, models.NotificationRoundOpened))
	assert.Equal(t, int64(0), countRows(t, &models.Notification{}, "user_id = ?", f.admin.ID))
}

func TestStartRoundOnConsensedReport(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)
	require.NoError(t, db.DB.Model(f.report).Update("consensus_status", models.ConsensusConsensed).Error)

	_, err := StartRound(ctx, f.admin, "r1")
	require.Error(t, err)
	assert.Equal(t, "Report is already consensed", err.Error())
}

func TestStartRoundForbiddenForMember(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	_, err := StartRound(ctx, f.bob, "r1")
	assert.True(t, IsKind(err, KindForbidden))
}

func TestStartRoundConcurrentOnlyOneActive(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
		others   []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := StartRound(ctx, f.admin, "r1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case err.Error() == msgActiveRoundExists:
				rejected++
			default:
				others = append(others, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, rejected)
	assert.Equal(t, int64(1), countRows(t, &models.VotingRound{}, "report_id = ? AND status = ?", "r1", models.RoundActive))
}

func TestActiveRoundIndexRejectsSecondActiveRow(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	require.NoError(t, db.DB.Create(&models.VotingRound{ReportID: f.report.ID, RoundNumber: 1, StartedAt: time.Now()}).Error)
	err := db.DB.Create(&models.VotingRound{ReportID: f.report.ID, RoundNumber: 2, StartedAt: time.Now()}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

// 事务内检查通过后，另一请求抢先插入 ACTIVA 轮次，由部分唯一索引拦截
func TestStartRoundLosesRaceToActiveRoundIndex(t *testing.T) {
	setupTestDB(t)
	f := newConsensusFixture(t)

	const callbackName = "govhub:competing_round"
	fired := false
	require.NoError(t, db.DB.Callback().Create().Before("gorm:create").Register(callbackName, func(tx *gorm.DB) {
		if fired || tx.Statement.Schema == nil || tx.Statement.Schema.Table != "voting_rounds" {
			return
		}
		fired = true
		now := time.Now()
		err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO voting_rounds (id, report_id, round_number, status, started_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			"competing-round", f.report.ID, 99, models.RoundActive, now, now, now,
		).Error
		if err != nil {
			tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = db.DB.Callback().Create().Remove(callbackName) })

	round, err := StartRound(ctx, f.admin, "r1")
	require.True(t, fired)
	assert.Nil(t, round)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindConflict))
	assert.Equal(t, msgActiveRoundExists, err.Error())

	// 整个事务回滚，报告状态不变
	assert.Equal(t, int64(0), countRows(t, &models.VotingRound{}, "report_id = ?", "r1"))
	assert.Equal(t, models.ConsensusPending, reloadReport(t, "r1").ConsensusStatus)
}
