package service

import (
	"context"
	"testing"
	"time"
	"vocab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	qs := f.questions(t, "A1", 2)
	svc := NewUserService(f.users, f.periods, f.ranks, f.calendar)

	s := startQuiz(t, f, u.ID, "A1", 2)
	answer(t, f, u.ID, s.Session.ID, qs, s.Items[0].ID, true)

	snap, err := svc.Progress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.Name)
	assert.Equal(t, 15, snap.TotalPoints)
	assert.Equal(t, 15, snap.WeeklyPoints)
	assert.Equal(t, 15, snap.MonthlyPoints)
	assert.Equal(t, 1, snap.StreakDays)
	assert.Equal(t, 1, snap.WordsMastered)
	require.NotNil(t, snap.GlobalRank)
	assert.EqualValues(t, 1, snap.GlobalRank.Rank)

	// 第二天仍然显示连续天数
	f.clock.Advance(24 * time.Hour)
	snap, err = svc.Progress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.StreakDays)

	// 断了一天后显示为 0，存储值不变
	f.clock.Advance(24 * time.Hour)
	snap, err = svc.Progress(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.StreakDays)
	assert.Equal(t, 1, f.reload(t, u.ID).StreakDays)

	_, err = svc.Progress(ctx, 404)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
