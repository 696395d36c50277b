package service

import (
	"context"
	"testing"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, model.WindowGlobal, w)

	w, err = ParseWindow("weekly")
	require.NoError(t, err)
	assert.Equal(t, model.WindowWeekly, w)

	_, err = ParseWindow("daily")
	assert.ErrorIs(t, err, util.ErrInvalidWindow)
}

func TestLeaderboard_RanksAndTies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.user(t, "a")
	b := f.user(t, "b")
	c := f.user(t, "c")
	d := f.user(t, "d")

	require.NoError(t, f.users.AddPoints(ctx, a.ID, 100))
	require.NoError(t, f.users.AddPoints(ctx, b.ID, 50))
	require.NoError(t, f.users.AddPoints(ctx, c.ID, 50))

	week := f.calendar.PeriodKey(model.PeriodWeekly)
	require.NoError(t, f.periods.Add(ctx, a.ID, model.PeriodWeekly, week, 30))
	require.NoError(t, f.periods.Add(ctx, c.ID, model.PeriodWeekly, week, 30))
	require.NoError(t, f.periods.Add(ctx, b.ID, model.PeriodWeekly, "2026-W41", 500))

	rank := func(id uint, w model.LeaderboardWindow) *model.Standing {
		s, err := f.ranks.Rank(ctx, id, w)
		require.NoError(t, err)
		return s
	}

	// 同分时注册早的靠前
	assert.EqualValues(t, 1, rank(a.ID, model.WindowGlobal).Rank)
	assert.EqualValues(t, 2, rank(b.ID, model.WindowGlobal).Rank)
	assert.EqualValues(t, 3, rank(c.ID, model.WindowGlobal).Rank)
	assert.EqualValues(t, 4, rank(d.ID, model.WindowGlobal).Rank)
	assert.Equal(t, 50, rank(c.ID, model.WindowGlobal).Points)

	weekly := rank(c.ID, model.WindowWeekly)
	assert.EqualValues(t, 2, weekly.Rank)
	assert.Equal(t, 30, weekly.Points)
	assert.Equal(t, week, weekly.Period)

	// 本周没有积分的用户并列最后，上周的积分不算
	assert.EqualValues(t, 3, rank(b.ID, model.WindowWeekly).Rank)
	assert.EqualValues(t, 3, rank(d.ID, model.WindowWeekly).Rank)
	assert.Equal(t, 0, rank(b.ID, model.WindowWeekly).Points)

	top, err := f.ranks.Top(ctx, model.WindowGlobal, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, a.ID, top[0].UserID)
	assert.Equal(t, b.ID, top[1].UserID)
	assert.EqualValues(t, 2, top[1].Rank)

	top, err = f.ranks.Top(ctx, model.WindowWeekly, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, []uint{a.ID, c.ID}, []uint{top[0].UserID, top[1].UserID})

	top, err = f.ranks.Top(ctx, model.WindowMonthly, 1000)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = f.ranks.Top(ctx, "daily", 10)
	assert.ErrorIs(t, err, util.ErrInvalidWindow)

	_, err = f.ranks.Rank(ctx, 404, model.WindowGlobal)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestLeaderboard_RankMatchesTopOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	points := []int{30, 90, 0, 60, 90, 10}
	var ids []uint
	for i, p := range points {
		u := f.user(t, string(rune('a'+i)))
		require.NoError(t, f.users.AddPoints(ctx, u.ID, p))
		ids = append(ids, u.ID)
	}

	top, err := f.ranks.Top(ctx, model.WindowGlobal, 0)
	require.NoError(t, err)
	require.Len(t, top, len(points))

	for i, e := range top {
		s, err := f.ranks.Rank(ctx, e.UserID, model.WindowGlobal)
		require.NoError(t, err)
		assert.EqualValues(t, i+1, s.Rank, "user %d", e.UserID)
		assert.Equal(t, e.Points, s.Points)
		if i > 0 {
			assert.GreaterOrEqual(t, top[i-1].Points, e.Points)
		}
	}
}

func TestLeaderboard_WarmCacheWithoutRedis(t *testing.T) {
	f := newFixture(t)
	f.user(t, "a")
	assert.NoError(t, f.ranks.WarmCache(context.Background()))
}
