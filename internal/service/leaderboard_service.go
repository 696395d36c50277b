package service

import (
	"context"
	"vocab_backend/internal/config"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/logger"

	"go.uber.org/zap"
)

// LeaderboardService 全站/周/月排行榜
type LeaderboardService struct {
	repo     *repository.LeaderboardRepository
	calendar *Calendar
	cfg      config.PracticeConfig
}

func NewLeaderboardService(repo *repository.LeaderboardRepository, calendar *Calendar, cfg config.PracticeConfig) *LeaderboardService {
	if cfg.LeaderboardTop <= 0 {
		cfg.LeaderboardTop = 100
	}
	return &LeaderboardService{repo: repo, calendar: calendar, cfg: cfg}
}

func periodTypeOf(window model.LeaderboardWindow) model.PeriodType {
	switch window {
	case model.WindowWeekly:
		return model.PeriodWeekly
	case model.WindowMonthly:
		return model.PeriodMonthly
	default:
		return ""
	}
}

// ParseWindow 空字符串视为 global
func ParseWindow(raw string) (model.LeaderboardWindow, error) {
	if raw == "" {
		return model.WindowGlobal, nil
	}
	w := model.LeaderboardWindow(raw)
	if !w.Valid() {
		return "", util.ErrInvalidWindow
	}
	return w, nil
}

func (s *LeaderboardService) Rank(ctx context.Context, userID uint, window model.LeaderboardWindow) (*model.Standing, error) {
	if !window.Valid() {
		return nil, util.ErrInvalidWindow
	}

	if window == model.WindowGlobal {
		points, rank, err := s.repo.GlobalStanding(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &model.Standing{Window: window, Rank: rank, Points: points}, nil
	}

	pt := periodTypeOf(window)
	period := s.calendar.PeriodKey(pt)
	points, rank, err := s.repo.PeriodStanding(ctx, userID, pt, period)
	if err != nil {
		return nil, err
	}
	return &model.Standing{Window: window, Period: period, Rank: rank, Points: points}, nil
}

func (s *LeaderboardService) clampLimit(limit int) int {
	if limit <= 0 || limit > s.cfg.LeaderboardTop {
		return s.cfg.LeaderboardTop
	}
	return limit
}

// Top 先读缓存，缓存异常时直接查库
func (s *LeaderboardService) Top(ctx context.Context, window model.LeaderboardWindow, limit int) ([]model.LeaderboardEntry, error) {
	if !window.Valid() {
		return nil, util.ErrInvalidWindow
	}
	limit = s.clampLimit(limit)

	period := ""
	if pt := periodTypeOf(window); pt != "" {
		period = s.calendar.PeriodKey(pt)
	}
	key := repository.TopCacheKey(window, period, limit)

	entries, ok, err := s.repo.CachedTop(ctx, key)
	if err != nil {
		logger.Log.Warn("Leaderboard cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return entries, nil
	}

	entries, err = s.load(ctx, window, period, limit)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CacheTop(ctx, key, entries, s.cfg.LeaderboardTTL); err != nil {
		logger.Log.Warn("Leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return entries, nil
}

func (s *LeaderboardService) load(ctx context.Context, window model.LeaderboardWindow, period string, limit int) ([]model.LeaderboardEntry, error) {
	if window == model.WindowGlobal {
		return s.repo.TopGlobal(ctx, limit)
	}
	return s.repo.TopPeriod(ctx, periodTypeOf(window), period, limit)
}

// WarmCache 定时任务调用，按默认条数重建各榜单缓存
func (s *LeaderboardService) WarmCache(ctx context.Context) error {
	for _, w := range []model.LeaderboardWindow{model.WindowGlobal, model.WindowWeekly, model.WindowMonthly} {
		period := ""
		if pt := periodTypeOf(w); pt != "" {
			period = s.calendar.PeriodKey(pt)
		}
		entries, err := s.load(ctx, w, period, s.cfg.LeaderboardTop)
		if err != nil {
			return err
		}
		key := repository.TopCacheKey(w, period, s.cfg.LeaderboardTop)
		if err := s.repo.CacheTop(ctx, key, entries, s.cfg.LeaderboardTTL); err != nil {
			return err
		}
	}
	return nil
}
