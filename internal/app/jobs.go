package app

import (
	"context"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// startJobs 定时预热排行榜缓存；没有 Redis 时不启动
func (a *App) startJobs(s *services, cfg *config.Config) *gocron.Scheduler {
	if a.Redis == nil || cfg.Practice.CacheWarmPeriod <= 0 {
		return nil
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(cfg.Practice.CacheWarmPeriod).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.leaderboard.WarmCache(ctx); err != nil {
			logger.Log.Warn("Leaderboard cache warm failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Error("Failed to schedule leaderboard warm job", zap.Error(err))
		return nil
	}

	scheduler.StartAsync()
	return scheduler
}
