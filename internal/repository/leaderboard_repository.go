package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const topCachePrefix = "leaderboard:top:"

// LeaderboardRepository 排名计算只做计数，不物化整张排序表
// Redis 可为 nil，此时不缓存
type LeaderboardRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewLeaderboardRepository(db *gorm.DB, rdb *redis.Client) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db, Redis: rdb}
}

// GlobalStanding 名次 = 1 + (积分更高，或积分相同但注册更早的用户数)
func (r *LeaderboardRepository) GlobalStanding(ctx context.Context, userID uint) (points int, rank int64, err error) {
	db := r.DB.WithContext(ctx)

	var u model.User
	if err = db.Select("id", "total_points", "created_at").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = util.ErrUserNotFound
		}
		return 0, 0, err
	}

	var ahead int64
	err = db.Model(&model.User{}).
		Where("total_points > ? OR (total_points = ? AND created_at < ?)", u.TotalPoints, u.TotalPoints, u.CreatedAt).
		Count(&ahead).Error
	if err != nil {
		return 0, 0, err
	}
	return u.TotalPoints, ahead + 1, nil
}

// PeriodStanding 当期没有积分的用户并列最后
func (r *LeaderboardRepository) PeriodStanding(ctx context.Context, userID uint, periodType model.PeriodType, periodKey string) (points int, rank int64, err error) {
	db := r.DB.WithContext(ctx)

	var u model.User
	if err = db.Select("id", "created_at").First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = util.ErrUserNotFound
		}
		return 0, 0, err
	}

	var rows []int
	err = db.Model(&model.PeriodPoints{}).
		Where("user_id = ? AND period_type = ? AND period_key = ?", userID, periodType, periodKey).
		Limit(1).
		Pluck("points", &rows).Error
	if err != nil {
		return 0, 0, err
	}
	if len(rows) > 0 {
		points = rows[0]
	}

	q := db.Table("period_points AS pp").
		Joins("JOIN users u ON u.id = pp.user_id AND u.deleted_at IS NULL").
		Where("pp.period_type = ? AND pp.period_key = ?", periodType, periodKey)
	if points > 0 {
		q = q.Where("pp.points > ? OR (pp.points = ? AND u.created_at < ?)", points, points, u.CreatedAt)
	} else {
		q = q.Where("pp.points > 0")
	}

	var ahead int64
	if err = q.Count(&ahead).Error; err != nil {
		return 0, 0, err
	}
	return points, ahead + 1, nil
}

type topRow struct {
	UserID    uint
	Name      string
	Points    int
	CreatedAt time.Time
}

func (r *LeaderboardRepository) TopGlobal(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var rows []topRow
	err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("id AS user_id, name, total_points AS points, created_at").
		Order("total_points DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rankRows(rows), nil
}

// TopPeriod 只包含当期有积分的用户
func (r *LeaderboardRepository) TopPeriod(ctx context.Context, periodType model.PeriodType, periodKey string, limit int) ([]model.LeaderboardEntry, error) {
	var rows []topRow
	err := r.DB.WithContext(ctx).Table("period_points AS pp").
		Select("u.id AS user_id, u.name, pp.points AS points, u.created_at").
		Joins("JOIN users u ON u.id = pp.user_id AND u.deleted_at IS NULL").
		Where("pp.period_type = ? AND pp.period_key = ? AND pp.points > 0", periodType, periodKey).
		Order("pp.points DESC").
		Order("u.created_at ASC").
		Order("u.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rankRows(rows), nil
}

// rankRows 积分与注册时间完全相同时共享名次
func rankRows(rows []topRow) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		rank := int64(i + 1)
		if i > 0 {
			prev := rows[i-1]
			if prev.Points == row.Points && prev.CreatedAt.Equal(row.CreatedAt) {
				rank = out[i-1].Rank
			}
		}
		out = append(out, model.LeaderboardEntry{
			Rank:   rank,
			UserID: row.UserID,
			Name:   row.Name,
			Points: row.Points,
		})
	}
	return out
}

func TopCacheKey(window model.LeaderboardWindow, period string, limit int) string {
	if period == "" {
		period = "all"
	}
	return fmt.Sprintf("%s%s:%s:%d", topCachePrefix, window, period, limit)
}

// CachedTop 未命中或 Redis 不可用时 ok 为 false
func (r *LeaderboardRepository) CachedTop(ctx context.Context, key string) ([]model.LeaderboardEntry, bool, error) {
	if r.Redis == nil {
		return nil, false, nil
	}
	data, err := r.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (r *LeaderboardRepository) CacheTop(ctx context.Context, key string, entries []model.LeaderboardEntry, ttl time.Duration) error {
	if r.Redis == nil {
		return nil
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, key, data, ttl).Err()
}

// InvalidateTop 删除全部榜单缓存
func (r *LeaderboardRepository) InvalidateTop(ctx context.Context) error {
	if r.Redis == nil {
		return nil
	}
	iter := r.Redis.Scan(ctx, 0, topCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Redis.Del(ctx, keys...).Err()
}
