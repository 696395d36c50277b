package repository

import (
	"context"
	"errors"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"gorm.io/gorm"
)

type StreakOutcome int

const (
	StreakUnchanged StreakOutcome = iota
	StreakIncremented
	StreakReset
)

func (o StreakOutcome) String() string {
	switch o {
	case StreakIncremented:
		return "incremented"
	case StreakReset:
		return "reset"
	default:
		return "unchanged"
	}
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AddPoints 原子累加，并发提交不会丢失更新
func (r *UserRepository) AddPoints(ctx context.Context, userID uint, points int) error {
	if points == 0 {
		return nil
	}
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("total_points", gorm.Expr("total_points + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) IncrementWordsMastered(ctx context.Context, userID uint) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("words_mastered", gorm.Expr("words_mastered + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrUserNotFound
	}
	return nil
}

// TouchStreak 以 last_activity_date 做条件更新（compare-and-set）
// 昨天 -> +1；更早或为空 -> 1；今天 -> 不变
func (r *UserRepository) TouchStreak(ctx context.Context, userID uint, today, yesterday string) (StreakOutcome, error) {
	db := r.DB.WithContext(ctx)

	res := db.Model(&model.User{}).
		Where("id = ? AND last_activity_date = ?", userID, yesterday).
		Updates(map[string]interface{}{
			"streak_days":        gorm.Expr("streak_days + 1"),
			"last_activity_date": today,
		})
	if res.Error != nil {
		return StreakUnchanged, res.Error
	}
	if res.RowsAffected > 0 {
		return StreakIncremented, nil
	}

	res = db.Model(&model.User{}).
		Where("id = ? AND (last_activity_date = '' OR last_activity_date IS NULL OR last_activity_date < ?)", userID, yesterday).
		Updates(map[string]interface{}{
			"streak_days":        1,
			"last_activity_date": today,
		})
	if res.Error != nil {
		return StreakUnchanged, res.Error
	}
	if res.RowsAffected > 0 {
		return StreakReset, nil
	}

	var n int64
	if err := db.Model(&model.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return StreakUnchanged, err
	}
	if n == 0 {
		return StreakUnchanged, util.ErrUserNotFound
	}
	return StreakUnchanged, nil
}
