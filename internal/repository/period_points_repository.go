package repository

import (
	"context"
	"time"
	"vocab_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PeriodPointsRepository struct {
	DB *gorm.DB
}

func NewPeriodPointsRepository(db *gorm.DB) *PeriodPointsRepository {
	return &PeriodPointsRepository{DB: db}
}

// Add 累加到 (user, period_type, period_key) 对应的桶，不存在时创建
func (r *PeriodPointsRepository) Add(ctx context.Context, userID uint, periodType model.PeriodType, periodKey string, points int) error {
	if points == 0 {
		return nil
	}
	row := model.PeriodPoints{
		UserID:     userID,
		PeriodType: periodType,
		PeriodKey:  periodKey,
		Points:     points,
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "period_type"}, {Name: "period_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"points":     gorm.Expr("points + ?", points),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&row).Error
}

func (r *PeriodPointsRepository) Get(ctx context.Context, userID uint, periodType model.PeriodType, periodKey string) (int, error) {
	var points []int
	err := r.DB.WithContext(ctx).Model(&model.PeriodPoints{}).
		Where("user_id = ? AND period_type = ? AND period_key = ?", userID, periodType, periodKey).
		Limit(1).
		Pluck("points", &points).Error
	if err != nil || len(points) == 0 {
		return 0, err
	}
	return points[0], nil
}
