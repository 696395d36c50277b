package repository

import (
	"context"
	"time"
	"vocab_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MasteryRepository struct {
	DB *gorm.DB
}

func NewMasteryRepository(db *gorm.DB) *MasteryRepository {
	return &MasteryRepository{DB: db}
}

// PeriodBucket 周期积分桶
type PeriodBucket struct {
	Type model.PeriodType
	Key  string
}

// MasteryAward 首次掌握时一并写入的数据
type MasteryAward struct {
	UserID  uint
	Kind    model.PracticeKind
	ItemID  uint
	At      time.Time
	Bonus   int
	Periods []PeriodBucket
}

// Award 掌握标记、words_mastered、奖励积分和周期积分在同一事务内写入
// 任一步失败整体回滚，下次作答会重新尝试；返回 true 表示本次为首次掌握
func (r *MasteryRepository) Award(ctx context.Context, a MasteryAward) (bool, error) {
	first := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		marked, err := (&MasteryRepository{DB: tx}).MarkMastered(ctx, a.UserID, a.Kind, a.ItemID, a.At)
		if err != nil || !marked {
			return err
		}

		users := NewUserRepository(tx)
		if err := users.IncrementWordsMastered(ctx, a.UserID); err != nil {
			return err
		}
		if err := users.AddPoints(ctx, a.UserID, a.Bonus); err != nil {
			return err
		}
		periods := NewPeriodPointsRepository(tx)
		for _, b := range a.Periods {
			if err := periods.Add(ctx, a.UserID, b.Type, b.Key, a.Bonus); err != nil {
				return err
			}
		}
		first = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

// MarkMastered 只写掌握标记，返回 true 表示首次掌握
func (r *MasteryRepository) MarkMastered(ctx context.Context, userID uint, kind model.PracticeKind, itemID uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_kind"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&model.ItemMastery{
			UserID:     userID,
			ItemKind:   kind,
			ItemID:     itemID,
			MasteredAt: at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *MasteryRepository) CountByUser(ctx context.Context, userID uint, kind model.PracticeKind) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ItemMastery{}).
		Where("user_id = ? AND item_kind = ?", userID, kind).
		Count(&n).Error
	return n, err
}
