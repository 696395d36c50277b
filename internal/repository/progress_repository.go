package repository

import (
	"context"
	"errors"
	"vocab_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressSummary 会话内作答汇总
type ProgressSummary struct {
	Total        int64
	Correct      int64
	AverageScore float64
}

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Insert 同一会话同一题目只记录一次，重复提交返回 false
func (r *ProgressRepository) Insert(ctx context.Context, entry *model.ProgressEntry) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProgressRepository) Find(ctx context.Context, sessionID string, itemID uint) (*model.ProgressEntry, error) {
	var e model.ProgressEntry
	err := r.DB.WithContext(ctx).Where("session_id = ? AND item_id = ?", sessionID, itemID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ProgressRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ProgressEntry{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n, err
}

func (r *ProgressRepository) ItemIDsBySession(ctx context.Context, sessionID string) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.ProgressEntry{}).
		Where("session_id = ?", sessionID).
		Order("id").
		Pluck("item_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) ListBySession(ctx context.Context, sessionID string) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Order("answered_at, id").Find(&entries).Error
	return entries, err
}

func (r *ProgressRepository) SummaryBySession(ctx context.Context, sessionID string) (ProgressSummary, error) {
	var s ProgressSummary
	err := r.DB.WithContext(ctx).Model(&model.ProgressEntry{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct, COALESCE(AVG(score), 0) AS average_score").
		Where("session_id = ?", sessionID).
		Scan(&s).Error
	return s, err
}

// SummaryByOwner 汇总某用户某类练习的全部作答
func (r *ProgressRepository) SummaryByOwner(ctx context.Context, ownerID uint, kind model.PracticeKind) (ProgressSummary, error) {
	var s ProgressSummary
	err := r.DB.WithContext(ctx).Table("progress_entries AS pe").
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN pe.is_correct THEN 1 ELSE 0 END), 0) AS correct, COALESCE(AVG(pe.score), 0) AS average_score").
		Joins("JOIN practice_sessions ps ON ps.id = pe.session_id").
		Where("ps.owner_id = ? AND ps.kind = ? AND ps.deleted_at IS NULL", ownerID, kind).
		Scan(&s).Error
	return s, err
}
