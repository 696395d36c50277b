package repository

import (
	"context"
	"errors"
	"time"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"gorm.io/gorm"
)

// CompletionResult 完成会话时一次性写入的统计
type CompletionResult struct {
	CompletedAt   time.Time
	TotalAnswered int
	CorrectCount  int
	Accuracy      float64
	AverageScore  float64
	BonusPoints   int
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *model.PracticeSession) error {
	return r.DB.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindOwned 其他用户的会话同样视为不存在
func (r *SessionRepository) FindOwned(ctx context.Context, ownerID uint, id string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	err := r.DB.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindLatestResumable 返回 since 之后开始的最近一个未完成会话，没有时返回 nil
// 同一 (owner, kind, level) 下多余的旧会话被忽略
func (r *SessionRepository) FindLatestResumable(ctx context.Context, ownerID uint, kind model.PracticeKind, levelCode string, since time.Time) (*model.PracticeSession, error) {
	var sessions []model.PracticeSession
	err := r.DB.WithContext(ctx).
		Where("owner_id = ? AND kind = ? AND level_code = ? AND is_completed = ? AND started_at >= ?",
			ownerID, kind, levelCode, false, since).
		Order("started_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// SetTargetIfUnset 仅在 target_count 为空时写入
func (r *SessionRepository) SetTargetIfUnset(ctx context.Context, id string, target int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.PracticeSession{}).
		Where("id = ? AND target_count IS NULL", id).
		Update("target_count", target)
	return res.RowsAffected > 0, res.Error
}

// MarkCompleted 条件更新 is_completed，返回 false 表示已被其他请求完成
func (r *SessionRepository) MarkCompleted(ctx context.Context, id string, result CompletionResult) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.PracticeSession{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"is_completed":   true,
			"completed_at":   result.CompletedAt,
			"total_answered": result.TotalAnswered,
			"correct_count":  result.CorrectCount,
			"accuracy":       result.Accuracy,
			"average_score":  result.AverageScore,
			"bonus_points":   result.BonusPoints,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByOwner 返回会话总数和已完成数
func (r *SessionRepository) CountByOwner(ctx context.Context, ownerID uint, kind model.PracticeKind) (total, completed int64, err error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err = r.DB.WithContext(ctx).Model(&model.PracticeSession{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed").
		Where("owner_id = ? AND kind = ?", ownerID, kind).
		Scan(&row).Error
	return row.Total, row.Completed, err
}
