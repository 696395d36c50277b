package service

import (
	"time"
	"vocab_backend/internal/model"
)

type SessionState string

const (
	SessionActive    SessionState = "active"
	SessionExhausted SessionState = "exhausted" // 已答满但未标记完成
	SessionCompleted SessionState = "completed"
	SessionExpired   SessionState = "expired"
)

// ClassifySession 只依赖已查出的数据，不访问存储
func ClassifySession(s *model.PracticeSession, progressCount int64, now time.Time, window time.Duration) SessionState {
	if s.IsCompleted {
		return SessionCompleted
	}
	if now.Sub(s.StartedAt) > window {
		return SessionExpired
	}
	if s.TargetCount != nil && progressCount >= int64(*s.TargetCount) {
		return SessionExhausted
	}
	return SessionActive
}

// IsActive 未完成、在时间窗口内、且作答数小于目标数（目标未设置时视为未满）
func IsActive(s *model.PracticeSession, progressCount int64, now time.Time, window time.Duration) bool {
	return s != nil && ClassifySession(s, progressCount, now, window) == SessionActive
}

// EffectiveTarget 目标未设置时按本次请求数量
func EffectiveTarget(s *model.PracticeSession, requested int) int {
	if s.TargetCount != nil {
		return *s.TargetCount
	}
	return requested
}
