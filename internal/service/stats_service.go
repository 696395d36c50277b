package service

import (
	"context"
	"sort"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/util"
)

// StatsFunc 计算某一类统计
type StatsFunc func(ctx context.Context, userID uint) (*model.PracticeStats, error)

// StatsService 分类键到统计函数的注册表
type StatsService struct {
	registry map[string]StatsFunc
}

func NewStatsService(sessions *repository.SessionRepository, progress *repository.ProgressRepository, mastery *repository.MasteryRepository) *StatsService {
	s := &StatsService{registry: map[string]StatsFunc{}}
	for _, kind := range []model.PracticeKind{model.KindQuiz, model.KindSpeaking} {
		s.Register(string(kind), practiceStats(kind, sessions, progress, mastery))
	}
	return s
}

func (s *StatsService) Register(category string, fn StatsFunc) {
	s.registry[category] = fn
}

func (s *StatsService) Categories() []string {
	out := make([]string, 0, len(s.registry))
	for k := range s.registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *StatsService) Compute(ctx context.Context, category string, userID uint) (*model.PracticeStats, error) {
	fn, ok := s.registry[category]
	if !ok {
		return nil, util.ErrUnknownCategory
	}
	return fn(ctx, userID)
}

func practiceStats(kind model.PracticeKind, sessions *repository.SessionRepository, progress *repository.ProgressRepository, mastery *repository.MasteryRepository) StatsFunc {
	return func(ctx context.Context, userID uint) (*model.PracticeStats, error) {
		total, completed, err := sessions.CountByOwner(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		summary, err := progress.SummaryByOwner(ctx, userID, kind)
		if err != nil {
			return nil, err
		}
		mastered, err := mastery.CountByUser(ctx, userID, kind)
		if err != nil {
			return nil, err
		}

		stats := &model.PracticeStats{
			Kind:              kind,
			Sessions:          total,
			CompletedSessions: completed,
			Answered:          summary.Total,
			Correct:           summary.Correct,
			Mastered:          mastered,
		}
		if summary.Total > 0 {
			stats.Accuracy = float64(summary.Correct) / float64(summary.Total)
		}
		if kind == model.KindSpeaking {
			stats.AverageScore = summary.AverageScore
		}
		return stats, nil
	}
}
