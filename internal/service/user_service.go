package service

import (
	"context"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/pkg/logger"

	"go.uber.org/zap"
)

// ProgressSnapshot 用户累计数据
type ProgressSnapshot struct {
	UserID           uint            `json:"userId"`
	Name             string          `json:"name"`
	TotalPoints      int             `json:"totalPoints"`
	StreakDays       int             `json:"streakDays"`
	LastActivityDate string          `json:"lastActivityDate"`
	WordsMastered    int             `json:"wordsMastered"`
	WeeklyPoints     int             `json:"weeklyPoints"`
	MonthlyPoints    int             `json:"monthlyPoints"`
	GlobalRank       *model.Standing `json:"globalRank,omitempty"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	users    *repository.UserRepository
	periods  *repository.PeriodPointsRepository
	ranks    rankReader
	calendar *Calendar
}

func NewUserService(users *repository.UserRepository, periods *repository.PeriodPointsRepository, ranks rankReader, calendar *Calendar) *UserService {
	return &UserService{users: users, periods: periods, ranks: ranks, calendar: calendar}
}

func (s *UserService) Progress(ctx context.Context, userID uint) (*ProgressSnapshot, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := &ProgressSnapshot{
		UserID:           u.ID,
		Name:             u.Name,
		TotalPoints:      u.TotalPoints,
		StreakDays:       u.StreakDays,
		LastActivityDate: u.LastActivityDate,
		WordsMastered:    u.WordsMastered,
	}
	// 中断超过一天的连续记录在下次练习时才会重置，这里按 0 展示
	today, yesterday := s.calendar.Days()
	if u.LastActivityDate != today && u.LastActivityDate != yesterday {
		snap.StreakDays = 0
	}

	if snap.WeeklyPoints, err = s.periods.Get(ctx, userID, model.PeriodWeekly, s.calendar.PeriodKey(model.PeriodWeekly)); err != nil {
		return nil, err
	}
	if snap.MonthlyPoints, err = s.periods.Get(ctx, userID, model.PeriodMonthly, s.calendar.PeriodKey(model.PeriodMonthly)); err != nil {
		return nil, err
	}

	if standing, err := s.ranks.Rank(ctx, userID, model.WindowGlobal); err != nil {
		logger.Log.Warn("Global rank lookup failed", zap.Uint("user_id", userID), zap.Error(err))
	} else {
		snap.GlobalRank = standing
	}
	return snap, nil
}
