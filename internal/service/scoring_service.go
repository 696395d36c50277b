package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/logger"
	"vocab_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type pointsStore interface {
	AddPoints(ctx context.Context, userID uint, points int) error
	TouchStreak(ctx context.Context, userID uint, today, yesterday string) (repository.StreakOutcome, error)
}

type periodStore interface {
	Add(ctx context.Context, userID uint, periodType model.PeriodType, periodKey string, points int) error
}

type masteryStore interface {
	Award(ctx context.Context, award repository.MasteryAward) (bool, error)
}

type leaderboardCache interface {
	InvalidateTop(ctx context.Context) error
}

const cascadeTimeout = 10 * time.Second

// enrichmentTask 主操作提交后执行的附带更新，彼此独立
type enrichmentTask struct {
	name string
	run  func(ctx context.Context) error
}

// AwardInput 单次作答需要触发的更新
type AwardInput struct {
	UserID    uint
	SessionID string
	Kind      model.PracticeKind
	ItemID    uint
	Points    int
	Master    bool
	Streak    bool
}

// AwardOutcome 各任务的执行结果，失败任务只出现在 Degraded 中
type AwardOutcome struct {
	MasteryBonus  int
	NewlyMastered bool
	Streak        repository.StreakOutcome
	Degraded      []error
}

type ScoringService struct {
	users       pointsStore
	periods     periodStore
	mastery     masteryStore
	leaderboard leaderboardCache
	calendar    *Calendar
	rules       atomic.Pointer[config.ScoringConfig]
}

func NewScoringService(users pointsStore, periods periodStore, mastery masteryStore, leaderboard leaderboardCache, calendar *Calendar, rules config.ScoringConfig) *ScoringService {
	s := &ScoringService{
		users:       users,
		periods:     periods,
		mastery:     mastery,
		leaderboard: leaderboard,
		calendar:    calendar,
	}
	s.UpdateRules(rules)
	return s
}

// UpdateRules 配置热更新
func (s *ScoringService) UpdateRules(rules config.ScoringConfig) {
	s.rules.Store(&rules)
	if loc, err := rules.Location(); err == nil {
		s.calendar.SetLocation(loc)
	}
}

func (s *ScoringService) Rules() config.ScoringConfig {
	return *s.rules.Load()
}

func (s *ScoringService) QuizCorrectPoints() int {
	return s.Rules().QuizCorrectPoints
}

// SpeakingPoints 按分数段给分
func (s *ScoringService) SpeakingPoints(score int) (config.ScoreTier, int) {
	tier := pickTier(s.Rules().SpeakingTiers, float64(score))
	return tier, tier.Points
}

func (s *ScoringService) SpeakingMastered(score int) bool {
	return score >= s.Rules().SpeakingMasteryScore
}

// CompletionBonus 测验按正确率、口语按平均分；没有作答不给奖励
func (s *ScoringService) CompletionBonus(kind model.PracticeKind, summary repository.ProgressSummary) int {
	if summary.Total == 0 {
		return 0
	}
	rules := s.Rules()
	switch kind {
	case model.KindQuiz:
		accuracy := float64(summary.Correct) / float64(summary.Total)
		return pickTier(rules.QuizCompletionTiers, accuracy*100).Points
	case model.KindSpeaking:
		return pickTier(rules.SpeakingCompletionTiers, summary.AverageScore).Points
	default:
		return 0
	}
}

// pickTier 取 MinScore 不超过 score 的最高档
func pickTier(tiers []config.ScoreTier, score float64) config.ScoreTier {
	sorted := make([]config.ScoreTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore > sorted[j].MinScore })

	const eps = 1e-9
	for _, t := range sorted {
		if score+eps >= float64(t.MinScore) {
			return t
		}
	}
	return config.ScoreTier{}
}

// ApplyAnswer 作答记录写入后的积分、周期积分、掌握、连续天数更新
func (s *ScoringService) ApplyAnswer(ctx context.Context, in AwardInput) AwardOutcome {
	var out AwardOutcome
	now := s.calendar.Now()

	var tasks []enrichmentTask
	if in.Points > 0 {
		tasks = append(tasks,
			enrichmentTask{name: "points", run: func(ctx context.Context) error {
				return s.users.AddPoints(ctx, in.UserID, in.Points)
			}},
			enrichmentTask{name: "period_points", run: func(ctx context.Context) error {
				return s.addPeriodPoints(ctx, in.UserID, in.Points)
			}},
		)
	}
	if in.Master {
		tasks = append(tasks, enrichmentTask{name: "mastery", run: func(ctx context.Context) error {
			bonus := s.Rules().MasteryPoints
			first, err := s.mastery.Award(ctx, repository.MasteryAward{
				UserID:  in.UserID,
				Kind:    in.Kind,
				ItemID:  in.ItemID,
				At:      now,
				Bonus:   bonus,
				Periods: s.periodBuckets(),
			})
			if err != nil || !first {
				return err
			}
			out.NewlyMastered = true
			out.MasteryBonus = bonus
			return nil
		}})
	}
	if in.Streak {
		tasks = append(tasks, enrichmentTask{name: "streak", run: func(ctx context.Context) error {
			today, yesterday := s.calendar.Days()
			outcome, err := s.users.TouchStreak(ctx, in.UserID, today, yesterday)
			out.Streak = outcome
			return err
		}})
	}

	out.Degraded = s.runTasks(ctx, tasks,
		zap.Uint("user_id", in.UserID),
		zap.String("session_id", in.SessionID),
		zap.Uint("item_id", in.ItemID))
	return out
}

// ApplyCompletion 完成奖励只由成功标记完成的请求调用一次
func (s *ScoringService) ApplyCompletion(ctx context.Context, userID uint, sessionID string, bonus int) []error {
	var tasks []enrichmentTask
	if bonus > 0 {
		tasks = append(tasks,
			enrichmentTask{name: "bonus_points", run: func(ctx context.Context) error {
				return s.users.AddPoints(ctx, userID, bonus)
			}},
			enrichmentTask{name: "bonus_period_points", run: func(ctx context.Context) error {
				return s.addPeriodPoints(ctx, userID, bonus)
			}},
		)
	}
	if s.leaderboard != nil {
		tasks = append(tasks, enrichmentTask{name: "leaderboard_refresh", run: s.leaderboard.InvalidateTop})
	}

	return s.runTasks(ctx, tasks,
		zap.Uint("user_id", userID),
		zap.String("session_id", sessionID))
}

func (s *ScoringService) periodBuckets() []repository.PeriodBucket {
	return []repository.PeriodBucket{
		{Type: model.PeriodWeekly, Key: s.calendar.PeriodKey(model.PeriodWeekly)},
		{Type: model.PeriodMonthly, Key: s.calendar.PeriodKey(model.PeriodMonthly)},
	}
}

func (s *ScoringService) addPeriodPoints(ctx context.Context, userID uint, points int) error {
	for _, b := range s.periodBuckets() {
		if err := s.periods.Add(ctx, userID, b.Type, b.Key, points); err != nil {
			return fmt.Errorf("%s: %w", b.Type, err)
		}
	}
	return nil
}

// runTasks 并发执行，单个任务失败或 panic 不影响其他任务
// 请求被取消后仍然执行完
func (s *ScoringService) runTasks(ctx context.Context, tasks []enrichmentTask, fields ...zap.Field) []error {
	if len(tasks) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cascadeTimeout)
	defer cancel()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t enrichmentTask) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			errs[i] = t.run(ctx)
		}(i, t)
	}
	wg.Wait()

	var degraded []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		name := tasks[i].name
		monitoring.SideEffectFailures.WithLabelValues(name).Inc()
		logger.Log.Error("Scoring side effect failed",
			append(fields, zap.String("task", name), zap.Error(err))...)
		degraded = append(degraded, fmt.Errorf("%w: %s: %v", util.ErrDependencyDegraded, name, err))
	}
	return degraded
}
