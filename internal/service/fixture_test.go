package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"
	"vocab_backend/internal/config"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "vocab.db"),
	}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeScorer struct {
	score int
	err   error
	calls int
}

func (f *fakeScorer) Score(ctx context.Context, req PronunciationRequest) (*PronunciationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &PronunciationResult{Score: f.score, Feedback: "ok"}, nil
}

type fakeAudio struct{}

func (fakeAudio) AudioURL(ctx context.Context, userID uint, ref string) (string, error) {
	return "http://audio.test/" + ref, nil
}

func testRules() config.ScoringConfig {
	return config.ScoringConfig{
		Timezone:             "UTC",
		QuizCorrectPoints:    10,
		MasteryPoints:        5,
		SpeakingMasteryScore: 70,
		SpeakingTiers: []config.ScoreTier{
			{Name: "excellent", MinScore: 80, Points: 15},
			{Name: "good", MinScore: 60, Points: 10},
			{Name: "fair", MinScore: 40, Points: 5},
			{Name: "effort", MinScore: 0, Points: 2},
		},
		QuizCompletionTiers: []config.ScoreTier{
			{Name: "gold", MinScore: 90, Points: 50},
			{Name: "silver", MinScore: 70, Points: 30},
			{Name: "bronze", MinScore: 0, Points: 10},
		},
		SpeakingCompletionTiers: []config.ScoreTier{
			{Name: "gold", MinScore: 80, Points: 50},
			{Name: "silver", MinScore: 60, Points: 30},
			{Name: "bronze", MinScore: 0, Points: 10},
		},
	}
}

func testPracticeConfig() config.PracticeConfig {
	return config.PracticeConfig{
		ActiveWindow:   24 * time.Hour,
		MaxBatch:       20,
		LeaderboardTop: 10,
	}
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	calendar *Calendar
	scorer   *fakeScorer

	users       *repository.UserRepository
	sessions    *repository.SessionRepository
	progress    *repository.ProgressRepository
	periods     *repository.PeriodPointsRepository
	mastery     *repository.MasteryRepository
	bookmarks   *repository.BookmarkRepository
	catalog     *repository.CatalogRepository
	leaderboard *repository.LeaderboardRepository

	scoring *ScoringService
	ranks   *LeaderboardService
	svc     *PracticeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:          db,
		clock:       &fakeClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)},
		scorer:      &fakeScorer{score: 85},
		users:       repository.NewUserRepository(db),
		sessions:    repository.NewSessionRepository(db),
		progress:    repository.NewProgressRepository(db),
		periods:     repository.NewPeriodPointsRepository(db),
		mastery:     repository.NewMasteryRepository(db),
		bookmarks:   repository.NewBookmarkRepository(db),
		catalog:     repository.NewCatalogRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db, nil),
	}
	f.calendar = NewCalendarAt(time.UTC, f.clock.Now)
	f.scoring = NewScoringService(f.users, f.periods, f.mastery, f.leaderboard, f.calendar, testRules())
	f.ranks = NewLeaderboardService(f.leaderboard, f.calendar, testPracticeConfig())
	f.svc = NewPracticeService(PracticeDeps{
		Users:    f.users,
		Catalog:  f.catalog,
		Sessions: f.sessions,
		Progress: f.progress,
		Selector: NewItemSelector(f.catalog, f.bookmarks),
		Scoring:  f.scoring,
		Scorer:   f.scorer,
		Audio:    fakeAudio{},
		Ranks:    f.ranks,
		Calendar: f.calendar,
	}, testPracticeConfig())
	return f
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) reload(t *testing.T, id uint) *model.User {
	t.Helper()
	u, err := f.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

// questions 每题第一个选项正确
func (f *fixture) questions(t *testing.T, level string, n int) []model.QuizQuestion {
	t.Helper()
	out := make([]model.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		q := model.QuizQuestion{
			LevelCode: level,
			Prompt:    fmt.Sprintf("%s question %d", level, i+1),
			Order:     i + 1,
			Options: []model.QuizOption{
				{Text: "right", IsCorrect: true, Order: 1},
				{Text: "wrong", Order: 2},
			},
		}
		require.NoError(t, f.catalog.CreateQuestion(context.Background(), &q))
		out = append(out, q)
	}
	return out
}

func (f *fixture) words(t *testing.T, level string, n int) []model.SpeakingWord {
	t.Helper()
	out := make([]model.SpeakingWord, 0, n)
	for i := 0; i < n; i++ {
		w := model.SpeakingWord{LevelCode: level, Word: fmt.Sprintf("word%d", i+1)}
		require.NoError(t, f.catalog.CreateWord(context.Background(), &w))
		out = append(out, w)
	}
	return out
}

// correctOption 通过题目 ID 找到正确/错误选项
func correctOption(qs []model.QuizQuestion, id uint, correct bool) uint {
	for _, q := range qs {
		if q.ID != id {
			continue
		}
		for _, o := range q.Options {
			if o.IsCorrect == correct {
				return o.ID
			}
		}
	}
	return 0
}

func itemIDs(items []model.PracticeItem) []uint {
	ids := make([]uint, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
