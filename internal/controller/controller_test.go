package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/middleware"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/service"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "controller-test-secret-controller-test"

type testServer struct {
	router  *gin.Engine
	users   *repository.UserRepository
	catalog *repository.CatalogRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	practiceCfg := config.PracticeConfig{ActiveWindow: 24 * time.Hour, MaxBatch: 10, LeaderboardTop: 10}
	rules := config.ScoringConfig{
		Timezone:             "UTC",
		QuizCorrectPoints:    10,
		MasteryPoints:        5,
		SpeakingMasteryScore: 70,
		SpeakingTiers:        []config.ScoreTier{{Name: "any", Points: 1}},
		QuizCompletionTiers:  []config.ScoreTier{{Name: "done", Points: 20}},
		SpeakingCompletionTiers: []config.ScoreTier{{Name: "done", Points: 20}},
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	progress := repository.NewProgressRepository(db)
	periods := repository.NewPeriodPointsRepository(db)
	mastery := repository.NewMasteryRepository(db)
	bookmarks := repository.NewBookmarkRepository(db)
	catalog := repository.NewCatalogRepository(db)
	board := repository.NewLeaderboardRepository(db, nil)

	calendar := service.NewCalendar(time.UTC)
	scoring := service.NewScoringService(users, periods, mastery, board, calendar, rules)
	leaderboard := service.NewLeaderboardService(board, calendar, practiceCfg)
	storageCfg := config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()}
	storage := service.NewStorageServiceWithProvider(&service.LocalStorageProvider{Config: &storageCfg}, storageCfg, config.AudioConfig{})
	practice := service.NewPracticeService(service.PracticeDeps{
		Users:    users,
		Catalog:  catalog,
		Sessions: sessions,
		Progress: progress,
		Selector: service.NewItemSelector(catalog, bookmarks),
		Scoring:  scoring,
		Scorer:   service.NewPronunciationService(config.PronunciationConfig{BaseURL: "http://127.0.0.1:1"}),
		Audio:    storage,
		Ranks:    leaderboard,
		Calendar: calendar,
	}, practiceCfg)

	pc := NewPracticeController(practice)
	lc := NewLeaderboardController(leaderboard)
	uc := NewUserController(service.NewUserService(users, periods, leaderboard, calendar))
	sc := NewStatsController(service.NewStatsService(sessions, progress, mastery))
	bc := NewBookmarkController(service.NewBookmarkService(bookmarks, catalog))
	hc := NewHealthController(db, nil)

	r := gin.New()
	r.GET("/health", hc.HealthCheck)
	api := r.Group("/api", middleware.AuthMiddleware(testSecret))
	api.POST("/practice/sessions", pc.StartSession)
	api.GET("/practice/sessions/:id", pc.GetSession)
	api.POST("/practice/sessions/:id/items", pc.SubmitItem)
	api.POST("/practice/sessions/:id/complete", pc.CompleteSession)
	api.GET("/leaderboard/rank", lc.Rank)
	api.GET("/leaderboard/top", lc.Top)
	api.GET("/users/me/progress", uc.GetProgress)
	api.GET("/stats/:category", sc.GetStats)
	api.POST("/bookmarks", bc.Add)
	api.DELETE("/bookmarks", bc.Remove)

	return &testServer{router: r, users: users, catalog: catalog}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path string, userID uint, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		token, err := util.GenerateJWT(userID, "", testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) seed(t *testing.T) (*model.User, []model.QuizQuestion) {
	t.Helper()
	u := &model.User{Name: "alice", Email: "alice@example.com"}
	require.NoError(t, s.users.Create(context.Background(), u))

	var qs []model.QuizQuestion
	for i := 0; i < 3; i++ {
		q := model.QuizQuestion{LevelCode: "A1", Prompt: fmt.Sprintf("q%d", i), Options: []model.QuizOption{
			{Text: "yes", IsCorrect: true, Order: 1},
			{Text: "no", Order: 2},
		}}
		require.NoError(t, s.catalog.CreateQuestion(context.Background(), &q))
		qs = append(qs, q)
	}
	return u, qs
}

func TestPracticeFlow(t *testing.T) {
	s := newTestServer(t)
	u, qs := s.seed(t)

	w, env := s.do(t, http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "quiz", "levelCode": "A1", "count": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var started service.StartSessionResult
	require.NoError(t, json.Unmarshal(env.Data, &started))
	require.Len(t, started.Items, 2)
	assert.NotContains(t, w.Body.String(), "isCorrect", "answers are not leaked")

	sessionPath := "/api/practice/sessions/" + started.Session.ID
	first := started.Items[0].ID
	var correct uint
	for _, q := range qs {
		if q.ID == first {
			correct = q.Options[0].ID
		}
	}

	w, env = s.do(t, http.MethodPost, sessionPath+"/items", u.ID, gin.H{"itemId": first, "optionId": correct})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var submitted service.SubmitItemResult
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.True(t, submitted.Correct)
	assert.Equal(t, 10, submitted.PointsEarned)

	// 继续会话
	w, env = s.do(t, http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "quiz", "levelCode": "A1", "count": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var resumed service.StartSessionResult
	require.NoError(t, json.Unmarshal(env.Data, &resumed))
	assert.True(t, resumed.IsResuming)
	assert.Equal(t, started.Session.ID, resumed.Session.ID)

	w, env = s.do(t, http.MethodPost, sessionPath+"/complete", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done service.CompleteSessionResult
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, 20, done.BonusPoints)

	w, _ = s.do(t, http.MethodPost, sessionPath+"/items", u.ID, gin.H{"itemId": started.Items[1].ID, "optionId": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/users/me/progress", u.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap service.ProgressSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, 10+5+20, snap.TotalPoints)

	w, _ = s.do(t, http.MethodGet, "/api/leaderboard/rank?window=weekly", u.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/stats/quiz", u.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPracticeErrors(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		user   uint
		body   interface{}
		status int
	}{
		{"no token", http.MethodPost, "/api/practice/sessions", 0, gin.H{"kind": "quiz", "levelCode": "A1", "count": 1}, http.StatusUnauthorized},
		{"missing fields", http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "quiz"}, http.StatusBadRequest},
		{"bad kind", http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "essay", "levelCode": "A1", "count": 1}, http.StatusBadRequest},
		{"count over batch", http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "quiz", "levelCode": "A1", "count": 11}, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/practice/sessions/nope", u.ID, nil, http.StatusNotFound},
		{"unknown user", http.MethodGet, "/api/users/me/progress", 404, nil, http.StatusNotFound},
		{"bad window", http.MethodGet, "/api/leaderboard/top?window=daily", u.ID, nil, http.StatusBadRequest},
		{"unknown stats", http.MethodGet, "/api/stats/grammar", u.ID, nil, http.StatusNotFound},
		{"bookmark missing item", http.MethodPost, "/api/bookmarks", u.ID, gin.H{"kind": "quiz", "itemId": 999}, http.StatusNotFound},
		{"unbookmark bad id", http.MethodDelete, "/api/bookmarks?kind=quiz&itemId=x", u.ID, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestNothingToPractice(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.seed(t)

	w, env := s.do(t, http.MethodPost, "/api/practice/sessions", u.ID, gin.H{"kind": "speaking", "levelCode": "A1", "count": 3})
	require.Equal(t, http.StatusOK, w.Code)

	var body util.NothingToPractice
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, util.StateNothingToPractice, body.State)
	assert.Equal(t, "no_content_for_level", body.Reason)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}
