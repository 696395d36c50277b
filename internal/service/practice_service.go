package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/logger"
	"vocab_backend/pkg/monitoring"
	"vocab_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StartSessionRequest 开始或继续练习
type StartSessionRequest struct {
	Kind      model.PracticeKind `json:"kind" binding:"required"`
	LevelCode string             `json:"levelCode" binding:"required"`
	Count     int                `json:"count" binding:"required"`
	ForceNew  bool               `json:"forceNew"`
}

type StartSessionResult struct {
	Session          *model.PracticeSession `json:"session"`
	Items            []model.PracticeItem   `json:"items"`
	IsResuming       bool                   `json:"isResuming"`
	AlreadyCompleted bool                   `json:"alreadyCompleted"`
	Answered         int                    `json:"answered"`
	Remaining        int                    `json:"remaining"`
}

// SubmitItemRequest 测验传 OptionID，口语传 AudioRef
type SubmitItemRequest struct {
	ItemID   uint   `json:"itemId" binding:"required"`
	OptionID uint   `json:"optionId"`
	AudioRef string `json:"audioRef"`
}

type SubmitItemResult struct {
	ItemID        uint   `json:"itemId"`
	Correct       bool   `json:"correct"`
	Score         int    `json:"score"`
	Tier          string `json:"tier,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
	PointsEarned  int    `json:"pointsEarned"`
	MasteryBonus  int    `json:"masteryBonus"`
	NewlyMastered bool   `json:"newlyMastered"`
	Duplicate     bool   `json:"duplicate"`
	Answered      int    `json:"answered"`
	Remaining     int    `json:"remaining"`
}

type CompleteSessionResult struct {
	SessionID        string             `json:"sessionId"`
	Kind             model.PracticeKind `json:"kind"`
	Total            int                `json:"total"`
	Correct          int                `json:"correct"`
	Accuracy         float64            `json:"accuracy"`
	AverageScore     float64            `json:"averageScore"`
	BonusPoints      int                `json:"bonusPoints"`
	CompletedAt      *time.Time         `json:"completedAt"`
	AlreadyCompleted bool               `json:"alreadyCompleted"`
	Rank             *model.Standing    `json:"rank,omitempty"`
}

type SessionDetail struct {
	Session  *model.PracticeSession `json:"session"`
	Entries  []model.ProgressEntry  `json:"entries"`
	State    SessionState           `json:"state"`
	Answered int                    `json:"answered"`
}

type userFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

type audioResolver interface {
	AudioURL(ctx context.Context, userID uint, audioRef string) (string, error)
}

type rankReader interface {
	Rank(ctx context.Context, userID uint, window model.LeaderboardWindow) (*model.Standing, error)
}

// PracticeService 练习会话的开始/继续、作答与完成
type PracticeService struct {
	users    userFinder
	catalog  Catalog
	sessions *repository.SessionRepository
	progress *repository.ProgressRepository
	selector *ItemSelector
	scoring  *ScoringService
	scorer   PronunciationScorer
	audio    audioResolver
	ranks    rankReader
	calendar *Calendar
	cfg      config.PracticeConfig
}

type PracticeDeps struct {
	Users    userFinder
	Catalog  Catalog
	Sessions *repository.SessionRepository
	Progress *repository.ProgressRepository
	Selector *ItemSelector
	Scoring  *ScoringService
	Scorer   PronunciationScorer
	Audio    audioResolver
	Ranks    rankReader
	Calendar *Calendar
}

func NewPracticeService(deps PracticeDeps, cfg config.PracticeConfig) *PracticeService {
	return &PracticeService{
		users:    deps.Users,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		progress: deps.Progress,
		selector: deps.Selector,
		scoring:  deps.Scoring,
		scorer:   deps.Scorer,
		audio:    deps.Audio,
		ranks:    deps.Ranks,
		calendar: deps.Calendar,
		cfg:      cfg,
	}
}

// StartOrResume 继续最近的活跃会话，或新建会话并抽题
func (s *PracticeService) StartOrResume(ctx context.Context, ownerID uint, req StartSessionRequest) (res *StartSessionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PracticeService.StartOrResume",
		attribute.Int64("user_id", int64(ownerID)),
		attribute.String("kind", string(req.Kind)),
		attribute.String("level", req.LevelCode))
	defer func() { tracing.EndSpan(span, err) }()

	if !req.Kind.Valid() {
		return nil, util.ErrInvalidKind
	}
	if req.Count < 1 || req.Count > s.cfg.MaxBatch {
		return nil, fmt.Errorf("%w: must be between 1 and %d", util.ErrInvalidCount, s.cfg.MaxBatch)
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	catalogSize, err := s.catalog.CountItems(ctx, req.Kind, req.LevelCode)
	if err != nil {
		return nil, err
	}
	if catalogSize == 0 {
		return nil, util.ErrNoContentForLevel
	}

	if !req.ForceNew {
		res, err := s.resume(ctx, ownerID, req)
		if err != nil || res != nil {
			return res, err
		}
	}

	return s.start(ctx, ownerID, req, catalogSize)
}

// resume 没有可继续的会话时返回 nil, nil
func (s *PracticeService) resume(ctx context.Context, ownerID uint, req StartSessionRequest) (*StartSessionResult, error) {
	now := s.calendar.Now()
	cand, err := s.sessions.FindLatestResumable(ctx, ownerID, req.Kind, req.LevelCode, now.Add(-s.cfg.ActiveWindow))
	if err != nil || cand == nil {
		return nil, err
	}

	answered, err := s.progress.CountBySession(ctx, cand.ID)
	if err != nil {
		return nil, err
	}

	state := ClassifySession(cand, answered, now, s.cfg.ActiveWindow)
	remaining := EffectiveTarget(cand, req.Count) - int(answered)

	switch {
	case state == SessionExhausted, state == SessionActive && remaining <= 0:
		logger.Log.Info("Resumable session already exhausted",
			zap.Uint("user_id", ownerID),
			zap.String("session_id", cand.ID),
			zap.Int64("answered", answered))
		return &StartSessionResult{
			Session:          cand,
			Items:            []model.PracticeItem{},
			IsResuming:       true,
			AlreadyCompleted: true,
			Answered:         int(answered),
			Remaining:        0,
		}, nil
	case state != SessionActive:
		return nil, nil
	}

	exclude, err := s.progress.ItemIDsBySession(ctx, cand.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.selector.Draw(ctx, req.Kind, req.LevelCode, remaining, exclude, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, util.ErrNoMoreItemsAvailable
	}

	if cand.TargetCount == nil {
		target := int(answered) + len(items)
		set, err := s.sessions.SetTargetIfUnset(ctx, cand.ID, target)
		if err != nil {
			return nil, err
		}
		if set {
			cand.TargetCount = &target
		}
	}

	monitoring.SessionsStarted.WithLabelValues(string(req.Kind), "true").Inc()
	logger.Log.Info("Practice session resumed",
		zap.Uint("user_id", ownerID),
		zap.String("session_id", cand.ID),
		zap.Int64("answered", answered),
		zap.Int("drawn", len(items)))

	return &StartSessionResult{
		Session:    cand,
		Items:      items,
		IsResuming: true,
		Answered:   int(answered),
		Remaining:  EffectiveTarget(cand, req.Count) - int(answered),
	}, nil
}

// start 先抽题再建会话，抽不到题时不留下空会话
func (s *PracticeService) start(ctx context.Context, ownerID uint, req StartSessionRequest, catalogSize int64) (*StartSessionResult, error) {
	count := req.Count
	if int64(count) > catalogSize {
		count = int(catalogSize)
	}

	items, err := s.selector.Draw(ctx, req.Kind, req.LevelCode, count, nil, ownerID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, util.ErrNoMoreItemsAvailable
	}

	target := len(items)
	session := &model.PracticeSession{
		OwnerID:     ownerID,
		Kind:        req.Kind,
		LevelCode:   req.LevelCode,
		TargetCount: &target,
		StartedAt:   s.calendar.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	monitoring.SessionsStarted.WithLabelValues(string(req.Kind), "false").Inc()
	logger.Log.Info("Practice session started",
		zap.Uint("user_id", ownerID),
		zap.String("session_id", session.ID),
		zap.String("level", req.LevelCode),
		zap.Int("target", target))

	return &StartSessionResult{
		Session:   session,
		Items:     items,
		Remaining: target,
	}, nil
}

func (s *PracticeService) GetSession(ctx context.Context, ownerID uint, sessionID string) (*SessionDetail, error) {
	session, err := s.sessions.FindOwned(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.progress.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{
		Session:  session,
		Entries:  entries,
		State:    ClassifySession(session, int64(len(entries)), s.calendar.Now(), s.cfg.ActiveWindow),
		Answered: len(entries),
	}, nil
}

// SubmitItem 按会话类型分派
func (s *PracticeService) SubmitItem(ctx context.Context, ownerID uint, sessionID string, req SubmitItemRequest) (*SubmitItemResult, error) {
	session, err := s.sessions.FindOwned(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	switch session.Kind {
	case model.KindQuiz:
		return s.submitAnswer(ctx, session, req)
	case model.KindSpeaking:
		return s.submitSpeaking(ctx, session, req)
	default:
		return nil, util.ErrInvalidKind
	}
}

// SubmitAnswer / SubmitSpeaking 限定会话类型，类型不符返回 ErrSessionKindMismatch
func (s *PracticeService) SubmitAnswer(ctx context.Context, ownerID uint, sessionID string, req SubmitItemRequest) (*SubmitItemResult, error) {
	session, err := s.sessions.FindOwned(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Kind != model.KindQuiz {
		return nil, util.ErrSessionKindMismatch
	}
	return s.submitAnswer(ctx, session, req)
}

func (s *PracticeService) SubmitSpeaking(ctx context.Context, ownerID uint, sessionID string, req SubmitItemRequest) (*SubmitItemResult, error) {
	session, err := s.sessions.FindOwned(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Kind != model.KindSpeaking {
		return nil, util.ErrSessionKindMismatch
	}
	return s.submitSpeaking(ctx, session, req)
}

// precheck 返回已有记录时视为重复提交
// 同一等级内未下发的题目同样接受，每题只记一次、总数受目标数约束
func (s *PracticeService) precheck(ctx context.Context, session *model.PracticeSession, itemID uint) (*model.PracticeItem, *model.ProgressEntry, int64, error) {
	existing, err := s.progress.Find(ctx, session.ID, itemID)
	if err != nil {
		return nil, nil, 0, err
	}
	answered, err := s.progress.CountBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, 0, err
	}
	if existing != nil {
		return nil, existing, answered, nil
	}

	switch ClassifySession(session, answered, s.calendar.Now(), s.cfg.ActiveWindow) {
	case SessionCompleted:
		return nil, nil, answered, util.ErrSessionCompleted
	case SessionExhausted:
		return nil, nil, answered, util.ErrSessionTargetReached
	}

	item, err := s.catalog.FindItem(ctx, session.Kind, session.LevelCode, itemID)
	if err != nil {
		return nil, nil, answered, err
	}
	return item, nil, answered, nil
}

func (s *PracticeService) submitAnswer(ctx context.Context, session *model.PracticeSession, req SubmitItemRequest) (res *SubmitItemResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PracticeService.SubmitAnswer",
		attribute.String("session_id", session.ID),
		attribute.Int64("item_id", int64(req.ItemID)))
	defer func() { tracing.EndSpan(span, err) }()

	item, existing, answered, err := s.precheck(ctx, session, req.ItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicateResult(session, existing, answered), nil
	}
	if req.OptionID == 0 {
		return nil, fmt.Errorf("%w: optionId is required", util.ErrInvalidAnswer)
	}

	opt, err := s.catalog.FindOption(ctx, item.ID, req.OptionID)
	if err != nil {
		return nil, err
	}

	points := 0
	score := 0
	if opt.IsCorrect {
		points = s.scoring.QuizCorrectPoints()
		score = 100
	}
	optionID := opt.ID
	entry := &model.ProgressEntry{
		SessionID:    session.ID,
		ItemID:       item.ID,
		OptionID:     &optionID,
		IsCorrect:    opt.IsCorrect,
		Score:        score,
		PointsEarned: points,
		AnsweredAt:   s.calendar.Now(),
	}

	return s.record(ctx, session, entry, answered, "", "", AwardInput{
		Points: points,
		Master: opt.IsCorrect,
		Streak: opt.IsCorrect,
	})
}

func (s *PracticeService) submitSpeaking(ctx context.Context, session *model.PracticeSession, req SubmitItemRequest) (res *SubmitItemResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PracticeService.SubmitSpeaking",
		attribute.String("session_id", session.ID),
		attribute.Int64("item_id", int64(req.ItemID)))
	defer func() { tracing.EndSpan(span, err) }()

	item, existing, answered, err := s.precheck(ctx, session, req.ItemID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicateResult(session, existing, answered), nil
	}
	if req.AudioRef == "" {
		return nil, fmt.Errorf("%w: audioRef is required", util.ErrInvalidAnswer)
	}

	audioURL, err := s.audio.AudioURL(ctx, session.OwnerID, req.AudioRef)
	if err != nil {
		return nil, err
	}

	scored, err := s.scorer.Score(ctx, PronunciationRequest{Text: item.Prompt, AudioURL: audioURL})
	if err != nil {
		logger.Log.Warn("Pronunciation scoring failed",
			zap.Uint("user_id", session.OwnerID),
			zap.String("session_id", session.ID),
			zap.Uint("item_id", item.ID),
			zap.Bool("timeout", errors.Is(err, util.ErrExternalTimeout)),
			zap.Error(err))
		return nil, err
	}

	tier, points := s.scoring.SpeakingPoints(scored.Score)
	mastered := s.scoring.SpeakingMastered(scored.Score)
	entry := &model.ProgressEntry{
		SessionID:    session.ID,
		ItemID:       item.ID,
		AudioRef:     req.AudioRef,
		IsCorrect:    mastered,
		Score:        scored.Score,
		PointsEarned: points,
		AnsweredAt:   s.calendar.Now(),
	}

	return s.record(ctx, session, entry, answered, tier.Name, scored.Feedback, AwardInput{
		Points: points,
		Master: mastered,
		Streak: true,
	})
}

// record 写入作答记录，成功后才触发积分更新
func (s *PracticeService) record(ctx context.Context, session *model.PracticeSession, entry *model.ProgressEntry, answered int64, tier, feedback string, award AwardInput) (*SubmitItemResult, error) {
	inserted, err := s.progress.Insert(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// 并发的重复提交，以先写入的为准
		stored, err := s.progress.Find(ctx, session.ID, entry.ItemID)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, fmt.Errorf("progress entry for item %d vanished", entry.ItemID)
		}
		return s.duplicateResult(session, stored, answered), nil
	}

	monitoring.ItemsSubmitted.WithLabelValues(string(session.Kind), strconv.FormatBool(entry.IsCorrect)).Inc()

	award.UserID = session.OwnerID
	award.SessionID = session.ID
	award.Kind = session.Kind
	award.ItemID = entry.ItemID
	outcome := s.scoring.ApplyAnswer(ctx, award)

	answered++
	return &SubmitItemResult{
		ItemID:        entry.ItemID,
		Correct:       entry.IsCorrect,
		Score:         entry.Score,
		Tier:          tier,
		Feedback:      feedback,
		PointsEarned:  entry.PointsEarned,
		MasteryBonus:  outcome.MasteryBonus,
		NewlyMastered: outcome.NewlyMastered,
		Answered:      int(answered),
		Remaining:     remainingFor(session, answered),
	}, nil
}

func (s *PracticeService) duplicateResult(session *model.PracticeSession, e *model.ProgressEntry, answered int64) *SubmitItemResult {
	return &SubmitItemResult{
		ItemID:       e.ItemID,
		Correct:      e.IsCorrect,
		Score:        e.Score,
		PointsEarned: e.PointsEarned,
		Duplicate:    true,
		Answered:     int(answered),
		Remaining:    remainingFor(session, answered),
	}
}

func remainingFor(session *model.PracticeSession, answered int64) int {
	if session.TargetCount == nil {
		return 0
	}
	if r := *session.TargetCount - int(answered); r > 0 {
		return r
	}
	return 0
}

// CompleteSession 幂等：只有第一次成功标记完成的请求发放奖励，之后返回已保存的结果
func (s *PracticeService) CompleteSession(ctx context.Context, ownerID uint, sessionID string) (res *CompleteSessionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PracticeService.CompleteSession",
		attribute.String("session_id", sessionID))
	defer func() { tracing.EndSpan(span, err) }()

	session, err := s.sessions.FindOwned(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return s.completionResult(ctx, session, true), nil
	}

	summary, err := s.progress.SummaryBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := repository.CompletionResult{
		CompletedAt:   s.calendar.Now(),
		TotalAnswered: int(summary.Total),
		CorrectCount:  int(summary.Correct),
		AverageScore:  summary.AverageScore,
		BonusPoints:   s.scoring.CompletionBonus(session.Kind, summary),
	}
	if summary.Total > 0 {
		result.Accuracy = float64(summary.Correct) / float64(summary.Total)
	}

	won, err := s.sessions.MarkCompleted(ctx, sessionID, result)
	if err != nil {
		return nil, err
	}

	if won {
		s.scoring.ApplyCompletion(ctx, ownerID, sessionID, result.BonusPoints)
		logger.Log.Info("Practice session completed",
			zap.Uint("user_id", ownerID),
			zap.String("session_id", sessionID),
			zap.Int("answered", result.TotalAnswered),
			zap.Int("bonus", result.BonusPoints))
	}

	// 两条路径都从存储读取，保证重复调用返回相同的结果
	stored, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.completionResult(ctx, stored, !won), nil
}

func (s *PracticeService) completionResult(ctx context.Context, session *model.PracticeSession, already bool) *CompleteSessionResult {
	res := &CompleteSessionResult{
		SessionID:        session.ID,
		Kind:             session.Kind,
		Total:            session.TotalAnswered,
		Correct:          session.CorrectCount,
		Accuracy:         session.Accuracy,
		AverageScore:     session.AverageScore,
		BonusPoints:      session.BonusPoints,
		CompletedAt:      session.CompletedAt,
		AlreadyCompleted: already,
	}
	if s.ranks != nil {
		standing, err := s.ranks.Rank(ctx, session.OwnerID, model.WindowGlobal)
		if err != nil {
			logger.Log.Warn("Rank snapshot failed",
				zap.Uint("user_id", session.OwnerID),
				zap.String("session_id", session.ID),
				zap.Error(err))
		} else {
			res.Rank = standing
		}
	}
	return res
}
