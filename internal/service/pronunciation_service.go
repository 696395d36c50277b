package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/util"
	"vocab_backend/pkg/monitoring"
)

// PronunciationScorer 外部发音评分服务
type PronunciationScorer interface {
	Score(ctx context.Context, req PronunciationRequest) (*PronunciationResult, error)
}

type PronunciationRequest struct {
	Text     string `json:"text"`
	AudioURL string `json:"audioUrl"`
	Language string `json:"language"`
}

type PronunciationResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

type pronunciationResponse struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type PronunciationService struct {
	config config.PronunciationConfig
	client *http.Client
}

func NewPronunciationService(cfg config.PronunciationConfig) *PronunciationService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &PronunciationService{
		config: cfg,
		client: &http.Client{},
	}
}

// Score 超时返回 ErrExternalTimeout，调用方可重试；不会用 0 分代替
func (s *PronunciationService) Score(ctx context.Context, req PronunciationRequest) (*PronunciationResult, error) {
	if req.Language == "" {
		req.Language = s.config.Language
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	outcome := "error"
	defer func() {
		monitoring.PronunciationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.config.BaseURL, "/")+"/score", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
			return nil, fmt.Errorf("%w: pronunciation scoring after %s", util.ErrExternalTimeout, s.config.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", util.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: pronunciation API status %d: %s", util.ErrExternalService, resp.StatusCode, string(msg))
	}

	var parsed pronunciationResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
			return nil, fmt.Errorf("%w: pronunciation scoring after %s", util.ErrExternalTimeout, s.config.Timeout)
		}
		return nil, fmt.Errorf("%w: decode response: %v", util.ErrExternalService, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrExternalService, parsed.Error.Message)
	}

	outcome = "ok"
	return &PronunciationResult{
		Score:    clampScore(parsed.Score),
		Feedback: parsed.Feedback,
	}, nil
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
