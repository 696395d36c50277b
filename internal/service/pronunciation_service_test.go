package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(url string, timeout time.Duration) *PronunciationService {
	return NewPronunciationService(config.PronunciationConfig{
		BaseURL:  url,
		APIKey:   "secret",
		Language: "en-US",
		Timeout:  timeout,
	})
}

func TestPronunciationScore_Success(t *testing.T) {
	var got PronunciationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/score", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score": 87.6, "feedback": "clear vowels"}`))
	}))
	defer srv.Close()

	res, err := newScorer(srv.URL, time.Second).Score(context.Background(), PronunciationRequest{
		Text:     "apple",
		AudioURL: "http://audio.test/a.wav",
	})
	require.NoError(t, err)
	assert.Equal(t, 88, res.Score)
	assert.Equal(t, "clear vowels", res.Feedback)
	assert.Equal(t, "apple", got.Text)
	assert.Equal(t, "en-US", got.Language, "default language is filled in")
}

func TestPronunciationScore_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newScorer(srv.URL, 50*time.Millisecond).Score(context.Background(), PronunciationRequest{Text: "apple"})
	assert.ErrorIs(t, err, util.ErrExternalTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPronunciationScore_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `boom`},
		{"bad json", http.StatusOK, `{"score":`},
		{"error payload", http.StatusOK, `{"error": {"message": "unsupported audio"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newScorer(srv.URL, time.Second).Score(context.Background(), PronunciationRequest{Text: "apple"})
			assert.ErrorIs(t, err, util.ErrExternalService)
			assert.NotErrorIs(t, err, util.ErrExternalTimeout)
		})
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 100, clampScore(150))
	assert.Equal(t, 0, clampScore(-3))
	assert.Equal(t, 50, clampScore(49.5))
}
