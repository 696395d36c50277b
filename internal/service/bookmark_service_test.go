package service

import (
	"context"
	"testing"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	qs := f.questions(t, "A1", 3)
	words := f.words(t, "A1", 1)
	svc := NewBookmarkService(f.bookmarks, f.catalog)

	_, err := svc.Add(ctx, u.ID, BookmarkRequest{Kind: model.KindQuiz, ItemID: qs[0].ID, Note: "tricky"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, u.ID, BookmarkRequest{Kind: model.KindQuiz, ItemID: qs[0].ID, Note: "still tricky"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, u.ID, BookmarkRequest{Kind: model.KindSpeaking, ItemID: words[0].ID})
	require.NoError(t, err)

	all, err := svc.List(ctx, u.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	quiz, err := svc.List(ctx, u.ID, model.KindQuiz)
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	assert.Equal(t, "still tricky", quiz[0].Note)

	// 抽题时带出收藏状态
	s := startQuiz(t, f, u.ID, "A1", 3)
	for _, it := range s.Items {
		assert.Equal(t, it.ID == qs[0].ID, it.IsBookmarked, "item %d", it.ID)
		if it.IsBookmarked {
			assert.Equal(t, "still tricky", it.BookmarkNote)
		}
	}

	_, err = svc.Add(ctx, u.ID, BookmarkRequest{Kind: model.KindQuiz, ItemID: 9999})
	assert.ErrorIs(t, err, util.ErrItemNotFound)
	_, err = svc.Add(ctx, u.ID, BookmarkRequest{Kind: "grammar", ItemID: qs[1].ID})
	assert.ErrorIs(t, err, util.ErrInvalidKind)
	_, err = svc.List(ctx, u.ID, "grammar")
	assert.ErrorIs(t, err, util.ErrInvalidKind)

	require.NoError(t, svc.Remove(ctx, u.ID, model.KindQuiz, qs[0].ID))
	assert.ErrorIs(t, svc.Remove(ctx, u.ID, model.KindQuiz, qs[0].ID), util.ErrBookmarkNotFound)
}
