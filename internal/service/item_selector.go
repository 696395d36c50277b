package service

import (
	"context"
	"math/rand"
	"vocab_backend/internal/model"
	"vocab_backend/pkg/logger"

	"go.uber.org/zap"
)

// Catalog 题库外部依赖
type Catalog interface {
	CountItems(ctx context.Context, kind model.PracticeKind, levelCode string) (int64, error)
	CandidateIDs(ctx context.Context, kind model.PracticeKind, levelCode string, exclude []uint) ([]uint, error)
	LoadItems(ctx context.Context, kind model.PracticeKind, ids []uint) ([]model.PracticeItem, error)
	FindItem(ctx context.Context, kind model.PracticeKind, levelCode string, id uint) (*model.PracticeItem, error)
	FindOption(ctx context.Context, questionID, optionID uint) (*model.QuizOption, error)
}

type bookmarkLookup interface {
	FindForItems(ctx context.Context, userID uint, kind model.PracticeKind, itemIDs []uint) (map[uint]model.Bookmark, error)
}

// ItemSelector 从题库随机抽取本会话未出现过的条目
type ItemSelector struct {
	catalog   Catalog
	bookmarks bookmarkLookup
	shuffle   func(n int, swap func(i, j int))
}

func NewItemSelector(catalog Catalog, bookmarks bookmarkLookup) *ItemSelector {
	return &ItemSelector{
		catalog:   catalog,
		bookmarks: bookmarks,
		shuffle:   rand.Shuffle,
	}
}

// Draw 最多返回 count 个条目，不包含 exclude 中的 ID
func (s *ItemSelector) Draw(ctx context.Context, kind model.PracticeKind, levelCode string, count int, exclude []uint, viewerID uint) ([]model.PracticeItem, error) {
	if count <= 0 {
		return nil, nil
	}

	ids, err := s.catalog.CandidateIDs(ctx, kind, levelCode, exclude)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	s.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if len(ids) > count {
		ids = ids[:count]
	}

	items, err := s.catalog.LoadItems(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	s.annotateBookmarks(ctx, kind, viewerID, items)
	return items, nil
}

// annotateBookmarks 查询失败时按未收藏处理
func (s *ItemSelector) annotateBookmarks(ctx context.Context, kind model.PracticeKind, viewerID uint, items []model.PracticeItem) {
	if s.bookmarks == nil || len(items) == 0 {
		return
	}
	ids := make([]uint, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	marks, err := s.bookmarks.FindForItems(ctx, viewerID, kind, ids)
	if err != nil {
		logger.Log.Warn("Bookmark lookup failed",
			zap.Uint("user_id", viewerID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}
	for i := range items {
		if b, ok := marks[items[i].ID]; ok {
			items[i].IsBookmarked = true
			items[i].BookmarkNote = b.Note
		}
	}
}
