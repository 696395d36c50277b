package service

import (
	"context"
	"vocab_backend/internal/model"
	"vocab_backend/internal/repository"
	"vocab_backend/internal/util"
)

type BookmarkRequest struct {
	Kind   model.PracticeKind `json:"kind" binding:"required"`
	ItemID uint               `json:"itemId" binding:"required"`
	Note   string             `json:"note" binding:"max=500"`
}

type BookmarkService struct {
	repo    *repository.BookmarkRepository
	catalog *repository.CatalogRepository
}

func NewBookmarkService(repo *repository.BookmarkRepository, catalog *repository.CatalogRepository) *BookmarkService {
	return &BookmarkService{repo: repo, catalog: catalog}
}

func (s *BookmarkService) Add(ctx context.Context, userID uint, req BookmarkRequest) (*model.Bookmark, error) {
	if !req.Kind.Valid() {
		return nil, util.ErrInvalidKind
	}
	ok, err := s.catalog.Exists(ctx, req.Kind, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrItemNotFound
	}

	b := &model.Bookmark{
		UserID:   userID,
		ItemKind: req.Kind,
		ItemID:   req.ItemID,
		Note:     req.Note,
	}
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookmarkService) Remove(ctx context.Context, userID uint, kind model.PracticeKind, itemID uint) error {
	if !kind.Valid() {
		return util.ErrInvalidKind
	}
	deleted, err := s.repo.Delete(ctx, userID, kind, itemID)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrBookmarkNotFound
	}
	return nil
}

// List kind 为空时返回全部
func (s *BookmarkService) List(ctx context.Context, userID uint, kind model.PracticeKind) ([]model.Bookmark, error) {
	if kind != "" && !kind.Valid() {
		return nil, util.ErrInvalidKind
	}
	return s.repo.ListByUser(ctx, userID, kind)
}
