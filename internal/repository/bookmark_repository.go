package repository

import (
	"context"
	"vocab_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

// Save 已收藏时只更新备注
func (r *BookmarkRepository) Save(ctx context.Context, b *model.Bookmark) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_kind"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"note"}),
		}).
		Create(b).Error
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID uint, kind model.PracticeKind, itemID uint) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND item_kind = ? AND item_id = ?", userID, kind, itemID).
		Delete(&model.Bookmark{})
	return res.RowsAffected > 0, res.Error
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uint, kind model.PracticeKind) ([]model.Bookmark, error) {
	var list []model.Bookmark
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("item_kind = ?", kind)
	}
	err := q.Order("created_at DESC").Find(&list).Error
	return list, err
}

// FindForItems 一次查询给定条目上的收藏，按 item_id 建索引
func (r *BookmarkRepository) FindForItems(ctx context.Context, userID uint, kind model.PracticeKind, itemIDs []uint) (map[uint]model.Bookmark, error) {
	out := make(map[uint]model.Bookmark, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	var list []model.Bookmark
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND item_kind = ? AND item_id IN ?", userID, kind, itemIDs).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, b := range list {
		out[b.ItemID] = b
	}
	return out, nil
}
