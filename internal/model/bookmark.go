package model

import "time"

// Bookmark 用户收藏，与会话无关
type Bookmark struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_bookmark_user_item,priority:1" json:"userId"`
	ItemKind  PracticeKind `gorm:"size:16;not null;uniqueIndex:idx_bookmark_user_item,priority:2" json:"itemKind"`
	ItemID    uint         `gorm:"not null;uniqueIndex:idx_bookmark_user_item,priority:3" json:"itemId"`
	Note      string       `gorm:"size:500" json:"note"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
