package model

import "time"

// ItemMastery 用户对某个题目/单词的首次掌握标记
type ItemMastery struct {
	ID         uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint         `gorm:"not null;uniqueIndex:idx_mastery_user_item,priority:1" json:"userId"`
	ItemKind   PracticeKind `gorm:"size:16;not null;uniqueIndex:idx_mastery_user_item,priority:2" json:"itemKind"`
	ItemID     uint         `gorm:"not null;uniqueIndex:idx_mastery_user_item,priority:3" json:"itemId"`
	MasteredAt time.Time    `gorm:"not null" json:"masteredAt"`
}

func (ItemMastery) TableName() string {
	return "item_masteries"
}
