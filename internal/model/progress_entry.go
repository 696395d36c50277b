package model

import "time"

// ProgressEntry 会话内的一条作答记录，只追加
type ProgressEntry struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_session_item,priority:1" json:"sessionId"`
	ItemID       uint      `gorm:"not null;uniqueIndex:idx_progress_session_item,priority:2" json:"itemId"`
	OptionID     *uint     `json:"optionId,omitempty"`
	AudioRef     string    `gorm:"size:255" json:"audioRef,omitempty"`
	IsCorrect    bool      `gorm:"not null;default:false" json:"isCorrect"`
	Score        int       `gorm:"not null;default:0" json:"score"`
	PointsEarned int       `gorm:"not null;default:0" json:"pointsEarned"`
	AnsweredAt   time.Time `gorm:"not null" json:"answeredAt"`
}

func (ProgressEntry) TableName() string {
	return "progress_entries"
}
