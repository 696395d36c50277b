package model

import "time"

type PracticeKind string

const (
	KindQuiz     PracticeKind = "quiz"
	KindSpeaking PracticeKind = "speaking"
)

func (k PracticeKind) Valid() bool {
	return k == KindQuiz || k == KindSpeaking
}

// PracticeSession 一次测验或口语练习
// TargetCount 为空表示尚未抽题
// swagger:model PracticeSession
type PracticeSession struct {
	UUIDBase
	OwnerID     uint         `gorm:"not null;index:idx_session_owner_level,priority:1" json:"ownerId"`
	Kind        PracticeKind `gorm:"size:16;not null;index:idx_session_owner_level,priority:2" json:"kind"`
	LevelCode   string       `gorm:"size:50;not null;index:idx_session_owner_level,priority:3" json:"levelCode"`
	TargetCount *int         `json:"targetCount"`
	StartedAt   time.Time    `gorm:"not null;index:idx_session_owner_level,priority:4" json:"startedAt"`
	CompletedAt *time.Time   `json:"completedAt"`
	IsCompleted bool         `gorm:"not null;default:false" json:"isCompleted"`

	// 完成时写入，之后不再变化
	TotalAnswered int     `gorm:"not null;default:0" json:"totalAnswered"`
	CorrectCount  int     `gorm:"not null;default:0" json:"correctCount"`
	Accuracy      float64 `gorm:"not null;default:0" json:"accuracy"`
	AverageScore  float64 `gorm:"not null;default:0" json:"averageScore"`
	BonusPoints   int     `gorm:"not null;default:0" json:"bonusPoints"`

	Entries []ProgressEntry `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}
