package model

import "time"

type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// PeriodPoints 按自然周/月累计的积分
// PeriodKey 例: 2026-W42, 2026-10
type PeriodPoints struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_period_user,priority:1" json:"userId"`
	PeriodType PeriodType `gorm:"size:16;not null;uniqueIndex:idx_period_user,priority:2;index:idx_period_rank,priority:1" json:"periodType"`
	PeriodKey  string     `gorm:"size:16;not null;uniqueIndex:idx_period_user,priority:3;index:idx_period_rank,priority:2" json:"periodKey"`
	Points     int        `gorm:"not null;default:0;index:idx_period_rank,priority:3" json:"points"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (PeriodPoints) TableName() string {
	return "period_points"
}
