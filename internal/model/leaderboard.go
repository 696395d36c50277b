package model

type LeaderboardWindow string

const (
	WindowGlobal  LeaderboardWindow = "global"
	WindowWeekly  LeaderboardWindow = "weekly"
	WindowMonthly LeaderboardWindow = "monthly"
)

func (w LeaderboardWindow) Valid() bool {
	return w == WindowGlobal || w == WindowWeekly || w == WindowMonthly
}

// LeaderboardEntry 排行榜中的一行
type LeaderboardEntry struct {
	Rank   int64  `json:"rank"`
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Standing 单个用户在某个榜单中的位置
type Standing struct {
	Window LeaderboardWindow `json:"window"`
	Period string            `json:"period,omitempty"`
	Rank   int64             `json:"rank"`
	Points int               `json:"points"`
}

// PracticeStats 按练习类型汇总的个人统计
type PracticeStats struct {
	Kind              PracticeKind `json:"kind"`
	Sessions          int64        `json:"sessions"`
	CompletedSessions int64        `json:"completedSessions"`
	Answered          int64        `json:"answered"`
	Correct           int64        `json:"correct"`
	Accuracy          float64      `json:"accuracy"`
	AverageScore      float64      `json:"averageScore"`
	Mastered          int64        `json:"mastered"`
}
