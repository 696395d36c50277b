package model

// User 用户及其累计学习数据
// swagger:model User
type User struct {
	BaseModel
	Name  string `gorm:"size:100;not null" json:"name"`
	Email string `gorm:"size:100;unique;not null" json:"email"`

	TotalPoints int `gorm:"not null;default:0;index" json:"totalPoints"`
	StreakDays  int `gorm:"not null;default:0" json:"streakDays"`
	// 最近一次有效练习的自然日，格式 YYYY-MM-DD
	LastActivityDate string `gorm:"size:10;not null;default:''" json:"lastActivityDate"`
	WordsMastered    int    `gorm:"not null;default:0" json:"wordsMastered"`
}

func (User) TableName() string {
	return "users"
}
