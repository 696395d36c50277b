package model

// QuizQuestion 选择题
type QuizQuestion struct {
	BaseModel
	LevelCode   string       `gorm:"size:50;not null;index" json:"levelCode"`
	Prompt      string       `gorm:"type:text;not null" json:"prompt"`
	Explanation string       `gorm:"type:text" json:"explanation"`
	Order       int          `gorm:"default:0" json:"order"`
	Options     []QuizOption `gorm:"foreignKey:QuestionID" json:"options"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

type QuizOption struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"questionId"`
	Text       string `gorm:"size:500;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (QuizOption) TableName() string {
	return "quiz_options"
}

// SpeakingWord 口语练习单词
type SpeakingWord struct {
	BaseModel
	LevelCode string `gorm:"size:50;not null;index" json:"levelCode"`
	Word      string `gorm:"size:100;not null" json:"word"`
	Phonetic  string `gorm:"size:100" json:"phonetic"`
	Meaning   string `gorm:"size:255" json:"meaning"`
	AudioURL  string `gorm:"size:255" json:"audioUrl"`
}

func (SpeakingWord) TableName() string {
	return "speaking_words"
}

// PracticeItem 下发给客户端的题目/单词
type PracticeItem struct {
	ID           uint         `json:"id"`
	Kind         PracticeKind `json:"kind"`
	LevelCode    string       `json:"levelCode"`
	Prompt       string       `json:"prompt"`
	Phonetic     string       `json:"phonetic,omitempty"`
	Meaning      string       `json:"meaning,omitempty"`
	AudioURL     string       `json:"audioUrl,omitempty"`
	Options      []QuizOption `json:"options,omitempty"`
	IsBookmarked bool         `json:"isBookmarked"`
	BookmarkNote string       `json:"bookmarkNote,omitempty"`
}
