package repository

import (
	"context"
	"errors"
	"vocab_backend/internal/model"
	"vocab_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository 题库（选择题、口语单词）读取
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func catalogModel(kind model.PracticeKind) (interface{}, error) {
	switch kind {
	case model.KindQuiz:
		return &model.QuizQuestion{}, nil
	case model.KindSpeaking:
		return &model.SpeakingWord{}, nil
	default:
		return nil, util.ErrInvalidKind
	}
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).Order("id")
}

func (r *CatalogRepository) CountItems(ctx context.Context, kind model.PracticeKind, levelCode string) (int64, error) {
	m, err := catalogModel(kind)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.DB.WithContext(ctx).Model(m).Where("level_code = ?", levelCode).Count(&n).Error
	return n, err
}

// CandidateIDs 返回该等级下除 exclude 外的全部条目 ID
func (r *CatalogRepository) CandidateIDs(ctx context.Context, kind model.PracticeKind, levelCode string, exclude []uint) ([]uint, error) {
	m, err := catalogModel(kind)
	if err != nil {
		return nil, err
	}
	q := r.DB.WithContext(ctx).Model(m).Where("level_code = ?", levelCode)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var ids []uint
	err = q.Order("id").Pluck("id", &ids).Error
	return ids, err
}

// LoadItems 按 ids 的顺序返回条目，不存在的 ID 被跳过
func (r *CatalogRepository) LoadItems(ctx context.Context, kind model.PracticeKind, ids []uint) ([]model.PracticeItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[uint]model.PracticeItem, len(ids))

	switch kind {
	case model.KindQuiz:
		var questions []model.QuizQuestion
		err := r.DB.WithContext(ctx).
			Preload("Options", orderedOptions).
			Where("id IN ?", ids).
			Find(&questions).Error
		if err != nil {
			return nil, err
		}
		for _, q := range questions {
			byID[q.ID] = questionItem(q)
		}
	case model.KindSpeaking:
		var words []model.SpeakingWord
		if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&words).Error; err != nil {
			return nil, err
		}
		for _, w := range words {
			byID[w.ID] = wordItem(w)
		}
	default:
		return nil, util.ErrInvalidKind
	}

	items := make([]model.PracticeItem, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// FindItem 条目必须属于给定等级
func (r *CatalogRepository) FindItem(ctx context.Context, kind model.PracticeKind, levelCode string, id uint) (*model.PracticeItem, error) {
	db := r.DB.WithContext(ctx).Where("id = ? AND level_code = ?", id, levelCode)

	var item model.PracticeItem
	var err error
	switch kind {
	case model.KindQuiz:
		var q model.QuizQuestion
		err = db.Preload("Options", orderedOptions).First(&q).Error
		item = questionItem(q)
	case model.KindSpeaking:
		var w model.SpeakingWord
		err = db.First(&w).Error
		item = wordItem(w)
	default:
		return nil, util.ErrInvalidKind
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOption 选项必须属于该题目
func (r *CatalogRepository) FindOption(ctx context.Context, questionID, optionID uint) (*model.QuizOption, error) {
	var opt model.QuizOption
	err := r.DB.WithContext(ctx).Where("id = ? AND question_id = ?", optionID, questionID).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidAnswer
	}
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

// Exists 不限等级
func (r *CatalogRepository) Exists(ctx context.Context, kind model.PracticeKind, id uint) (bool, error) {
	m, err := catalogModel(kind)
	if err != nil {
		return false, err
	}
	var n int64
	err = r.DB.WithContext(ctx).Model(m).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *CatalogRepository) CreateQuestion(ctx context.Context, q *model.QuizQuestion) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *CatalogRepository) CreateWord(ctx context.Context, w *model.SpeakingWord) error {
	return r.DB.WithContext(ctx).Create(w).Error
}

func questionItem(q model.QuizQuestion) model.PracticeItem {
	return model.PracticeItem{
		ID:        q.ID,
		Kind:      model.KindQuiz,
		LevelCode: q.LevelCode,
		Prompt:    q.Prompt,
		Options:   q.Options,
	}
}

func wordItem(w model.SpeakingWord) model.PracticeItem {
	return model.PracticeItem{
		ID:        w.ID,
		Kind:      model.KindSpeaking,
		LevelCode: w.LevelCode,
		Prompt:    w.Word,
		Phonetic:  w.Phonetic,
		Meaning:   w.Meaning,
		AudioURL:  w.AudioURL,
	}
}
