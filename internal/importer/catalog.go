package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"vocab_backend/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	QuizSheet     = "quiz"
	SpeakingSheet = "speaking"
)

// CatalogWriter 写入题库
type CatalogWriter interface {
	CreateQuestion(ctx context.Context, q *model.QuizQuestion) error
	CreateWord(ctx context.Context, w *model.SpeakingWord) error
}

type Result struct {
	Questions int
	Words     int
	Skipped   int
	Errors    []string
}

// ParseQuestions quiz 表：等级 | 题干 | 解析 | 正确选项序号(从1开始) | 选项...
// 第一行为表头
func ParseQuestions(f *excelize.File) ([]model.QuizQuestion, []string, error) {
	rows, err := f.GetRows(QuizSheet)
	if err != nil {
		return nil, nil, err
	}

	var out []model.QuizQuestion
	var errs []string
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		line := i + 1
		if len(row) < 6 {
			errs = append(errs, fmt.Sprintf("%s row %d: need level, prompt, explanation, answer and at least two options", QuizSheet, line))
			continue
		}

		level, prompt := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
		if level == "" || prompt == "" {
			errs = append(errs, fmt.Sprintf("%s row %d: level and prompt are required", QuizSheet, line))
			continue
		}

		var options []model.QuizOption
		for _, text := range row[4:] {
			if text = strings.TrimSpace(text); text != "" {
				options = append(options, model.QuizOption{Text: text, Order: len(options) + 1})
			}
		}
		answer, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil || answer < 1 || answer > len(options) {
			errs = append(errs, fmt.Sprintf("%s row %d: answer %q out of range 1..%d", QuizSheet, line, row[3], len(options)))
			continue
		}
		options[answer-1].IsCorrect = true

		out = append(out, model.QuizQuestion{
			LevelCode:   level,
			Prompt:      prompt,
			Explanation: strings.TrimSpace(row[2]),
			Order:       len(out) + 1,
			Options:     options,
		})
	}
	return out, errs, nil
}

// ParseWords speaking 表：等级 | 单词 | 音标 | 释义 | 示范音频
func ParseWords(f *excelize.File) ([]model.SpeakingWord, []string, error) {
	rows, err := f.GetRows(SpeakingSheet)
	if err != nil {
		return nil, nil, err
	}

	var out []model.SpeakingWord
	var errs []string
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		level, word := cell(row, 0), cell(row, 1)
		if level == "" || word == "" {
			errs = append(errs, fmt.Sprintf("%s row %d: level and word are required", SpeakingSheet, i+1))
			continue
		}
		out = append(out, model.SpeakingWord{
			LevelCode: level,
			Word:      word,
			Phonetic:  cell(row, 2),
			Meaning:   cell(row, 3),
			AudioURL:  cell(row, 4),
		})
	}
	return out, errs, nil
}

// ImportWorkbook 缺少的工作表直接跳过
func ImportWorkbook(ctx context.Context, f *excelize.File, w CatalogWriter) (*Result, error) {
	res := &Result{}
	sheets := map[string]bool{}
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}

	if sheets[QuizSheet] {
		questions, errs, err := ParseQuestions(f)
		if err != nil {
			return nil, err
		}
		res.Errors = append(res.Errors, errs...)
		res.Skipped += len(errs)
		for i := range questions {
			if err := w.CreateQuestion(ctx, &questions[i]); err != nil {
				return res, fmt.Errorf("insert question %q: %w", questions[i].Prompt, err)
			}
			res.Questions++
		}
	}

	if sheets[SpeakingSheet] {
		words, errs, err := ParseWords(f)
		if err != nil {
			return nil, err
		}
		res.Errors = append(res.Errors, errs...)
		res.Skipped += len(errs)
		for i := range words {
			if err := w.CreateWord(ctx, &words[i]); err != nil {
				return res, fmt.Errorf("insert word %q: %w", words[i].Word, err)
			}
			res.Words++
		}
	}

	return res, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
