package importer

import (
	"context"
	"errors"
	"testing"
	"vocab_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memWriter struct {
	questions []model.QuizQuestion
	words     []model.SpeakingWord
	failOn    string
}

func (w *memWriter) CreateQuestion(ctx context.Context, q *model.QuizQuestion) error {
	if q.Prompt == w.failOn {
		return errors.New("duplicate")
	}
	w.questions = append(w.questions, *q)
	return nil
}

func (w *memWriter) CreateWord(ctx context.Context, word *model.SpeakingWord) error {
	w.words = append(w.words, *word)
	return nil
}

func writeRows(t *testing.T, f *excelize.File, sheet string, rows [][]interface{}) {
	t.Helper()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, axis, &row))
	}
}

func workbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	writeRows(t, f, QuizSheet, [][]interface{}{
		{"level", "prompt", "explanation", "answer", "option1", "option2", "option3"},
		{"A1", "apple", "a fruit", "2", "苹果树", "苹果", "梨"},
		{"A1", "dog", "", "1", "狗", "猫"},
		{"A1", "too few", "", "1", "only"},
		{"A1", "bad answer", "", "5", "x", "y"},
		{},
		{"", "no level", "", "1", "x", "y"},
	})
	writeRows(t, f, SpeakingSheet, [][]interface{}{
		{"level", "word", "phonetic", "meaning", "audio"},
		{"A1", "hello", "/həˈləʊ/", "你好"},
		{"A2", "", "", ""},
		{"A2", "thank you", "", "谢谢", "https://cdn.example.com/thanks.mp3"},
	})
	return f
}

func TestParseQuestions(t *testing.T) {
	qs, errs, err := ParseQuestions(workbook(t))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Len(t, errs, 3)

	apple := qs[0]
	assert.Equal(t, "A1", apple.LevelCode)
	assert.Equal(t, "a fruit", apple.Explanation)
	require.Len(t, apple.Options, 3)
	assert.False(t, apple.Options[0].IsCorrect)
	assert.True(t, apple.Options[1].IsCorrect)
	assert.Equal(t, 2, apple.Options[1].Order)

	assert.Equal(t, 2, qs[1].Order)
	assert.True(t, qs[1].Options[0].IsCorrect)
}

func TestParseWords(t *testing.T) {
	words, errs, err := ParseWords(workbook(t))
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Len(t, errs, 1)
	assert.Equal(t, "你好", words[0].Meaning)
	assert.Empty(t, words[0].AudioURL)
	assert.Equal(t, "https://cdn.example.com/thanks.mp3", words[1].AudioURL)
}

func TestImportWorkbook(t *testing.T) {
	w := &memWriter{}
	res, err := ImportWorkbook(context.Background(), workbook(t), w)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Questions)
	assert.Equal(t, 2, res.Words)
	assert.Equal(t, 4, res.Skipped)
	assert.Len(t, w.questions, 2)
	assert.Len(t, w.words, 2)
}

func TestImportWorkbookMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	writeRows(t, f, SpeakingSheet, [][]interface{}{
		{"level", "word"},
		{"B1", "journey"},
	})

	w := &memWriter{}
	res, err := ImportWorkbook(context.Background(), f, w)
	require.NoError(t, err)
	assert.Zero(t, res.Questions)
	assert.Equal(t, 1, res.Words)
}

func TestImportWorkbookWriteError(t *testing.T) {
	w := &memWriter{failOn: "dog"}
	res, err := ImportWorkbook(context.Background(), workbook(t), w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dog")
	assert.Equal(t, 1, res.Questions)
}
