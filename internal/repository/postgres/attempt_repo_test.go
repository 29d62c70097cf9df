package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

func tallySnapshot() []entity.AttemptQuestion {
	return []entity.AttemptQuestion{
		{AttemptID: 1, QuestionID: 10, OrderIndex: 1, Question: entity.Question{ID: 10, CorrectOption: "A"}},
		{AttemptID: 1, QuestionID: 11, OrderIndex: 2, Question: entity.Question{ID: 11, CorrectOption: "B"}},
		{AttemptID: 1, QuestionID: 12, OrderIndex: 3, Question: entity.Question{ID: 12, CorrectOption: "C"}},
		{AttemptID: 1, QuestionID: 13, OrderIndex: 4, Question: entity.Question{ID: 13, CorrectOption: "D"}},
	}
}

func TestCountCorrectAnswers_OnlyMatchingRecordedAnswersScore(t *testing.T) {
	answers := []entity.AttemptAnswer{
		{AttemptID: 1, QuestionID: 10, SelectedOption: "A"}, // верно
		{AttemptID: 1, QuestionID: 11, SelectedOption: "C"}, // неверно
		{AttemptID: 1, QuestionID: 12, SelectedOption: "C"}, // верно
		// вопрос 13 без ответа — кредита нет
	}

	assert.Equal(t, 2, countCorrectAnswers(tallySnapshot(), answers))
}

func TestCountCorrectAnswers_MissingAnswersEarnNothing(t *testing.T) {
	assert.Equal(t, 0, countCorrectAnswers(tallySnapshot(), nil))
}

func TestCountCorrectAnswers_AllCorrect(t *testing.T) {
	answers := []entity.AttemptAnswer{
		{AttemptID: 1, QuestionID: 10, SelectedOption: "A"},
		{AttemptID: 1, QuestionID: 11, SelectedOption: "B"},
		{AttemptID: 1, QuestionID: 12, SelectedOption: "C"},
		{AttemptID: 1, QuestionID: 13, SelectedOption: "D"},
	}

	assert.Equal(t, 4, countCorrectAnswers(tallySnapshot(), answers))
}

func TestCountCorrectAnswers_AnswerOutsideSnapshotIgnored(t *testing.T) {
	// Ответ на вопрос, не вошедший в снимок, не учитывается, даже если
	// его буква совпала бы с чьим-то correct_option
	answers := []entity.AttemptAnswer{
		{AttemptID: 1, QuestionID: 99, SelectedOption: "A"},
	}

	assert.Equal(t, 0, countCorrectAnswers(tallySnapshot(), answers))
}

func TestCountCorrectAnswers_AllWrong(t *testing.T) {
	answers := []entity.AttemptAnswer{
		{AttemptID: 1, QuestionID: 10, SelectedOption: "B"},
		{AttemptID: 1, QuestionID: 11, SelectedOption: "A"},
		{AttemptID: 1, QuestionID: 12, SelectedOption: "D"},
		{AttemptID: 1, QuestionID: 13, SelectedOption: "C"},
	}

	assert.Equal(t, 0, countCorrectAnswers(tallySnapshot(), answers))
}
