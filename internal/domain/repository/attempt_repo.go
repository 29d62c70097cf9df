package repository

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// ScoreFunc превращает (correctCount, totalQuestions) в процент и текстовую
// оценку. Передается в FinalizeAttempt, чтобы подсчет правильных ответов и
// перевод статуса выполнялись в одной транзакции без импорта слоя сервисов.
type ScoreFunc func(correctCount, totalQuestions int) (scorePercent float64, remark string)

// AttemptRepository определяет методы для работы с попытками
type AttemptRepository interface {
	// CreateWithQuestions создает попытку и снимок ее вопросов
	// (order_index = 1..N в порядке questionIDs) одной транзакцией.
	// При нарушении partial unique index возвращает ErrDuplicateActiveAttempt.
	CreateWithQuestions(attempt *entity.Attempt, questionIDs []uint) error
	GetByID(id uint) (*entity.Attempt, error)
	// GetInProgress возвращает открытую попытку пары (user, mock_test),
	// apperrors.ErrNotFound — если такой нет.
	GetInProgress(userID, mockTestID uint) (*entity.Attempt, error)
	CountByUserAndTest(userID, mockTestID uint) (int64, error)
	// GetQuestions возвращает снимок вопросов попытки c предзагруженными
	// Question, упорядоченный по order_index.
	GetQuestions(attemptID uint) ([]entity.AttemptQuestion, error)
	HasQuestion(attemptID, questionID uint) (bool, error)
	// UpsertAnswer записывает ответ (last-write-wins по (attempt, question))
	UpsertAnswer(answer *entity.AttemptAnswer) error
	GetAnswers(attemptID uint) ([]entity.AttemptAnswer, error)
	// FinalizeAttempt в одной транзакции подсчитывает правильные ответы по
	// снимку, применяет score и переводит статус в submitted. Ровно один
	// победитель: конкурирующий вызов получает ErrAttemptAlreadySubmitted.
	FinalizeAttempt(attemptID uint, submittedAt time.Time, score ScoreFunc) (*entity.Attempt, error)
	ListByUser(userID uint, limit, offset int) ([]entity.Attempt, int64, error)
	// ListSubmittedByTest возвращает все завершенные попытки теста (для экспорта)
	ListSubmittedByTest(mockTestID uint) ([]entity.Attempt, error)
}
