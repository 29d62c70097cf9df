package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// CreateWithQuestions создает попытку и снимок ее вопросов одной транзакцией.
// Partial unique index idx_attempt_open_unique гарантирует не более
// одной открытой попытки на пару (user, mock_test):
// - 23505 (unique violation) → ErrDuplicateActiveAttempt
// - Другая DB ошибка → возвращается как есть
func (r *AttemptRepo) CreateWithQuestions(attempt *entity.Attempt, questionIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: user #%d, mock test #%d", repository.ErrDuplicateActiveAttempt, attempt.UserID, attempt.MockTestID)
			}
			return err
		}

		snapshot := make([]entity.AttemptQuestion, 0, len(questionIDs))
		for i, questionID := range questionIDs {
			snapshot = append(snapshot, entity.AttemptQuestion{
				AttemptID:  attempt.ID,
				QuestionID: questionID,
				OrderIndex: i + 1, // 1-based, без пропусков
			})
		}
		return tx.CreateInBatches(snapshot, 100).Error
	})
}

// GetByID возвращает попытку по ID
func (r *AttemptRepo) GetByID(id uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// GetInProgress возвращает открытую попытку пары (user, mock_test)
func (r *AttemptRepo) GetInProgress(userID, mockTestID uint) (*entity.Attempt, error) {
	var attempt entity.Attempt
	err := r.db.
		Where("user_id = ? AND mock_test_id = ? AND status = ?", userID, mockTestID, entity.AttemptStatusInProgress).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// CountByUserAndTest возвращает число всех попыток пары (user, mock_test).
// Используется счетчиком бесплатных попыток регистрационного гейта.
func (r *AttemptRepo) CountByUserAndTest(userID, mockTestID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Attempt{}).
		Where("user_id = ? AND mock_test_id = ?", userID, mockTestID).
		Count(&count).Error
	return count, err
}

// GetQuestions возвращает снимок вопросов попытки в зафиксированном порядке
func (r *AttemptRepo) GetQuestions(attemptID uint) ([]entity.AttemptQuestion, error) {
	var questions []entity.AttemptQuestion
	err := r.db.
		Preload("Question").
		Where("attempt_id = ?", attemptID).
		Order("order_index").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// HasQuestion проверяет, входит ли вопрос в снимок попытки
func (r *AttemptRepo) HasQuestion(attemptID, questionID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.AttemptQuestion{}).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		Count(&count).Error
	return count > 0, err
}

// UpsertAnswer записывает ответ: повторная запись по той же паре
// (attempt, question) перезаписывает selected_option и answered_at
func (r *AttemptRepo) UpsertAnswer(answer *entity.AttemptAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option", "answered_at"}),
	}).Create(answer).Error
}

// GetAnswers возвращает все ответы попытки
func (r *AttemptRepo) GetAnswers(attemptID uint) ([]entity.AttemptAnswer, error) {
	var answers []entity.AttemptAnswer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// countCorrectAnswers подсчитывает правильные ответы по снимку попытки.
// Кредит дается только за записанный ответ, совпавший с correct_option
// вопроса из снимка: отсутствующий ответ очков не приносит, ответ на
// вопрос вне снимка игнорируется.
func countCorrectAnswers(snapshot []entity.AttemptQuestion, answers []entity.AttemptAnswer) int {
	selected := make(map[uint]string, len(answers))
	for _, a := range answers {
		selected[a.QuestionID] = a.SelectedOption
	}

	correct := 0
	for _, aq := range snapshot {
		if option, ok := selected[aq.QuestionID]; ok && aq.Question.IsCorrect(option) {
			correct++
		}
	}
	return correct
}

// FinalizeAttempt подсчитывает правильные ответы по снимку и переводит
// попытку в submitted одной транзакцией. Guarded UPDATE по статусу
// гарантирует ровно одного победителя при конкурирующих сабмитах:
// - RowsAffected == 0 → ErrAttemptAlreadySubmitted
func (r *AttemptRepo) FinalizeAttempt(attemptID uint, submittedAt time.Time, score repository.ScoreFunc) (*entity.Attempt, error) {
	var finalized *entity.Attempt

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var attempt entity.Attempt
		if err := tx.First(&attempt, attemptID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if attempt.Status != entity.AttemptStatusInProgress {
			return repository.ErrAttemptAlreadySubmitted
		}

		var snapshot []entity.AttemptQuestion
		if err := tx.Preload("Question").
			Where("attempt_id = ?", attemptID).
			Find(&snapshot).Error; err != nil {
			return err
		}
		var answers []entity.AttemptAnswer
		if err := tx.Where("attempt_id = ?", attemptID).Find(&answers).Error; err != nil {
			return err
		}

		correctCount := countCorrectAnswers(snapshot, answers)
		scorePercent, remark := score(correctCount, attempt.TotalQuestions)

		result := tx.Model(&entity.Attempt{}).
			Where("id = ? AND status = ?", attemptID, entity.AttemptStatusInProgress).
			Updates(map[string]interface{}{
				"status":        entity.AttemptStatusSubmitted,
				"submitted_at":  submittedAt,
				"correct_count": correctCount,
				"score_percent": scorePercent,
				"remark":        remark,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return repository.ErrAttemptAlreadySubmitted
		}

		attempt.Status = entity.AttemptStatusSubmitted
		attempt.SubmittedAt = &submittedAt
		attempt.CorrectCount = &correctCount
		attempt.ScorePercent = &scorePercent
		attempt.Remark = &remark
		finalized = &attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finalized, nil
}

// ListByUser возвращает историю попыток пользователя с пагинацией
func (r *AttemptRepo) ListByUser(userID uint, limit, offset int) ([]entity.Attempt, int64, error) {
	var attempts []entity.Attempt
	var total int64

	query := r.db.Model(&entity.Attempt{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("started_at DESC").Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

// ListSubmittedByTest возвращает все завершенные попытки теста для экспорта
func (r *AttemptRepo) ListSubmittedByTest(mockTestID uint) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.
		Where("mock_test_id = ? AND status = ?", mockTestID, entity.AttemptStatusSubmitted).
		Order("score_percent DESC, submitted_at").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
