package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// CreateBatch создает несколько вопросов за один запрос
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.CreateInBatches(questions, 100).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetActiveByMockTest возвращает активный пул вопросов теста
func (r *QuestionRepo) GetActiveByMockTest(mockTestID uint) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.
		Where("mock_test_id = ? AND is_active = ?", mockTestID, true).
		Order("id").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// CountActiveByMockTest возвращает размер активного пула
func (r *QuestionRepo) CountActiveByMockTest(mockTestID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).
		Where("mock_test_id = ? AND is_active = ?", mockTestID, true).
		Count(&count).Error
	return count, err
}

// Update обновляет вопрос
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

// Deactivate мягко отключает вопрос. Физическое удаление запрещено:
// на вопрос могут ссылаться снимки попыток.
func (r *QuestionRepo) Deactivate(id uint) error {
	result := r.db.Model(&entity.Question{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
