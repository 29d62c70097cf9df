package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	// GetActiveByMockTest возвращает активный пул вопросов теста.
	// Из него старт попытки берет случайную выборку.
	GetActiveByMockTest(mockTestID uint) ([]entity.Question, error)
	CountActiveByMockTest(mockTestID uint) (int64, error)
	Update(question *entity.Question) error
	// Deactivate мягко отключает вопрос (is_active = false).
	// Уже сделанные снимки попыток не трогаются.
	Deactivate(id uint) error
}
