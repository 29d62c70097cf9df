package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// MockTestFilters определяет фильтры для поиска пробных тестов
type MockTestFilters struct {
	ExamType     string // Тип экзамена (SEE, NEB)
	Subject      string // Предмет
	StreamChoice string // Поток (опционально)
	LanguageMode string // Языковой режим (опционально)
	ActiveOnly   bool   // Только активные тесты
}

// MockTestRepository определяет методы для работы с пробными тестами
type MockTestRepository interface {
	Create(test *entity.MockTest) error
	GetByID(id uint) (*entity.MockTest, error)
	GetWithQuestions(id uint) (*entity.MockTest, error)
	Update(test *entity.MockTest) error
	// UpdateAccessTier обновляет текущий уровень доступа и атомарно
	// дописывает строку аудита в access_tier_logs
	UpdateAccessTier(mockTestID uint, tier string, changedBy uint) error
	ListWithFilters(filters MockTestFilters, limit, offset int) ([]entity.MockTest, int64, error)
	Deactivate(id uint) error
}
