package repository

import (
	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// RegistrationRepository определяет методы для работы с регистрационными гейтами
type RegistrationRepository interface {
	CreateGate(gate *entity.RegistrationGate) error
	UpdateGate(gate *entity.RegistrationGate) error
	// GetGateByMockTest возвращает apperrors.ErrNotFound, если гейт не настроен
	GetGateByMockTest(mockTestID uint) (*entity.RegistrationGate, error)
	// CreateEntry идемпотентен: повторная регистрация того же пользователя
	// на тот же гейт не является ошибкой
	CreateEntry(entry *entity.RegistrationEntry) error
	HasEntry(gateID, userID uint) (bool, error)
}
