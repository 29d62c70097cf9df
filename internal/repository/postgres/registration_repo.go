package postgres

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// RegistrationRepo реализует repository.RegistrationRepository
type RegistrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo создает новый репозиторий регистраций
func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo {
	return &RegistrationRepo{db: db}
}

// CreateGate создает регистрационный гейт для теста
func (r *RegistrationRepo) CreateGate(gate *entity.RegistrationGate) error {
	return r.db.Create(gate).Error
}

// UpdateGate обновляет гейт
func (r *RegistrationRepo) UpdateGate(gate *entity.RegistrationGate) error {
	return r.db.Save(gate).Error
}

// GetGateByMockTest возвращает гейт теста, ErrNotFound — если не настроен
func (r *RegistrationRepo) GetGateByMockTest(mockTestID uint) (*entity.RegistrationGate, error) {
	var gate entity.RegistrationGate
	err := r.db.Where("mock_test_id = ?", mockTestID).First(&gate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &gate, nil
}

// CreateEntry создает запись о регистрации. Повторная регистрация той же
// пары (gate, user) молча игнорируется — существование записи бинарно.
func (r *RegistrationRepo) CreateEntry(entry *entity.RegistrationEntry) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "gate_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(entry).Error
}

// HasEntry проверяет, зарегистрирован ли пользователь на гейт
func (r *RegistrationRepo) HasEntry(gateID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.RegistrationEntry{}).
		Where("gate_id = ? AND user_id = ?", gateID, userID).
		Count(&count).Error
	return count > 0, err
}
