package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// MockTestRepo реализует repository.MockTestRepository
type MockTestRepo struct {
	db *gorm.DB
}

// NewMockTestRepo создает новый репозиторий пробных тестов
func NewMockTestRepo(db *gorm.DB) *MockTestRepo {
	return &MockTestRepo{db: db}
}

// Create создает новый пробный тест
func (r *MockTestRepo) Create(test *entity.MockTest) error {
	return r.db.Create(test).Error
}

// GetByID возвращает пробный тест по ID
func (r *MockTestRepo) GetByID(id uint) (*entity.MockTest, error) {
	var test entity.MockTest
	err := r.db.First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// GetWithQuestions возвращает тест вместе с вопросами
func (r *MockTestRepo) GetWithQuestions(id uint) (*entity.MockTest, error) {
	var test entity.MockTest
	err := r.db.Preload("Questions").First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &test, nil
}

// Update обновляет информацию о тесте
func (r *MockTestRepo) Update(test *entity.MockTest) error {
	return r.db.Save(test).Error
}

// UpdateAccessTier обновляет текущий уровень доступа и дописывает строку
// аудита одной транзакцией
func (r *MockTestRepo) UpdateAccessTier(mockTestID uint, tier string, changedBy uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.MockTest{}).
			Where("id = ?", mockTestID).
			Update("access_tier", tier)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return tx.Create(&entity.AccessTierLog{
			MockTestID: mockTestID,
			Tier:       tier,
			ChangedBy:  changedBy,
		}).Error
	})
}

// ListWithFilters возвращает список тестов с фильтрами и total count
func (r *MockTestRepo) ListWithFilters(filters repository.MockTestFilters, limit, offset int) ([]entity.MockTest, int64, error) {
	var tests []entity.MockTest
	var total int64

	query := r.db.Model(&entity.MockTest{})

	if filters.ExamType != "" {
		query = query.Where("exam_type = ?", filters.ExamType)
	}
	if filters.Subject != "" {
		query = query.Where("subject = ?", filters.Subject)
	}
	if filters.StreamChoice != "" {
		// Тесты без потока подходят под любой выбранный поток
		query = query.Where("stream_choice IS NULL OR stream_choice = ?", filters.StreamChoice)
	}
	if filters.LanguageMode != "" {
		query = query.Where("language_mode IS NULL OR language_mode = ?", filters.LanguageMode)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("id DESC").Find(&tests).Error
	if err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

// Deactivate мягко отключает тест
func (r *MockTestRepo) Deactivate(id uint) error {
	result := r.db.Model(&entity.MockTest{}).
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
