package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// EntitlementRepo реализует repository.EntitlementRepository.
// Таблицы фактов (продукты, зачисления) наполняются внешними подсистемами;
// здесь только чтение.
type EntitlementRepo struct {
	db *gorm.DB
}

// NewEntitlementRepo создает новый репозиторий фактов доступа
func NewEntitlementRepo(db *gorm.DB) *EntitlementRepo {
	return &EntitlementRepo{db: db}
}

// HasProductAccess: владеет ли пользователь продуктом, привязанным к тесту.
// Покупка и ручная выдача админом не различаются.
func (r *EntitlementRepo) HasProductAccess(userID, mockTestID uint) (bool, error) {
	var count int64
	err := r.db.Table("user_products AS up").
		Joins("JOIN product_mock_tests pmt ON pmt.product_id = up.product_id").
		Where("up.user_id = ? AND pmt.mock_test_id = ?", userID, mockTestID).
		Count(&count).Error
	return count > 0, err
}

// IsDemoExempted: есть ли тест в админском списке исключений
func (r *EntitlementRepo) IsDemoExempted(mockTestID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.DemoExemption{}).
		Where("mock_test_id = ?", mockTestID).
		Count(&count).Error
	return count > 0, err
}

// HasLessonPathAccess: зачислен ли пользователь на курс, где тест служит
// итоговой проверкой урока
func (r *EntitlementRepo) HasLessonPathAccess(userID, mockTestID uint) (bool, error) {
	var count int64
	err := r.db.Table("course_enrollments AS ce").
		Joins("JOIN lesson_assessments la ON la.course_id = ce.course_id").
		Where("ce.user_id = ? AND la.mock_test_id = ?", userID, mockTestID).
		Count(&count).Error
	return count > 0, err
}
