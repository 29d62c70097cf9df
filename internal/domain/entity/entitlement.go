package entity

import (
	"time"
)

// Источники владения продуктом. Покупка и ручная выдача админом
// эквивалентны с точки зрения доступа (union-семантика).
const (
	ProductSourcePurchase   = "purchase"
	ProductSourceAdminGrant = "admin_grant"
)

// Product — продукт каталога, открывающий доступ к платным тестам.
// Каталог и кошелек живут во внешней системе; здесь хранятся только
// факты, необходимые резолверу доступа.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Product) TableName() string {
	return "products"
}

// ProductMockTest связывает продукт с пробным тестом
type ProductMockTest struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_product_mock_test" json:"product_id"`
	MockTestID uint      `gorm:"not null;uniqueIndex:idx_product_mock_test" json:"mock_test_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (ProductMockTest) TableName() string {
	return "product_mock_tests"
}

// UserProduct — факт владения продуктом (покупка или выдача админом)
type UserProduct struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_user_product" json:"product_id"`
	Source    string    `gorm:"size:20;not null;default:'purchase'" json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserProduct) TableName() string {
	return "user_products"
}

// DemoExemption — админский override: тест доступен всем несмотря на
// платный уровень доступа
type DemoExemption struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MockTestID uint      `gorm:"not null;uniqueIndex" json:"mock_test_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (DemoExemption) TableName() string {
	return "demo_exemptions"
}

// LessonAssessment связывает урок курса с пробным тестом, который служит
// его итоговой проверкой
type LessonAssessment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	LessonID   uint      `gorm:"not null;index" json:"lesson_id"`
	MockTestID uint      `gorm:"not null;index" json:"mock_test_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (LessonAssessment) TableName() string {
	return "lesson_assessments"
}

// CourseEnrollment — факт зачисления пользователя на курс
type CourseEnrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_user_course" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
