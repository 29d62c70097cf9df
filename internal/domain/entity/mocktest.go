package entity

import (
	"time"
)

// Константы уровней доступа к пробному тесту.
// Уровень хранится как текущее значение в колонке access_tier,
// история изменений пишется в access_tier_logs.
const (
	TierDemo          = "demo"
	TierPaidGeneral   = "paid_general"
	TierPaidViaLesson = "paid_via_lesson"
)

// MockTest представляет пробный тест
type MockTest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	ExamType     string     `gorm:"size:20;not null;index" json:"exam_type"`
	Subject      string     `gorm:"size:30;not null;index" json:"subject"`
	StreamChoice *string    `gorm:"size:30" json:"stream_choice,omitempty"`
	LanguageMode *string    `gorm:"size:20" json:"language_mode,omitempty"`
	AccessTier   string     `gorm:"size:20;not null;default:'demo'" json:"access_tier"`
	IsActive     bool       `gorm:"not null;default:true;index" json:"is_active"`
	AuthorID     uint       `gorm:"not null;index" json:"author_id"`
	Questions    []Question `gorm:"foreignKey:MockTestID" json:"questions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (MockTest) TableName() string {
	return "mock_tests"
}

// CurrentTier возвращает текущий уровень доступа, по умолчанию demo
func (m *MockTest) CurrentTier() string {
	if m.AccessTier == "" {
		return TierDemo
	}
	return m.AccessTier
}

// IsDemo проверяет, является ли тест бесплатным
func (m *MockTest) IsDemo() bool {
	return m.CurrentTier() == TierDemo
}

// IsValidTier проверяет, является ли строка допустимым уровнем доступа
func IsValidTier(tier string) bool {
	switch tier {
	case TierDemo, TierPaidGeneral, TierPaidViaLesson:
		return true
	}
	return false
}

// AccessTierLog хранит историю смен уровня доступа (append-only, для аудита).
// Текущее значение всегда читается из mock_tests.access_tier, не отсюда.
type AccessTierLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	MockTestID uint      `gorm:"not null;index" json:"mock_test_id"`
	Tier       string    `gorm:"size:20;not null" json:"tier"`
	ChangedBy  uint      `gorm:"not null" json:"changed_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AccessTierLog) TableName() string {
	return "access_tier_logs"
}
