package entity

import (
	"time"
)

// Символы вариантов ответа
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// Question представляет вопрос пробного теста.
// Вопросы не удаляются физически после того, как попали хотя бы в одну
// попытку — вместо этого выставляется is_active = false.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MockTestID    uint      `gorm:"not null;index" json:"mock_test_id"`
	Text          string    `gorm:"type:text;not null" json:"text"`
	OptionA       string    `gorm:"size:500;not null" json:"option_a"`
	OptionB       string    `gorm:"size:500;not null" json:"option_b"`
	OptionC       string    `gorm:"size:500;not null" json:"option_c"`
	OptionD       string    `gorm:"size:500;not null" json:"option_d"`
	CorrectOption string    `gorm:"size:1;not null" json:"-"` // Скрыто от клиента до сабмита
	Explanation   *string   `gorm:"type:text" json:"explanation,omitempty"`
	Section       *string   `gorm:"size:100" json:"section,omitempty"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption string) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, является ли строка допустимым символом варианта
func IsValidOption(option string) bool {
	switch option {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}
