package entity

import (
	"time"
)

// AttemptQuestion фиксирует, какие вопросы и в каком порядке вошли в попытку.
// Снимок делается один раз при создании попытки и не меняется, даже если
// пул вопросов теста позже редактируется админом.
type AttemptQuestion struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AttemptID  uint      `gorm:"not null;uniqueIndex:idx_attempt_question;uniqueIndex:idx_attempt_order" json:"attempt_id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_attempt_question" json:"question_id"`
	OrderIndex int       `gorm:"not null;uniqueIndex:idx_attempt_order" json:"order_index"` // 1-based, без пропусков
	Question   Question  `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AttemptQuestion) TableName() string {
	return "attempt_questions"
}
