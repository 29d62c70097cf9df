package entity

import (
	"time"
)

// AttemptAnswer представляет ответ на вопрос внутри попытки.
// Не более одной строки на (attempt_id, question_id); повторная запись
// перезаписывает selected_option и answered_at (last-write-wins, без истории).
type AttemptAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AttemptID      uint      `gorm:"not null;uniqueIndex:idx_attempt_answer" json:"attempt_id"`
	QuestionID     uint      `gorm:"not null;uniqueIndex:idx_attempt_answer" json:"question_id"`
	SelectedOption string    `gorm:"size:1;not null" json:"selected_option"`
	AnsweredAt     time.Time `gorm:"not null" json:"answered_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
