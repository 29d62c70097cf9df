package entity

import (
	"time"
)

// Константы статусов попытки
const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusSubmitted  = "submitted"
)

// SecondsPerQuestion — лимит времени на один вопрос
const SecondsPerQuestion = 60

// Attempt представляет одну попытку прохождения пробного теста.
// Статус монотонный: in_progress → submitted, обратного перехода нет.
// TotalQuestions фиксируется при создании и больше не меняется.
type Attempt struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index:idx_attempt_user_test" json:"user_id"`
	MockTestID     uint       `gorm:"not null;index:idx_attempt_user_test" json:"mock_test_id"`
	TotalQuestions int        `gorm:"not null" json:"total_questions"`
	Status         string     `gorm:"size:20;not null;default:'in_progress';index" json:"status"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	CorrectCount   *int       `json:"correct_count,omitempty"`
	ScorePercent   *float64   `json:"score_percent,omitempty"`
	Remark         *string    `gorm:"size:50" json:"remark,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Attempt) TableName() string {
	return "attempts"
}

// IsSubmitted проверяет, завершена ли попытка
func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptStatusSubmitted
}

// AllottedSeconds возвращает отведенное на попытку время в секундах
func (a *Attempt) AllottedSeconds() int {
	return a.TotalQuestions * SecondsPerQuestion
}

// RemainingSeconds возвращает оставшееся время попытки (0, если время вышло)
func (a *Attempt) RemainingSeconds(now time.Time) int {
	if a.Status != AttemptStatusInProgress {
		return 0
	}
	remaining := a.AllottedSeconds() - int(now.Sub(a.StartedAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsTimedOut проверяет, истекло ли отведенное время.
// allotted <= 0 считается истекшим сразу: такая попытка не должна возникать
// через нормальный старт (NoContent отсекает раньше), но испорченная запись
// не должна висеть открытой вечно.
func (a *Attempt) IsTimedOut(now time.Time) bool {
	if a.Status != AttemptStatusInProgress {
		return false
	}
	allotted := a.AllottedSeconds()
	if allotted <= 0 {
		return true
	}
	return now.Sub(a.StartedAt) >= time.Duration(allotted)*time.Second
}
