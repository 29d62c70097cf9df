package entity

import (
	"time"
)

// RegistrationGate — необязательное требование одноразовой регистрации
// перед стартом попыток плюс квота бесплатных попыток. Не более одного
// гейта на пробный тест.
type RegistrationGate struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	MockTestID       uint      `gorm:"not null;uniqueIndex" json:"mock_test_id"`
	FreeAttemptLimit int       `gorm:"not null;default:0" json:"free_attempt_limit"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (RegistrationGate) TableName() string {
	return "registration_gates"
}

// RegistrationEntry — факт регистрации пользователя на гейт.
// Существование записи бинарно, своего state machine у нее нет.
type RegistrationEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GateID    uint      `gorm:"not null;uniqueIndex:idx_gate_user" json:"gate_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_gate_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (RegistrationEntry) TableName() string {
	return "registration_entries"
}
