package service

import (
	"errors"
	"fmt"
)

// ErrNoQuestionsAvailable означает, что у теста нет активных вопросов
// и попытку начать нельзя.
var ErrNoQuestionsAvailable = errors.New("no questions available for this mock test")

// RegistrationRequiredError — структурная ошибка «нужна регистрация».
// Клиенту нужен redirect на форму регистрации, поэтому отдельный тип,
// а не общий Forbidden.
type RegistrationRequiredError struct {
	MockTestID   uint
	RedirectPath string
}

func (e *RegistrationRequiredError) Error() string {
	return fmt.Sprintf("registration is required before attempting mock test #%d", e.MockTestID)
}

// AttemptsExhaustedError — структурная ошибка «бесплатные попытки кончились».
// Несет CTA на покупку: клиент показывает витрину, а не форму регистрации.
type AttemptsExhaustedError struct {
	MockTestID       uint
	FreeAttemptLimit int
	UsedAttempts     int
	PurchasePath     string
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("free attempt limit (%d) exhausted for mock test #%d", e.FreeAttemptLimit, e.MockTestID)
}
