package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	// SetNX устанавливает значение, только если ключ не существует
	// (используется как короткая распределенная блокировка)
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
