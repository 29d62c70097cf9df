package service

import (
	"fmt"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// AccessDecision — результат проверки доступа к пробному тесту
type AccessDecision struct {
	Allowed bool
	Tier    string
	// Reason — пользовательское сообщение при отказе; формулировка различает
	// тест урока и обычный пробный тест, но исход одинаков (403)
	Reason string
}

// AccessService решает, разрешен ли пользователю доступ к тесту.
// Право доступа — объединение трех независимых механизмов гранта:
// покупка продукта, ручная выдача админом, путь через урок курса.
// Решение пересчитывается на каждый вызов: права могли измениться между
// запросами, кешировать их нельзя.
type AccessService struct {
	mockTestRepo    repository.MockTestRepository
	entitlementRepo repository.EntitlementRepository
}

// NewAccessService создает новый резолвер доступа
func NewAccessService(
	mockTestRepo repository.MockTestRepository,
	entitlementRepo repository.EntitlementRepository,
) *AccessService {
	return &AccessService{
		mockTestRepo:    mockTestRepo,
		entitlementRepo: entitlementRepo,
	}
}

// ResolveAccess возвращает решение о доступе пользователя к тесту
func (s *AccessService) ResolveAccess(userID, mockTestID uint) (*AccessDecision, error) {
	test, err := s.mockTestRepo.GetByID(mockTestID)
	if err != nil {
		return nil, err
	}

	tier := test.CurrentTier()
	if tier == entity.TierDemo {
		return &AccessDecision{Allowed: true, Tier: tier}, nil
	}

	// Админский override: тест открыт всем несмотря на платный уровень
	exempted, err := s.entitlementRepo.IsDemoExempted(mockTestID)
	if err != nil {
		return nil, err
	}
	if exempted {
		return &AccessDecision{Allowed: true, Tier: tier}, nil
	}

	hasProduct, err := s.entitlementRepo.HasProductAccess(userID, mockTestID)
	if err != nil {
		return nil, err
	}
	if hasProduct {
		return &AccessDecision{Allowed: true, Tier: tier}, nil
	}

	if tier == entity.TierPaidViaLesson {
		hasLesson, err := s.entitlementRepo.HasLessonPathAccess(userID, mockTestID)
		if err != nil {
			return nil, err
		}
		if hasLesson {
			return &AccessDecision{Allowed: true, Tier: tier}, nil
		}
		return &AccessDecision{
			Allowed: false,
			Tier:    tier,
			Reason:  fmt.Sprintf("lesson test #%d requires enrollment in its course or a linked product", mockTestID),
		}, nil
	}

	return &AccessDecision{
		Allowed: false,
		Tier:    tier,
		Reason:  fmt.Sprintf("mock test #%d requires a purchased or assigned product", mockTestID),
	}, nil
}

// HasPaidEntitlement сообщает, есть ли у пользователя платное право на тест
// (продукт или путь через урок). Регистрационный гейт по нему пропускает
// мимо счетчика бесплатных попыток.
func (s *AccessService) HasPaidEntitlement(userID, mockTestID uint) (bool, error) {
	hasProduct, err := s.entitlementRepo.HasProductAccess(userID, mockTestID)
	if err != nil {
		return false, err
	}
	if hasProduct {
		return true, nil
	}
	return s.entitlementRepo.HasLessonPathAccess(userID, mockTestID)
}
