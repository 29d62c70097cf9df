package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// RegistrationService управляет регистрационными гейтами.
// Сам гейт — не state machine: существование записи о регистрации бинарно,
// а квота бесплатных попыток проверяется внутри старта попытки.
type RegistrationService struct {
	registrationRepo repository.RegistrationRepository
	mockTestRepo     repository.MockTestRepository
	emailService     EmailService
}

// NewRegistrationService создает новый сервис регистраций
func NewRegistrationService(
	registrationRepo repository.RegistrationRepository,
	mockTestRepo repository.MockTestRepository,
	emailService EmailService,
) *RegistrationService {
	return &RegistrationService{
		registrationRepo: registrationRepo,
		mockTestRepo:     mockTestRepo,
		emailService:     emailService,
	}
}

// ConfigureGate создает или обновляет гейт теста
func (s *RegistrationService) ConfigureGate(mockTestID uint, freeAttemptLimit int, isActive bool) (*entity.RegistrationGate, error) {
	if _, err := s.mockTestRepo.GetByID(mockTestID); err != nil {
		return nil, err
	}
	if freeAttemptLimit < 0 {
		freeAttemptLimit = 0
	}

	gate, err := s.registrationRepo.GetGateByMockTest(mockTestID)
	if err == nil {
		gate.FreeAttemptLimit = freeAttemptLimit
		gate.IsActive = isActive
		if err := s.registrationRepo.UpdateGate(gate); err != nil {
			return nil, err
		}
		return gate, nil
	}

	gate = &entity.RegistrationGate{
		MockTestID:       mockTestID,
		FreeAttemptLimit: freeAttemptLimit,
		IsActive:         isActive,
	}
	if err := s.registrationRepo.CreateGate(gate); err != nil {
		return nil, err
	}
	return gate, nil
}

// Register регистрирует пользователя на гейт теста. Повторная регистрация
// идемпотентна. email опционален: при наличии отправляется подтверждение.
func (s *RegistrationService) Register(userID, mockTestID uint, email string) error {
	test, err := s.mockTestRepo.GetByID(mockTestID)
	if err != nil {
		return err
	}

	gate, err := s.registrationRepo.GetGateByMockTest(mockTestID)
	if err != nil {
		return err
	}

	entry := &entity.RegistrationEntry{
		GateID: gate.ID,
		UserID: userID,
	}
	if err := s.registrationRepo.CreateEntry(entry); err != nil {
		return err
	}

	if email != "" && s.emailService != nil {
		// Fire-and-forget: ошибка письма не должна ломать регистрацию
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			idempotencyKey := uuid.NewString()
			if err := s.emailService.SendRegistrationConfirmation(ctx, email, test.Title, idempotencyKey); err != nil {
				log.Printf("[RegistrationService] confirmation email for user #%d failed: %v", userID, err)
			}
		}()
	}

	return nil
}

// HasRegistration проверяет, зарегистрирован ли пользователь на гейт
func (s *RegistrationService) HasRegistration(gateID, userID uint) (bool, error) {
	return s.registrationRepo.HasEntry(gateID, userID)
}
