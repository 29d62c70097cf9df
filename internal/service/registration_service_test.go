package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// ============================================================================
// Моки для RegistrationService
// ============================================================================

// MockEmailService реализует EmailService
type MockEmailService struct {
	mock.Mock
	sent chan struct{}
}

func newMockEmailService() *MockEmailService {
	return &MockEmailService{sent: make(chan struct{}, 1)}
}

func (m *MockEmailService) SendRegistrationConfirmation(ctx context.Context, toEmail, testTitle, idempotencyKey string) error {
	args := m.Called(ctx, toEmail, testTitle, idempotencyKey)
	m.sent <- struct{}{}
	return args.Error(0)
}

// ============================================================================
// Тесты
// ============================================================================

func newRegistrationFixture() (*RegistrationService, *MockRegistrationRepoForAttempt, *MockMockTestRepoForAccess, *MockEmailService) {
	registrationRepo := new(MockRegistrationRepoForAttempt)
	mockTestRepo := new(MockMockTestRepoForAccess)
	emailService := newMockEmailService()
	return NewRegistrationService(registrationRepo, mockTestRepo, emailService), registrationRepo, mockTestRepo, emailService
}

func TestConfigureGate_CreatesWhenMissing(t *testing.T) {
	svc, registrationRepo, mockTestRepo, _ := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(nil, apperrors.ErrNotFound)
	registrationRepo.On("CreateGate", mock.AnythingOfType("*entity.RegistrationGate")).Return(nil)

	gate, err := svc.ConfigureGate(1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, uint(1), gate.MockTestID)
	assert.Equal(t, 2, gate.FreeAttemptLimit)
	assert.True(t, gate.IsActive)
	registrationRepo.AssertNotCalled(t, "UpdateGate", mock.Anything)
}

func TestConfigureGate_UpdatesExisting(t *testing.T) {
	svc, registrationRepo, mockTestRepo, _ := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(&entity.RegistrationGate{
		ID:               5,
		MockTestID:       1,
		FreeAttemptLimit: 1,
		IsActive:         true,
	}, nil)
	registrationRepo.On("UpdateGate", mock.AnythingOfType("*entity.RegistrationGate")).Return(nil)

	gate, err := svc.ConfigureGate(1, 3, false)
	require.NoError(t, err)
	assert.Equal(t, uint(5), gate.ID)
	assert.Equal(t, 3, gate.FreeAttemptLimit)
	assert.False(t, gate.IsActive)
	registrationRepo.AssertNotCalled(t, "CreateGate", mock.Anything)
}

func TestConfigureGate_ClampsNegativeLimit(t *testing.T) {
	svc, registrationRepo, mockTestRepo, _ := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(nil, apperrors.ErrNotFound)
	registrationRepo.On("CreateGate", mock.AnythingOfType("*entity.RegistrationGate")).Return(nil)

	gate, err := svc.ConfigureGate(1, -4, true)
	require.NoError(t, err)
	assert.Equal(t, 0, gate.FreeAttemptLimit)
}

func TestConfigureGate_UnknownTest(t *testing.T) {
	svc, registrationRepo, mockTestRepo, _ := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.ConfigureGate(99, 1, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	registrationRepo.AssertNotCalled(t, "CreateGate", mock.Anything)
}

func TestRegister_CreatesEntryAndSendsEmail(t *testing.T) {
	svc, registrationRepo, mockTestRepo, emailService := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, Title: "SEE Science Set A", IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(&entity.RegistrationGate{ID: 5, MockTestID: 1, IsActive: true}, nil)
	registrationRepo.On("CreateEntry", mock.AnythingOfType("*entity.RegistrationEntry")).Return(nil)
	emailService.On("SendRegistrationConfirmation", mock.Anything, "student@example.com", "SEE Science Set A", mock.AnythingOfType("string")).Return(nil)

	err := svc.Register(42, 1, "student@example.com")
	require.NoError(t, err)

	// Письмо уходит в фоне, дожидаемся отправки
	select {
	case <-emailService.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email was not sent")
	}
	emailService.AssertExpectations(t)
}

func TestRegister_WithoutEmailSkipsSend(t *testing.T) {
	svc, registrationRepo, mockTestRepo, emailService := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, Title: "SEE Science Set A", IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(&entity.RegistrationGate{ID: 5, MockTestID: 1, IsActive: true}, nil)
	registrationRepo.On("CreateEntry", mock.AnythingOfType("*entity.RegistrationEntry")).Return(nil)

	err := svc.Register(42, 1, "")
	require.NoError(t, err)
	emailService.AssertNotCalled(t, "SendRegistrationConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_NoGateConfigured(t *testing.T) {
	svc, registrationRepo, mockTestRepo, _ := newRegistrationFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)
	registrationRepo.On("GetGateByMockTest", uint(1)).Return(nil, apperrors.ErrNotFound)

	err := svc.Register(42, 1, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	registrationRepo.AssertNotCalled(t, "CreateEntry", mock.Anything)
}
