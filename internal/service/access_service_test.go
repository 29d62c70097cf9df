package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
)

// ============================================================================
// Моки для AccessService
// ============================================================================

// MockMockTestRepoForAccess реализует repository.MockTestRepository
type MockMockTestRepoForAccess struct {
	mock.Mock
}

func (m *MockMockTestRepoForAccess) Create(test *entity.MockTest) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockMockTestRepoForAccess) GetByID(id uint) (*entity.MockTest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MockTest), args.Error(1)
}

func (m *MockMockTestRepoForAccess) GetWithQuestions(id uint) (*entity.MockTest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.MockTest), args.Error(1)
}

func (m *MockMockTestRepoForAccess) Update(test *entity.MockTest) error {
	args := m.Called(test)
	return args.Error(0)
}

func (m *MockMockTestRepoForAccess) UpdateAccessTier(mockTestID uint, tier string, changedBy uint) error {
	args := m.Called(mockTestID, tier, changedBy)
	return args.Error(0)
}

func (m *MockMockTestRepoForAccess) ListWithFilters(filters repository.MockTestFilters, limit, offset int) ([]entity.MockTest, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.MockTest), args.Get(1).(int64), args.Error(2)
}

func (m *MockMockTestRepoForAccess) Deactivate(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockEntitlementRepoForAccess реализует repository.EntitlementRepository
type MockEntitlementRepoForAccess struct {
	mock.Mock
}

func (m *MockEntitlementRepoForAccess) HasProductAccess(userID, mockTestID uint) (bool, error) {
	args := m.Called(userID, mockTestID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntitlementRepoForAccess) IsDemoExempted(mockTestID uint) (bool, error) {
	args := m.Called(mockTestID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEntitlementRepoForAccess) HasLessonPathAccess(userID, mockTestID uint) (bool, error) {
	args := m.Called(userID, mockTestID)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Тесты
// ============================================================================

func newAccessFixture(tier string) (*AccessService, *MockMockTestRepoForAccess, *MockEntitlementRepoForAccess) {
	mockTestRepo := new(MockMockTestRepoForAccess)
	entitlementRepo := new(MockEntitlementRepoForAccess)
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{
		ID:         1,
		Title:      "SEE Science Full Set",
		AccessTier: tier,
		IsActive:   true,
	}, nil)
	return NewAccessService(mockTestRepo, entitlementRepo), mockTestRepo, entitlementRepo
}

func TestResolveAccess_DemoAllowedWithoutEntitlements(t *testing.T) {
	svc, _, entitlementRepo := newAccessFixture(entity.TierDemo)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, entity.TierDemo, decision.Tier)
	// Для demo факты прав вообще не читаются
	entitlementRepo.AssertNotCalled(t, "HasProductAccess", mock.Anything, mock.Anything)
}

func TestResolveAccess_PaidDeniedWithoutEntitlements(t *testing.T) {
	svc, _, entitlementRepo := newAccessFixture(entity.TierPaidGeneral)
	entitlementRepo.On("IsDemoExempted", uint(1)).Return(false, nil)
	entitlementRepo.On("HasProductAccess", uint(42), uint(1)).Return(false, nil)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, entity.TierPaidGeneral, decision.Tier)
	assert.Contains(t, decision.Reason, "mock test")
}

func TestResolveAccess_DemoExemptionOverridesPaidTier(t *testing.T) {
	svc, _, entitlementRepo := newAccessFixture(entity.TierPaidGeneral)
	entitlementRepo.On("IsDemoExempted", uint(1)).Return(true, nil)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestResolveAccess_ProductEntitlementAllows(t *testing.T) {
	svc, _, entitlementRepo := newAccessFixture(entity.TierPaidGeneral)
	entitlementRepo.On("IsDemoExempted", uint(1)).Return(false, nil)
	entitlementRepo.On("HasProductAccess", uint(42), uint(1)).Return(true, nil)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestResolveAccess_LessonPathOnlyForLessonTier(t *testing.T) {
	// Для paid_via_lesson зачисление на курс открывает доступ
	svc, _, entitlementRepo := newAccessFixture(entity.TierPaidViaLesson)
	entitlementRepo.On("IsDemoExempted", uint(1)).Return(false, nil)
	entitlementRepo.On("HasProductAccess", uint(42), uint(1)).Return(false, nil)
	entitlementRepo.On("HasLessonPathAccess", uint(42), uint(1)).Return(true, nil)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// Для paid_general зачисление на курс не проверяется вовсе
	svc2, _, entitlementRepo2 := newAccessFixture(entity.TierPaidGeneral)
	entitlementRepo2.On("IsDemoExempted", uint(1)).Return(false, nil)
	entitlementRepo2.On("HasProductAccess", uint(42), uint(1)).Return(false, nil)

	decision2, err := svc2.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.False(t, decision2.Allowed)
	entitlementRepo2.AssertNotCalled(t, "HasLessonPathAccess", mock.Anything, mock.Anything)
}

func TestResolveAccess_LessonTierDenialMentionsLesson(t *testing.T) {
	svc, _, entitlementRepo := newAccessFixture(entity.TierPaidViaLesson)
	entitlementRepo.On("IsDemoExempted", uint(1)).Return(false, nil)
	entitlementRepo.On("HasProductAccess", uint(42), uint(1)).Return(false, nil)
	entitlementRepo.On("HasLessonPathAccess", uint(42), uint(1)).Return(false, nil)

	decision, err := svc.ResolveAccess(42, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "lesson test")
}

func TestHasPaidEntitlement_UnionSemantics(t *testing.T) {
	mockTestRepo := new(MockMockTestRepoForAccess)
	entitlementRepo := new(MockEntitlementRepoForAccess)
	svc := NewAccessService(mockTestRepo, entitlementRepo)

	// Только продукт
	entitlementRepo.On("HasProductAccess", uint(1), uint(10)).Return(true, nil)
	paid, err := svc.HasPaidEntitlement(1, 10)
	require.NoError(t, err)
	assert.True(t, paid)

	// Только курс
	entitlementRepo.On("HasProductAccess", uint(2), uint(10)).Return(false, nil)
	entitlementRepo.On("HasLessonPathAccess", uint(2), uint(10)).Return(true, nil)
	paid, err = svc.HasPaidEntitlement(2, 10)
	require.NoError(t, err)
	assert.True(t, paid)

	// Ничего
	entitlementRepo.On("HasProductAccess", uint(3), uint(10)).Return(false, nil)
	entitlementRepo.On("HasLessonPathAccess", uint(3), uint(10)).Return(false, nil)
	paid, err = svc.HasPaidEntitlement(3, 10)
	require.NoError(t, err)
	assert.False(t, paid)
}
