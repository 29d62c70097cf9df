package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service/examrules"
)

// ============================================================================
// Моки для MockTestService
// ============================================================================

// MockCacheRepo реализует repository.CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Тесты
// ============================================================================

func newMockTestFixture() (*MockTestService, *MockMockTestRepoForAccess, *MockQuestionRepoForAttempt, *MockCacheRepo) {
	mockTestRepo := new(MockMockTestRepoForAccess)
	questionRepo := new(MockQuestionRepoForAttempt)
	cacheRepo := new(MockCacheRepo)
	return NewMockTestService(mockTestRepo, questionRepo, cacheRepo), mockTestRepo, questionRepo, cacheRepo
}

func TestCreateMockTest_DefaultsToDemoTier(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()
	mockTestRepo.On("Create", mock.AnythingOfType("*entity.MockTest")).Return(nil)

	lang := examrules.LanguageModeNepali
	test, err := svc.CreateMockTest(7, CreateMockTestInput{
		Title:        "SEE Science Set B",
		ExamType:     examrules.ExamTypeSEE,
		Subject:      examrules.SubjectScience,
		LanguageMode: &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TierDemo, test.AccessTier)
	assert.True(t, test.IsActive)
	assert.Equal(t, uint(7), test.AuthorID)
}

func TestCreateMockTest_RejectsBadTaxonomy(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()

	// account отсутствует в SEE
	_, err := svc.CreateMockTest(7, CreateMockTestInput{
		Title:    "SEE Account",
		ExamType: examrules.ExamTypeSEE,
		Subject:  examrules.SubjectAccount,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockTestRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCreateMockTest_RejectsUnknownTier(t *testing.T) {
	svc, _, _, _ := newMockTestFixture()

	lang := examrules.LanguageModeEnglish
	_, err := svc.CreateMockTest(7, CreateMockTestInput{
		Title:        "SEE Math",
		ExamType:     examrules.ExamTypeSEE,
		Subject:      examrules.SubjectMath,
		LanguageMode: &lang,
		AccessTier:   "platinum",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAddQuestions_RejectsInvalidCorrectOption(t *testing.T) {
	svc, mockTestRepo, questionRepo, _ := newMockTestFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)

	_, err := svc.AddQuestions(1, []QuestionInput{
		{Text: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: "E"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestAddQuestions_BatchCreatesActiveQuestions(t *testing.T) {
	svc, mockTestRepo, questionRepo, _ := newMockTestFixture()
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, IsActive: true}, nil)
	questionRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Question")).Return(nil)

	questions, err := svc.AddQuestions(1, []QuestionInput{
		{Text: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: "B"},
		{Text: "3+3?", OptionA: "5", OptionB: "7", OptionC: "6", OptionD: "8", CorrectOption: "C"},
	})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Equal(t, uint(1), q.MockTestID)
		assert.True(t, q.IsActive)
	}
}

func TestUpdateMockTest_RevalidatesTaxonomyAndInvalidatesCache(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	lang := examrules.LanguageModeEnglish
	mockTestRepo.On("GetByID", uint(3)).Return(&entity.MockTest{
		ID:       3,
		Title:    "Old title",
		ExamType: examrules.ExamTypeSEE,
		Subject:  examrules.SubjectMath,
	}, nil)
	mockTestRepo.On("Update", mock.AnythingOfType("*entity.MockTest")).Return(nil)
	cacheRepo.On("Delete", "mocktest:3").Return(nil)

	test, err := svc.UpdateMockTest(3, UpdateMockTestInput{
		Title:        "SEE Science Set C",
		ExamType:     examrules.ExamTypeSEE,
		Subject:      examrules.SubjectScience,
		LanguageMode: &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, "SEE Science Set C", test.Title)
	assert.Equal(t, examrules.SubjectScience, test.Subject)
	cacheRepo.AssertCalled(t, "Delete", "mocktest:3")
}

func TestUpdateMockTest_RejectsBadTaxonomyBeforeLoad(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()

	_, err := svc.UpdateMockTest(3, UpdateMockTestInput{
		Title:    "SEE Account",
		ExamType: examrules.ExamTypeSEE,
		Subject:  examrules.SubjectAccount,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockTestRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestUpdateQuestion_AppliesFields(t *testing.T) {
	svc, _, questionRepo, _ := newMockTestFixture()
	questionRepo.On("GetByID", uint(11)).Return(&entity.Question{
		ID:            11,
		MockTestID:    1,
		Text:          "2+2?",
		CorrectOption: "A",
		IsActive:      true,
	}, nil)
	questionRepo.On("Update", mock.AnythingOfType("*entity.Question")).Return(nil)

	question, err := svc.UpdateQuestion(11, QuestionInput{
		Text:          "What is 2+2?",
		OptionA:       "3",
		OptionB:       "4",
		OptionC:       "5",
		OptionD:       "6",
		CorrectOption: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "What is 2+2?", question.Text)
	assert.Equal(t, "B", question.CorrectOption)
}

func TestUpdateQuestion_RejectsInvalidOption(t *testing.T) {
	svc, _, questionRepo, _ := newMockTestFixture()

	_, err := svc.UpdateQuestion(11, QuestionInput{Text: "?", CorrectOption: "Z"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	questionRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestDeactivateQuestion_ChecksRemainingPoolSize(t *testing.T) {
	svc, mockTestRepo, questionRepo, _ := newMockTestFixture()
	questionRepo.On("GetByID", uint(11)).Return(&entity.Question{ID: 11, MockTestID: 1, IsActive: true}, nil)
	questionRepo.On("Deactivate", uint(11)).Return(nil)
	questionRepo.On("CountActiveByMockTest", uint(1)).Return(int64(29), nil)
	mockTestRepo.On("GetByID", uint(1)).Return(&entity.MockTest{ID: 1, Subject: examrules.SubjectSocial}, nil)

	require.NoError(t, svc.DeactivateQuestion(11))
	questionRepo.AssertCalled(t, "CountActiveByMockTest", uint(1))
}

func TestDeactivateQuestion_UnknownQuestion(t *testing.T) {
	svc, _, questionRepo, _ := newMockTestFixture()
	questionRepo.On("GetByID", uint(99)).Return(nil, apperrors.ErrNotFound)

	assert.ErrorIs(t, svc.DeactivateQuestion(99), apperrors.ErrNotFound)
	questionRepo.AssertNotCalled(t, "Deactivate", mock.Anything)
}

func TestGetMockTest_CacheHitSkipsRepo(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	cacheRepo.On("GetJSON", "mocktest:5", mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(1).(*entity.MockTest)
			dest.ID = 5
			dest.Title = "NEB Physics Set A"
		}).
		Return(nil)

	test, err := svc.GetMockTest(5)
	require.NoError(t, err)
	assert.Equal(t, "NEB Physics Set A", test.Title)
	mockTestRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestGetMockTest_CacheMissFallsThroughAndWrites(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	cacheRepo.On("GetJSON", "mocktest:5", mock.Anything).Return(apperrors.ErrNotFound)
	mockTestRepo.On("GetByID", uint(5)).Return(&entity.MockTest{ID: 5, Title: "NEB Physics Set A"}, nil)
	cacheRepo.On("SetJSON", "mocktest:5", mock.Anything, mockTestCacheTTL).Return(nil)

	test, err := svc.GetMockTest(5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), test.ID)
	cacheRepo.AssertCalled(t, "SetJSON", "mocktest:5", mock.Anything, mockTestCacheTTL)
}

func TestSetAccessTier_InvalidatesCache(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	mockTestRepo.On("UpdateAccessTier", uint(5), entity.TierPaidGeneral, uint(7)).Return(nil)
	cacheRepo.On("Delete", "mocktest:5").Return(nil)

	err := svc.SetAccessTier(5, entity.TierPaidGeneral, 7)
	require.NoError(t, err)
	cacheRepo.AssertCalled(t, "Delete", "mocktest:5")
}

func TestSetAccessTier_RejectsUnknownTier(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()

	err := svc.SetAccessTier(5, "vip", 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockTestRepo.AssertNotCalled(t, "UpdateAccessTier", mock.Anything, mock.Anything, mock.Anything)
}

func TestListEligibleTests_ClampsPagination(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()
	mockTestRepo.On("ListWithFilters", repository.MockTestFilters{
		ExamType:   examrules.ExamTypeSEE,
		Subject:    examrules.SubjectMath,
		ActiveOnly: true,
	}, 20, 0).Return([]entity.MockTest{}, int64(0), nil)

	// page и pageSize за пределами допустимого сводятся к умолчаниям
	_, _, err := svc.ListEligibleTests(examrules.ExamTypeSEE, examrules.SubjectMath, "", "", 0, 0)
	require.NoError(t, err)
	mockTestRepo.AssertCalled(t, "ListWithFilters", mock.Anything, 20, 0)
}

func TestListEligibleTests_StreamAllowedOnCommonSubjects(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()
	mockTestRepo.On("ListWithFilters", mock.Anything, 20, 0).Return([]entity.MockTest{}, int64(0), nil)

	// В листинге студент науки видит и общие предметы со своим потоком
	_, _, err := svc.ListEligibleTests(examrules.ExamTypeNEB, examrules.SubjectEnglish, examrules.StreamScience, "", 1, 20)
	require.NoError(t, err)
}

func TestListEligibleTests_RejectsUnknownStream(t *testing.T) {
	svc, mockTestRepo, _, _ := newMockTestFixture()

	// Неизвестное имя потока отклоняется даже в листинге
	_, _, err := svc.ListEligibleTests(examrules.ExamTypeNEB, examrules.SubjectScience, "arts", "", 1, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	mockTestRepo.AssertNotCalled(t, "ListWithFilters", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeactivateMockTest_InvalidatesCacheAfterSuccess(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	mockTestRepo.On("Deactivate", uint(9)).Return(nil)
	cacheRepo.On("Delete", "mocktest:9").Return(nil)

	require.NoError(t, svc.DeactivateMockTest(9))
	cacheRepo.AssertCalled(t, "Delete", "mocktest:9")
}

func TestDeactivateMockTest_NoCacheTouchOnRepoError(t *testing.T) {
	svc, mockTestRepo, _, cacheRepo := newMockTestFixture()
	mockTestRepo.On("Deactivate", uint(9)).Return(errors.New("db down"))

	require.Error(t, svc.DeactivateMockTest(9))
	cacheRepo.AssertNotCalled(t, "Delete", mock.Anything)
}
