package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service/examrules"
)

// mockTestCacheTTL ограничивает время жизни кешированных метаданных теста
const mockTestCacheTTL = 5 * time.Minute

// MockTestService предоставляет методы авторинга и листинга пробных тестов
type MockTestService struct {
	mockTestRepo repository.MockTestRepository
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
}

// NewMockTestService создает новый сервис пробных тестов
func NewMockTestService(
	mockTestRepo repository.MockTestRepository,
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
) *MockTestService {
	return &MockTestService{
		mockTestRepo: mockTestRepo,
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
	}
}

func mockTestCacheKey(id uint) string {
	return fmt.Sprintf("mocktest:%d", id)
}

// invalidateCache сбрасывает кеш метаданных теста после любого изменения
func (s *MockTestService) invalidateCache(mockTestID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(mockTestCacheKey(mockTestID)); err != nil {
		log.Printf("[MockTestService] cache invalidation failed for test #%d: %v", mockTestID, err)
	}
}

// CreateMockTestInput — данные для создания пробного теста
type CreateMockTestInput struct {
	Title        string
	ExamType     string
	Subject      string
	StreamChoice *string
	LanguageMode *string
	AccessTier   string
}

// CreateMockTest создает тест, прогнав конфигурацию через валидатор таксономии
func (s *MockTestService) CreateMockTest(authorID uint, input CreateMockTestInput) (*entity.MockTest, error) {
	if err := ValidateConfiguration(input.ExamType, input.Subject, input.StreamChoice, input.LanguageMode); err != nil {
		return nil, err
	}

	tier := input.AccessTier
	if tier == "" {
		tier = entity.TierDemo
	}
	if !entity.IsValidTier(tier) {
		return nil, fmt.Errorf("%w: unknown access tier %q", apperrors.ErrValidation, tier)
	}

	test := &entity.MockTest{
		Title:        input.Title,
		ExamType:     input.ExamType,
		Subject:      input.Subject,
		StreamChoice: input.StreamChoice,
		LanguageMode: input.LanguageMode,
		AccessTier:   tier,
		IsActive:     true,
		AuthorID:     authorID,
	}
	if err := s.mockTestRepo.Create(test); err != nil {
		return nil, err
	}
	return test, nil
}

// ValidateConfiguration проверяет комбинацию экзамен/предмет/поток/язык
// строгими правилами (без опт-аутов листинга)
func ValidateConfiguration(examType, subject string, streamChoice, languageMode *string) error {
	stream := ""
	if streamChoice != nil {
		stream = *streamChoice
	}
	language := ""
	if languageMode != nil {
		language = *languageMode
	}
	return examrules.Validate(examType, subject, stream, language, examrules.Options{})
}

// GetMockTest возвращает тест по ID (метаданные кешируются в Redis)
func (s *MockTestService) GetMockTest(id uint) (*entity.MockTest, error) {
	if s.cacheRepo != nil {
		var cached entity.MockTest
		if err := s.cacheRepo.GetJSON(mockTestCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	test, err := s.mockTestRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(mockTestCacheKey(id), test, mockTestCacheTTL); err != nil {
			log.Printf("[MockTestService] cache write failed for test #%d: %v", id, err)
		}
	}
	return test, nil
}

// UpdateMockTestInput — данные для обновления пробного теста.
// Уровень доступа меняется отдельной операцией SetAccessTier (аудит).
type UpdateMockTestInput struct {
	Title        string
	ExamType     string
	Subject      string
	StreamChoice *string
	LanguageMode *string
}

// UpdateMockTest обновляет тест: новая конфигурация проходит тот же
// валидатор таксономии, что и при создании
func (s *MockTestService) UpdateMockTest(mockTestID uint, input UpdateMockTestInput) (*entity.MockTest, error) {
	if err := ValidateConfiguration(input.ExamType, input.Subject, input.StreamChoice, input.LanguageMode); err != nil {
		return nil, err
	}

	test, err := s.mockTestRepo.GetByID(mockTestID)
	if err != nil {
		return nil, err
	}

	test.Title = input.Title
	test.ExamType = input.ExamType
	test.Subject = input.Subject
	test.StreamChoice = input.StreamChoice
	test.LanguageMode = input.LanguageMode
	if err := s.mockTestRepo.Update(test); err != nil {
		return nil, err
	}
	s.invalidateCache(mockTestID)
	return test, nil
}

// GetMockTestWithQuestions возвращает тест вместе с вопросами (админка).
// Кеш не используется: редактору нужны свежие данные.
func (s *MockTestService) GetMockTestWithQuestions(id uint) (*entity.MockTest, error) {
	return s.mockTestRepo.GetWithQuestions(id)
}

// QuestionInput — данные одного вопроса при пакетном добавлении
type QuestionInput struct {
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
	Explanation   *string
	Section       *string
}

// AddQuestions добавляет вопросы к тесту пакетом
func (s *MockTestService) AddQuestions(mockTestID uint, inputs []QuestionInput) ([]entity.Question, error) {
	if _, err := s.mockTestRepo.GetByID(mockTestID); err != nil {
		return nil, err
	}

	questions := make([]entity.Question, 0, len(inputs))
	for i, in := range inputs {
		if !entity.IsValidOption(in.CorrectOption) {
			return nil, fmt.Errorf("%w: question %d: correct option must be one of A, B, C, D", apperrors.ErrValidation, i+1)
		}
		questions = append(questions, entity.Question{
			MockTestID:    mockTestID,
			Text:          in.Text,
			OptionA:       in.OptionA,
			OptionB:       in.OptionB,
			OptionC:       in.OptionC,
			OptionD:       in.OptionD,
			CorrectOption: in.CorrectOption,
			Explanation:   in.Explanation,
			Section:       in.Section,
			IsActive:      true,
		})
	}
	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// UpdateQuestion обновляет вопрос. Снимки уже начатых попыток ссылаются
// на вопрос по ID и увидят исправленный текст — это ожидаемо для опечаток.
func (s *MockTestService) UpdateQuestion(questionID uint, input QuestionInput) (*entity.Question, error) {
	if !entity.IsValidOption(input.CorrectOption) {
		return nil, fmt.Errorf("%w: correct option must be one of A, B, C, D", apperrors.ErrValidation)
	}

	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return nil, err
	}

	question.Text = input.Text
	question.OptionA = input.OptionA
	question.OptionB = input.OptionB
	question.OptionC = input.OptionC
	question.OptionD = input.OptionD
	question.CorrectOption = input.CorrectOption
	question.Explanation = input.Explanation
	question.Section = input.Section
	if err := s.questionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// DeactivateQuestion мягко отключает вопрос; снимки попыток не трогаются.
// Если активный пул просел ниже полного набора предмета, новые попытки
// начнут получать урезанные наборы — предупреждаем админа в логе.
func (s *MockTestService) DeactivateQuestion(questionID uint) error {
	question, err := s.questionRepo.GetByID(questionID)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Deactivate(questionID); err != nil {
		return err
	}

	remaining, err := s.questionRepo.CountActiveByMockTest(question.MockTestID)
	if err != nil {
		return nil
	}
	if test, err := s.mockTestRepo.GetByID(question.MockTestID); err == nil {
		if required := examrules.RequiredQuestions(test.Subject); remaining < int64(required) {
			log.Printf("[MockTestService] mock test #%d has %d active questions, below the full set of %d",
				question.MockTestID, remaining, required)
		}
	}
	return nil
}

// SetAccessTier меняет текущий уровень доступа с записью в аудит
func (s *MockTestService) SetAccessTier(mockTestID uint, tier string, changedBy uint) error {
	if !entity.IsValidTier(tier) {
		return fmt.Errorf("%w: unknown access tier %q", apperrors.ErrValidation, tier)
	}
	if err := s.mockTestRepo.UpdateAccessTier(mockTestID, tier, changedBy); err != nil {
		return err
	}
	s.invalidateCache(mockTestID)
	return nil
}

// ListEligibleTests возвращает активные тесты под фильтры студента.
// Поток пропускается и на «общих» предметах, language_mode может
// отсутствовать — это сценарий листинга, а не авторинга.
func (s *MockTestService) ListEligibleTests(examType, subject, streamChoice, languageMode string, page, pageSize int) ([]entity.MockTest, int64, error) {
	opts := examrules.Options{
		AllowStreamOnCommonSubjects: true,
		AllowMissingLanguageMode:    true,
	}
	if err := examrules.Validate(examType, subject, streamChoice, languageMode, opts); err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	filters := repository.MockTestFilters{
		ExamType:     examType,
		Subject:      subject,
		StreamChoice: streamChoice,
		LanguageMode: languageMode,
		ActiveOnly:   true,
	}
	return s.mockTestRepo.ListWithFilters(filters, pageSize, offset)
}

// DeactivateMockTest мягко отключает тест
func (s *MockTestService) DeactivateMockTest(id uint) error {
	if err := s.mockTestRepo.Deactivate(id); err != nil {
		return err
	}
	s.invalidateCache(id)
	return nil
}
