package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service/examrules"
)

// startLockTTL ограничивает время жизни Redis-блокировки старта попытки
const startLockTTL = 10 * time.Second

// AttemptService владеет жизненным циклом попыток: старт с выборкой
// вопросов, апсерты ответов, ленивый таймаут и детерминированный сабмит.
// Фоновых задач нет: истечение времени проверяется на каждом запросе,
// который касается попытки.
type AttemptService struct {
	attemptRepo      repository.AttemptRepository
	mockTestRepo     repository.MockTestRepository
	questionRepo     repository.QuestionRepository
	registrationRepo repository.RegistrationRepository
	access           *AccessService
	cacheRepo        repository.CacheRepository
}

// NewAttemptService создает новый сервис попыток
func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	mockTestRepo repository.MockTestRepository,
	questionRepo repository.QuestionRepository,
	registrationRepo repository.RegistrationRepository,
	access *AccessService,
	cacheRepo repository.CacheRepository,
) *AttemptService {
	return &AttemptService{
		attemptRepo:      attemptRepo,
		mockTestRepo:     mockTestRepo,
		questionRepo:     questionRepo,
		registrationRepo: registrationRepo,
		access:           access,
		cacheRepo:        cacheRepo,
	}
}

// StartAttempt начинает или возобновляет попытку для пары (user, mockTest).
// Порядок проверок: конфигурация теста → доступ → регистрационный гейт →
// возобновление/форс-сабмит устаревшей попытки → выборка вопросов → создание.
func (s *AttemptService) StartAttempt(userID, mockTestID uint) (*entity.Attempt, error) {
	// Сериализуем конкурирующие старты одного пользователя через SetNX.
	// Блокировка best-effort: при недоступном Redis полагаемся на
	// partial unique index в БД.
	lockKey := fmt.Sprintf("attempt:start:%d:%d", userID, mockTestID)
	if s.cacheRepo != nil {
		acquired, err := s.cacheRepo.SetNX(lockKey, 1, startLockTTL)
		if err != nil {
			log.Printf("[AttemptService] start lock unavailable for user #%d test #%d: %v", userID, mockTestID, err)
		} else if !acquired {
			return nil, fmt.Errorf("%w: another start is in flight for this mock test", apperrors.ErrConflict)
		} else {
			defer func() {
				if err := s.cacheRepo.Delete(lockKey); err != nil {
					log.Printf("[AttemptService] start lock release failed: %v", err)
				}
			}()
		}
	}

	test, err := s.mockTestRepo.GetByID(mockTestID)
	if err != nil {
		return nil, err
	}
	if !test.IsActive {
		return nil, fmt.Errorf("%w: mock test #%d is not active", apperrors.ErrNotFound, mockTestID)
	}

	// Повторная проверка таксономии на старте — защита от устаревшей
	// конфигурации, сохраненной до изменения правил
	streamChoice := ""
	if test.StreamChoice != nil {
		streamChoice = *test.StreamChoice
	}
	languageMode := ""
	if test.LanguageMode != nil {
		languageMode = *test.LanguageMode
	}
	if err := examrules.Validate(test.ExamType, test.Subject, streamChoice, languageMode, examrules.Options{}); err != nil {
		return nil, err
	}

	decision, err := s.access.ResolveAccess(userID, mockTestID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrForbidden, decision.Reason)
	}

	if err := s.checkRegistrationGate(userID, mockTestID); err != nil {
		return nil, err
	}

	// Идемпотентное возобновление: открытая и не просроченная попытка
	// возвращается как есть, без повторной выборки
	existing, err := s.attemptRepo.GetInProgress(userID, mockTestID)
	if err == nil {
		if !existing.IsTimedOut(time.Now()) {
			return existing, nil
		}
		// Просроченную попытку закрываем и создаем свежую
		if _, err := s.finalize(existing.ID); err != nil && !errors.Is(err, repository.ErrAttemptAlreadySubmitted) {
			return nil, err
		}
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	pool, err := s.questionRepo.GetActiveByMockTest(mockTestID)
	if err != nil {
		return nil, err
	}

	required := examrules.RequiredQuestions(test.Subject)
	if len(pool) < required {
		required = len(pool)
	}
	if required < 1 {
		return nil, fmt.Errorf("%w: mock test #%d", ErrNoQuestionsAvailable, mockTestID)
	}

	// Несмещенная выборка: Fisher-Yates по всему активному пулу, затем префикс.
	// Порядок фиксируется в снимке и больше никогда не пересчитывается.
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	questionIDs := make([]uint, required)
	for i := 0; i < required; i++ {
		questionIDs[i] = pool[i].ID
	}

	attempt := &entity.Attempt{
		UserID:         userID,
		MockTestID:     mockTestID,
		TotalQuestions: required,
		Status:         entity.AttemptStatusInProgress,
		StartedAt:      time.Now(),
	}
	if err := s.attemptRepo.CreateWithQuestions(attempt, questionIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicateActiveAttempt) {
			// Проиграли гонку конкурирующему старту — возвращаем его попытку
			return s.attemptRepo.GetInProgress(userID, mockTestID)
		}
		return nil, err
	}

	return attempt, nil
}

// checkRegistrationGate проверяет регистрацию и квоту бесплатных попыток.
// Платное право дает неограниченные попытки, счетчик не применяется.
func (s *AttemptService) checkRegistrationGate(userID, mockTestID uint) error {
	gate, err := s.registrationRepo.GetGateByMockTest(mockTestID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil // Гейт не настроен
		}
		return err
	}
	if !gate.IsActive {
		return nil
	}

	registered, err := s.registrationRepo.HasEntry(gate.ID, userID)
	if err != nil {
		return err
	}
	if !registered {
		return &RegistrationRequiredError{
			MockTestID:   mockTestID,
			RedirectPath: fmt.Sprintf("/mock-tests/%d/register", mockTestID),
		}
	}

	hasPaid, err := s.access.HasPaidEntitlement(userID, mockTestID)
	if err != nil {
		return err
	}
	if hasPaid {
		return nil
	}

	used, err := s.attemptRepo.CountByUserAndTest(userID, mockTestID)
	if err != nil {
		return err
	}
	if used >= int64(gate.FreeAttemptLimit) {
		return &AttemptsExhaustedError{
			MockTestID:       mockTestID,
			FreeAttemptLimit: gate.FreeAttemptLimit,
			UsedAttempts:     int(used),
			PurchasePath:     fmt.Sprintf("/store?mock_test_id=%d", mockTestID),
		}
	}
	return nil
}

// GetAttemptMeta возвращает метаданные попытки, предварительно применив
// ленивый таймаут
func (s *AttemptService) GetAttemptMeta(userID, attemptID uint) (*entity.Attempt, error) {
	attempt, err := s.getOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	return s.ensureCurrent(attempt)
}

// ListAttemptQuestions возвращает снимок вопросов попытки вместе с уже
// сохраненными ответами пользователя. Правильные варианты и объяснения
// прячет слой DTO до сабмита.
func (s *AttemptService) ListAttemptQuestions(userID, attemptID uint) (*entity.Attempt, []entity.AttemptQuestion, []entity.AttemptAnswer, error) {
	attempt, err := s.getOwned(userID, attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	attempt, err = s.ensureCurrent(attempt)
	if err != nil {
		return nil, nil, nil, err
	}

	questions, err := s.attemptRepo.GetQuestions(attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	answers, err := s.attemptRepo.GetAnswers(attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	return attempt, questions, answers, nil
}

// SaveAnswer апсертит ответ на вопрос попытки (last-write-wins)
func (s *AttemptService) SaveAnswer(userID, attemptID, questionID uint, selectedOption string) (*entity.AttemptAnswer, error) {
	if !entity.IsValidOption(selectedOption) {
		return nil, fmt.Errorf("%w: selected option must be one of A, B, C, D", apperrors.ErrValidation)
	}

	attempt, err := s.getOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	attempt, err = s.ensureCurrent(attempt)
	if err != nil {
		return nil, err
	}
	if attempt.IsSubmitted() {
		return nil, repository.ErrAttemptAlreadySubmitted
	}

	// Ответ принимается только на вопрос из снимка этой попытки
	ok, err := s.attemptRepo.HasQuestion(attemptID, questionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: question #%d is not part of attempt #%d", apperrors.ErrNotFound, questionID, attemptID)
	}

	answer := &entity.AttemptAnswer{
		AttemptID:      attemptID,
		QuestionID:     questionID,
		SelectedOption: selectedOption,
		AnsweredAt:     time.Now(),
	}
	if err := s.attemptRepo.UpsertAnswer(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// SubmitAttempt завершает попытку и подсчитывает результат
func (s *AttemptService) SubmitAttempt(userID, attemptID uint) (*entity.Attempt, error) {
	attempt, err := s.getOwned(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.IsSubmitted() {
		return nil, repository.ErrAttemptAlreadySubmitted
	}
	return s.finalize(attemptID)
}

// ListHistory возвращает историю попыток пользователя с пагинацией
func (s *AttemptService) ListHistory(userID uint, page, pageSize int) ([]entity.Attempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	return s.attemptRepo.ListByUser(userID, pageSize, offset)
}

// GetHistoryDetail возвращает полный разбор завершенной попытки: вопросы
// с правильными вариантами и объяснениями плюс ответы пользователя
func (s *AttemptService) GetHistoryDetail(userID, attemptID uint) (*entity.Attempt, []entity.AttemptQuestion, []entity.AttemptAnswer, error) {
	attempt, err := s.getOwned(userID, attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	attempt, err = s.ensureCurrent(attempt)
	if err != nil {
		return nil, nil, nil, err
	}
	if !attempt.IsSubmitted() {
		return nil, nil, nil, fmt.Errorf("%w: attempt #%d is still in progress", apperrors.ErrValidation, attemptID)
	}

	questions, err := s.attemptRepo.GetQuestions(attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	answers, err := s.attemptRepo.GetAnswers(attemptID)
	if err != nil {
		return nil, nil, nil, err
	}
	return attempt, questions, answers, nil
}

// ListTestAttempts возвращает завершенные попытки теста (админский экспорт)
func (s *AttemptService) ListTestAttempts(mockTestID uint) ([]entity.Attempt, error) {
	if _, err := s.mockTestRepo.GetByID(mockTestID); err != nil {
		return nil, err
	}
	return s.attemptRepo.ListSubmittedByTest(mockTestID)
}

// getOwned возвращает попытку, убедившись, что она принадлежит пользователю
func (s *AttemptService) getOwned(userID, attemptID uint) (*entity.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("%w: attempt #%d belongs to another user", apperrors.ErrForbidden, attemptID)
	}
	return attempt, nil
}

// ensureCurrent применяет ленивый таймаут: просроченная попытка
// форс-сабмитится до любого другого эффекта. Гонка с конкурирующим
// сабмитом безобидна — просто перечитываем итоговое состояние.
func (s *AttemptService) ensureCurrent(attempt *entity.Attempt) (*entity.Attempt, error) {
	if !attempt.IsTimedOut(time.Now()) {
		return attempt, nil
	}
	finalized, err := s.finalize(attempt.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptAlreadySubmitted) {
			return s.attemptRepo.GetByID(attempt.ID)
		}
		return nil, err
	}
	log.Printf("[AttemptService] attempt #%d auto-submitted after timeout", attempt.ID)
	return finalized, nil
}

// finalize переводит попытку в submitted с детерминированным подсчетом
func (s *AttemptService) finalize(attemptID uint) (*entity.Attempt, error) {
	return s.attemptRepo.FinalizeAttempt(attemptID, time.Now(), func(correctCount, totalQuestions int) (float64, string) {
		res := examrules.Score(correctCount, totalQuestions)
		return res.ScorePercent, res.Remark
	})
}
