package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/examprep-api/internal/domain/repository"
	"github.com/yourusername/examprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// AttemptHandler обрабатывает запросы жизненного цикла попыток
type AttemptHandler struct {
	attemptService *service.AttemptService
}

// NewAttemptHandler создает новый обработчик попыток
func NewAttemptHandler(attemptService *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
	}
}

// StartAttempt начинает (или возобновляет) попытку прохождения теста
// POST /api/mock-tests/:id/attempts
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, err := h.attemptService.StartAttempt(userID, mockTestID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAttemptResponse(attempt))
}

// GetAttempt возвращает метаданные попытки (статус, оставшееся время, итог)
// GET /api/attempts/:id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, err := h.attemptService.GetAttemptMeta(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetAttemptQuestions возвращает снимок вопросов попытки с сохраненными
// ответами. До сабмита правильные варианты скрыты.
// GET /api/attempts/:id/questions
func (h *AttemptHandler) GetAttemptQuestions(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, questions, answers, err := h.attemptService.ListAttemptQuestions(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AttemptDetailResponse{
		Attempt:   dto.NewAttemptResponse(attempt),
		Questions: dto.NewAttemptQuestionsResponse(questions, answers, attempt.IsSubmitted()),
	})
}

// SaveAnswerRequest представляет запрос на сохранение ответа
type SaveAnswerRequest struct {
	QuestionID     uint   `json:"question_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required,oneof=A B C D"`
}

// SaveAnswer сохраняет ответ на вопрос попытки (апсерт, last-write-wins)
// PUT /api/attempts/:id/answers
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)

	var req SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.attemptService.SaveAnswer(userID, attemptID, req.QuestionID, req.SelectedOption)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAnswerResponse(answer))
}

// SubmitAttempt завершает попытку и возвращает подсчитанный результат
// POST /api/attempts/:id/submit
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, err := h.attemptService.SubmitAttempt(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAttemptResponse(attempt))
}

// GetHistory возвращает историю попыток пользователя с пагинацией
// GET /api/attempts
func (h *AttemptHandler) GetHistory(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	attempts, total, err := h.attemptService.ListHistory(userID, page, pageSize)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedAttemptResponse(attempts, total, page, pageSize))
}

// GetHistoryDetail возвращает полный разбор завершенной попытки: вопросы
// с правильными вариантами, объяснениями и ответами пользователя
// GET /api/attempts/:id/review
func (h *AttemptHandler) GetHistoryDetail(c *gin.Context) {
	attemptID := c.MustGet("attemptID").(uint)
	userID := c.MustGet("user_id").(uint)

	attempt, questions, answers, err := h.attemptService.GetHistoryDetail(userID, attemptID)
	if err != nil {
		h.handleAttemptError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AttemptDetailResponse{
		Attempt:   dto.NewAttemptResponse(attempt),
		Questions: dto.NewAttemptQuestionsResponse(questions, answers, true),
	})
}

// handleAttemptError обрабатывает ошибки сервиса попыток и отправляет
// соответствующий HTTP ответ. Структурные ошибки гейта несут редирект-пути,
// чтобы клиент мог отправить пользователя на регистрацию или в магазин.
func (h *AttemptHandler) handleAttemptError(c *gin.Context, err error) {
	var regErr *service.RegistrationRequiredError
	if errors.As(err, &regErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":         regErr.Error(),
			"error_type":    "registration_required",
			"mock_test_id":  regErr.MockTestID,
			"redirect_path": regErr.RedirectPath,
		})
		return
	}

	var exhausted *service.AttemptsExhaustedError
	if errors.As(err, &exhausted) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":              exhausted.Error(),
			"error_type":         "attempts_exhausted",
			"mock_test_id":       exhausted.MockTestID,
			"free_attempt_limit": exhausted.FreeAttemptLimit,
			"used_attempts":      exhausted.UsedAttempts,
			"purchase_path":      exhausted.PurchasePath,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrAttemptAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "already_submitted"})
	case errors.Is(err, service.ErrNoQuestionsAvailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "no_content"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	default:
		log.Printf("ERROR: Internal server error in AttemptHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "generic"})
	}
}
