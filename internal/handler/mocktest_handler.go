package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/examprep-api/internal/domain/entity"
	"github.com/yourusername/examprep-api/internal/handler/dto"
	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
	"github.com/yourusername/examprep-api/internal/service"
)

// MockTestHandler обрабатывает запросы авторинга и каталога пробных тестов
type MockTestHandler struct {
	mockTestService     *service.MockTestService
	registrationService *service.RegistrationService
	attemptService      *service.AttemptService
}

// NewMockTestHandler создает новый обработчик пробных тестов
func NewMockTestHandler(
	mockTestService *service.MockTestService,
	registrationService *service.RegistrationService,
	attemptService *service.AttemptService,
) *MockTestHandler {
	return &MockTestHandler{
		mockTestService:     mockTestService,
		registrationService: registrationService,
		attemptService:      attemptService,
	}
}

// CreateMockTestRequest представляет запрос на создание пробного теста
type CreateMockTestRequest struct {
	Title        string  `json:"title" binding:"required,min=3,max=200"`
	ExamType     string  `json:"exam_type" binding:"required"`
	Subject      string  `json:"subject" binding:"required"`
	StreamChoice *string `json:"stream_choice,omitempty"`
	LanguageMode *string `json:"language_mode,omitempty"`
	AccessTier   string  `json:"access_tier,omitempty"`
}

// CreateMockTest обрабатывает запрос на создание пробного теста
// POST /api/admin/mock-tests
func (h *MockTestHandler) CreateMockTest(c *gin.Context) {
	var req CreateMockTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID := c.MustGet("user_id").(uint)
	test, err := h.mockTestService.CreateMockTest(authorID, service.CreateMockTestInput{
		Title:        req.Title,
		ExamType:     req.ExamType,
		Subject:      req.Subject,
		StreamChoice: req.StreamChoice,
		LanguageMode: req.LanguageMode,
		AccessTier:   req.AccessTier,
	})
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewMockTestResponse(test))
}

// GetMockTest возвращает информацию о пробном тесте
// GET /api/mock-tests/:id
func (h *MockTestHandler) GetMockTest(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	test, err := h.mockTestService.GetMockTest(mockTestID)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMockTestResponse(test))
}

// UpdateMockTestRequest представляет запрос на обновление пробного теста
type UpdateMockTestRequest struct {
	Title        string  `json:"title" binding:"required,min=3,max=200"`
	ExamType     string  `json:"exam_type" binding:"required"`
	Subject      string  `json:"subject" binding:"required"`
	StreamChoice *string `json:"stream_choice,omitempty"`
	LanguageMode *string `json:"language_mode,omitempty"`
}

// UpdateMockTest обновляет пробный тест
// PUT /api/admin/mock-tests/:id
func (h *MockTestHandler) UpdateMockTest(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	var req UpdateMockTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	test, err := h.mockTestService.UpdateMockTest(mockTestID, service.UpdateMockTestInput{
		Title:        req.Title,
		ExamType:     req.ExamType,
		Subject:      req.Subject,
		StreamChoice: req.StreamChoice,
		LanguageMode: req.LanguageMode,
	})
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMockTestResponse(test))
}

// GetMockTestDetail возвращает тест вместе с вопросами для редактора админки
// GET /api/admin/mock-tests/:id
func (h *MockTestHandler) GetMockTestDetail(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	test, err := h.mockTestService.GetMockTestWithQuestions(mockTestID)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAdminMockTestDetailResponse(test))
}

// ListMockTests возвращает тесты, подходящие под профиль студента
// GET /api/mock-tests?exam_type=SEE&subject=social&language_mode=english
func (h *MockTestHandler) ListMockTests(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	tests, total, err := h.mockTestService.ListEligibleTests(
		c.Query("exam_type"),
		c.Query("subject"),
		c.Query("stream_choice"),
		c.Query("language_mode"),
		page, pageSize,
	)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedMockTestResponse(tests, total, page, pageSize))
}

// ValidateConfigurationRequest представляет запрос на проверку конфигурации
type ValidateConfigurationRequest struct {
	ExamType     string  `json:"exam_type" binding:"required"`
	Subject      string  `json:"subject" binding:"required"`
	StreamChoice *string `json:"stream_choice,omitempty"`
	LanguageMode *string `json:"language_mode,omitempty"`
}

// ValidateConfiguration проверяет комбинацию экзамен/предмет/поток/язык
// без создания теста (для форм админки)
// POST /api/admin/mock-tests/validate
func (h *MockTestHandler) ValidateConfiguration(c *gin.Context) {
	var req ValidateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := service.ValidateConfiguration(req.ExamType, req.Subject, req.StreamChoice, req.LanguageMode); err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// AddQuestionsRequest представляет запрос на пакетное добавление вопросов
type AddQuestionsRequest struct {
	Questions []struct {
		Text          string  `json:"text" binding:"required,min=3"`
		OptionA       string  `json:"option_a" binding:"required,max=500"`
		OptionB       string  `json:"option_b" binding:"required,max=500"`
		OptionC       string  `json:"option_c" binding:"required,max=500"`
		OptionD       string  `json:"option_d" binding:"required,max=500"`
		CorrectOption string  `json:"correct_option" binding:"required,oneof=A B C D"`
		Explanation   *string `json:"explanation,omitempty"`
		Section       *string `json:"section,omitempty"`
	} `json:"questions" binding:"required,min=1"`
}

// AddQuestions обрабатывает запрос на добавление вопросов к тесту
// POST /api/admin/mock-tests/:id/questions
func (h *MockTestHandler) AddQuestions(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	var req AddQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make([]service.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, service.QuestionInput{
			Text:          q.Text,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
			Explanation:   q.Explanation,
			Section:       q.Section,
		})
	}

	questions, err := h.mockTestService.AddQuestions(mockTestID, inputs)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Questions added successfully",
		"count":   len(questions),
	})
}

// UpdateQuestionRequest представляет запрос на обновление вопроса
type UpdateQuestionRequest struct {
	Text          string  `json:"text" binding:"required,min=3"`
	OptionA       string  `json:"option_a" binding:"required,max=500"`
	OptionB       string  `json:"option_b" binding:"required,max=500"`
	OptionC       string  `json:"option_c" binding:"required,max=500"`
	OptionD       string  `json:"option_d" binding:"required,max=500"`
	CorrectOption string  `json:"correct_option" binding:"required,oneof=A B C D"`
	Explanation   *string `json:"explanation,omitempty"`
	Section       *string `json:"section,omitempty"`
}

// UpdateQuestion обновляет вопрос теста
// PUT /api/admin/questions/:id
func (h *MockTestHandler) UpdateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.mockTestService.UpdateQuestion(questionID, service.QuestionInput{
		Text:          req.Text,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Explanation:   req.Explanation,
		Section:       req.Section,
	})
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAdminQuestionResponse(question))
}

// DeactivateQuestion мягко отключает вопрос теста
// DELETE /api/admin/questions/:id
func (h *MockTestHandler) DeactivateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.mockTestService.DeactivateQuestion(questionID); err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question deactivated"})
}

// SetAccessTierRequest представляет запрос на смену уровня доступа
type SetAccessTierRequest struct {
	AccessTier string `json:"access_tier" binding:"required"`
}

// SetAccessTier меняет уровень доступа теста с записью в аудит
// PUT /api/admin/mock-tests/:id/access-tier
func (h *MockTestHandler) SetAccessTier(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)
	changedBy := c.MustGet("user_id").(uint)

	var req SetAccessTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mockTestService.SetAccessTier(mockTestID, req.AccessTier, changedBy); err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Access tier updated"})
}

// DeactivateMockTest мягко отключает тест
// DELETE /api/admin/mock-tests/:id
func (h *MockTestHandler) DeactivateMockTest(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	if err := h.mockTestService.DeactivateMockTest(mockTestID); err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Mock test deactivated"})
}

// ConfigureGateRequest представляет запрос на настройку регистрационного гейта
type ConfigureGateRequest struct {
	FreeAttemptLimit int  `json:"free_attempt_limit" binding:"min=0"`
	IsActive         bool `json:"is_active"`
}

// ConfigureGate создает или обновляет регистрационный гейт теста
// PUT /api/admin/mock-tests/:id/registration-gate
func (h *MockTestHandler) ConfigureGate(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)

	var req ConfigureGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gate, err := h.registrationService.ConfigureGate(mockTestID, req.FreeAttemptLimit, req.IsActive)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRegistrationGateResponse(gate))
}

// RegisterRequest представляет запрос на регистрацию на тест
type RegisterRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// Register регистрирует пользователя на гейт теста (идемпотентно)
// POST /api/mock-tests/:id/register
func (h *MockTestHandler) Register(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)
	userID := c.MustGet("user_id").(uint)

	// Тело опционально: пустой запрос регистрирует без письма
	var req RegisterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.registrationService.Register(userID, mockTestID, req.Email); err != nil {
		h.handleMockTestError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registered successfully"})
}

// ExportAttempts экспортирует завершенные попытки теста в CSV или Excel
// GET /api/admin/mock-tests/:id/attempts/export?format=csv|xlsx
func (h *MockTestHandler) ExportAttempts(c *gin.Context) {
	mockTestID := c.MustGet("mockTestID").(uint)
	format := c.DefaultQuery("format", "csv")

	attempts, err := h.attemptService.ListTestAttempts(mockTestID)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	test, err := h.mockTestService.GetMockTest(mockTestID)
	if err != nil {
		h.handleMockTestError(c, err)
		return
	}

	filename := fmt.Sprintf("mock_test_%d_attempts_%s", mockTestID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, attempts, test, filename)
	default:
		h.exportCSV(c, attempts, test, filename)
	}
}

// exportCSV экспортирует попытки в CSV с правильным экранированием спецсимволов
func (h *MockTestHandler) exportCSV(c *gin.Context, attempts []entity.Attempt, test *entity.MockTest, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Attempt ID", "User ID", "Test", "Started At", "Submitted At", "Total Questions", "Correct", "Score %", "Remark"})

	for _, a := range attempts {
		writer.Write(attemptExportRow(&a, test))
	}
}

// exportXLSX экспортирует попытки в Excel с использованием StreamWriter
func (h *MockTestHandler) exportXLSX(c *gin.Context, attempts []entity.Attempt, test *entity.MockTest, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attempts"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[MockTestHandler] StreamWriter init failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"Attempt ID", "User ID", "Test", "Started At", "Submitted At", "Total Questions", "Correct", "Score %", "Remark"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[MockTestHandler] header row write failed: %v", err)
	}

	for i, a := range attempts {
		rowNum := i + 2
		cell := fmt.Sprintf("A%d", rowNum)
		strRow := attemptExportRow(&a, test)
		row := make([]interface{}, len(strRow))
		for j, v := range strRow {
			row[j] = v
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[MockTestHandler] row %d write failed: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[MockTestHandler] flush failed: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[MockTestHandler] Excel response write failed: %v", err)
	}
}

// attemptExportRow собирает одну строку экспорта попытки
func attemptExportRow(a *entity.Attempt, test *entity.MockTest) []string {
	submittedAt := ""
	if a.SubmittedAt != nil {
		submittedAt = a.SubmittedAt.Format(time.RFC3339)
	}
	correct := ""
	if a.CorrectCount != nil {
		correct = strconv.Itoa(*a.CorrectCount)
	}
	score := ""
	if a.ScorePercent != nil {
		score = strconv.FormatFloat(*a.ScorePercent, 'f', 2, 64)
	}
	remark := ""
	if a.Remark != nil {
		remark = *a.Remark
	}
	return []string{
		strconv.FormatUint(uint64(a.ID), 10),
		strconv.FormatUint(uint64(a.UserID), 10),
		sanitizeForExcel(test.Title),
		a.StartedAt.Format(time.RFC3339),
		submittedAt,
		strconv.Itoa(a.TotalQuestions),
		correct,
		score,
		sanitizeForExcel(remark),
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleMockTestError обрабатывает ошибки сервисов тестов и отправляет
// соответствующий HTTP ответ
func (h *MockTestHandler) handleMockTestError(c *gin.Context, err error) {
	switch {
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
		log.Printf("ERROR: Internal server error in MockTestHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "generic"})
	}
}
