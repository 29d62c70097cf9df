package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// MockTestResponse представляет пробный тест в формате для ответа клиенту
type MockTestResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	ExamType     string    `json:"exam_type"`
	Subject      string    `json:"subject"`
	StreamChoice *string   `json:"stream_choice,omitempty"`
	LanguageMode *string   `json:"language_mode,omitempty"`
	AccessTier   string    `json:"access_tier"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewMockTestResponse создает DTO для пробного теста
func NewMockTestResponse(test *entity.MockTest) *MockTestResponse {
	if test == nil {
		return nil
	}
	return &MockTestResponse{
		ID:           test.ID,
		Title:        test.Title,
		ExamType:     test.ExamType,
		Subject:      test.Subject,
		StreamChoice: test.StreamChoice,
		LanguageMode: test.LanguageMode,
		AccessTier:   test.CurrentTier(),
		IsActive:     test.IsActive,
		CreatedAt:    test.CreatedAt,
		UpdatedAt:    test.UpdatedAt,
	}
}

// NewListMockTestResponse создает слайс DTO для списка тестов
func NewListMockTestResponse(tests []entity.MockTest) []*MockTestResponse {
	list := make([]*MockTestResponse, len(tests))
	for i, test := range tests {
		list[i] = NewMockTestResponse(&test)
	}
	return list
}

// PaginatedMockTestResponse представляет пагинированный список тестов
type PaginatedMockTestResponse struct {
	MockTests []*MockTestResponse `json:"mock_tests"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	PerPage   int                 `json:"per_page"`
}

// NewPaginatedMockTestResponse создает DTO для пагинированного списка тестов
func NewPaginatedMockTestResponse(tests []entity.MockTest, total int64, page, perPage int) *PaginatedMockTestResponse {
	return &PaginatedMockTestResponse{
		MockTests: NewListMockTestResponse(tests),
		Total:     total,
		Page:      page,
		PerPage:   perPage,
	}
}

// AdminQuestionResponse представляет вопрос в админке: в отличие от
// студенческого вида, правильный вариант и объяснение не скрываются
type AdminQuestionResponse struct {
	ID            uint    `json:"id"`
	Text          string  `json:"text"`
	OptionA       string  `json:"option_a"`
	OptionB       string  `json:"option_b"`
	OptionC       string  `json:"option_c"`
	OptionD       string  `json:"option_d"`
	CorrectOption string  `json:"correct_option"`
	Explanation   *string `json:"explanation,omitempty"`
	Section       *string `json:"section,omitempty"`
	IsActive      bool    `json:"is_active"`
}

// NewAdminQuestionResponse создает админский DTO вопроса
func NewAdminQuestionResponse(q *entity.Question) *AdminQuestionResponse {
	if q == nil {
		return nil
	}
	return &AdminQuestionResponse{
		ID:            q.ID,
		Text:          q.Text,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		CorrectOption: q.CorrectOption,
		Explanation:   q.Explanation,
		Section:       q.Section,
		IsActive:      q.IsActive,
	}
}

// AdminMockTestDetailResponse представляет тест с вопросами для админки
type AdminMockTestDetailResponse struct {
	MockTest  *MockTestResponse        `json:"mock_test"`
	Questions []*AdminQuestionResponse `json:"questions"`
}

// NewAdminMockTestDetailResponse создает DTO теста с вопросами
func NewAdminMockTestDetailResponse(test *entity.MockTest) *AdminMockTestDetailResponse {
	questions := make([]*AdminQuestionResponse, len(test.Questions))
	for i := range test.Questions {
		questions[i] = NewAdminQuestionResponse(&test.Questions[i])
	}
	return &AdminMockTestDetailResponse{
		MockTest:  NewMockTestResponse(test),
		Questions: questions,
	}
}

// RegistrationGateResponse представляет регистрационный гейт теста
type RegistrationGateResponse struct {
	ID               uint `json:"id"`
	MockTestID       uint `json:"mock_test_id"`
	FreeAttemptLimit int  `json:"free_attempt_limit"`
	IsActive         bool `json:"is_active"`
}

// NewRegistrationGateResponse создает DTO для гейта
func NewRegistrationGateResponse(gate *entity.RegistrationGate) *RegistrationGateResponse {
	if gate == nil {
		return nil
	}
	return &RegistrationGateResponse{
		ID:               gate.ID,
		MockTestID:       gate.MockTestID,
		FreeAttemptLimit: gate.FreeAttemptLimit,
		IsActive:         gate.IsActive,
	}
}
