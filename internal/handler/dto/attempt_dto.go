package dto

import (
	"time"

	"github.com/yourusername/examprep-api/internal/domain/entity"
)

// AttemptResponse представляет попытку в формате для ответа клиенту.
// RemainingSeconds вычисляется на момент формирования ответа.
type AttemptResponse struct {
	ID               uint       `json:"id"`
	MockTestID       uint       `json:"mock_test_id"`
	TotalQuestions   int        `json:"total_questions"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	AllottedSeconds  int        `json:"allotted_seconds"`
	RemainingSeconds int        `json:"remaining_seconds"`
	CorrectCount     *int       `json:"correct_count,omitempty"`
	ScorePercent     *float64   `json:"score_percent,omitempty"`
	Remark           *string    `json:"remark,omitempty"`
}

// NewAttemptResponse создает DTO для попытки
func NewAttemptResponse(attempt *entity.Attempt) *AttemptResponse {
	if attempt == nil {
		return nil
	}
	return &AttemptResponse{
		ID:               attempt.ID,
		MockTestID:       attempt.MockTestID,
		TotalQuestions:   attempt.TotalQuestions,
		Status:           attempt.Status,
		StartedAt:        attempt.StartedAt,
		SubmittedAt:      attempt.SubmittedAt,
		AllottedSeconds:  attempt.AllottedSeconds(),
		RemainingSeconds: attempt.RemainingSeconds(time.Now()),
		CorrectCount:     attempt.CorrectCount,
		ScorePercent:     attempt.ScorePercent,
		Remark:           attempt.Remark,
	}
}

// PaginatedAttemptResponse представляет пагинированную историю попыток
type PaginatedAttemptResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PerPage  int                `json:"per_page"`
}

// NewPaginatedAttemptResponse создает DTO для истории попыток
func NewPaginatedAttemptResponse(attempts []entity.Attempt, total int64, page, perPage int) *PaginatedAttemptResponse {
	list := make([]*AttemptResponse, len(attempts))
	for i, attempt := range attempts {
		list[i] = NewAttemptResponse(&attempt)
	}
	return &PaginatedAttemptResponse{
		Attempts: list,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	}
}

// AttemptQuestionResponse представляет вопрос попытки.
// Правильный вариант и объяснение заполняются только после сабмита.
type AttemptQuestionResponse struct {
	QuestionID     uint    `json:"question_id"`
	OrderIndex     int     `json:"order_index"`
	Text           string  `json:"text"`
	OptionA        string  `json:"option_a"`
	OptionB        string  `json:"option_b"`
	OptionC        string  `json:"option_c"`
	OptionD        string  `json:"option_d"`
	Section        *string `json:"section,omitempty"`
	SelectedOption *string `json:"selected_option,omitempty"`
	CorrectOption  *string `json:"correct_option,omitempty"`
	Explanation    *string `json:"explanation,omitempty"`
	IsCorrect      *bool   `json:"is_correct,omitempty"`
}

// NewAttemptQuestionsResponse собирает вопросы попытки вместе с ответами
// пользователя. revealAnswers управляет выдачей correct_option/explanation:
// до сабмита они всегда скрыты.
func NewAttemptQuestionsResponse(questions []entity.AttemptQuestion, answers []entity.AttemptAnswer, revealAnswers bool) []AttemptQuestionResponse {
	answerByQuestion := make(map[uint]entity.AttemptAnswer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	list := make([]AttemptQuestionResponse, len(questions))
	for i, aq := range questions {
		q := aq.Question
		resp := AttemptQuestionResponse{
			QuestionID: aq.QuestionID,
			OrderIndex: aq.OrderIndex,
			Text:       q.Text,
			OptionA:    q.OptionA,
			OptionB:    q.OptionB,
			OptionC:    q.OptionC,
			OptionD:    q.OptionD,
			Section:    q.Section,
		}
		if answer, ok := answerByQuestion[aq.QuestionID]; ok {
			selected := answer.SelectedOption
			resp.SelectedOption = &selected
			if revealAnswers {
				correct := q.IsCorrect(selected)
				resp.IsCorrect = &correct
			}
		}
		if revealAnswers {
			correctOption := q.CorrectOption
			resp.CorrectOption = &correctOption
			resp.Explanation = q.Explanation
		}
		list[i] = resp
	}
	return list
}

// AnswerResponse представляет сохраненный ответ
type AnswerResponse struct {
	AttemptID      uint      `json:"attempt_id"`
	QuestionID     uint      `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// NewAnswerResponse создает DTO для сохраненного ответа
func NewAnswerResponse(answer *entity.AttemptAnswer) *AnswerResponse {
	if answer == nil {
		return nil
	}
	return &AnswerResponse{
		AttemptID:      answer.AttemptID,
		QuestionID:     answer.QuestionID,
		SelectedOption: answer.SelectedOption,
		AnsweredAt:     answer.AnsweredAt,
	}
}

// AttemptDetailResponse представляет полный разбор попытки
type AttemptDetailResponse struct {
	Attempt   *AttemptResponse          `json:"attempt"`
	Questions []AttemptQuestionResponse `json:"questions"`
}
