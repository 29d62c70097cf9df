package examrules

import (
	"math"
)

// ScoreResult — итог детерминированного подсчета
type ScoreResult struct {
	CorrectCount   int     `json:"correct_count"`
	TotalQuestions int     `json:"total_questions"`
	ScorePercent   float64 `json:"score_percent"`
	Remark         string  `json:"remark"`
}

// remarkThreshold — нижняя граница оценки в полном наборе TableSize вопросов
type remarkThreshold struct {
	Min    int
	Remark string
}

// Таблицы оценок: сверху вниз, первый подошедший порог выигрывает.
// Таблица для 60 вопросов — это таблица 30 вопросов, масштабированная ×2
// (кроме «Need to work more», у которого шире нижняя граница).
var remarkThresholds30 = []remarkThreshold{
	{28, "Excellent"},
	{25, "Very Good"},
	{22, "Good"},
	{15, "Need to work more"},
	{10, "Poor"},
	{0, "Very Poor"},
}

var remarkThresholds60 = []remarkThreshold{
	{56, "Excellent"},
	{50, "Very Good"},
	{44, "Good"},
	{30, "Need to work more"},
	{20, "Poor"},
	{0, "Very Poor"},
}

// Score подсчитывает процент и текстовую оценку.
// correctCount предварительно зажимается в [0, totalQuestions] — защита от
// испорченных входных данных.
//
// Пороги оценок масштабируются пропорционально размеру попытки: урезанный
// пул (меньше полного набора предмета) оценивается той же шкалой, и 12/12
// остается Excellent, а не «Poor» по сырому счету. Для полных наборов
// (30 и 60) результат совпадает с табличным.
func Score(correctCount, totalQuestions int) ScoreResult {
	if totalQuestions < 0 {
		totalQuestions = 0
	}
	if correctCount < 0 {
		correctCount = 0
	}
	if correctCount > totalQuestions {
		correctCount = totalQuestions
	}

	var percent float64
	if totalQuestions > 0 {
		percent = math.Round(float64(correctCount)/float64(totalQuestions)*100*100) / 100
	}

	thresholds, tableSize := remarkThresholds30, 30
	if totalQuestions >= 60 {
		thresholds, tableSize = remarkThresholds60, 60
	}

	remark := thresholds[len(thresholds)-1].Remark
	if totalQuestions > 0 {
		for _, th := range thresholds {
			// Целочисленное сравнение дробей: correct/total >= Min/tableSize
			if correctCount*tableSize >= th.Min*totalQuestions {
				remark = th.Remark
				break
			}
		}
	}

	return ScoreResult{
		CorrectCount:   correctCount,
		TotalQuestions: totalQuestions,
		ScorePercent:   percent,
		Remark:         remark,
	}
}
