package examrules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_KnownValues(t *testing.T) {
	res := Score(17, 30)
	assert.Equal(t, 17, res.CorrectCount)
	assert.Equal(t, 30, res.TotalQuestions)
	assert.Equal(t, 56.67, res.ScorePercent)
	assert.Equal(t, "Need to work more", res.Remark)

	res = Score(29, 30)
	assert.Equal(t, "Excellent", res.Remark)

	res = Score(58, 60)
	assert.Equal(t, "Excellent", res.Remark)
	assert.Equal(t, 96.67, res.ScorePercent)
}

func TestScore_BucketBoundaries30(t *testing.T) {
	cases := []struct {
		correct int
		remark  string
	}{
		{30, "Excellent"},
		{28, "Excellent"},
		{27, "Very Good"},
		{25, "Very Good"},
		{24, "Good"},
		{22, "Good"},
		{21, "Need to work more"},
		{15, "Need to work more"},
		{14, "Poor"},
		{10, "Poor"},
		{9, "Very Poor"},
		{0, "Very Poor"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.remark, Score(tc.correct, 30).Remark, "correct=%d", tc.correct)
	}
}

func TestScore_BucketBoundaries60(t *testing.T) {
	cases := []struct {
		correct int
		remark  string
	}{
		{60, "Excellent"},
		{56, "Excellent"},
		{55, "Very Good"},
		{50, "Very Good"},
		{49, "Good"},
		{44, "Good"},
		{43, "Need to work more"},
		{30, "Need to work more"},
		{29, "Poor"},
		{20, "Poor"},
		{19, "Very Poor"},
		{0, "Very Poor"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.remark, Score(tc.correct, 60).Remark, "correct=%d", tc.correct)
	}
}

func TestScore_ClampsCorruptedInput(t *testing.T) {
	res := Score(-5, 30)
	assert.Equal(t, 0, res.CorrectCount)
	assert.Equal(t, 0.0, res.ScorePercent)
	assert.Equal(t, "Very Poor", res.Remark)

	res = Score(45, 30)
	assert.Equal(t, 30, res.CorrectCount)
	assert.Equal(t, 100.0, res.ScorePercent)
	assert.Equal(t, "Excellent", res.Remark)
}

func TestScore_ZeroTotalDoesNotDivide(t *testing.T) {
	res := Score(3, 0)
	assert.Equal(t, 0, res.CorrectCount)
	assert.Equal(t, 0.0, res.ScorePercent)
}

func TestScore_ShrunkPoolScalesThresholds(t *testing.T) {
	// При урезанном пуле (активных вопросов меньше полного набора)
	// оценка идет по той же доле правильных, а не по сырому счету
	res := Score(12, 12)
	assert.Equal(t, 100.0, res.ScorePercent)
	assert.Equal(t, "Excellent", res.Remark)

	// 6/12 = 50% — та же оценка, что 15/30
	assert.Equal(t, "Need to work more", Score(6, 12).Remark)
	assert.Equal(t, Score(15, 30).Remark, Score(6, 12).Remark)

	// 4/12 = 33% — граница Poor (10/30)
	assert.Equal(t, "Poor", Score(4, 12).Remark)

	res = Score(0, 12)
	assert.Equal(t, "Very Poor", res.Remark)
}

func TestScore_MonotonicNonDecreasing(t *testing.T) {
	for _, total := range []int{30, 60} {
		prevPercent := -1.0
		for correct := 0; correct <= total; correct++ {
			res := Score(correct, total)
			assert.GreaterOrEqual(t, res.ScorePercent, prevPercent, "total=%d correct=%d", total, correct)
			assert.GreaterOrEqual(t, res.ScorePercent, 0.0)
			assert.LessOrEqual(t, res.ScorePercent, 100.0)
			prevPercent = res.ScorePercent
		}
	}
}
