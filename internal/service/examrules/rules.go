package examrules

import (
	"fmt"

	apperrors "github.com/yourusername/examprep-api/internal/pkg/errors"
)

// Фиксированная таксономия экзаменов: два типа экзамена, шесть предметов.
// Проверяется и при создании теста админом, и при старте попытки
// (защита от устаревшей конфигурации в БД).
const (
	ExamTypeSEE = "SEE"
	ExamTypeNEB = "NEB"
)

const (
	SubjectEnglish = "english"
	SubjectNepali  = "nepali"
	SubjectMath    = "math"
	SubjectScience = "science"
	SubjectSocial  = "social"
	SubjectAccount = "account"
)

const (
	StreamScience    = "science"
	StreamManagement = "management"
)

const (
	LanguageModeEnglish = "english"
	LanguageModeNepali  = "nepali"
)

// examSubjects задает, какие предметы допустимы для каждого типа экзамена
var examSubjects = map[string]map[string]bool{
	ExamTypeSEE: {
		SubjectEnglish: true,
		SubjectNepali:  true,
		SubjectMath:    true,
		SubjectScience: true,
		SubjectSocial:  true,
	},
	ExamTypeNEB: {
		SubjectEnglish: true,
		SubjectNepali:  true,
		SubjectMath:    true,
		SubjectScience: true,
		SubjectSocial:  true,
		SubjectAccount: true,
	},
}

// languageSubjects — языковые предметы: language_mode для них не задается
var languageSubjects = map[string]bool{
	SubjectEnglish: true,
	SubjectNepali:  true,
}

// streamSubjects — предметы, для которых под NEB имеет смысл выбор потока
var streamSubjects = map[string]bool{
	SubjectScience: true,
	SubjectSocial:  true,
}

var validStreams = map[string]bool{
	StreamScience:    true,
	StreamManagement: true,
}

var validLanguageModes = map[string]bool{
	LanguageModeEnglish: true,
	LanguageModeNepali:  true,
}

// requiredQuestionsBySubject — фиксированное число вопросов полного теста по предмету
var requiredQuestionsBySubject = map[string]int{
	SubjectEnglish: 60,
	SubjectNepali:  60,
	SubjectMath:    60,
	SubjectScience: 60,
	SubjectSocial:  30,
	SubjectAccount: 30,
}

// Options смягчает отдельные правила для сценариев листинга
type Options struct {
	// AllowStreamOnCommonSubjects разрешает stream_choice на предметах без
	// потоков (студенческая фильтрация передает поток «сквозняком»)
	AllowStreamOnCommonSubjects bool
	// AllowMissingLanguageMode разрешает пустой language_mode на неязыковых
	// предметах (генерический листинг тестов)
	AllowMissingLanguageMode bool
}

// Validate проверяет комбинацию (examType, subject, streamChoice, languageMode)
// против фиксированной таксономии. Все ошибки оборачивают apperrors.ErrValidation.
func Validate(examType, subject, streamChoice, languageMode string, opts Options) error {
	subjects, ok := examSubjects[examType]
	if !ok {
		return fmt.Errorf("%w: unknown exam type %q", apperrors.ErrValidation, examType)
	}
	if !subjects[subject] {
		return fmt.Errorf("%w: subject %q is not offered for exam type %q", apperrors.ErrValidation, subject, examType)
	}

	if streamChoice != "" {
		if !validStreams[streamChoice] {
			return fmt.Errorf("%w: unknown stream choice %q", apperrors.ErrValidation, streamChoice)
		}
		// Поток осмыслен только для science/social под NEB
		if examType != ExamTypeNEB || !streamSubjects[subject] {
			if !opts.AllowStreamOnCommonSubjects {
				return fmt.Errorf("%w: stream choice %q is not applicable to %s/%s", apperrors.ErrValidation, streamChoice, examType, subject)
			}
		}
	}

	if IsLanguageSubject(subject) {
		if languageMode != "" {
			return fmt.Errorf("%w: language mode is not applicable to language subject %q", apperrors.ErrValidation, subject)
		}
		return nil
	}

	if languageMode == "" {
		if opts.AllowMissingLanguageMode {
			return nil
		}
		return fmt.Errorf("%w: language mode is required for subject %q", apperrors.ErrValidation, subject)
	}
	if !validLanguageModes[languageMode] {
		return fmt.Errorf("%w: unknown language mode %q", apperrors.ErrValidation, languageMode)
	}
	return nil
}

// IsLanguageSubject сообщает, является ли предмет языковым
func IsLanguageSubject(subject string) bool {
	return languageSubjects[subject]
}

// RequiredQuestions возвращает требуемое число вопросов полного теста по предмету.
// Для неизвестного предмета возвращает 30 (короткий формат).
func RequiredQuestions(subject string) int {
	if n, ok := requiredQuestionsBySubject[subject]; ok {
		return n
	}
	return 30
}
