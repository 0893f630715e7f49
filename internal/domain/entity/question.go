package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// QuestionType - тип вопроса банка
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionFillBlank      QuestionType = "FILL_BLANK"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionEssay          QuestionType = "ESSAY"
	QuestionProgramming    QuestionType = "PROGRAMMING"
)

// IsObjective сообщает, проверяется ли вопрос автоматически
func (t QuestionType) IsObjective() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse, QuestionFillBlank:
		return true
	}
	return false
}

// HasOptions сообщает, показываются ли участнику варианты ответа
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse:
		return true
	}
	return false
}

// Question представляет вопрос банка. Сервис только читает вопросы:
// после попадания в лист вопрос не меняется, иначе баллы перестанут быть стабильными.
type Question struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Content       string          `gorm:"type:text" json:"content"`
	Type          QuestionType    `gorm:"column:question_type;size:32;not null" json:"type"`
	Options       StringArray     `gorm:"type:jsonb" json:"options"`
	CorrectAnswer string          `gorm:"type:text" json:"-"` // Скрыто от клиента
	Score         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"score"`
	UsageCount    int             `gorm:"not null;default:0" json:"usage_count"`
	CreatedBy     uint            `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// CheckAnswer сравнивает ответ участника с эталоном по правилам типа вопроса.
// Для субъективных вопросов всегда false: их проверяет эксперт.
func (q *Question) CheckAnswer(submitted string) bool {
	if strings.TrimSpace(submitted) == "" {
		return false
	}
	switch q.Type {
	case QuestionSingleChoice, QuestionFillBlank:
		return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(q.CorrectAnswer))
	case QuestionMultipleChoice:
		return equalChoiceSets(submitted, q.CorrectAnswer)
	case QuestionTrueFalse:
		got, ok1 := parseTrueFalse(submitted)
		want, ok2 := parseTrueFalse(q.CorrectAnswer)
		return ok1 && ok2 && got == want
	}
	return false
}

// equalChoiceSets сравнивает множества вариантов "A,C" и "c, a" без учета порядка и повторов
func equalChoiceSets(a, b string) bool {
	sa, sb := choiceSet(a), choiceSet(b)
	if len(sa) == 0 || len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func choiceSet(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		p := strings.ToUpper(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func parseTrueFalse(s string) (value bool, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE", "T", "1", "YES", "正确", "对":
		return true, true
	case "FALSE", "F", "0", "NO", "错误", "错":
		return false, true
	}
	return false, false
}

// CompetitionQuestion - связь конкурса и вопроса банка с порядком и весом
type CompetitionQuestion struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CompetitionID uint            `gorm:"not null;uniqueIndex:uq_competition_question" json:"competition_id"`
	QuestionID    uint            `gorm:"not null;uniqueIndex:uq_competition_question" json:"question_id"`
	QuestionOrder int             `gorm:"not null;default:0" json:"question_order"`
	QuestionScore decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"question_score"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	Question      *Question       `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (CompetitionQuestion) TableName() string {
	return "competition_questions"
}
