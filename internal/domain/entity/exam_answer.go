package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// GradingStatus - состояние проверки одного ответа
type GradingStatus string

const (
	GradingPending      GradingStatus = "PENDING"
	GradingAutoGraded   GradingStatus = "AUTO_GRADED"
	GradingManualGraded GradingStatus = "MANUAL_GRADED"
)

var gradingTransitions = map[GradingStatus][]GradingStatus{
	GradingPending:      {GradingAutoGraded, GradingManualGraded},
	GradingAutoGraded:   {GradingAutoGraded},
	GradingManualGraded: {GradingManualGraded},
}

// IsTerminal - ответ проверен (автоматически или вручную)
func (s GradingStatus) IsTerminal() bool {
	return s == GradingAutoGraded || s == GradingManualGraded
}

// Transition возвращает новый статус проверки или ErrInvalidState.
// Повторная проверка тем же способом перезаписывает оценку.
func (s GradingStatus) Transition(to GradingStatus) (GradingStatus, error) {
	for _, next := range gradingTransitions[s] {
		if next == to {
			return to, nil
		}
	}
	return s, fmt.Errorf("%w: answer %s -> %s", apperrors.ErrInvalidState, s, to)
}

// ExamAnswer - ответ на один вопрос листа. Создается пустым при раздаче,
// набор ответов листа фиксируется в этот момент.
type ExamAnswer struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ExamPaperID   uint            `gorm:"not null;uniqueIndex:uq_exam_answer_question" json:"exam_paper_id"`
	QuestionID    uint            `gorm:"not null;uniqueIndex:uq_exam_answer_question" json:"question_id"`
	QuestionOrder int             `gorm:"not null;default:0" json:"question_order"`
	QuestionType  QuestionType    `gorm:"size:32;not null" json:"question_type"`
	AnswerContent string          `gorm:"type:text" json:"answer_content"`
	IsCorrect     *bool           `json:"is_correct,omitempty"`
	Score         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"score"`
	MaxScore      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"max_score"`
	GradingStatus GradingStatus   `gorm:"size:16;not null" json:"grading_status"`
	Remarks       string          `gorm:"type:text" json:"remarks,omitempty"`
	GradedBy      *uint           `json:"graded_by,omitempty"`
	GradedAt      *time.Time      `json:"graded_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamAnswer) TableName() string {
	return "exam_answers"
}

// IsAnswered - участник что-то ввел
func (a *ExamAnswer) IsAnswered() bool {
	return strings.TrimSpace(a.AnswerContent) != ""
}

// AutoGrade выставляет объективную оценку по эталону вопроса
func (a *ExamAnswer) AutoGrade(q *Question, now time.Time) error {
	next, err := a.GradingStatus.Transition(GradingAutoGraded)
	if err != nil {
		return err
	}
	correct := q.CheckAnswer(a.AnswerContent)
	a.IsCorrect = &correct
	if correct {
		a.Score = a.MaxScore
	} else {
		a.Score = decimal.Zero
	}
	a.GradingStatus = next
	a.GradedAt = &now
	a.UpdatedAt = now
	return nil
}

// ManualGrade выставляет оценку эксперта; балл должен быть в [0, MaxScore]
func (a *ExamAnswer) ManualGrade(score decimal.Decimal, remarks string, graderID uint, now time.Time) error {
	if score.IsNegative() || score.GreaterThan(a.MaxScore) {
		return fmt.Errorf("%w: score %s for question #%d must be between 0 and %s",
			apperrors.ErrValidation, score.String(), a.QuestionID, a.MaxScore.String())
	}
	next, err := a.GradingStatus.Transition(GradingManualGraded)
	if err != nil {
		return err
	}
	a.Score = score
	a.Remarks = remarks
	a.GradingStatus = next
	a.GradedBy = &graderID
	a.GradedAt = &now
	a.UpdatedAt = now
	return nil
}
