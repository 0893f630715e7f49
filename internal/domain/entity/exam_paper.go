package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// PaperStatus - состояние экзаменационного листа
type PaperStatus string

const (
	PaperNotStarted PaperStatus = "NOT_STARTED"
	PaperInProgress PaperStatus = "IN_PROGRESS"
	PaperSubmitted  PaperStatus = "SUBMITTED"
	PaperGrading    PaperStatus = "GRADING"
	PaperGraded     PaperStatus = "GRADED"
)

// paperTransitions - единственный источник допустимых переходов.
// Переходы только вперед; GRADED -> GRADED нужен для исправления оценок.
var paperTransitions = map[PaperStatus][]PaperStatus{
	PaperNotStarted: {PaperInProgress},
	PaperInProgress: {PaperSubmitted},
	PaperSubmitted:  {PaperGrading, PaperGraded},
	PaperGrading:    {PaperGrading, PaperGraded},
	PaperGraded:     {PaperGraded},
}

// Valid проверяет, что статус входит в закрытое множество
func (s PaperStatus) Valid() bool {
	_, ok := paperTransitions[s]
	return ok
}

// CanTransition сообщает, разрешен ли переход s -> to
func (s PaperStatus) CanTransition(to PaperStatus) bool {
	for _, next := range paperTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition возвращает новый статус или ErrInvalidState
func (s PaperStatus) Transition(to PaperStatus) (PaperStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: paper %s -> %s", apperrors.ErrInvalidState, s, to)
	}
	return to, nil
}

// ExamPaper - экземпляр экзамена одного участника в одном конкурсе.
// Уникален по (competition_id, participant_type, participant_id), никогда не удаляется.
type ExamPaper struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	CompetitionID      uint            `gorm:"not null;uniqueIndex:uq_exam_paper_participant" json:"competition_id"`
	ParticipantType    ParticipantType `gorm:"size:16;not null;uniqueIndex:uq_exam_paper_participant" json:"participant_type"`
	ParticipantID      uint            `gorm:"not null;uniqueIndex:uq_exam_paper_participant" json:"participant_id"`
	Status             PaperStatus     `gorm:"size:16;not null;index" json:"status"`
	StartTime          *time.Time      `json:"start_time,omitempty"`
	SubmitTime         *time.Time      `json:"submit_time,omitempty"`
	ObjectiveScore     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"objective_score"`
	SubjectiveScore    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"subjective_score"`
	TotalScore         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_score"`
	CorrectCount       int             `gorm:"not null;default:0" json:"correct_count"`
	TotalQuestionCount int             `gorm:"not null;default:0" json:"total_question_count"`
	GradedBy           *uint           `json:"graded_by,omitempty"`
	GradedAt           *time.Time      `json:"graded_at,omitempty"`
	ClientIP           string          `gorm:"size:64" json:"client_ip,omitempty"`
	UserAgent          string          `gorm:"size:512" json:"user_agent,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (ExamPaper) TableName() string {
	return "exam_papers"
}

// MoveTo переводит лист в новый статус через функцию переходов
func (p *ExamPaper) MoveTo(to PaperStatus) error {
	next, err := p.Status.Transition(to)
	if err != nil {
		return fmt.Errorf("paper #%d: %w", p.ID, err)
	}
	p.Status = next
	return nil
}

// Participant возвращает участника, которому принадлежит лист
func (p *ExamPaper) Participant() Participant {
	return Participant{Type: p.ParticipantType, ID: p.ParticipantID}
}

// ApplyScores пересчитывает суммы по ответам листа.
// Инвариант: TotalScore == ObjectiveScore + SubjectiveScore.
// Возвращает число ответов, которые еще ждут ручной проверки.
func (p *ExamPaper) ApplyScores(answers []ExamAnswer) (pending int) {
	objective := decimal.Zero
	subjective := decimal.Zero
	correct := 0
	for i := range answers {
		a := &answers[i]
		switch a.GradingStatus {
		case GradingAutoGraded:
			objective = objective.Add(a.Score)
		case GradingManualGraded:
			subjective = subjective.Add(a.Score)
		default:
			pending++
		}
		if a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}
	p.ObjectiveScore = objective
	p.SubjectiveScore = subjective
	p.TotalScore = objective.Add(subjective)
	p.CorrectCount = correct
	return pending
}
