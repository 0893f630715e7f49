package dto

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/service"
)

// AnswerItem - ответ на один вопрос в черновике или при сдаче
type AnswerItem struct {
	QuestionID    uint   `json:"questionId" binding:"required"`
	AnswerContent string `json:"answerContent" binding:"max=20000"`
}

// AnswersRequest - тело PUT /api/exams/:paperId/draft и POST /api/exams/:paperId/submit
type AnswersRequest struct {
	Answers []AnswerItem `json:"answers" binding:"dive"`
}

// ToInputs преобразует запрос в формат сервиса
func (r *AnswersRequest) ToInputs() []service.AnswerInput {
	inputs := make([]service.AnswerInput, 0, len(r.Answers))
	for _, a := range r.Answers {
		inputs = append(inputs, service.AnswerInput{QuestionID: a.QuestionID, AnswerContent: a.AnswerContent})
	}
	return inputs
}

// ManualGradeItem - оценка одного ответа. Балл принимается числом или строкой.
type ManualGradeItem struct {
	QuestionID uint             `json:"questionId" binding:"required"`
	Score      *decimal.Decimal `json:"score" binding:"required"`
	Remarks    string           `json:"remarks" binding:"max=2000"`
}

// ManualGradeRequest - тело POST /api/scores/manual-grade
type ManualGradeRequest struct {
	PaperID uint              `json:"paperId" binding:"required"`
	Answers []ManualGradeItem `json:"answers" binding:"required,min=1,dive"`
}

// ToInput преобразует запрос в формат сервиса
func (r *ManualGradeRequest) ToInput() service.ManualGradeInput {
	input := service.ManualGradeInput{
		PaperID: r.PaperID,
		Entries: make([]service.ManualGradeEntry, 0, len(r.Answers)),
	}
	for _, a := range r.Answers {
		input.Entries = append(input.Entries, service.ManualGradeEntry{
			QuestionID: a.QuestionID,
			Score:      *a.Score,
			Remarks:    a.Remarks,
		})
	}
	return input
}

// PublishRequest - тело POST /api/scores/publish
type PublishRequest struct {
	CompetitionID  uint `json:"competitionId" binding:"required"`
	NotifyStudents bool `json:"notifyStudents"`
}

// CompetitionRequest - тело POST /api/scores/recalculate-ranking
type CompetitionRequest struct {
	CompetitionID uint `json:"competitionId" binding:"required"`
}
