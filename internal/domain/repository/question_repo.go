package repository

import (
	"context"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// QuestionBankRepository дает доступ на чтение к банку вопросов конкурса
type QuestionBankRepository interface {
	// ListActiveLinks возвращает активные связи конкурса с вопросами по порядку question_order
	ListActiveLinks(ctx context.Context, competitionID uint) ([]entity.CompetitionQuestion, error)
	// GetQuestionsByIDs возвращает вопросы, индексированные по ID
	GetQuestionsByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Question, error)
}
