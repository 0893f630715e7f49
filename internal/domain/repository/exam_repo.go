package repository

import (
	"context"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// ExamPaperRepository определяет методы для работы с экзаменационными листами
type ExamPaperRepository interface {
	// CreateWithAnswers создает лист вместе с пустыми ответами.
	// Если у участника уже есть лист в конкурсе, возвращает ErrConflict.
	CreateWithAnswers(ctx context.Context, paper *entity.ExamPaper, answers []entity.ExamAnswer) error
	Exists(ctx context.Context, competitionID uint, participant entity.Participant) (bool, error)
	GetByID(ctx context.Context, id uint) (*entity.ExamPaper, error)
	// GetByIDForUpdate блокирует строку листа до конца транзакции
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.ExamPaper, error)
	FindByParticipant(ctx context.Context, competitionID uint, participant entity.Participant) (*entity.ExamPaper, error)
	Update(ctx context.Context, paper *entity.ExamPaper) error
	// ListByStatus возвращает листы в статусе; competitionID == 0 означает все конкурсы
	ListByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) ([]entity.ExamPaper, error)
	CountByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) (int64, error)
}

// AnswerStats - сводка по ответам одного листа
type AnswerStats struct {
	PaperID uint
	Total   int
	Pending int
	Graded  int
}

// ExamAnswerRepository определяет методы для работы с ответами листа
type ExamAnswerRepository interface {
	// ListByPaper возвращает ответы листа по порядку вопросов
	ListByPaper(ctx context.Context, paperID uint) ([]entity.ExamAnswer, error)
	UpdateBatch(ctx context.Context, answers []entity.ExamAnswer) error
	StatsByPapers(ctx context.Context, paperIDs []uint) (map[uint]AnswerStats, error)
}
