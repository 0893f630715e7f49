package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// GradeRepository определяет методы для работы с опубликованными результатами
type GradeRepository interface {
	// Upsert создает или обновляет запись по (team_id, competition_id); ранг не трогает
	Upsert(ctx context.Context, grade *entity.Grade) error
	// ListForUpdate читает все результаты конкурса с блокировкой строк
	ListForUpdate(ctx context.Context, competitionID uint) ([]entity.Grade, error)
	// ListByCompetition возвращает результаты по возрастанию ранга
	ListByCompetition(ctx context.Context, competitionID uint) ([]entity.Grade, error)
	// UpdateRanks записывает ранги по ID записи
	UpdateRanks(ctx context.Context, ranks map[uint]int, at time.Time) error
	ListFinalByTeams(ctx context.Context, teamIDs []uint) ([]entity.Grade, error)
}
