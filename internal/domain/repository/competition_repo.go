package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// CompetitionRepository - доступ к конкурсам, которыми владеет подсистема конкурсов
type CompetitionRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.Competition, error)
	UpdateStatus(ctx context.Context, id uint, status entity.CompetitionStatus, at time.Time) error
}
