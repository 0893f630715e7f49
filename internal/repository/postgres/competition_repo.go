package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// CompetitionRepo реализует repository.CompetitionRepository
type CompetitionRepo struct {
	db *gorm.DB
}

// NewCompetitionRepo создает репозиторий конкурсов
func NewCompetitionRepo(db *gorm.DB) *CompetitionRepo {
	return &CompetitionRepo{db: db}
}

// GetByID возвращает конкурс по ID
func (r *CompetitionRepo) GetByID(ctx context.Context, id uint) (*entity.Competition, error) {
	var competition entity.Competition
	if err := conn(ctx, r.db).First(&competition, id).Error; err != nil {
		return nil, notFound(err, "competition #%d", id)
	}
	return &competition, nil
}

// UpdateStatus меняет статус конкурса
func (r *CompetitionRepo) UpdateStatus(ctx context.Context, id uint, status entity.CompetitionStatus, at time.Time) error {
	result := conn(ctx, r.db).Model(&entity.Competition{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": at})
	if result.Error != nil {
		return fmt.Errorf("update competition #%d status: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: competition #%d", apperrors.ErrNotFound, id)
	}
	return nil
}
