package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// GradeRepo реализует repository.GradeRepository
type GradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo создает репозиторий результатов
func NewGradeRepo(db *gorm.DB) *GradeRepo {
	return &GradeRepo{db: db}
}

// Upsert вставляет результат или обновляет существующий по (team_id, competition_id)
func (r *GradeRepo) Upsert(ctx context.Context, grade *entity.Grade) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "team_id"}, {Name: "competition_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "award_level", "is_final", "graded_by", "graded_at", "updated_at",
		}),
	}).Create(grade).Error
	if err != nil {
		return fmt.Errorf("upsert grade team #%d competition #%d: %w", grade.TeamID, grade.CompetitionID, err)
	}
	return nil
}

// ListForUpdate читает результаты конкурса и блокирует их до конца транзакции
func (r *GradeRepo) ListForUpdate(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	var grades []entity.Grade
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("competition_id = ?", competitionID).
		Order("id ASC").
		Find(&grades).Error
	return grades, err
}

// ListByCompetition возвращает результаты конкурса по рангу
func (r *GradeRepo) ListByCompetition(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	var grades []entity.Grade
	err := conn(ctx, r.db).
		Where("competition_id = ?", competitionID).
		Order("ranking ASC NULLS LAST, team_id ASC").
		Find(&grades).Error
	return grades, err
}

// UpdateRanks записывает ранги
func (r *GradeRepo) UpdateRanks(ctx context.Context, ranks map[uint]int, at time.Time) error {
	db := conn(ctx, r.db)
	for id, rank := range ranks {
		err := db.Model(&entity.Grade{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"ranking": rank, "updated_at": at}).Error
		if err != nil {
			return fmt.Errorf("update rank of grade #%d: %w", id, err)
		}
	}
	return nil
}

// ListFinalByTeams возвращает итоговые результаты команд
func (r *GradeRepo) ListFinalByTeams(ctx context.Context, teamIDs []uint) ([]entity.Grade, error) {
	var grades []entity.Grade
	if len(teamIDs) == 0 {
		return grades, nil
	}
	err := conn(ctx, r.db).
		Where("team_id IN ? AND is_final = ?", teamIDs, true).
		Order("graded_at DESC NULLS LAST, id DESC").
		Find(&grades).Error
	return grades, err
}
