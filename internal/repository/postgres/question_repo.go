package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// QuestionBankRepo реализует repository.QuestionBankRepository
type QuestionBankRepo struct {
	db *gorm.DB
}

// NewQuestionBankRepo создает репозиторий банка вопросов
func NewQuestionBankRepo(db *gorm.DB) *QuestionBankRepo {
	return &QuestionBankRepo{db: db}
}

// ListActiveLinks возвращает активные вопросы конкурса вместе с самими вопросами
func (r *QuestionBankRepo) ListActiveLinks(ctx context.Context, competitionID uint) ([]entity.CompetitionQuestion, error) {
	var links []entity.CompetitionQuestion
	err := conn(ctx, r.db).
		Preload("Question").
		Where("competition_id = ? AND is_active = ?", competitionID, true).
		Order("question_order ASC, id ASC").
		Find(&links).Error
	return links, err
}

// GetQuestionsByIDs возвращает вопросы по списку ID
func (r *QuestionBankRepo) GetQuestionsByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Question, error) {
	result := make(map[uint]*entity.Question, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var questions []entity.Question
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	for i := range questions {
		result[questions[i].ID] = &questions[i]
	}
	return result, nil
}
