package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// ExamPaperRepo реализует repository.ExamPaperRepository
type ExamPaperRepo struct {
	db *gorm.DB
}

// NewExamPaperRepo создает репозиторий экзаменационных листов
func NewExamPaperRepo(db *gorm.DB) *ExamPaperRepo {
	return &ExamPaperRepo{db: db}
}

// CreateWithAnswers создает лист и его пустые ответы в точке сохранения,
// чтобы конфликт уникальности не обрывал внешнюю транзакцию раздачи.
// Дубликат определяется уникальным индексом (competition_id, participant_type, participant_id).
func (r *ExamPaperRepo) CreateWithAnswers(ctx context.Context, paper *entity.ExamPaper, answers []entity.ExamAnswer) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(paper)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return fmt.Errorf("%w: paper for %s #%d in competition #%d",
					apperrors.ErrConflict, paper.ParticipantType, paper.ParticipantID, paper.CompetitionID)
			}
			return fmt.Errorf("create paper: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: paper for %s #%d in competition #%d",
				apperrors.ErrConflict, paper.ParticipantType, paper.ParticipantID, paper.CompetitionID)
		}

		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].ExamPaperID = paper.ID
		}
		if err := tx.CreateInBatches(answers, 100).Error; err != nil {
			return fmt.Errorf("create answers for paper #%d: %w", paper.ID, err)
		}
		return nil
	})
}

// Exists проверяет, есть ли у участника лист в конкурсе
func (r *ExamPaperRepo) Exists(ctx context.Context, competitionID uint, participant entity.Participant) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ExamPaper{}).
		Where("competition_id = ? AND participant_type = ? AND participant_id = ?",
			competitionID, participant.Type, participant.ID).
		Count(&count).Error
	return count > 0, err
}

// GetByID возвращает лист по ID
func (r *ExamPaperRepo) GetByID(ctx context.Context, id uint) (*entity.ExamPaper, error) {
	var paper entity.ExamPaper
	if err := conn(ctx, r.db).First(&paper, id).Error; err != nil {
		return nil, notFound(err, "exam paper #%d", id)
	}
	return &paper, nil
}

// GetByIDForUpdate возвращает лист с блокировкой строки (SELECT ... FOR UPDATE)
func (r *ExamPaperRepo) GetByIDForUpdate(ctx context.Context, id uint) (*entity.ExamPaper, error) {
	var paper entity.ExamPaper
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&paper, id).Error
	if err != nil {
		return nil, notFound(err, "exam paper #%d", id)
	}
	return &paper, nil
}

// FindByParticipant возвращает лист участника в конкурсе
func (r *ExamPaperRepo) FindByParticipant(ctx context.Context, competitionID uint, participant entity.Participant) (*entity.ExamPaper, error) {
	var paper entity.ExamPaper
	err := conn(ctx, r.db).
		Where("competition_id = ? AND participant_type = ? AND participant_id = ?",
			competitionID, participant.Type, participant.ID).
		First(&paper).Error
	if err != nil {
		return nil, notFound(err, "exam paper of %s #%d in competition #%d", participant.Type, participant.ID, competitionID)
	}
	return &paper, nil
}

// Update сохраняет все поля листа
func (r *ExamPaperRepo) Update(ctx context.Context, paper *entity.ExamPaper) error {
	return conn(ctx, r.db).Save(paper).Error
}

// ListByStatus возвращает листы в статусе, по времени сдачи
func (r *ExamPaperRepo) ListByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) ([]entity.ExamPaper, error) {
	var papers []entity.ExamPaper
	query := conn(ctx, r.db).Where("status = ?", status)
	if competitionID != 0 {
		query = query.Where("competition_id = ?", competitionID)
	}
	err := query.Order("submit_time ASC NULLS LAST, id ASC").Find(&papers).Error
	return papers, err
}

// CountByStatus считает листы конкурса в статусе
func (r *ExamPaperRepo) CountByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ExamPaper{}).
		Where("competition_id = ? AND status = ?", competitionID, status).
		Count(&count).Error
	return count, err
}

// ExamAnswerRepo реализует repository.ExamAnswerRepository
type ExamAnswerRepo struct {
	db *gorm.DB
}

// NewExamAnswerRepo создает репозиторий ответов
func NewExamAnswerRepo(db *gorm.DB) *ExamAnswerRepo {
	return &ExamAnswerRepo{db: db}
}

// ListByPaper возвращает ответы листа по порядку вопросов
func (r *ExamAnswerRepo) ListByPaper(ctx context.Context, paperID uint) ([]entity.ExamAnswer, error) {
	var answers []entity.ExamAnswer
	err := conn(ctx, r.db).
		Where("exam_paper_id = ?", paperID).
		Order("question_order ASC, id ASC").
		Find(&answers).Error
	return answers, err
}

// UpdateBatch сохраняет ответы по одному
func (r *ExamAnswerRepo) UpdateBatch(ctx context.Context, answers []entity.ExamAnswer) error {
	db := conn(ctx, r.db)
	for i := range answers {
		if err := db.Save(&answers[i]).Error; err != nil {
			return fmt.Errorf("save answer #%d: %w", answers[i].ID, err)
		}
	}
	return nil
}

// StatsByPapers считает ответы по статусам проверки для каждого листа
func (r *ExamAnswerRepo) StatsByPapers(ctx context.Context, paperIDs []uint) (map[uint]repository.AnswerStats, error) {
	stats := make(map[uint]repository.AnswerStats, len(paperIDs))
	if len(paperIDs) == 0 {
		return stats, nil
	}

	var rows []repository.AnswerStats
	err := conn(ctx, r.db).Model(&entity.ExamAnswer{}).
		Select(`exam_paper_id AS paper_id,
			COUNT(*) AS total,
			SUM(CASE WHEN grading_status = ? THEN 1 ELSE 0 END) AS pending`, entity.GradingPending).
		Where("exam_paper_id IN ?", paperIDs).
		Group("exam_paper_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.Graded = row.Total - row.Pending
		stats[row.PaperID] = row
	}
	return stats, nil
}
