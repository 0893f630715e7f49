package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// DistributionResult - сколько листов создано за вызов
type DistributionResult struct {
	CompetitionID     uint `json:"competitionId"`
	IndividualPapers  int  `json:"individualPapers"`
	TeamPapers        int  `json:"teamPapers"`
	TotalParticipants int  `json:"totalParticipants"`
	QuestionCount     int  `json:"questionCount"`
}

// DistributionService создает экзаменационные листы участникам конкурса
type DistributionService struct {
	tx           repository.Transactor
	competitions repository.CompetitionRepository
	bank         repository.QuestionBankRepository
	participants repository.ParticipantRepository
	papers       repository.ExamPaperRepository
	now          func() time.Time
}

// NewDistributionService создает сервис раздачи листов
func NewDistributionService(
	tx repository.Transactor,
	competitions repository.CompetitionRepository,
	bank repository.QuestionBankRepository,
	participants repository.ParticipantRepository,
	papers repository.ExamPaperRepository,
) *DistributionService {
	return &DistributionService{
		tx:           tx,
		competitions: competitions,
		bank:         bank,
		participants: participants,
		papers:       papers,
		now:          time.Now,
	}
}

// Distribute создает по листу каждому допущенному участнику, у которого его еще нет.
// Повторный вызов создает листы только новым участникам.
func (s *DistributionService) Distribute(ctx context.Context, actor Actor, competitionID uint) (*DistributionResult, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}

	result := &DistributionResult{CompetitionID: competitionID}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.competitions.GetByID(ctx, competitionID); err != nil {
			return err
		}

		links, err := s.bank.ListActiveLinks(ctx, competitionID)
		if err != nil {
			return fmt.Errorf("list questions of competition #%d: %w", competitionID, err)
		}
		if len(links) == 0 {
			return fmt.Errorf("%w: competition #%d has no questions configured", apperrors.ErrNotFound, competitionID)
		}
		result.QuestionCount = len(links)

		participants, err := s.participants.ListEligible(ctx, competitionID)
		if err != nil {
			return fmt.Errorf("list participants of competition #%d: %w", competitionID, err)
		}
		if len(participants) == 0 {
			return fmt.Errorf("%w: competition #%d has no approved participants", apperrors.ErrValidation, competitionID)
		}

		now := s.now()
		for _, p := range participants {
			created, err := s.createPaper(ctx, competitionID, p, links, now)
			if err != nil {
				return err
			}
			if !created {
				continue
			}
			if p.Type == entity.ParticipantTeam {
				result.TeamPapers++
			} else {
				result.IndividualPapers++
			}
		}
		result.TotalParticipants = result.IndividualPapers + result.TeamPapers
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DistributionService] Competition #%d: created %d individual and %d team papers (%d questions each)",
		competitionID, result.IndividualPapers, result.TeamPapers, result.QuestionCount)
	return result, nil
}

// createPaper возвращает false, если лист у участника уже есть
func (s *DistributionService) createPaper(ctx context.Context, competitionID uint, p entity.Participant, links []entity.CompetitionQuestion, now time.Time) (bool, error) {
	// Быстрая проверка; гарантию дает уникальный индекс в CreateWithAnswers
	exists, err := s.papers.Exists(ctx, competitionID, p)
	if err != nil {
		return false, fmt.Errorf("check paper of %s #%d: %w", p.Type, p.ID, err)
	}
	if exists {
		return false, nil
	}

	paper := &entity.ExamPaper{
		CompetitionID:      competitionID,
		ParticipantType:    p.Type,
		ParticipantID:      p.ID,
		Status:             entity.PaperNotStarted,
		TotalQuestionCount: len(links),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	answers := make([]entity.ExamAnswer, 0, len(links))
	for i, link := range links {
		if link.Question == nil {
			return false, fmt.Errorf("%w: question #%d linked to competition #%d", apperrors.ErrNotFound, link.QuestionID, competitionID)
		}
		answers = append(answers, entity.ExamAnswer{
			QuestionID:    link.QuestionID,
			QuestionOrder: i + 1,
			QuestionType:  link.Question.Type,
			MaxScore:      link.QuestionScore,
			GradingStatus: entity.GradingPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := s.papers.CreateWithAnswers(ctx, paper, answers); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			log.Printf("[DistributionService] Paper for %s #%d in competition #%d already exists, skipping", p.Type, p.ID, competitionID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}
