package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// RankingConfig - параметры публикации и пересчета рейтинга
type RankingConfig struct {
	Awards entity.AwardThresholds
	// LockTTL - время жизни распределенной блокировки пересчета
	LockTTL time.Duration
	// LockWait - сколько ждать занятую блокировку, прежде чем вернуть ErrConflict
	LockWait time.Duration
	// CacheTTL - время жизни кеша рейтинга; 0 отключает кеш
	CacheTTL time.Duration
}

// DefaultRankingConfig возвращает настройки по умолчанию
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		Awards:   entity.DefaultAwardThresholds(),
		LockTTL:  30 * time.Second,
		LockWait: 5 * time.Second,
		CacheTTL: time.Minute,
	}
}

// PublishInput - запрос на публикацию результатов конкурса
type PublishInput struct {
	CompetitionID  uint
	NotifyStudents bool
}

// PublishResult - итог публикации
type PublishResult struct {
	CompetitionID     uint                     `json:"competitionId"`
	PublishedCount    int                      `json:"publishedCount"`
	SkippedIndividual int                      `json:"skippedIndividual"`
	AverageScore      decimal.Decimal          `json:"averageScore"`
	HighestScore      decimal.Decimal          `json:"highestScore"`
	LowestScore       decimal.Decimal          `json:"lowestScore"`
	CompetitionStatus entity.CompetitionStatus `json:"competitionStatus"`
}

// RankingEntry - строка рейтинга конкурса
type RankingEntry struct {
	Rank       int               `json:"rank"`
	TeamID     uint              `json:"teamId"`
	TeamName   string            `json:"teamName"`
	Score      decimal.Decimal   `json:"score"`
	AwardLevel entity.AwardLevel `json:"awardLevel"`
	IsFinal    bool              `json:"isFinal"`
}

// CompetitionRanking - рейтинг конкурса по возрастанию ранга
type CompetitionRanking struct {
	CompetitionID uint           `json:"competitionId"`
	Entries       []RankingEntry `json:"entries"`
}

// MyScore - итоговый результат команды пользователя
type MyScore struct {
	CompetitionID uint              `json:"competitionId"`
	TeamID        uint              `json:"teamId"`
	Score         decimal.Decimal   `json:"score"`
	Ranking       *int              `json:"ranking,omitempty"`
	AwardLevel    entity.AwardLevel `json:"awardLevel"`
	GradedAt      *time.Time        `json:"gradedAt,omitempty"`
}

// RankingService публикует результаты и пересчитывает рейтинг конкурса
type RankingService struct {
	tx           repository.Transactor
	competitions repository.CompetitionRepository
	papers       repository.ExamPaperRepository
	grades       repository.GradeRepository
	participants repository.ParticipantRepository
	cache        repository.CacheRepository
	locks        repository.LockRepository
	events       repository.EventPublisher
	cfg          RankingConfig
	now          func() time.Time

	// локальные блокировки по конкурсу поверх распределенной
	localLocks sync.Map
}

// NewRankingService создает сервис рейтинга. cache, locks и events могут быть nil.
func NewRankingService(
	tx repository.Transactor,
	competitions repository.CompetitionRepository,
	papers repository.ExamPaperRepository,
	grades repository.GradeRepository,
	participants repository.ParticipantRepository,
	cache repository.CacheRepository,
	locks repository.LockRepository,
	events repository.EventPublisher,
	cfg RankingConfig,
) *RankingService {
	return &RankingService{
		tx:           tx,
		competitions: competitions,
		papers:       papers,
		grades:       grades,
		participants: participants,
		cache:        cache,
		locks:        locks,
		events:       events,
		cfg:          cfg,
		now:          time.Now,
	}
}

func rankingCacheKey(competitionID uint) string {
	return fmt.Sprintf("ranking:competition:%d", competitionID)
}

func rankingLockKey(competitionID uint) string {
	return fmt.Sprintf("lock:ranking:competition:%d", competitionID)
}

const lockRetryInterval = 50 * time.Millisecond

// withCompetitionLock не дает двум пересчетам одного конкурса идти одновременно
func (s *RankingService) withCompetitionLock(ctx context.Context, competitionID uint, fn func() error) error {
	mu, _ := s.localLocks.LoadOrStore(competitionID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	if s.locks == nil {
		return fn()
	}

	key := rankingLockKey(competitionID)
	// Бюджет ожидания меряется по реальным часам, а не по s.now
	wait := time.NewTimer(s.cfg.LockWait)
	defer wait.Stop()
	for {
		token, ok, err := s.locks.TryLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			// Redis недоступен: остаются локальная блокировка и FOR UPDATE по строкам
			log.Printf("[RankingService] Lock backend error for competition #%d: %v. Continuing without distributed lock.", competitionID, err)
			return fn()
		}
		if ok {
			defer func() {
				if err := s.locks.Unlock(context.Background(), key, token); err != nil {
					log.Printf("[RankingService] Failed to release lock %s: %v", key, err)
				}
			}()
			return fn()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait.C:
			return fmt.Errorf("%w: ranking of competition #%d is being recalculated", apperrors.ErrConflict, competitionID)
		case <-time.After(lockRetryInterval):
		}
	}
}

// requireGradedPapers проверяет, что в конкурсе есть хотя бы один проверенный лист
func (s *RankingService) requireGradedPapers(ctx context.Context, competitionID uint) error {
	count, err := s.papers.CountByStatus(ctx, competitionID, entity.PaperGraded)
	if err != nil {
		return fmt.Errorf("count graded papers: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: competition #%d has no graded papers", apperrors.ErrValidation, competitionID)
	}
	return nil
}

// computeRanking читает результаты под блокировкой, считает ранги и записывает их.
// Должен вызываться внутри транзакции.
func (s *RankingService) computeRanking(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	grades, err := s.grades.ListForUpdate(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("load grades of competition #%d: %w", competitionID, err)
	}

	ranked := AssignRanks(grades)
	ranks := make(map[uint]int, len(ranked))
	for i := range ranked {
		ranks[ranked[i].ID] = *ranked[i].Ranking
	}
	if err := s.grades.UpdateRanks(ctx, ranks, s.now()); err != nil {
		return nil, err
	}
	return ranked, nil
}

// ComputeAndPersistRanking пересчитывает ранги конкурса одной транзакцией
func (s *RankingService) ComputeAndPersistRanking(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	var ranked []entity.Grade
	err := s.withCompetitionLock(ctx, competitionID, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := s.requireGradedPapers(ctx, competitionID); err != nil {
				return err
			}
			var err error
			ranked, err = s.computeRanking(ctx, competitionID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRanking(ctx, competitionID)
	log.Printf("[RankingService] Ranking of competition #%d recalculated: %d grades", competitionID, len(ranked))
	return ranked, nil
}

// Recalculate - пересчет рейтинга по запросу эксперта
func (s *RankingService) Recalculate(ctx context.Context, actor Actor, competitionID uint) (*CompetitionRanking, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}
	if _, err := s.competitions.GetByID(ctx, competitionID); err != nil {
		return nil, err
	}
	ranked, err := s.ComputeAndPersistRanking(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return s.buildRanking(ctx, competitionID, ranked)
}

// Publish переносит итоги проверенных командных листов в grades, пересчитывает рейтинг
// и завершает конкурс. Все три шага выполняются одной транзакцией.
func (s *RankingService) Publish(ctx context.Context, actor Actor, input PublishInput) (*PublishResult, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}

	result := &PublishResult{CompetitionID: input.CompetitionID}
	var publishedTeams []uint
	now := s.now()

	err := s.withCompetitionLock(ctx, input.CompetitionID, func() error {
		return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			competition, err := s.competitions.GetByID(ctx, input.CompetitionID)
			if err != nil {
				return err
			}
			if competition.Status == entity.CompetitionCancelled {
				return fmt.Errorf("%w: competition #%d is cancelled", apperrors.ErrInvalidState, competition.ID)
			}

			papers, err := s.papers.ListByStatus(ctx, competition.ID, entity.PaperGraded)
			if err != nil {
				return fmt.Errorf("list graded papers: %w", err)
			}
			if len(papers) == 0 {
				return fmt.Errorf("%w: competition #%d has no graded papers", apperrors.ErrValidation, competition.ID)
			}

			graderID := actor.UserID
			total := decimal.Zero
			for i := range papers {
				p := &papers[i]
				total = total.Add(p.TotalScore)
				if i == 0 || p.TotalScore.GreaterThan(result.HighestScore) {
					result.HighestScore = p.TotalScore
				}
				if i == 0 || p.TotalScore.LessThan(result.LowestScore) {
					result.LowestScore = p.TotalScore
				}

				if p.ParticipantType != entity.ParticipantTeam {
					result.SkippedIndividual++
					continue
				}
				grade := &entity.Grade{
					TeamID:        p.ParticipantID,
					CompetitionID: competition.ID,
					Score:         p.TotalScore,
					AwardLevel:    s.cfg.Awards.Level(p.TotalScore),
					IsFinal:       true,
					GradedBy:      &graderID,
					GradedAt:      &now,
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				if err := s.grades.Upsert(ctx, grade); err != nil {
					return err
				}
				publishedTeams = append(publishedTeams, p.ParticipantID)
			}
			result.PublishedCount = len(publishedTeams)
			result.AverageScore = total.Div(decimal.NewFromInt(int64(len(papers)))).Round(2)

			if _, err := s.computeRanking(ctx, competition.ID); err != nil {
				return err
			}

			if err := s.competitions.UpdateStatus(ctx, competition.ID, entity.CompetitionCompleted, now); err != nil {
				return err
			}
			result.CompetitionStatus = entity.CompetitionCompleted
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateRanking(ctx, input.CompetitionID)
	log.Printf("[RankingService] Competition #%d published by user #%d: %d grades, %d individual papers skipped",
		input.CompetitionID, actor.UserID, result.PublishedCount, result.SkippedIndividual)
	if result.PublishedCount == 0 {
		log.Printf("[RankingService] WARNING: competition #%d completed with no team grades: all %d graded papers are individual, ranking is empty",
			input.CompetitionID, result.SkippedIndividual)
	}

	if input.NotifyStudents && s.events != nil {
		event := entity.ScoresPublishedEvent{
			CompetitionID:  input.CompetitionID,
			PublishedCount: result.PublishedCount,
			TeamIDs:        publishedTeams,
			HighestScore:   result.HighestScore,
			PublishedBy:    actor.UserID,
			PublishedAt:    now,
		}
		// результаты уже зафиксированы; сбой уведомления не отменяет публикацию
		if err := s.events.PublishScoresPublished(ctx, event); err != nil {
			log.Printf("[RankingService] Failed to publish scores event for competition #%d: %v", input.CompetitionID, err)
		}
	}
	return result, nil
}

// CompetitionRanking возвращает рейтинг конкурса, используя кеш
func (s *RankingService) CompetitionRanking(ctx context.Context, competitionID uint) (*CompetitionRanking, error) {
	if s.cache != nil && s.cfg.CacheTTL > 0 {
		var cached CompetitionRanking
		err := s.cache.GetJSON(ctx, rankingCacheKey(competitionID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[RankingService] Cache read error for competition #%d: %v", competitionID, err)
		}
	}

	if _, err := s.competitions.GetByID(ctx, competitionID); err != nil {
		return nil, err
	}
	grades, err := s.grades.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("list grades of competition #%d: %w", competitionID, err)
	}
	ranking, err := s.buildRanking(ctx, competitionID, grades)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, rankingCacheKey(competitionID), ranking, s.cfg.CacheTTL); err != nil {
			log.Printf("[RankingService] Cache write error for competition #%d: %v", competitionID, err)
		}
	}
	return ranking, nil
}

// MyScores возвращает итоговые результаты всех команд пользователя
func (s *RankingService) MyScores(ctx context.Context, actor Actor) ([]MyScore, error) {
	teamIDs, err := s.participants.ListUserTeamIDs(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list teams of user #%d: %w", actor.UserID, err)
	}
	grades, err := s.grades.ListFinalByTeams(ctx, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("list grades of user #%d: %w", actor.UserID, err)
	}

	scores := make([]MyScore, 0, len(grades))
	for i := range grades {
		g := &grades[i]
		scores = append(scores, MyScore{
			CompetitionID: g.CompetitionID,
			TeamID:        g.TeamID,
			Score:         g.Score,
			Ranking:       g.Ranking,
			AwardLevel:    g.AwardLevel,
			GradedAt:      g.GradedAt,
		})
	}
	return scores, nil
}

// buildRanking добавляет названия команд к результатам, уже упорядоченным по рангу
func (s *RankingService) buildRanking(ctx context.Context, competitionID uint, grades []entity.Grade) (*CompetitionRanking, error) {
	participants := make([]entity.Participant, len(grades))
	for i := range grades {
		participants[i] = entity.Participant{Type: entity.ParticipantTeam, ID: grades[i].TeamID}
	}
	names, err := s.participants.ParticipantNames(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("resolve team names: %w", err)
	}

	ranking := &CompetitionRanking{CompetitionID: competitionID, Entries: make([]RankingEntry, 0, len(grades))}
	for i := range grades {
		g := &grades[i]
		entry := RankingEntry{
			TeamID:     g.TeamID,
			TeamName:   names[participants[i]],
			Score:      g.Score,
			AwardLevel: g.AwardLevel,
			IsFinal:    g.IsFinal,
		}
		if g.Ranking != nil {
			entry.Rank = *g.Ranking
		}
		ranking.Entries = append(ranking.Entries, entry)
	}
	return ranking, nil
}

func (s *RankingService) invalidateRanking(ctx context.Context, competitionID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rankingCacheKey(competitionID)); err != nil {
		log.Printf("[RankingService] Failed to invalidate ranking cache for competition #%d: %v", competitionID, err)
	}
}
