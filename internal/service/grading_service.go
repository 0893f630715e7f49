package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// ManualGradeEntry - оценка эксперта за один вопрос
type ManualGradeEntry struct {
	QuestionID uint
	Score      decimal.Decimal
	Remarks    string
}

// ManualGradeInput - пакет оценок для одного листа
type ManualGradeInput struct {
	PaperID uint
	Entries []ManualGradeEntry
}

// PaperScore - итог листа после прохода проверки
type PaperScore struct {
	PaperID         uint               `json:"paperId"`
	Status          entity.PaperStatus `json:"status"`
	ObjectiveScore  decimal.Decimal    `json:"objectiveScore"`
	SubjectiveScore decimal.Decimal    `json:"subjectiveScore"`
	TotalScore      decimal.Decimal    `json:"totalScore"`
	CorrectCount    int                `json:"correctCount"`
	PendingCount    int                `json:"pendingCount"`
}

// PendingPaper - строка списка листов, ожидающих ручной проверки
type PendingPaper struct {
	PaperID         uint                   `json:"paperId"`
	CompetitionID   uint                   `json:"competitionId"`
	ParticipantType entity.ParticipantType `json:"participantType"`
	ParticipantID   uint                   `json:"participantId"`
	ParticipantName string                 `json:"participantName"`
	SubmitTime      *time.Time             `json:"submitTime,omitempty"`
	ObjectiveScore  decimal.Decimal        `json:"objectiveScore"`
	PendingCount    int                    `json:"pendingCount"`
	GradedCount     int                    `json:"gradedCount"`
	TotalCount      int                    `json:"totalCount"`
}

// AnswerDetail - ответ листа глазами эксперта (с эталоном)
type AnswerDetail struct {
	QuestionID    uint                 `json:"questionId"`
	QuestionOrder int                  `json:"questionOrder"`
	Title         string               `json:"title"`
	Content       string               `json:"content"`
	Type          entity.QuestionType  `json:"type"`
	AnswerContent string               `json:"answerContent"`
	CorrectAnswer string               `json:"correctAnswer"`
	IsCorrect     *bool                `json:"isCorrect,omitempty"`
	Score         decimal.Decimal      `json:"score"`
	MaxScore      decimal.Decimal      `json:"maxScore"`
	GradingStatus entity.GradingStatus `json:"gradingStatus"`
	Remarks       string               `json:"remarks,omitempty"`
}

// GradingService - автоматическая и ручная проверка листов
type GradingService struct {
	tx           repository.Transactor
	papers       repository.ExamPaperRepository
	answers      repository.ExamAnswerRepository
	bank         repository.QuestionBankRepository
	participants repository.ParticipantRepository
	now          func() time.Time
}

// NewGradingService создает сервис проверки
func NewGradingService(
	tx repository.Transactor,
	papers repository.ExamPaperRepository,
	answers repository.ExamAnswerRepository,
	bank repository.QuestionBankRepository,
	participants repository.ParticipantRepository,
) *GradingService {
	return &GradingService{
		tx:           tx,
		papers:       papers,
		answers:      answers,
		bank:         bank,
		participants: participants,
		now:          time.Now,
	}
}

// autoGrade проверяет объективные ответы только что сданного листа и
// переводит его в GRADING или сразу в GRADED. Изменяет paper и answers на месте,
// сохранение делает вызывающий.
func (s *GradingService) autoGrade(ctx context.Context, paper *entity.ExamPaper, answers []entity.ExamAnswer, now time.Time) error {
	ids := make([]uint, 0, len(answers))
	for i := range answers {
		if answers[i].QuestionType.IsObjective() {
			ids = append(ids, answers[i].QuestionID)
		}
	}
	questions, err := s.bank.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load questions of paper #%d: %w", paper.ID, err)
	}

	for i := range answers {
		a := &answers[i]
		if !a.QuestionType.IsObjective() || a.GradingStatus != entity.GradingPending {
			continue
		}
		q, ok := questions[a.QuestionID]
		if !ok {
			return fmt.Errorf("%w: question #%d of paper #%d", apperrors.ErrNotFound, a.QuestionID, paper.ID)
		}
		if err := a.AutoGrade(q, now); err != nil {
			return err
		}
	}

	pending := paper.ApplyScores(answers)
	next := entity.PaperGrading
	if pending == 0 {
		next = entity.PaperGraded
	}
	if err := paper.MoveTo(next); err != nil {
		return err
	}
	if next == entity.PaperGraded {
		paper.GradedAt = &now
	}
	paper.UpdatedAt = now

	log.Printf("[GradingService] Paper #%d auto-graded: objective=%s correct=%d pending=%d status=%s",
		paper.ID, paper.ObjectiveScore.String(), paper.CorrectCount, pending, paper.Status)
	return nil
}

// ManualGrade применяет оценки эксперта к субъективным ответам листа.
// Если хотя бы одна запись некорректна, не записывается ничего.
func (s *GradingService) ManualGrade(ctx context.Context, actor Actor, input ManualGradeInput) (*PaperScore, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}
	if len(input.Entries) == 0 {
		return nil, fmt.Errorf("%w: no answers to grade", apperrors.ErrValidation)
	}

	var result *PaperScore
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		paper, err := s.papers.GetByIDForUpdate(ctx, input.PaperID)
		if err != nil {
			return err
		}
		if paper.Status != entity.PaperGrading && paper.Status != entity.PaperGraded {
			return fmt.Errorf("%w: paper #%d is %s, grading requires GRADING or GRADED",
				apperrors.ErrInvalidState, paper.ID, paper.Status)
		}

		answers, err := s.answers.ListByPaper(ctx, paper.ID)
		if err != nil {
			return fmt.Errorf("list answers of paper #%d: %w", paper.ID, err)
		}
		byQuestion := make(map[uint]int, len(answers))
		for i := range answers {
			byQuestion[answers[i].QuestionID] = i
		}

		if err := validateManualEntries(paper.ID, input.Entries, answers, byQuestion); err != nil {
			return err
		}

		now := s.now()
		changed := make([]entity.ExamAnswer, 0, len(input.Entries))
		for _, e := range input.Entries {
			a := &answers[byQuestion[e.QuestionID]]
			if err := a.ManualGrade(e.Score, e.Remarks, actor.UserID, now); err != nil {
				return err
			}
			changed = append(changed, *a)
		}

		pending := paper.ApplyScores(answers)
		next := entity.PaperGrading
		if pending == 0 {
			next = entity.PaperGraded
		}
		if err := paper.MoveTo(next); err != nil {
			return err
		}
		if next == entity.PaperGraded {
			graderID := actor.UserID
			paper.GradedBy = &graderID
			paper.GradedAt = &now
		}
		paper.UpdatedAt = now

		if err := s.answers.UpdateBatch(ctx, changed); err != nil {
			return err
		}
		if err := s.papers.Update(ctx, paper); err != nil {
			return fmt.Errorf("update paper #%d: %w", paper.ID, err)
		}

		result = scoreOf(paper, pending)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[GradingService] Paper #%d graded by user #%d: total=%s status=%s",
		result.PaperID, actor.UserID, result.TotalScore.String(), result.Status)
	return result, nil
}

// scoreDecimals - точность колонок баллов NUMERIC(10,2)
const scoreDecimals = 2

// validateManualEntries проверяет весь пакет до каких-либо изменений
func validateManualEntries(paperID uint, entries []ManualGradeEntry, answers []entity.ExamAnswer, byQuestion map[uint]int) error {
	seen := make(map[uint]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.QuestionID]; dup {
			return fmt.Errorf("%w: question #%d graded twice in one request", apperrors.ErrValidation, e.QuestionID)
		}
		seen[e.QuestionID] = struct{}{}

		idx, ok := byQuestion[e.QuestionID]
		if !ok {
			return fmt.Errorf("%w: question #%d is not part of paper #%d", apperrors.ErrValidation, e.QuestionID, paperID)
		}
		a := &answers[idx]
		if a.QuestionType.IsObjective() || a.GradingStatus == entity.GradingAutoGraded {
			return fmt.Errorf("%w: question #%d is graded automatically", apperrors.ErrValidation, e.QuestionID)
		}
		if e.Score.IsNegative() || e.Score.GreaterThan(a.MaxScore) {
			return fmt.Errorf("%w: score %s for question #%d must be between 0 and %s",
				apperrors.ErrValidation, e.Score.String(), e.QuestionID, a.MaxScore.String())
		}
		if !e.Score.Equal(e.Score.Round(scoreDecimals)) {
			return fmt.Errorf("%w: score %s for question #%d has more than %d decimal places",
				apperrors.ErrValidation, e.Score.String(), e.QuestionID, scoreDecimals)
		}
	}
	return nil
}

// PendingGrading возвращает листы в статусе GRADING; competitionID == 0 - по всем конкурсам
func (s *GradingService) PendingGrading(ctx context.Context, actor Actor, competitionID uint) ([]PendingPaper, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}

	papers, err := s.papers.ListByStatus(ctx, competitionID, entity.PaperGrading)
	if err != nil {
		return nil, fmt.Errorf("list papers awaiting grading: %w", err)
	}
	if len(papers) == 0 {
		return []PendingPaper{}, nil
	}

	ids := make([]uint, len(papers))
	participants := make([]entity.Participant, len(papers))
	for i := range papers {
		ids[i] = papers[i].ID
		participants[i] = papers[i].Participant()
	}
	stats, err := s.answers.StatsByPapers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	names, err := s.participants.ParticipantNames(ctx, participants)
	if err != nil {
		return nil, fmt.Errorf("resolve participant names: %w", err)
	}

	result := make([]PendingPaper, 0, len(papers))
	for i := range papers {
		p := &papers[i]
		st := stats[p.ID]
		result = append(result, PendingPaper{
			PaperID:         p.ID,
			CompetitionID:   p.CompetitionID,
			ParticipantType: p.ParticipantType,
			ParticipantID:   p.ParticipantID,
			ParticipantName: names[p.Participant()],
			SubmitTime:      p.SubmitTime,
			ObjectiveScore:  p.ObjectiveScore,
			PendingCount:    st.Pending,
			GradedCount:     st.Graded,
			TotalCount:      st.Total,
		})
	}
	return result, nil
}

// PaperAnswers возвращает все ответы листа вместе с эталонами
func (s *GradingService) PaperAnswers(ctx context.Context, actor Actor, paperID uint) ([]AnswerDetail, error) {
	if err := requireGrader(actor); err != nil {
		return nil, err
	}
	if _, err := s.papers.GetByID(ctx, paperID); err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("list answers of paper #%d: %w", paperID, err)
	}
	ids := make([]uint, len(answers))
	for i := range answers {
		ids[i] = answers[i].QuestionID
	}
	questions, err := s.bank.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions of paper #%d: %w", paperID, err)
	}

	details := make([]AnswerDetail, 0, len(answers))
	for i := range answers {
		a := &answers[i]
		d := AnswerDetail{
			QuestionID:    a.QuestionID,
			QuestionOrder: a.QuestionOrder,
			Type:          a.QuestionType,
			AnswerContent: a.AnswerContent,
			IsCorrect:     a.IsCorrect,
			Score:         a.Score,
			MaxScore:      a.MaxScore,
			GradingStatus: a.GradingStatus,
			Remarks:       a.Remarks,
		}
		if q, ok := questions[a.QuestionID]; ok {
			d.Title = q.Title
			d.Content = q.Content
			d.CorrectAnswer = q.CorrectAnswer
		}
		details = append(details, d)
	}
	return details, nil
}

func scoreOf(paper *entity.ExamPaper, pending int) *PaperScore {
	return &PaperScore{
		PaperID:         paper.ID,
		Status:          paper.Status,
		ObjectiveScore:  paper.ObjectiveScore,
		SubjectiveScore: paper.SubjectiveScore,
		TotalScore:      paper.TotalScore,
		CorrectCount:    paper.CorrectCount,
		PendingCount:    pending,
	}
}
