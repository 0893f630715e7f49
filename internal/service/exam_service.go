package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// ClientInfo - метаданные клиента, с которого начат экзамен
type ClientInfo struct {
	IP        string
	UserAgent string
}

// AnswerInput - ответ участника на один вопрос
type AnswerInput struct {
	QuestionID    uint
	AnswerContent string
}

// PaperQuestion - вопрос листа для участника; эталон сюда не попадает
type PaperQuestion struct {
	QuestionID    uint                `json:"questionId"`
	QuestionOrder int                 `json:"questionOrder"`
	Title         string              `json:"title"`
	Content       string              `json:"content"`
	Type          entity.QuestionType `json:"type"`
	Options       []string            `json:"options,omitempty"`
	MaxScore      decimal.Decimal     `json:"maxScore"`
	AnswerContent string              `json:"answerContent"`
}

// PaperView - лист участника с вопросами
type PaperView struct {
	PaperID            uint                   `json:"paperId"`
	CompetitionID      uint                   `json:"competitionId"`
	ParticipantType    entity.ParticipantType `json:"participantType"`
	Status             entity.PaperStatus     `json:"status"`
	StartTime          *time.Time             `json:"startTime,omitempty"`
	SubmitTime         *time.Time             `json:"submitTime,omitempty"`
	TotalQuestionCount int                    `json:"totalQuestionCount"`
	AnsweredCount      int                    `json:"answeredCount"`
	Questions          []PaperQuestion        `json:"questions"`
}

// PaperProgress - ход выполнения листа
type PaperProgress struct {
	PaperID            uint               `json:"paperId"`
	Status             entity.PaperStatus `json:"status"`
	AnsweredCount      int                `json:"answeredCount"`
	TotalQuestionCount int                `json:"totalQuestionCount"`
	StartTime          *time.Time         `json:"startTime,omitempty"`
	SubmitTime         *time.Time         `json:"submitTime,omitempty"`
}

// ExamService управляет началом, черновиками и сдачей листа участником
type ExamService struct {
	tx           repository.Transactor
	papers       repository.ExamPaperRepository
	answers      repository.ExamAnswerRepository
	bank         repository.QuestionBankRepository
	participants repository.ParticipantRepository
	grading      *GradingService
	now          func() time.Time
}

// NewExamService создает сервис сдачи экзамена
func NewExamService(
	tx repository.Transactor,
	papers repository.ExamPaperRepository,
	answers repository.ExamAnswerRepository,
	bank repository.QuestionBankRepository,
	participants repository.ParticipantRepository,
	grading *GradingService,
) *ExamService {
	return &ExamService{
		tx:           tx,
		papers:       papers,
		answers:      answers,
		bank:         bank,
		participants: participants,
		grading:      grading,
		now:          time.Now,
	}
}

// authorizeOwner проверяет, что лист принадлежит пользователю лично или через команду
func (s *ExamService) authorizeOwner(ctx context.Context, actor Actor, paper *entity.ExamPaper) error {
	switch paper.ParticipantType {
	case entity.ParticipantIndividual:
		if paper.ParticipantID == actor.UserID {
			return nil
		}
	case entity.ParticipantTeam:
		member, err := s.participants.IsTeamMember(ctx, paper.ParticipantID, actor.UserID)
		if err != nil {
			return fmt.Errorf("check team membership: %w", err)
		}
		if member {
			return nil
		}
	}
	return fmt.Errorf("%w: paper #%d does not belong to user #%d", apperrors.ErrForbidden, paper.ID, actor.UserID)
}

// lockOwnedPaper читает лист с блокировкой и проверяет владельца
func (s *ExamService) lockOwnedPaper(ctx context.Context, actor Actor, paperID uint) (*entity.ExamPaper, error) {
	paper, err := s.papers.GetByIDForUpdate(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, actor, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// GetMyPaper ищет личный лист пользователя, а если его нет - лист его команды
func (s *ExamService) GetMyPaper(ctx context.Context, actor Actor, competitionID uint) (*PaperView, error) {
	paper, err := s.papers.FindByParticipant(ctx, competitionID,
		entity.Participant{Type: entity.ParticipantIndividual, ID: actor.UserID})
	if errors.Is(err, apperrors.ErrNotFound) {
		team, teamErr := s.participants.FindUserTeam(ctx, competitionID, actor.UserID)
		if teamErr != nil {
			return nil, teamErr
		}
		paper, err = s.papers.FindByParticipant(ctx, competitionID,
			entity.Participant{Type: entity.ParticipantTeam, ID: team.ID})
	}
	if err != nil {
		return nil, err
	}

	answers, err := s.answers.ListByPaper(ctx, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers of paper #%d: %w", paper.ID, err)
	}
	ids := make([]uint, len(answers))
	for i := range answers {
		ids[i] = answers[i].QuestionID
	}
	questions, err := s.bank.GetQuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions of paper #%d: %w", paper.ID, err)
	}

	view := &PaperView{
		PaperID:            paper.ID,
		CompetitionID:      paper.CompetitionID,
		ParticipantType:    paper.ParticipantType,
		Status:             paper.Status,
		StartTime:          paper.StartTime,
		SubmitTime:         paper.SubmitTime,
		TotalQuestionCount: paper.TotalQuestionCount,
		Questions:          make([]PaperQuestion, 0, len(answers)),
	}
	for i := range answers {
		a := &answers[i]
		if a.IsAnswered() {
			view.AnsweredCount++
		}
		pq := PaperQuestion{
			QuestionID:    a.QuestionID,
			QuestionOrder: a.QuestionOrder,
			Type:          a.QuestionType,
			MaxScore:      a.MaxScore,
			AnswerContent: a.AnswerContent,
		}
		if q, ok := questions[a.QuestionID]; ok {
			pq.Title = q.Title
			pq.Content = q.Content
			if q.Type.HasOptions() {
				pq.Options = append([]string(nil), q.Options...)
			}
		}
		view.Questions = append(view.Questions, pq)
	}
	return view, nil
}

// Start начинает экзамен; допустим только из NOT_STARTED
func (s *ExamService) Start(ctx context.Context, actor Actor, paperID uint, client ClientInfo) (*PaperProgress, error) {
	var progress *PaperProgress
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		paper, err := s.lockOwnedPaper(ctx, actor, paperID)
		if err != nil {
			return err
		}
		if paper.Status != entity.PaperNotStarted {
			return fmt.Errorf("%w: exam already started or submitted (paper #%d is %s)",
				apperrors.ErrInvalidState, paper.ID, paper.Status)
		}
		if err := paper.MoveTo(entity.PaperInProgress); err != nil {
			return err
		}

		now := s.now()
		paper.StartTime = &now
		paper.ClientIP = client.IP
		paper.UserAgent = client.UserAgent
		paper.UpdatedAt = now
		if err := s.papers.Update(ctx, paper); err != nil {
			return fmt.Errorf("update paper #%d: %w", paper.ID, err)
		}
		progress = &PaperProgress{
			PaperID:            paper.ID,
			Status:             paper.Status,
			TotalQuestionCount: paper.TotalQuestionCount,
			StartTime:          paper.StartTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ExamService] User #%d started paper #%d from %s", actor.UserID, paperID, client.IP)
	return progress, nil
}

// SaveDraft сохраняет промежуточные ответы; статус листа не меняется
func (s *ExamService) SaveDraft(ctx context.Context, actor Actor, paperID uint, inputs []AnswerInput) (*PaperProgress, error) {
	var progress *PaperProgress
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		paper, err := s.lockOwnedPaper(ctx, actor, paperID)
		if err != nil {
			return err
		}
		if paper.Status != entity.PaperInProgress {
			return fmt.Errorf("%w: drafts can only be saved while IN_PROGRESS (paper #%d is %s)",
				apperrors.ErrInvalidState, paper.ID, paper.Status)
		}

		answers, err := s.answers.ListByPaper(ctx, paper.ID)
		if err != nil {
			return fmt.Errorf("list answers of paper #%d: %w", paper.ID, err)
		}
		changed := applyAnswerInputs(answers, inputs, s.now())
		if err := s.answers.UpdateBatch(ctx, changed); err != nil {
			return err
		}
		progress = progressOf(paper, answers)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// Submit сдает лист и сразу запускает автоматическую проверку.
// Лист без черновика можно сдать прямо из NOT_STARTED; тогда client записывается как при Start.
func (s *ExamService) Submit(ctx context.Context, actor Actor, paperID uint, inputs []AnswerInput, client ClientInfo) (*PaperScore, error) {
	var result *PaperScore
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		paper, err := s.lockOwnedPaper(ctx, actor, paperID)
		if err != nil {
			return err
		}

		now := s.now()
		if paper.Status == entity.PaperNotStarted {
			if err := paper.MoveTo(entity.PaperInProgress); err != nil {
				return err
			}
			paper.StartTime = &now
			paper.ClientIP = client.IP
			paper.UserAgent = client.UserAgent
		}
		if paper.Status != entity.PaperInProgress {
			return fmt.Errorf("%w: paper #%d already submitted (%s)", apperrors.ErrInvalidState, paper.ID, paper.Status)
		}

		answers, err := s.answers.ListByPaper(ctx, paper.ID)
		if err != nil {
			return fmt.Errorf("list answers of paper #%d: %w", paper.ID, err)
		}
		applyAnswerInputs(answers, inputs, now)

		if err := paper.MoveTo(entity.PaperSubmitted); err != nil {
			return err
		}
		paper.SubmitTime = &now
		paper.UpdatedAt = now

		if err := s.grading.autoGrade(ctx, paper, answers, now); err != nil {
			return err
		}
		if err := s.answers.UpdateBatch(ctx, answers); err != nil {
			return err
		}
		if err := s.papers.Update(ctx, paper); err != nil {
			return fmt.Errorf("update paper #%d: %w", paper.ID, err)
		}

		pending := 0
		for i := range answers {
			if !answers[i].GradingStatus.IsTerminal() {
				pending++
			}
		}
		result = scoreOf(paper, pending)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ExamService] User #%d submitted paper #%d: status=%s objective=%s",
		actor.UserID, paperID, result.Status, result.ObjectiveScore.String())
	return result, nil
}

// GetProgress возвращает число отвеченных вопросов
func (s *ExamService) GetProgress(ctx context.Context, actor Actor, paperID uint) (*PaperProgress, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, actor, paper); err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByPaper(ctx, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers of paper #%d: %w", paper.ID, err)
	}
	return progressOf(paper, answers), nil
}

// applyAnswerInputs переписывает содержимое ответов по questionId.
// Неизвестные вопросы игнорируются. Возвращает измененные ответы.
func applyAnswerInputs(answers []entity.ExamAnswer, inputs []AnswerInput, now time.Time) []entity.ExamAnswer {
	byQuestion := make(map[uint]int, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = i
	}

	touched := make(map[int]struct{}, len(inputs))
	for _, in := range inputs {
		idx, ok := byQuestion[in.QuestionID]
		if !ok {
			continue
		}
		answers[idx].AnswerContent = in.AnswerContent
		answers[idx].UpdatedAt = now
		touched[idx] = struct{}{}
	}

	changed := make([]entity.ExamAnswer, 0, len(touched))
	for i := range answers {
		if _, ok := touched[i]; ok {
			changed = append(changed, answers[i])
		}
	}
	return changed
}

func progressOf(paper *entity.ExamPaper, answers []entity.ExamAnswer) *PaperProgress {
	answered := 0
	for i := range answers {
		if answers[i].IsAnswered() {
			answered++
		}
	}
	return &PaperProgress{
		PaperID:            paper.ID,
		Status:             paper.Status,
		AnsweredCount:      answered,
		TotalQuestionCount: paper.TotalQuestionCount,
		StartTime:          paper.StartTime,
		SubmitTime:         paper.SubmitTime,
	}
}
