package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

type distributionFixture struct {
	svc          *DistributionService
	competitions *MockCompetitionRepo
	bank         *MockQuestionBankRepo
	participants *MockParticipantRepo
	papers       *MockExamPaperRepo
}

func newDistributionFixture() *distributionFixture {
	f := &distributionFixture{
		competitions: new(MockCompetitionRepo),
		bank:         new(MockQuestionBankRepo),
		participants: new(MockParticipantRepo),
		papers:       new(MockExamPaperRepo),
	}
	f.svc = NewDistributionService(&passthroughTx{}, f.competitions, f.bank, f.participants, f.papers)
	f.svc.now = fixedClock
	return f
}

func twoLinks() []entity.CompetitionQuestion {
	return []entity.CompetitionQuestion{
		{CompetitionID: 1, QuestionID: 10, QuestionOrder: 1, QuestionScore: decimal.NewFromInt(50), IsActive: true,
			Question: &entity.Question{ID: 10, Type: entity.QuestionSingleChoice}},
		{CompetitionID: 1, QuestionID: 11, QuestionOrder: 2, QuestionScore: decimal.NewFromInt(50), IsActive: true,
			Question: &entity.Question{ID: 11, Type: entity.QuestionEssay}},
	}
}

var teacher = Actor{UserID: 100, Role: RoleTeacher}

func TestDistribute_CreatesPapersWithBlankAnswers(t *testing.T) {
	// Arrange
	f := newDistributionFixture()
	team := entity.Participant{Type: entity.ParticipantTeam, ID: 5}
	solo := entity.Participant{Type: entity.ParticipantIndividual, ID: 42}

	f.competitions.On("GetByID", mock.Anything, uint(1)).Return(&entity.Competition{ID: 1}, nil)
	f.bank.On("ListActiveLinks", mock.Anything, uint(1)).Return(twoLinks(), nil)
	f.participants.On("ListEligible", mock.Anything, uint(1)).Return([]entity.Participant{team, solo}, nil)
	f.papers.On("Exists", mock.Anything, uint(1), mock.Anything).Return(false, nil)

	var created []*entity.ExamPaper
	var createdAnswers [][]entity.ExamAnswer
	f.papers.On("CreateWithAnswers", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = append(created, args.Get(1).(*entity.ExamPaper))
			createdAnswers = append(createdAnswers, args.Get(2).([]entity.ExamAnswer))
		}).Return(nil)

	// Act
	result, err := f.svc.Distribute(ctx, teacher, 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.TeamPapers)
	assert.Equal(t, 1, result.IndividualPapers)
	assert.Equal(t, 2, result.TotalParticipants)

	require.Len(t, created, 2)
	for i, paper := range created {
		assert.Equal(t, entity.PaperNotStarted, paper.Status)
		assert.Equal(t, 2, paper.TotalQuestionCount)
		assert.Equal(t, fixedNow, paper.CreatedAt, "время ставится явно")
		require.Len(t, createdAnswers[i], 2)
		for j, a := range createdAnswers[i] {
			assert.Equal(t, entity.GradingPending, a.GradingStatus)
			assert.Empty(t, a.AnswerContent)
			assert.True(t, a.MaxScore.Equal(decimal.NewFromInt(50)), "maxScore копируется из связи")
			assert.Equal(t, j+1, a.QuestionOrder)
		}
	}
	assert.Equal(t, entity.QuestionEssay, createdAnswers[0][1].QuestionType)
	f.papers.AssertExpectations(t)
}

// Повторная раздача: у существующих участников ничего не создается
func TestDistribute_IsIdempotent(t *testing.T) {
	f := newDistributionFixture()
	existing := entity.Participant{Type: entity.ParticipantTeam, ID: 5}
	racing := entity.Participant{Type: entity.ParticipantTeam, ID: 6}
	newcomer := entity.Participant{Type: entity.ParticipantTeam, ID: 7}

	f.competitions.On("GetByID", mock.Anything, uint(1)).Return(&entity.Competition{ID: 1}, nil)
	f.bank.On("ListActiveLinks", mock.Anything, uint(1)).Return(twoLinks(), nil)
	f.participants.On("ListEligible", mock.Anything, uint(1)).Return([]entity.Participant{existing, racing, newcomer}, nil)
	f.papers.On("Exists", mock.Anything, uint(1), existing).Return(true, nil)
	f.papers.On("Exists", mock.Anything, uint(1), racing).Return(false, nil)
	f.papers.On("Exists", mock.Anything, uint(1), newcomer).Return(false, nil)

	// параллельная раздача успела вставить лист между проверкой и вставкой
	f.papers.On("CreateWithAnswers", mock.Anything,
		mock.MatchedBy(func(p *entity.ExamPaper) bool { return p.ParticipantID == 6 }), mock.Anything).
		Return(fmt.Errorf("%w: duplicate", apperrors.ErrConflict))
	f.papers.On("CreateWithAnswers", mock.Anything,
		mock.MatchedBy(func(p *entity.ExamPaper) bool { return p.ParticipantID == 7 }), mock.Anything).
		Return(nil)

	result, err := f.svc.Distribute(ctx, teacher, 1)

	require.NoError(t, err)
	assert.Equal(t, 1, result.TeamPapers)
	assert.Equal(t, 1, result.TotalParticipants, "считаются только новые участники")
	f.papers.AssertNumberOfCalls(t, "CreateWithAnswers", 2)
}

func TestDistribute_Errors(t *testing.T) {
	t.Run("competition not found", func(t *testing.T) {
		f := newDistributionFixture()
		f.competitions.On("GetByID", mock.Anything, uint(1)).Return(nil, apperrors.ErrNotFound)

		_, err := f.svc.Distribute(ctx, teacher, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("no questions", func(t *testing.T) {
		f := newDistributionFixture()
		f.competitions.On("GetByID", mock.Anything, uint(1)).Return(&entity.Competition{ID: 1}, nil)
		f.bank.On("ListActiveLinks", mock.Anything, uint(1)).Return([]entity.CompetitionQuestion{}, nil)

		_, err := f.svc.Distribute(ctx, teacher, 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("no participants", func(t *testing.T) {
		f := newDistributionFixture()
		f.competitions.On("GetByID", mock.Anything, uint(1)).Return(&entity.Competition{ID: 1}, nil)
		f.bank.On("ListActiveLinks", mock.Anything, uint(1)).Return(twoLinks(), nil)
		f.participants.On("ListEligible", mock.Anything, uint(1)).Return([]entity.Participant{}, nil)

		_, err := f.svc.Distribute(ctx, teacher, 1)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("student cannot distribute", func(t *testing.T) {
		f := newDistributionFixture()

		_, err := f.svc.Distribute(ctx, Actor{UserID: 1, Role: RoleStudent}, 1)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.competitions.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("storage error aborts", func(t *testing.T) {
		f := newDistributionFixture()
		boom := errors.New("connection reset")
		f.competitions.On("GetByID", mock.Anything, uint(1)).Return(&entity.Competition{ID: 1}, nil)
		f.bank.On("ListActiveLinks", mock.Anything, uint(1)).Return(twoLinks(), nil)
		f.participants.On("ListEligible", mock.Anything, uint(1)).
			Return([]entity.Participant{{Type: entity.ParticipantTeam, ID: 5}}, nil)
		f.papers.On("Exists", mock.Anything, uint(1), mock.Anything).Return(false, nil)
		f.papers.On("CreateWithAnswers", mock.Anything, mock.Anything, mock.Anything).Return(boom)

		_, err := f.svc.Distribute(ctx, teacher, 1)
		assert.ErrorIs(t, err, boom)
	})
}
