package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
)

// passthroughTx выполняет fn без настоящей транзакции
type passthroughTx struct {
	calls int
}

func (t *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// ============================================================================
// CompetitionRepository
// ============================================================================

type MockCompetitionRepo struct {
	mock.Mock
}

func (m *MockCompetitionRepo) GetByID(ctx context.Context, id uint) (*entity.Competition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Competition), args.Error(1)
}

func (m *MockCompetitionRepo) UpdateStatus(ctx context.Context, id uint, status entity.CompetitionStatus, at time.Time) error {
	args := m.Called(ctx, id, status, at)
	return args.Error(0)
}

// ============================================================================
// QuestionBankRepository
// ============================================================================

type MockQuestionBankRepo struct {
	mock.Mock
}

func (m *MockQuestionBankRepo) ListActiveLinks(ctx context.Context, competitionID uint) ([]entity.CompetitionQuestion, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CompetitionQuestion), args.Error(1)
}

func (m *MockQuestionBankRepo) GetQuestionsByIDs(ctx context.Context, ids []uint) (map[uint]*entity.Question, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]*entity.Question), args.Error(1)
}

// ============================================================================
// ParticipantRepository
// ============================================================================

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) ListEligible(ctx context.Context, competitionID uint) ([]entity.Participant, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockParticipantRepo) IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error) {
	args := m.Called(ctx, teamID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepo) FindUserTeam(ctx context.Context, competitionID, userID uint) (*entity.Team, error) {
	args := m.Called(ctx, competitionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Team), args.Error(1)
}

func (m *MockParticipantRepo) ListUserTeamIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockParticipantRepo) ParticipantNames(ctx context.Context, participants []entity.Participant) (map[entity.Participant]string, error) {
	args := m.Called(ctx, participants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entity.Participant]string), args.Error(1)
}

// ============================================================================
// ExamPaperRepository / ExamAnswerRepository
// ============================================================================

type MockExamPaperRepo struct {
	mock.Mock
}

func (m *MockExamPaperRepo) CreateWithAnswers(ctx context.Context, paper *entity.ExamPaper, answers []entity.ExamAnswer) error {
	args := m.Called(ctx, paper, answers)
	return args.Error(0)
}

func (m *MockExamPaperRepo) Exists(ctx context.Context, competitionID uint, participant entity.Participant) (bool, error) {
	args := m.Called(ctx, competitionID, participant)
	return args.Bool(0), args.Error(1)
}

func (m *MockExamPaperRepo) GetByID(ctx context.Context, id uint) (*entity.ExamPaper, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamPaper), args.Error(1)
}

func (m *MockExamPaperRepo) GetByIDForUpdate(ctx context.Context, id uint) (*entity.ExamPaper, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamPaper), args.Error(1)
}

func (m *MockExamPaperRepo) FindByParticipant(ctx context.Context, competitionID uint, participant entity.Participant) (*entity.ExamPaper, error) {
	args := m.Called(ctx, competitionID, participant)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExamPaper), args.Error(1)
}

func (m *MockExamPaperRepo) Update(ctx context.Context, paper *entity.ExamPaper) error {
	args := m.Called(ctx, paper)
	return args.Error(0)
}

func (m *MockExamPaperRepo) ListByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) ([]entity.ExamPaper, error) {
	args := m.Called(ctx, competitionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ExamPaper), args.Error(1)
}

func (m *MockExamPaperRepo) CountByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) (int64, error) {
	args := m.Called(ctx, competitionID, status)
	return args.Get(0).(int64), args.Error(1)
}

type MockExamAnswerRepo struct {
	mock.Mock
}

func (m *MockExamAnswerRepo) ListByPaper(ctx context.Context, paperID uint) ([]entity.ExamAnswer, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// копия, чтобы сервис не менял данные теста
	src := args.Get(0).([]entity.ExamAnswer)
	out := make([]entity.ExamAnswer, len(src))
	copy(out, src)
	return out, args.Error(1)
}

func (m *MockExamAnswerRepo) UpdateBatch(ctx context.Context, answers []entity.ExamAnswer) error {
	args := m.Called(ctx, answers)
	return args.Error(0)
}

func (m *MockExamAnswerRepo) StatsByPapers(ctx context.Context, paperIDs []uint) (map[uint]repository.AnswerStats, error) {
	args := m.Called(ctx, paperIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]repository.AnswerStats), args.Error(1)
}

// ============================================================================
// GradeRepository
// ============================================================================

type MockGradeRepo struct {
	mock.Mock
}

func (m *MockGradeRepo) Upsert(ctx context.Context, grade *entity.Grade) error {
	args := m.Called(ctx, grade)
	return args.Error(0)
}

func (m *MockGradeRepo) ListForUpdate(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Grade), args.Error(1)
}

func (m *MockGradeRepo) ListByCompetition(ctx context.Context, competitionID uint) ([]entity.Grade, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Grade), args.Error(1)
}

func (m *MockGradeRepo) UpdateRanks(ctx context.Context, ranks map[uint]int, at time.Time) error {
	args := m.Called(ctx, ranks, at)
	return args.Error(0)
}

func (m *MockGradeRepo) ListFinalByTeams(ctx context.Context, teamIDs []uint) ([]entity.Grade, error) {
	args := m.Called(ctx, teamIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Grade), args.Error(1)
}

// ============================================================================
// Cache / Lock / Events
// ============================================================================

type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheRepo) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockLockRepo struct {
	mock.Mock
}

func (m *MockLockRepo) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLockRepo) Unlock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishScoresPublished(ctx context.Context, event entity.ScoresPublishedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var ctx = context.Background()

var fixedNow = time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
