package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/contest-exam-api/internal/service"
)

type MockDistributor struct {
	mock.Mock
}

func (m *MockDistributor) Distribute(ctx context.Context, actor service.Actor, competitionID uint) (*service.DistributionResult, error) {
	args := m.Called(ctx, actor, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DistributionResult), args.Error(1)
}

type MockExamSession struct {
	mock.Mock
}

func (m *MockExamSession) GetMyPaper(ctx context.Context, actor service.Actor, competitionID uint) (*service.PaperView, error) {
	args := m.Called(ctx, actor, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperView), args.Error(1)
}

func (m *MockExamSession) Start(ctx context.Context, actor service.Actor, paperID uint, client service.ClientInfo) (*service.PaperProgress, error) {
	args := m.Called(ctx, actor, paperID, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperProgress), args.Error(1)
}

func (m *MockExamSession) SaveDraft(ctx context.Context, actor service.Actor, paperID uint, inputs []service.AnswerInput) (*service.PaperProgress, error) {
	args := m.Called(ctx, actor, paperID, inputs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperProgress), args.Error(1)
}

func (m *MockExamSession) Submit(ctx context.Context, actor service.Actor, paperID uint, inputs []service.AnswerInput, client service.ClientInfo) (*service.PaperScore, error) {
	args := m.Called(ctx, actor, paperID, inputs, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperScore), args.Error(1)
}

func (m *MockExamSession) GetProgress(ctx context.Context, actor service.Actor, paperID uint) (*service.PaperProgress, error) {
	args := m.Called(ctx, actor, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperProgress), args.Error(1)
}

type MockGradingEngine struct {
	mock.Mock
}

func (m *MockGradingEngine) ManualGrade(ctx context.Context, actor service.Actor, input service.ManualGradeInput) (*service.PaperScore, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaperScore), args.Error(1)
}

func (m *MockGradingEngine) PendingGrading(ctx context.Context, actor service.Actor, competitionID uint) ([]service.PendingPaper, error) {
	args := m.Called(ctx, actor, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.PendingPaper), args.Error(1)
}

func (m *MockGradingEngine) PaperAnswers(ctx context.Context, actor service.Actor, paperID uint) ([]service.AnswerDetail, error) {
	args := m.Called(ctx, actor, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.AnswerDetail), args.Error(1)
}

type MockRankingEngine struct {
	mock.Mock
}

func (m *MockRankingEngine) Publish(ctx context.Context, actor service.Actor, input service.PublishInput) (*service.PublishResult, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PublishResult), args.Error(1)
}

func (m *MockRankingEngine) Recalculate(ctx context.Context, actor service.Actor, competitionID uint) (*service.CompetitionRanking, error) {
	args := m.Called(ctx, actor, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CompetitionRanking), args.Error(1)
}

func (m *MockRankingEngine) CompetitionRanking(ctx context.Context, competitionID uint) (*service.CompetitionRanking, error) {
	args := m.Called(ctx, competitionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CompetitionRanking), args.Error(1)
}

func (m *MockRankingEngine) MyScores(ctx context.Context, actor service.Actor) ([]service.MyScore, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.MyScore), args.Error(1)
}
