package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/domain/repository"
	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// memStore - хранилище в памяти для сценарных тестов сервисов.
// Отдает копии, как это делает настоящая БД.
type memStore struct {
	mu sync.Mutex

	competitions map[uint]*entity.Competition
	questions    map[uint]*entity.Question
	links        []entity.CompetitionQuestion
	teams        map[uint]*entity.Team
	members      map[uint][]uint // teamID -> userIDs
	users        map[uint]string
	eligible     map[uint][]entity.Participant

	papers      map[uint]*entity.ExamPaper
	answers     map[uint][]entity.ExamAnswer // paperID -> answers
	grades      map[uint]*entity.Grade
	nextPaper   uint
	nextAnswer  uint
	nextGrade   uint
	answerSaves int
}

func newMemStore() *memStore {
	return &memStore{
		competitions: make(map[uint]*entity.Competition),
		questions:    make(map[uint]*entity.Question),
		teams:        make(map[uint]*entity.Team),
		members:      make(map[uint][]uint),
		users:        make(map[uint]string),
		eligible:     make(map[uint][]entity.Participant),
		papers:       make(map[uint]*entity.ExamPaper),
		answers:      make(map[uint][]entity.ExamAnswer),
		grades:       make(map[uint]*entity.Grade),
	}
}

func (s *memStore) addCompetition(id uint, status entity.CompetitionStatus) {
	s.competitions[id] = &entity.Competition{ID: id, Title: fmt.Sprintf("Competition %d", id), Status: status}
}

func (s *memStore) addQuestion(competitionID uint, order int, q entity.Question, weight int64) {
	stored := q
	s.questions[q.ID] = &stored
	s.links = append(s.links, entity.CompetitionQuestion{
		ID:            uint(len(s.links) + 1),
		CompetitionID: competitionID,
		QuestionID:    q.ID,
		QuestionOrder: order,
		QuestionScore: decimalInt(weight),
		IsActive:      true,
	})
}

func (s *memStore) addTeam(team entity.Team, memberIDs ...uint) {
	t := team
	s.teams[team.ID] = &t
	s.members[team.ID] = memberIDs
	s.eligible[team.CompetitionID] = append(s.eligible[team.CompetitionID], t.AsParticipant())
}

func (s *memStore) paperOf(competitionID uint, p entity.Participant) *entity.ExamPaper {
	for _, paper := range s.papers {
		if paper.CompetitionID == competitionID && paper.Participant() == p {
			cp := *paper
			return &cp
		}
	}
	return nil
}

func (s *memStore) repos() (*memCompetitions, *memBank, *memParticipants, *memPapers, *memAnswers, *memGrades) {
	return &memCompetitions{s}, &memBank{s}, &memParticipants{s}, &memPapers{s}, &memAnswers{s}, &memGrades{s}
}

// ----------------------------------------------------------------------------

type memCompetitions struct{ s *memStore }

func (r *memCompetitions) GetByID(_ context.Context, id uint) (*entity.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return nil, fmt.Errorf("%w: competition #%d", apperrors.ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (r *memCompetitions) UpdateStatus(_ context.Context, id uint, status entity.CompetitionStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return fmt.Errorf("%w: competition #%d", apperrors.ErrNotFound, id)
	}
	c.Status = status
	c.UpdatedAt = at
	return nil
}

type memBank struct{ s *memStore }

func (r *memBank) ListActiveLinks(_ context.Context, competitionID uint) ([]entity.CompetitionQuestion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.CompetitionQuestion
	for _, l := range r.s.links {
		if l.CompetitionID != competitionID || !l.IsActive {
			continue
		}
		link := l
		if q, ok := r.s.questions[l.QuestionID]; ok {
			qc := *q
			link.Question = &qc
		}
		out = append(out, link)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionOrder < out[j].QuestionOrder })
	return out, nil
}

func (r *memBank) GetQuestionsByIDs(_ context.Context, ids []uint) (map[uint]*entity.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uint]*entity.Question, len(ids))
	for _, id := range ids {
		if q, ok := r.s.questions[id]; ok {
			qc := *q
			out[id] = &qc
		}
	}
	return out, nil
}

type memParticipants struct{ s *memStore }

func (r *memParticipants) ListEligible(_ context.Context, competitionID uint) ([]entity.Participant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.Participant(nil), r.s.eligible[competitionID]...), nil
}

func (r *memParticipants) IsTeamMember(_ context.Context, teamID, userID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range r.s.members[teamID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memParticipants) FindUserTeam(_ context.Context, competitionID, userID uint) (*entity.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *entity.Team
	for id, t := range r.s.teams {
		if t.CompetitionID != competitionID {
			continue
		}
		for _, m := range r.s.members[id] {
			if m == userID && (found == nil || t.ID < found.ID) {
				cp := *t
				found = &cp
			}
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: user #%d has no team in competition #%d", apperrors.ErrNotFound, userID, competitionID)
	}
	return found, nil
}

func (r *memParticipants) ListUserTeamIDs(_ context.Context, userID uint) ([]uint, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []uint
	for teamID, ms := range r.s.members {
		for _, m := range ms {
			if m == userID {
				ids = append(ids, teamID)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *memParticipants) ParticipantNames(_ context.Context, participants []entity.Participant) (map[entity.Participant]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	names := make(map[entity.Participant]string, len(participants))
	for _, p := range participants {
		switch p.Type {
		case entity.ParticipantTeam:
			if t, ok := r.s.teams[p.ID]; ok {
				names[p] = t.Name
			}
		case entity.ParticipantIndividual:
			if n, ok := r.s.users[p.ID]; ok {
				names[p] = n
			}
		}
	}
	return names, nil
}

type memPapers struct{ s *memStore }

func (r *memPapers) CreateWithAnswers(_ context.Context, paper *entity.ExamPaper, answers []entity.ExamAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.papers {
		if p.CompetitionID == paper.CompetitionID && p.Participant() == paper.Participant() {
			return fmt.Errorf("%w: paper already exists", apperrors.ErrConflict)
		}
	}
	r.s.nextPaper++
	paper.ID = r.s.nextPaper
	stored := *paper
	r.s.papers[paper.ID] = &stored

	rows := make([]entity.ExamAnswer, len(answers))
	for i := range answers {
		r.s.nextAnswer++
		answers[i].ID = r.s.nextAnswer
		answers[i].ExamPaperID = paper.ID
		rows[i] = answers[i]
	}
	r.s.answers[paper.ID] = rows
	return nil
}

func (r *memPapers) Exists(_ context.Context, competitionID uint, participant entity.Participant) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.paperOf(competitionID, participant) != nil, nil
}

func (r *memPapers) GetByID(_ context.Context, id uint) (*entity.ExamPaper, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.papers[id]
	if !ok {
		return nil, fmt.Errorf("%w: paper #%d", apperrors.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (r *memPapers) GetByIDForUpdate(ctx context.Context, id uint) (*entity.ExamPaper, error) {
	return r.GetByID(ctx, id)
}

func (r *memPapers) FindByParticipant(_ context.Context, competitionID uint, participant entity.Participant) (*entity.ExamPaper, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p := r.s.paperOf(competitionID, participant); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: paper of %s #%d", apperrors.ErrNotFound, participant.Type, participant.ID)
}

func (r *memPapers) Update(_ context.Context, paper *entity.ExamPaper) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.papers[paper.ID]; !ok {
		return fmt.Errorf("%w: paper #%d", apperrors.ErrNotFound, paper.ID)
	}
	stored := *paper
	r.s.papers[paper.ID] = &stored
	return nil
}

func (r *memPapers) ListByStatus(_ context.Context, competitionID uint, status entity.PaperStatus) ([]entity.ExamPaper, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.ExamPaper
	for _, p := range r.s.papers {
		if p.Status == status && (competitionID == 0 || p.CompetitionID == competitionID) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPapers) CountByStatus(ctx context.Context, competitionID uint, status entity.PaperStatus) (int64, error) {
	list, err := r.ListByStatus(ctx, competitionID, status)
	return int64(len(list)), err
}

type memAnswers struct{ s *memStore }

func (r *memAnswers) ListByPaper(_ context.Context, paperID uint) ([]entity.ExamAnswer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]entity.ExamAnswer(nil), r.s.answers[paperID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionOrder < out[j].QuestionOrder })
	return out, nil
}

func (r *memAnswers) UpdateBatch(_ context.Context, answers []entity.ExamAnswer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range answers {
		rows := r.s.answers[a.ExamPaperID]
		for i := range rows {
			if rows[i].ID == a.ID {
				rows[i] = a
				r.s.answerSaves++
			}
		}
	}
	return nil
}

func (r *memAnswers) StatsByPapers(_ context.Context, paperIDs []uint) (map[uint]repository.AnswerStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[uint]repository.AnswerStats, len(paperIDs))
	for _, id := range paperIDs {
		st := repository.AnswerStats{PaperID: id}
		for _, a := range r.s.answers[id] {
			st.Total++
			if a.GradingStatus == entity.GradingPending {
				st.Pending++
			} else {
				st.Graded++
			}
		}
		out[id] = st
	}
	return out, nil
}

type memGrades struct{ s *memStore }

func (r *memGrades) Upsert(_ context.Context, grade *entity.Grade) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.grades {
		if g.TeamID == grade.TeamID && g.CompetitionID == grade.CompetitionID {
			g.Score = grade.Score
			g.AwardLevel = grade.AwardLevel
			g.IsFinal = grade.IsFinal
			g.GradedBy = grade.GradedBy
			g.GradedAt = grade.GradedAt
			g.UpdatedAt = grade.UpdatedAt
			grade.ID = g.ID
			return nil
		}
	}
	r.s.nextGrade++
	grade.ID = r.s.nextGrade
	stored := *grade
	r.s.grades[grade.ID] = &stored
	return nil
}

func (r *memGrades) list(competitionID uint) []entity.Grade {
	var out []entity.Grade
	for _, g := range r.s.grades {
		if g.CompetitionID == competitionID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memGrades) ListForUpdate(_ context.Context, competitionID uint) ([]entity.Grade, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(competitionID), nil
}

func (r *memGrades) ListByCompetition(_ context.Context, competitionID uint) ([]entity.Grade, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.list(competitionID)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Ranking, out[j].Ranking
		switch {
		case ri == nil && rj == nil:
			return out[i].TeamID < out[j].TeamID
		case ri == nil:
			return false
		case rj == nil:
			return true
		case *ri != *rj:
			return *ri < *rj
		}
		return out[i].TeamID < out[j].TeamID
	})
	return out, nil
}

func (r *memGrades) UpdateRanks(_ context.Context, ranks map[uint]int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rank := range ranks {
		g, ok := r.s.grades[id]
		if !ok {
			return fmt.Errorf("%w: grade #%d", apperrors.ErrNotFound, id)
		}
		rk := rank
		g.Ranking = &rk
		g.UpdatedAt = at
	}
	return nil
}

func (r *memGrades) ListFinalByTeams(_ context.Context, teamIDs []uint) ([]entity.Grade, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uint]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		want[id] = struct{}{}
	}
	var out []entity.Grade
	for _, g := range r.s.grades {
		if _, ok := want[g.TeamID]; ok && g.IsFinal {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// memServices собирает все сервисы поверх одного memStore
type memServices struct {
	store        *memStore
	distribution *DistributionService
	exam         *ExamService
	grading      *GradingService
	ranking      *RankingService
}

func newMemServices(store *memStore) *memServices {
	competitions, bank, participants, papers, answers, grades := store.repos()
	tx := &passthroughTx{}

	grading := NewGradingService(tx, papers, answers, bank, participants)
	grading.now = fixedClock
	exam := NewExamService(tx, papers, answers, bank, participants, grading)
	exam.now = fixedClock
	distribution := NewDistributionService(tx, competitions, bank, participants, papers)
	distribution.now = fixedClock
	ranking := NewRankingService(tx, competitions, papers, grades, participants, nil, nil, nil, DefaultRankingConfig())
	ranking.now = fixedClock

	return &memServices{
		store:        store,
		distribution: distribution,
		exam:         exam,
		grading:      grading,
		ranking:      ranking,
	}
}

func decimalInt(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
