package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// ParticipantRepo реализует repository.ParticipantRepository поверх таблиц
// registrations, teams, team_members и users
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает репозиторий участников
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// ListEligible возвращает участников с одобренной заявкой
func (r *ParticipantRepo) ListEligible(ctx context.Context, competitionID uint) ([]entity.Participant, error) {
	var teams []entity.Team
	err := conn(ctx, r.db).
		Select("DISTINCT teams.*").
		Joins("JOIN registrations ON registrations.team_id = teams.id").
		Where("registrations.competition_id = ? AND registrations.status = ?", competitionID, entity.RegistrationApproved).
		Order("teams.id ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[entity.Participant]struct{}, len(teams))
	participants := make([]entity.Participant, 0, len(teams))
	for i := range teams {
		p := teams[i].AsParticipant()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		participants = append(participants, p)
	}
	return participants, nil
}

// IsTeamMember проверяет, входит ли пользователь в команду
func (r *ParticipantRepo) IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Team{}).
		Where("id = ? AND (leader_id = ? OR id IN (?))", teamID, userID,
			r.db.Model(&entity.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Count(&count).Error
	return count > 0, err
}

// FindUserTeam ищет команду пользователя в конкурсе
func (r *ParticipantRepo) FindUserTeam(ctx context.Context, competitionID, userID uint) (*entity.Team, error) {
	var team entity.Team
	err := conn(ctx, r.db).
		Where("competition_id = ? AND (leader_id = ? OR id IN (?))", competitionID, userID,
			r.db.Model(&entity.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Order("id ASC").
		First(&team).Error
	if err != nil {
		return nil, notFound(err, "team of user #%d in competition #%d", userID, competitionID)
	}
	return &team, nil
}

// ListUserTeamIDs возвращает ID всех команд пользователя
func (r *ParticipantRepo) ListUserTeamIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := conn(ctx, r.db).Model(&entity.Team{}).
		Where("leader_id = ? OR id IN (?)", userID,
			r.db.Model(&entity.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// ParticipantNames возвращает названия команд и имена пользователей
func (r *ParticipantRepo) ParticipantNames(ctx context.Context, participants []entity.Participant) (map[entity.Participant]string, error) {
	names := make(map[entity.Participant]string, len(participants))
	var teamIDs, userIDs []uint
	for _, p := range participants {
		if p.Type == entity.ParticipantTeam {
			teamIDs = append(teamIDs, p.ID)
		} else {
			userIDs = append(userIDs, p.ID)
		}
	}

	db := conn(ctx, r.db)
	if len(teamIDs) > 0 {
		var teams []entity.Team
		if err := db.Select("id", "name").Where("id IN ?", teamIDs).Find(&teams).Error; err != nil {
			return nil, err
		}
		for _, t := range teams {
			names[entity.Participant{Type: entity.ParticipantTeam, ID: t.ID}] = t.Name
		}
	}
	if len(userIDs) > 0 {
		var users []entity.User
		if err := db.Select("id", "username", "real_name").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for i := range users {
			names[entity.Participant{Type: entity.ParticipantIndividual, ID: users[i].ID}] = users[i].DisplayName()
		}
	}
	return names, nil
}
