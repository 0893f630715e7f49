package repository

import (
	"context"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// ParticipantRepository читает заявки, команды и состав команд
type ParticipantRepository interface {
	// ListEligible возвращает участников с одобренной заявкой на конкурс
	ListEligible(ctx context.Context, competitionID uint) ([]entity.Participant, error)
	// IsTeamMember проверяет членство пользователя (капитан тоже член команды)
	IsTeamMember(ctx context.Context, teamID, userID uint) (bool, error)
	// FindUserTeam ищет команду пользователя в конкурсе, ErrNotFound если ее нет
	FindUserTeam(ctx context.Context, competitionID, userID uint) (*entity.Team, error)
	// ListUserTeamIDs возвращает все команды, где пользователь капитан или участник
	ListUserTeamIDs(ctx context.Context, userID uint) ([]uint, error)
	// ParticipantNames возвращает отображаемые имена участников
	ParticipantNames(ctx context.Context, participants []entity.Participant) (map[entity.Participant]string, error)
}
