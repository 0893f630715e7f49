package service

import (
	"fmt"

	apperrors "github.com/yourusername/contest-exam-api/internal/pkg/errors"
)

// Role - роль пользователя из токена
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// Actor - личность, от имени которой выполняется операция.
// Определяется на HTTP-границе один раз и передается в каждый вызов.
type Actor struct {
	UserID uint
	Role   Role
}

// IsGrader - может ли пользователь раздавать листы, проверять и публиковать
func (a Actor) IsGrader() bool {
	return a.Role == RoleTeacher || a.Role == RoleAdmin
}

func requireGrader(actor Actor) error {
	if !actor.IsGrader() {
		return fmt.Errorf("%w: user #%d with role %q cannot grade", apperrors.ErrForbidden, actor.UserID, actor.Role)
	}
	return nil
}
