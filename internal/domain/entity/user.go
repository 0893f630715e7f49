package entity

import "strings"

// User - пользователь системы. Учетные записи ведет подсистема идентификации,
// здесь нужны только имя для списков проверки и рейтинга.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null" json:"username"`
	RealName string `gorm:"size:100" json:"real_name"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// DisplayName возвращает настоящее имя, если оно заполнено, иначе логин
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.RealName); name != "" {
		return name
	}
	return u.Username
}
