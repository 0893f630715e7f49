package entity

// ParticipantType - кто сдает экзамен: отдельный пользователь или команда
type ParticipantType string

const (
	ParticipantIndividual ParticipantType = "INDIVIDUAL"
	ParticipantTeam       ParticipantType = "TEAM"
)

// Valid проверяет значение типа участника
func (t ParticipantType) Valid() bool {
	return t == ParticipantIndividual || t == ParticipantTeam
}

// Participant - единица сдачи экзамена
type Participant struct {
	Type ParticipantType
	ID   uint
}

// RegistrationStatus - статус заявки на участие
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// Registration - заявка команды на конкурс
type Registration struct {
	ID            uint               `gorm:"primaryKey"`
	CompetitionID uint               `gorm:"not null;index"`
	TeamID        uint               `gorm:"not null;index"`
	Status        RegistrationStatus `gorm:"size:32;not null"`
}

// TableName определяет имя таблицы для GORM
func (Registration) TableName() string {
	return "registrations"
}

// Team - команда. Команда из одного человека сдает экзамен как INDIVIDUAL.
type Team struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:255;not null"`
	CompetitionID uint   `gorm:"not null;index"`
	LeaderID      uint   `gorm:"not null"`
	MaxMembers    int    `gorm:"not null;default:1"`
}

// TableName определяет имя таблицы для GORM
func (Team) TableName() string {
	return "teams"
}

// AsParticipant определяет, кем команда выступает на экзамене
func (t *Team) AsParticipant() Participant {
	if t.MaxMembers > 1 {
		return Participant{Type: ParticipantTeam, ID: t.ID}
	}
	return Participant{Type: ParticipantIndividual, ID: t.LeaderID}
}

// TeamMember - участник команды
type TeamMember struct {
	ID     uint `gorm:"primaryKey"`
	TeamID uint `gorm:"not null;index"`
	UserID uint `gorm:"not null;index"`
}

// TableName определяет имя таблицы для GORM
func (TeamMember) TableName() string {
	return "team_members"
}
