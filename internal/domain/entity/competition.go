package entity

import "time"

// CompetitionStatus - статус конкурса (ведется подсистемой конкурсов)
type CompetitionStatus string

const (
	CompetitionDraft              CompetitionStatus = "DRAFT"
	CompetitionPublished          CompetitionStatus = "PUBLISHED"
	CompetitionRegistrationOpen   CompetitionStatus = "REGISTRATION_OPEN"
	CompetitionRegistrationClosed CompetitionStatus = "REGISTRATION_CLOSED"
	CompetitionInProgress         CompetitionStatus = "IN_PROGRESS"
	CompetitionOngoing            CompetitionStatus = "ONGOING"
	CompetitionCompleted          CompetitionStatus = "COMPLETED"
	CompetitionCancelled          CompetitionStatus = "CANCELLED"
	CompetitionPendingApproval    CompetitionStatus = "PENDING_APPROVAL"
)

// IsTerminal возвращает true для завершенных и отмененных конкурсов
func (s CompetitionStatus) IsTerminal() bool {
	return s == CompetitionCompleted || s == CompetitionCancelled
}

// Competition - конкурс. Здесь только поля, нужные экзаменационному движку.
type Competition struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	Status    CompetitionStatus `gorm:"size:32;not null" json:"status"`
	StartTime *time.Time        `json:"start_time,omitempty"`
	EndTime   *time.Time        `json:"end_time,omitempty"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Competition) TableName() string {
	return "competitions"
}
