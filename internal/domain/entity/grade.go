package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AwardLevel - уровень награды по итоговому баллу
type AwardLevel string

const (
	AwardFirstPrize    AwardLevel = "FIRST_PRIZE"
	AwardSecondPrize   AwardLevel = "SECOND_PRIZE"
	AwardThirdPrize    AwardLevel = "THIRD_PRIZE"
	AwardParticipation AwardLevel = "PARTICIPATION"
	AwardNone          AwardLevel = "NONE"
)

// AwardThresholds - нижние границы баллов для наград (включительно)
type AwardThresholds struct {
	FirstPrize    decimal.Decimal
	SecondPrize   decimal.Decimal
	ThirdPrize    decimal.Decimal
	Participation decimal.Decimal
}

// DefaultAwardThresholds возвращает пороги 95/85/75/60
func DefaultAwardThresholds() AwardThresholds {
	return AwardThresholds{
		FirstPrize:    decimal.NewFromInt(95),
		SecondPrize:   decimal.NewFromInt(85),
		ThirdPrize:    decimal.NewFromInt(75),
		Participation: decimal.NewFromInt(60),
	}
}

// Level определяет награду для балла
func (t AwardThresholds) Level(score decimal.Decimal) AwardLevel {
	switch {
	case score.GreaterThanOrEqual(t.FirstPrize):
		return AwardFirstPrize
	case score.GreaterThanOrEqual(t.SecondPrize):
		return AwardSecondPrize
	case score.GreaterThanOrEqual(t.ThirdPrize):
		return AwardThirdPrize
	case score.GreaterThanOrEqual(t.Participation):
		return AwardParticipation
	}
	return AwardNone
}

// Grade - опубликованный результат команды в конкурсе, уникален по (team_id, competition_id)
type Grade struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TeamID        uint            `gorm:"not null;uniqueIndex:uq_grade_team_competition" json:"team_id"`
	CompetitionID uint            `gorm:"not null;uniqueIndex:uq_grade_team_competition;index" json:"competition_id"`
	Score         decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"score"`
	Ranking       *int            `json:"ranking,omitempty"`
	AwardLevel    AwardLevel      `gorm:"size:32;not null" json:"award_level"`
	Remarks       string          `gorm:"type:text" json:"remarks,omitempty"`
	IsFinal       bool            `gorm:"not null;default:false" json:"is_final"`
	GradedBy      *uint           `json:"graded_by,omitempty"`
	GradedAt      *time.Time      `json:"graded_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Grade) TableName() string {
	return "grades"
}
