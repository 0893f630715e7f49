package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScoresPublishedEvent отправляется подсистеме уведомлений после публикации результатов
type ScoresPublishedEvent struct {
	CompetitionID  uint            `json:"competition_id"`
	PublishedCount int             `json:"published_count"`
	TeamIDs        []uint          `json:"team_ids"`
	HighestScore   decimal.Decimal `json:"highest_score"`
	PublishedBy    uint            `json:"published_by"`
	PublishedAt    time.Time       `json:"published_at"`
}
