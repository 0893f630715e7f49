package repository

import (
	"context"
	"time"

	"github.com/yourusername/contest-exam-api/internal/domain/entity"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// LockRepository - распределенная блокировка с токеном владельца
type LockRepository interface {
	// TryLock возвращает токен, если блокировка взята, и ok=false, если она занята
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Unlock снимает блокировку, только если она все еще принадлежит token
	Unlock(ctx context.Context, key, token string) error
}

// EventPublisher публикует доменные события для подсистемы уведомлений
type EventPublisher interface {
	PublishScoresPublished(ctx context.Context, event entity.ScoresPublishedEvent) error
}
