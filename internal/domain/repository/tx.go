package repository

import "context"

// Transactor выполняет fn в одной транзакции. Репозитории, вызванные с ctx,
// который передан в fn, работают внутри этой транзакции.
// Вложенный вызов переиспользует внешнюю транзакцию.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
