package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда личность запрашивающего не установлена.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия
	// или он не владеет экзаменационным листом.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных (например, балл > maxScore).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState используется для недопустимых переходов состояния (повторная сдача и т.п.).
	ErrInvalidState = errors.New("invalid state transition")

	// ErrConflict используется при нарушении уникальности (повторный лист при раздаче).
	ErrConflict = errors.New("resource state conflict")
)
