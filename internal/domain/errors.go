// Package domain содержит доменные ошибки сервиса.
// Ошибки возвращаются из бизнес-логики как типизированные значения
// и транслируются HTTP-слоем в соответствующие статусы ответа.
package domain

import "errors"

var (
	// ErrInvalidIdentity — некорректный Telegram ID (не положительное число).
	ErrInvalidIdentity = errors.New("invalid telegram id")
	// ErrUserNotFound — пользователь с таким Telegram ID не зарегистрирован.
	ErrUserNotFound = errors.New("user not found")
	// ErrStockNotFound — слот с таким ID не существует.
	ErrStockNotFound = errors.New("stock not found")
	// ErrForbidden — операция запрещена: не админ либо чужой слот.
	ErrForbidden = errors.New("forbidden")
	// ErrStockLimitExceeded — достигнут лимит активных слотов пользователя.
	// Запрос отклоняется целиком, частичное добавление не выполняется.
	ErrStockLimitExceeded = errors.New("stock limit exceeded")
	// ErrInvalidStockState — недопустимый переход состояния слота,
	// например повторное списание уже использованного слота.
	ErrInvalidStockState = errors.New("invalid stock state")
	// ErrDuplicateGrantKey — ключ идемпотентности уже использован
	// другим начислением.
	ErrDuplicateGrantKey = errors.New("duplicate grant idempotency key")
)
