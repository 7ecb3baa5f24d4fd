// Package models содержит доменную модель пользователя Mini-App.
// Идентичность пользователя — его Telegram ID: уникальный, неизменяемый
// после первой регистрации. Структуры используются в бизнес-логике
// и при работе с хранилищем.
package models

import "time"

// User представляет зарегистрированного пользователя Mini-App.
type User struct {
	ID        int64     `json:"id"`         // Внутренний идентификатор (первичный ключ)
	TgID      int64     `json:"tg_id"`      // Telegram ID пользователя (уникальный)
	Username  string    `json:"username"`   // Username в Telegram (опционально)
	FirstName string    `json:"first_name"` // Имя
	LastName  string    `json:"last_name"`  // Фамилия
	Phone     string    `json:"phone"`      // Номер телефона
	IsActive  bool      `json:"is_active"`  // Признак активности учётной записи
	CreatedAt time.Time `json:"created_at"` // Дата первой регистрации
	UpdatedAt time.Time `json:"updated_at"` // Дата последнего обновления профиля
}

// RegisterRequest используется для приёма данных регистрации из JSON-запроса.
// Повторная регистрация с тем же tg_id обновляет профиль, не создавая
// нового пользователя.
type RegisterRequest struct {
	TgID      int64  `json:"tg_id" validate:"required,gt=0"`         // Telegram ID (>0)
	FirstName string `json:"first_name" validate:"required,max=128"` // Имя
	LastName  string `json:"last_name" validate:"required,max=128"`  // Фамилия
	Phone     string `json:"phone" validate:"required,phone"`        // Телефон
	Username  string `json:"username" validate:"omitempty,max=64"`   // Username (опционально)
}

// Profile описывает ответ bootstrap-рукопожатия: зарегистрирован ли
// пользователь и его текущее состояние. Для незарегистрированного
// пользователя Registered=false, остальные поля пусты.
type Profile struct {
	Registered      bool     `json:"registered"`
	User            *User    `json:"user,omitempty"`
	Stocks          []*Stock `json:"stocks,omitempty"`
	CompletedStocks int      `json:"completed_stocks"`
}
