// Package models содержит доменную модель слота ("стока") — единицы
// программы лояльности. Слот принадлежит ровно одному пользователю,
// создаётся активным и после списания не восстанавливается.
package models

import "time"

// Вид слота: оплаченный или начисленный администратором бесплатно.
const (
	StockKindPaid = "paid"
	StockKindFree = "free"
)

// Статус слота. Переход единственный и необратимый: active -> consumed.
const (
	StockStatusActive   = "active"
	StockStatusConsumed = "consumed"
)

// Stock представляет один слот пользователя.
type Stock struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`              // Владелец слота
	Kind      string    `json:"kind"`                 // paid | free
	Status    string    `json:"status"`               // active | consumed
	GrantedBy *int64    `json:"granted_by,omitempty"` // Telegram ID админа (только для free)
	GrantKey  *string   `json:"-"`                    // Ключ идемпотентности начисления
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordStocksRequest используется для приёма внешнего обновления
// оплаченных слотов из JSON-запроса.
type RecordStocksRequest struct {
	Count int `json:"count" validate:"required,gt=0,lte=100"` // Количество добавляемых слотов
}

// ConsumeStockRequest используется для приёма запроса на списание слота.
type ConsumeStockRequest struct {
	StockID int64 `json:"stock_id" validate:"required,gt=0"` // ID списываемого слота
}
