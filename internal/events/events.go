// Package events описывает события изменения леджера слотов.
// События публикуются после фиксации транзакции и потребляются
// внешними коллабораторами (выгрузка в Google Таблицу, бот-слой).
// Леджер остаётся единственным источником истины: потеря события
// не влияет на состояние слотов.
package events

import "time"

// Действия над слотами, попадающие в поток событий.
const (
	ActionGranted  = "granted"  // админ начислил бесплатный слот
	ActionRecorded = "recorded" // поступило внешнее обновление оплаченных слотов
	ActionConsumed = "consumed" // пользователь списал слот
)

// StockEvent представляет одно изменение леджера.
type StockEvent struct {
	Action    string    `json:"action"`
	TgID      int64     `json:"tg_id"`
	Username  string    `json:"username,omitempty"`
	StockID   int64     `json:"stock_id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	GrantedBy *int64    `json:"granted_by,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher публикует события изменения леджера.
type Publisher interface {
	PublishStockEvent(event StockEvent) error
}

// Nop — заглушка Publisher для конфигураций без брокера событий.
type Nop struct{}

// PublishStockEvent ничего не делает.
func (Nop) PublishStockEvent(StockEvent) error { return nil }
