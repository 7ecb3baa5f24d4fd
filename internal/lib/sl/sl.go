// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель — единообразное формирование структурированных полей лога:
// ошибок и Telegram ID пользователя.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to grant stock", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// TgID возвращает slog.Attr с ключом "tg_id" и Telegram ID пользователя.
// Используется во всех операциях, привязанных к конкретному пользователю.
func TgID(id int64) slog.Attr {
	return slog.Int64("tg_id", id)
}
