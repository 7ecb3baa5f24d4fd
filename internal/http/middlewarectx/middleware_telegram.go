// Package middlewarectx содержит HTTP middleware для обработки запросов.
//
// TelegramIDMiddleware извлекает Telegram‑идентификатор из заголовка
// X-Telegram-ID, проверяет его корректность и добавляет в контекст запроса
// для дальнейшего использования в обработчиках.
//
// В случае отсутствия или некорректности заголовка возвращает HTTP 400 Bad Request.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/hookahplace/stock-app/internal/http/response"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// TelegramID — ключ для Telegram-идентификатора пользователя в контексте
	TelegramID Key = "telegram_id"
)

// HeaderTelegramID — заголовок, в котором клиент передаёт свой Telegram-идентификатор.
const HeaderTelegramID = "X-Telegram-ID"

// TelegramIDFromContext возвращает Telegram-идентификатор из контекста запроса.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TelegramID).(int64)
	return id, ok
}

// TelegramIDMiddleware возвращает HTTP middleware, который читает Telegram-идентификатор
// из заголовка X-Telegram-ID.
//
// Если заголовок содержит корректный положительный идентификатор, он добавляется
// в контекст запроса, иначе возвращается ошибка с HTTP статусом 400 Bad Request.
func TelegramIDMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.TelegramIDMiddleware"

			log = log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			header := r.Header.Get(HeaderTelegramID)
			if header == "" {
				log.Error("missing telegram id header")
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("missing telegram id header"))
				return
			}

			tgID, err := strconv.ParseInt(header, 10, 64)
			if err != nil || tgID <= 0 {
				log.Error("invalid telegram id header")
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid telegram id header"))
				return
			}

			ctx := context.WithValue(r.Context(), TelegramID, tgID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
