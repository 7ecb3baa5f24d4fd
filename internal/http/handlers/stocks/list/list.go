// Package list реализует HTTP-обработчик получения слотов пользователя.
//
// Handler извлекает Telegram ID из URL-параметров, вызывает бизнес-логику
// чтения леджера и возвращает слоты пользователя в порядке создания.
//
// В случае ошибок формирует соответствующие HTTP-ответы с описанием проблемы.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/http/response"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// Handler обрабатывает запросы на получение слотов пользователя по Telegram ID.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики леджера
}

// Service описывает интерфейс бизнес-логики чтения леджера.
type Service interface {
	ListStocks(ctx context.Context, tgID int64) ([]*models.Stock, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить слоты пользователя
// @Description Возвращает все слоты пользователя в порядке создания. Для пользователя без слотов возвращает пустой список.
// @Tags Stocks
// @Produce json
// @Param tg_id path int true "Telegram ID пользователя"
// @Success 200 {object} map[string]any "Список слотов"
// @Failure 400 {object} response.ErrorResponse "Некорректный Telegram ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении слотов"
// @Router /stocks/{tg_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stocks.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tgID, err := strconv.ParseInt(chi.URLParam(r, "tg_id"), 10, 64)
	if err != nil {
		log.Error("failed to decode tg_id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode tg_id from url"))
		return
	}

	stocks, err := h.service.ListStocks(r.Context(), tgID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIdentity):
			log.Error("invalid telegram id", sl.TgID(tgID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid telegram id"))
		case errors.Is(err, domain.ErrUserNotFound):
			log.Error("user not found", sl.TgID(tgID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to list stocks", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not list stocks"))
		}
		return
	}

	log.Info("success to list stocks", sl.TgID(tgID), slog.Int("count", len(stocks)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stocks": stocks,
	}))
}
