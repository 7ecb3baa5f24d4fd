// Package record реализует HTTP-обработчик учета оплаченных слотов.
//
// Handler принимает JSON-запрос с количеством оплаченных слотов, валидирует его,
// вызывает бизнес-логику пополнения леджера и возвращает обновленный список
// слотов пользователя. Пополнение атомарно: при превышении лимита не
// добавляется ни один слот.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/http/response"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// Handler управляет HTTP-запросами на учет оплаченных слотов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики леджера
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики учета оплаченных слотов.
type Service interface {
	RecordPaidStocks(ctx context.Context, tgID int64, count int) ([]*models.Stock, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Учесть оплаченные слоты
// @Description Добавляет пользователю указанное количество оплаченных слотов. Либо добавляются все, либо ни одного при превышении лимита.
// @Tags Stocks
// @Accept json
// @Produce json
// @Param tg_id path int true "Telegram ID пользователя"
// @Param request body models.RecordStocksRequest true "Количество оплаченных слотов"
// @Success 200 {object} map[string]any "Обновленный список слотов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или Telegram ID"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Превышен лимит активных слотов"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при учете слотов"
// @Router /stocks/{tg_id} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stocks.record"
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

	var req models.RecordStocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", sl.TgID(tgID), slog.Int("count", req.Count))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	stocks, err := h.service.RecordPaidStocks(r.Context(), tgID, req.Count)
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
		case errors.Is(err, domain.ErrStockLimitExceeded):
			log.Error("stock limit exceeded", sl.TgID(tgID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("stock limit exceeded"))
		default:
			log.Error("failed to record stocks", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not record stocks"))
		}
		return
	}

	log.Info("success to record stocks", sl.TgID(tgID), slog.Int("count", req.Count))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stocks": stocks,
	}))
}
