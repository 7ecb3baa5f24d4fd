// Package consume реализует HTTP-обработчик списания слота.
//
// Handler принимает JSON-запрос с идентификатором слота, валидирует его,
// сверяет Telegram ID инициатора из контекста (заголовок X-Telegram-ID)
// с владельцем из URL, вызывает бизнес-логику списания и возвращает
// обновленный слот. Списание необратимо: повторное списание того же слота
// завершается ошибкой.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package consume

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
	"github.com/hookahplace/stock-app/internal/http/middlewarectx"
	"github.com/hookahplace/stock-app/internal/http/response"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// Handler управляет HTTP-запросами на списание слотов.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики леджера
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики списания слота.
type Service interface {
	ConsumeStock(ctx context.Context, tgID, stockID int64) (*models.Stock, error)
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
// @Summary Списать слот
// @Description Переводит активный слот пользователя в состояние consumed. Повторное списание возвращает ошибку.
// @Tags Stocks
// @Accept json
// @Produce json
// @Param tg_id path int true "Telegram ID пользователя"
// @Param X-Telegram-ID header int true "Telegram ID инициатора"
// @Param request body models.ConsumeStockRequest true "Идентификатор слота"
// @Success 200 {object} map[string]any "Списанный слот"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или Telegram ID"
// @Failure 403 {object} response.ErrorResponse "Слот принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Пользователь или слот не найдены"
// @Failure 409 {object} response.ErrorResponse "Слот уже списан"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при списании"
// @Router /stocks/{tg_id}/consume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stocks.consume"
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

	requesterID, ok := middlewarectx.TelegramIDFromContext(r.Context())
	if !ok {
		log.Error("telegram id not found in context")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing telegram id header"))
		return
	}
	if requesterID != tgID {
		log.Error("consume attempt for another user", sl.TgID(requesterID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("can consume only own stocks"))
		return
	}

	var req models.ConsumeStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", sl.TgID(tgID), slog.Int64("stock_id", req.StockID))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	stock, err := h.service.ConsumeStock(r.Context(), tgID, req.StockID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIdentity):
			log.Error("invalid telegram id", sl.TgID(tgID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid telegram id"))
		case errors.Is(err, domain.ErrForbidden):
			log.Error("stock belongs to another user", sl.TgID(tgID), slog.Int64("stock_id", req.StockID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("stock belongs to another user"))
		case errors.Is(err, domain.ErrUserNotFound):
			log.Error("user not found", sl.TgID(tgID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, domain.ErrStockNotFound):
			log.Error("stock not found", slog.Int64("stock_id", req.StockID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("stock not found"))
		case errors.Is(err, domain.ErrInvalidStockState):
			log.Error("stock already consumed", slog.Int64("stock_id", req.StockID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("stock already consumed"))
		default:
			log.Error("failed to consume stock", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not consume stock"))
		}
		return
	}

	log.Info("success to consume stock", sl.TgID(tgID), slog.Int64("stock_id", stock.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stock": stock,
	}))
}
