// Package grant реализует HTTP-обработчик начисления бесплатного слота.
//
// Handler извлекает Telegram ID получателя из URL-параметров, Telegram ID
// инициатора — из контекста запроса (заголовок X-Telegram-ID), проверяет
// необязательный ключ идемпотентности в заголовке Idempotency-Key и вызывает
// бизнес-логику начисления. Начислять бесплатные слоты могут только
// администраторы; повтор запроса с тем же ключом возвращает уже созданный слот.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package grant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/http/middlewarectx"
	"github.com/hookahplace/stock-app/internal/http/response"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// HeaderIdempotencyKey — заголовок с ключом идемпотентности начисления.
const HeaderIdempotencyKey = "Idempotency-Key"

// Handler управляет HTTP-запросами на начисление бесплатных слотов.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики леджера
}

// Service описывает интерфейс бизнес-логики начисления бесплатного слота.
type Service interface {
	GrantFreeStock(ctx context.Context, granteeID, grantorID int64, grantKey string) (*models.Stock, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Начислить бесплатный слот
// @Description Начисляет пользователю бесплатный слот от имени администратора. Повтор с тем же Idempotency-Key возвращает уже созданный слот.
// @Tags Stocks
// @Produce json
// @Param tg_id path int true "Telegram ID получателя"
// @Param X-Telegram-ID header int true "Telegram ID инициатора"
// @Param Idempotency-Key header string false "Ключ идемпотентности (UUID)"
// @Success 200 {object} map[string]any "Начисленный слот"
// @Failure 400 {object} response.ErrorResponse "Некорректный Telegram ID или ключ идемпотентности"
// @Failure 403 {object} response.ErrorResponse "Инициатор не является администратором"
// @Failure 404 {object} response.ErrorResponse "Получатель не найден"
// @Failure 409 {object} response.ErrorResponse "Превышен лимит активных слотов или ключ идемпотентности занят"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при начислении"
// @Router /stocks/{tg_id}/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stocks.grant"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	granteeID, err := strconv.ParseInt(chi.URLParam(r, "tg_id"), 10, 64)
	if err != nil {
		log.Error("failed to decode tg_id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode tg_id from url"))
		return
	}

	grantorID, ok := middlewarectx.TelegramIDFromContext(r.Context())
	if !ok {
		log.Error("telegram id not found in context")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing telegram id header"))
		return
	}

	grantKey := r.Header.Get(HeaderIdempotencyKey)
	if grantKey != "" {
		if _, err := uuid.Parse(grantKey); err != nil {
			log.Error("invalid idempotency key", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid idempotency key"))
			return
		}
	}

	stock, err := h.service.GrantFreeStock(r.Context(), granteeID, grantorID, grantKey)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidIdentity):
			log.Error("invalid telegram id", sl.TgID(granteeID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid telegram id"))
		case errors.Is(err, domain.ErrForbidden):
			log.Error("grant forbidden", sl.TgID(grantorID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("only admins can grant free stocks"))
		case errors.Is(err, domain.ErrUserNotFound):
			log.Error("user not found", sl.TgID(granteeID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		case errors.Is(err, domain.ErrStockLimitExceeded):
			log.Error("stock limit exceeded", sl.TgID(granteeID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("stock limit exceeded"))
		case errors.Is(err, domain.ErrDuplicateGrantKey):
			log.Error("idempotency key already used", sl.TgID(granteeID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("idempotency key already used"))
		default:
			log.Error("failed to grant stock", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not grant stock"))
		}
		return
	}

	log.Info("success to grant stock", sl.TgID(granteeID), slog.Int64("stock_id", stock.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"stock": stock,
	}))
}
