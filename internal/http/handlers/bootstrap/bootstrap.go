// Package bootstrap реализует HTTP-обработчик стартовой загрузки мини-приложения.
//
// Handler извлекает Telegram ID из URL-параметров, вызывает бизнес-логику сборки
// профиля и возвращает профиль пользователя вместе со слотами в JSON-формате.
// Для незарегистрированного пользователя возвращается профиль с registered=false,
// запись в хранилище при этом не создается.
//
// В случае ошибок формирует соответствующие HTTP-ответы с описанием проблемы.
package bootstrap

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

// Handler обрабатывает запросы стартовой загрузки профиля по Telegram ID.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики сборки профиля
}

// Service описывает интерфейс бизнес-логики стартовой загрузки.
type Service interface {
	Bootstrap(ctx context.Context, tgID int64) (*models.Profile, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Стартовая загрузка профиля
// @Description Возвращает профиль пользователя и его слоты по Telegram ID. Для неизвестного пользователя возвращает registered=false без создания записи.
// @Tags Bootstrap
// @Produce json
// @Param tg_id path int true "Telegram ID пользователя"
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 400 {object} response.ErrorResponse "Некорректный Telegram ID"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при загрузке профиля"
// @Router /bootstrap/{tg_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bootstrap"

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

	profile, err := h.service.Bootstrap(r.Context(), tgID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidIdentity) {
			log.Error("invalid telegram id", sl.TgID(tgID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid telegram id"))
			return
		}
		log.Error("failed to bootstrap profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not bootstrap profile"))
		return
	}

	log.Info("success to bootstrap profile", sl.TgID(tgID), slog.Bool("registered", profile.Registered))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"profile": profile,
	}))
}
