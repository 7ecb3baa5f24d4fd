// Package services содержит бизнес-логику идентификации и регистрации
// пользователей Mini-App. Регистрация идемпотентна: повторный вызов
// с тем же Telegram ID обновляет профиль и никогда не создаёт дубликата
// и не трогает накопленные слоты.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/hookahplace/stock-app/internal/cache"
	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	// UpsertUser атомарно создаёт либо обновляет пользователя по tg_id.
	UpsertUser(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// GetUserByTgID возвращает пользователя по Telegram ID.
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// UserService реализует разрешение идентичности и регистрацию.
type UserService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(repo UserRepository, cache Cache, log *slog.Logger) *UserService {
	return &UserService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Resolve возвращает пользователя по его Telegram ID без побочных
// эффектов. Неположительный ID — domain.ErrInvalidIdentity,
// незарегистрированный — domain.ErrUserNotFound.
func (s *UserService) Resolve(ctx context.Context, tgID int64) (*models.User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	return s.repo.GetUserByTgID(ctx, tgID)
}

// Register создаёт пользователя либо обновляет профиль существующего.
// Создание пользователя и инициализация его леджера видимы как единое
// целое: слоты хранятся отдельной таблицей с внешним ключом, поэтому
// новых записей для нового пользователя не требуется. Кеш профиля
// инвалидируется.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.TgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}

	user, err := s.repo.UpsertUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", sl.TgID(user.TgID), slog.Int64("id", user.ID))

	cacheKey := cache.ProfileKey(user.TgID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.String("key", cacheKey), sl.Err(err))
	}

	return user, nil
}
