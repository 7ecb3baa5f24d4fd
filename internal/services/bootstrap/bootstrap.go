// Package services содержит бизнес-логику bootstrap-рукопожатия:
// по Telegram ID клиент получает либо свой профиль с текущими слотами,
// либо признак того, что регистрация не выполнялась. Операция строго
// читающая: повторение её в любом количестве не меняет состояние.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hookahplace/stock-app/internal/cache"
	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// ProfileRepository определяет чтение профиля и слотов из хранилища.
type ProfileRepository interface {
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
	ListStocks(ctx context.Context, userID int64) ([]*models.Stock, error)
	CountConsumedStocks(ctx context.Context, userID int64) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// BootstrapService собирает профиль пользователя для холодного старта
// Mini-App.
type BootstrapService struct {
	repo  ProfileRepository
	cache Cache
	log   *slog.Logger
}

// NewBootstrapService создает новый экземпляр BootstrapService.
func NewBootstrapService(repo ProfileRepository, c Cache, log *slog.Logger) *BootstrapService {
	return &BootstrapService{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// Bootstrap возвращает состояние пользователя по Telegram ID.
// Сервер — единственный источник истины: Registered=true только для
// реально зарегистрированного пользователя. Незарегистрированный ID
// не создаёт никаких записей; регистрация — исключительная
// ответственность RegistrationService.
func (s *BootstrapService) Bootstrap(ctx context.Context, tgID int64) (*models.Profile, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}

	cacheKey := cache.ProfileKey(tgID)
	var cached models.Profile
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read profile cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := s.repo.GetUserByTgID(ctx, tgID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return &models.Profile{Registered: false}, nil
	}
	if err != nil {
		return nil, err
	}

	stocks, err := s.repo.ListStocks(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []*models.Stock{}
	}
	completed, err := s.repo.CountConsumedStocks(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Registered:      true,
		User:            user,
		Stocks:          stocks,
		CompletedStocks: completed,
	}

	if err := s.cache.Set(cacheKey, profile, time.Hour); err != nil {
		s.log.Warn("failed to cache profile", slog.String("key", cacheKey), sl.Err(err))
	}

	return profile, nil
}
