// Package services содержит бизнес-логику леджера слотов: выдачу
// бесплатных слотов администраторами, учёт оплаченных слотов и списание.
// Список администраторов неизменяем после создания сервиса. Проверка
// лимита и изменение леджера атомарны на уровне хранилища; сервис
// никогда не выполняет частичных изменений.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hookahplace/stock-app/internal/cache"
	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/events"
	"github.com/hookahplace/stock-app/internal/lib/sl"
	"github.com/hookahplace/stock-app/internal/models"
)

// StockRepository определяет методы для работы с леджером в хранилище.
type StockRepository interface {
	// GetUserByTgID возвращает пользователя по Telegram ID.
	GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error)
	// ListStocks возвращает слоты пользователя в порядке создания.
	ListStocks(ctx context.Context, userID int64) ([]*models.Stock, error)
	// AddStocks атомарно добавляет слоты с проверкой лимита активных.
	AddStocks(ctx context.Context, userID int64, kind string, count int,
		grantedBy *int64, grantKey *string, maxActive int) ([]*models.Stock, error)
	// GetStockByGrantKey возвращает слот по ключу идемпотентности.
	GetStockByGrantKey(ctx context.Context, grantKey string) (*models.Stock, error)
	// ConsumeStock переводит слот в статус consumed.
	ConsumeStock(ctx context.Context, userID, stockID int64) (*models.Stock, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// LedgerService реализует операции над слотами пользователей.
type LedgerService struct {
	repo      StockRepository
	cache     Cache
	publisher events.Publisher
	admins    map[int64]struct{}
	maxStocks int
	log       *slog.Logger
}

// NewLedgerService создает новый экземпляр LedgerService.
// adminIDs копируется во внутреннее множество и после этого не меняется.
func NewLedgerService(repo StockRepository, c Cache, publisher events.Publisher,
	adminIDs []int64, maxStocks int, log *slog.Logger) *LedgerService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &LedgerService{
		repo:      repo,
		cache:     c,
		publisher: publisher,
		admins:    admins,
		maxStocks: maxStocks,
		log:       log,
	}
}

// IsAdmin сообщает, входит ли Telegram ID в множество администраторов.
func (s *LedgerService) IsAdmin(tgID int64) bool {
	_, ok := s.admins[tgID]
	return ok
}

// ListStocks возвращает слоты пользователя в порядке создания.
// Для пользователя без слотов возвращает пустой список.
func (s *LedgerService) ListStocks(ctx context.Context, tgID int64) ([]*models.Stock, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	user, err := s.repo.GetUserByTgID(ctx, tgID)
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
	return stocks, nil
}

// GrantFreeStock начисляет пользователю бесплатный слот от имени
// администратора grantorID. Не-админ получает domain.ErrForbidden,
// начисление сверх лимита — domain.ErrStockLimitExceeded, леджер при
// отказе не меняется. Непустой grantKey делает начисление идемпотентным:
// повтор с тем же ключом возвращает уже созданный слот. Ключ привязан
// к получателю: повтор ключа для другого пользователя —
// domain.ErrDuplicateGrantKey.
func (s *LedgerService) GrantFreeStock(ctx context.Context, granteeID, grantorID int64, grantKey string) (*models.Stock, error) {
	if granteeID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	if !s.IsAdmin(grantorID) {
		s.log.Warn("grant attempt by non-admin", sl.TgID(grantorID))
		return nil, domain.ErrForbidden
	}

	grantee, err := s.repo.GetUserByTgID(ctx, granteeID)
	if err != nil {
		return nil, err
	}

	var keyPtr *string
	if grantKey != "" {
		if existing, err := s.repo.GetStockByGrantKey(ctx, grantKey); err == nil {
			// повтор — только для того же получателя; тот же ключ
			// для другого пользователя означает конфликт, а не replay
			if existing.UserID != grantee.ID {
				s.log.Warn("grant key reused for another grantee", sl.TgID(granteeID), slog.String("grant_key", grantKey))
				return nil, domain.ErrDuplicateGrantKey
			}
			s.log.Info("grant replayed by idempotency key", sl.TgID(granteeID), slog.String("grant_key", grantKey))
			return existing, nil
		} else if !errors.Is(err, domain.ErrStockNotFound) {
			return nil, err
		}
		keyPtr = &grantKey
	}

	created, err := s.repo.AddStocks(ctx, grantee.ID, models.StockKindFree, 1, &grantorID, keyPtr, s.maxStocks)
	if err != nil {
		// конкурирующий повтор с тем же ключом: начисление уже выполнено
		if grantKey != "" && errors.Is(err, domain.ErrDuplicateGrantKey) {
			existing, getErr := s.repo.GetStockByGrantKey(ctx, grantKey)
			if getErr != nil {
				return nil, getErr
			}
			if existing.UserID != grantee.ID {
				s.log.Warn("grant key reused for another grantee", sl.TgID(granteeID), slog.String("grant_key", grantKey))
				return nil, domain.ErrDuplicateGrantKey
			}
			return existing, nil
		}
		return nil, err
	}
	stock := created[0]
	s.log.Info("granted free stock", sl.TgID(granteeID),
		slog.Int64("stock_id", stock.ID), slog.Int64("granted_by", grantorID))

	s.invalidateProfile(grantee.TgID)
	s.publish(events.StockEvent{
		Action:    events.ActionGranted,
		TgID:      grantee.TgID,
		Username:  grantee.Username,
		StockID:   stock.ID,
		Kind:      stock.Kind,
		GrantedBy: &grantorID,
		Timestamp: time.Now().UTC(),
	})

	return stock, nil
}

// RecordPaidStocks добавляет пользователю count оплаченных слотов по
// внешнему обновлению. Либо добавляются все count слотов, либо ни одного
// (domain.ErrStockLimitExceeded). Возвращает обновлённый список слотов.
func (s *LedgerService) RecordPaidStocks(ctx context.Context, tgID int64, count int) ([]*models.Stock, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	user, err := s.repo.GetUserByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	if _, err = s.repo.AddStocks(ctx, user.ID, models.StockKindPaid, count, nil, nil, s.maxStocks); err != nil {
		return nil, err
	}
	s.log.Info("recorded paid stocks", sl.TgID(tgID), slog.Int("count", count))

	s.invalidateProfile(user.TgID)
	s.publish(events.StockEvent{
		Action:    events.ActionRecorded,
		TgID:      user.TgID,
		Username:  user.Username,
		Kind:      models.StockKindPaid,
		Count:     count,
		Timestamp: time.Now().UTC(),
	})

	return s.ListStocks(ctx, tgID)
}

// ConsumeStock списывает активный слот пользователя. Переход необратим:
// повторное списание — domain.ErrInvalidStockState, чужой слот —
// domain.ErrForbidden.
func (s *LedgerService) ConsumeStock(ctx context.Context, tgID, stockID int64) (*models.Stock, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidIdentity
	}
	user, err := s.repo.GetUserByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	stock, err := s.repo.ConsumeStock(ctx, user.ID, stockID)
	if err != nil {
		return nil, err
	}
	s.log.Info("consumed stock", sl.TgID(tgID), slog.Int64("stock_id", stockID))

	s.invalidateProfile(user.TgID)
	s.publish(events.StockEvent{
		Action:    events.ActionConsumed,
		TgID:      user.TgID,
		Username:  user.Username,
		StockID:   stock.ID,
		Kind:      stock.Kind,
		Timestamp: time.Now().UTC(),
	})

	return stock, nil
}

func (s *LedgerService) invalidateProfile(tgID int64) {
	cacheKey := cache.ProfileKey(tgID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

func (s *LedgerService) publish(event events.StockEvent) {
	if err := s.publisher.PublishStockEvent(event); err != nil {
		s.log.Warn("failed to publish stock event", slog.String("action", event.Action), sl.Err(err))
	}
}
