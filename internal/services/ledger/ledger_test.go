package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/events"
	"github.com/hookahplace/stock-app/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	args := m.Called(ctx, tgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) ListStocks(ctx context.Context, userID int64) ([]*models.Stock, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stock), args.Error(1)
}
func (m *RepoMock) AddStocks(ctx context.Context, userID int64, kind string, count int,
	grantedBy *int64, grantKey *string, maxActive int) ([]*models.Stock, error) {
	args := m.Called(ctx, userID, kind, count, grantedBy, grantKey, maxActive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Stock), args.Error(1)
}
func (m *RepoMock) GetStockByGrantKey(ctx context.Context, grantKey string) (*models.Stock, error) {
	args := m.Called(ctx, grantKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stock), args.Error(1)
}
func (m *RepoMock) ConsumeStock(ctx context.Context, userID, stockID int64) (*models.Stock, error) {
	args := m.Called(ctx, userID, stockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Stock), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishStockEvent(event events.StockEvent) error {
	return m.Called(event).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const maxStocks = 5

var adminIDs = []int64{999}

func newTestService(repo *RepoMock, c *CacheMock, p *PublisherMock) *LedgerService {
	return NewLedgerService(repo, c, p, adminIDs, maxStocks, newNoopLogger())
}

func TestLedgerService_GrantFreeStock(t *testing.T) {
	grantee := &models.User{ID: 1, TgID: 100, Username: "ivan"}
	admin := int64(999)
	granted := &models.Stock{ID: 7, UserID: 1, Kind: models.StockKindFree,
		Status: models.StockStatusActive, GrantedBy: &admin}

	tests := []struct {
		name       string
		granteeID  int64
		grantorID  int64
		grantKey   string
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantErr    error
	}{
		{
			name:      "успешное начисление админом",
			granteeID: 100,
			grantorID: 999,
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(grantee, nil)
				r.On("AddStocks", mock.Anything, int64(1), models.StockKindFree, 1,
					mock.Anything, (*string)(nil), maxStocks).Return([]*models.Stock{granted}, nil)
				c.On("Invalidate", "profile:100").Return(nil)
				p.On("PublishStockEvent", mock.MatchedBy(func(e events.StockEvent) bool {
					return e.Action == events.ActionGranted && e.TgID == 100
				})).Return(nil)
			},
		},
		{
			name:       "не-админ получает Forbidden",
			granteeID:  100,
			grantorID:  555,
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    domain.ErrForbidden,
		},
		{
			name:      "несуществующий получатель",
			granteeID: 42,
			grantorID: 999,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(42)).Return(nil, domain.ErrUserNotFound)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:      "лимит исчерпан — начисление отклонено",
			granteeID: 100,
			grantorID: 999,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(grantee, nil)
				r.On("AddStocks", mock.Anything, int64(1), models.StockKindFree, 1,
					mock.Anything, (*string)(nil), maxStocks).Return(nil, domain.ErrStockLimitExceeded)
			},
			wantErr: domain.ErrStockLimitExceeded,
		},
		{
			name:      "повтор с тем же ключом возвращает созданный слот",
			granteeID: 100,
			grantorID: 999,
			grantKey:  "9f2c3a44-7a1b-4a53-9a64-6f1f4a6f1b11",
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(grantee, nil)
				r.On("GetStockByGrantKey", mock.Anything, "9f2c3a44-7a1b-4a53-9a64-6f1f4a6f1b11").
					Return(granted, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			pub := new(PublisherMock)
			tt.setupMocks(repo, cacheMock, pub)
			svc := newTestService(repo, cacheMock, pub)

			got, err := svc.GrantFreeStock(context.Background(), tt.granteeID, tt.grantorID, tt.grantKey)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, granted, got)
			}
			repo.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestLedgerService_GrantFreeStock_KeyBoundToGrantee(t *testing.T) {
	key := "9f2c3a44-7a1b-4a53-9a64-6f1f4a6f1b11"
	userA := &models.User{ID: 1, TgID: 100}
	userB := &models.User{ID: 2, TgID: 200}
	// слот уже начислен пользователю A с этим ключом
	stockOfA := &models.Stock{ID: 7, UserID: 1, Kind: models.StockKindFree,
		Status: models.StockStatusActive, GrantKey: &key}

	t.Run("повтор ключа для другого получателя отклоняется", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByTgID", mock.Anything, int64(200)).Return(userB, nil)
		repo.On("GetStockByGrantKey", mock.Anything, key).Return(stockOfA, nil)

		svc := newTestService(repo, new(CacheMock), new(PublisherMock))

		got, err := svc.GrantFreeStock(context.Background(), 200, 999, key)
		assert.ErrorIs(t, err, domain.ErrDuplicateGrantKey)
		assert.Nil(t, got)
		repo.AssertExpectations(t)
	})

	t.Run("повтор ключа для того же получателя возвращает его слот", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByTgID", mock.Anything, int64(100)).Return(userA, nil)
		repo.On("GetStockByGrantKey", mock.Anything, key).Return(stockOfA, nil)

		svc := newTestService(repo, new(CacheMock), new(PublisherMock))

		got, err := svc.GrantFreeStock(context.Background(), 100, 999, key)
		require.NoError(t, err)
		assert.Equal(t, stockOfA, got)
		repo.AssertExpectations(t)
	})

	t.Run("конкурирующая вставка чужого ключа отклоняется", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByTgID", mock.Anything, int64(200)).Return(userB, nil)
		// между проверкой и вставкой ключ занял слот пользователя A
		repo.On("GetStockByGrantKey", mock.Anything, key).Return(nil, domain.ErrStockNotFound).Once()
		repo.On("AddStocks", mock.Anything, int64(2), models.StockKindFree, 1,
			mock.Anything, &key, maxStocks).Return(nil, domain.ErrDuplicateGrantKey)
		repo.On("GetStockByGrantKey", mock.Anything, key).Return(stockOfA, nil).Once()

		svc := newTestService(repo, new(CacheMock), new(PublisherMock))

		got, err := svc.GrantFreeStock(context.Background(), 200, 999, key)
		assert.ErrorIs(t, err, domain.ErrDuplicateGrantKey)
		assert.Nil(t, got)
		repo.AssertExpectations(t)
	})
}

func TestLedgerService_GrantFreeStock_DuplicateKeyRace(t *testing.T) {
	grantee := &models.User{ID: 1, TgID: 100}
	admin := int64(999)
	existing := &models.Stock{ID: 7, UserID: 1, Kind: models.StockKindFree, GrantedBy: &admin}
	key := "9f2c3a44-7a1b-4a53-9a64-6f1f4a6f1b11"

	repo := new(RepoMock)
	repo.On("GetUserByTgID", mock.Anything, int64(100)).Return(grantee, nil)
	// между проверкой ключа и вставкой ключ заняла конкурирующая заявка
	repo.On("GetStockByGrantKey", mock.Anything, key).Return(nil, domain.ErrStockNotFound).Once()
	repo.On("AddStocks", mock.Anything, int64(1), models.StockKindFree, 1,
		mock.Anything, &key, maxStocks).Return(nil, domain.ErrDuplicateGrantKey)
	repo.On("GetStockByGrantKey", mock.Anything, key).Return(existing, nil).Once()

	svc := newTestService(repo, new(CacheMock), new(PublisherMock))

	got, err := svc.GrantFreeStock(context.Background(), 100, 999, key)
	require.NoError(t, err)
	assert.Equal(t, existing, got)
	repo.AssertExpectations(t)
}

func TestLedgerService_RecordPaidStocks(t *testing.T) {
	user := &models.User{ID: 1, TgID: 100, Username: "ivan"}
	stocks := []*models.Stock{
		{ID: 1, UserID: 1, Kind: models.StockKindPaid, Status: models.StockStatusActive},
		{ID: 2, UserID: 1, Kind: models.StockKindPaid, Status: models.StockStatusActive},
	}

	tests := []struct {
		name       string
		tgID       int64
		count      int
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantLen    int
		wantErr    error
	}{
		{
			name:  "успешное добавление оплаченных слотов",
			tgID:  100,
			count: 2,
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
				r.On("AddStocks", mock.Anything, int64(1), models.StockKindPaid, 2,
					(*int64)(nil), (*string)(nil), maxStocks).Return(stocks, nil)
				r.On("ListStocks", mock.Anything, int64(1)).Return(stocks, nil)
				c.On("Invalidate", "profile:100").Return(nil)
				p.On("PublishStockEvent", mock.MatchedBy(func(e events.StockEvent) bool {
					return e.Action == events.ActionRecorded && e.Count == 2
				})).Return(nil)
			},
			wantLen: 2,
		},
		{
			name:  "превышение лимита — ничего не добавлено",
			tgID:  100,
			count: 6,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
				r.On("AddStocks", mock.Anything, int64(1), models.StockKindPaid, 6,
					(*int64)(nil), (*string)(nil), maxStocks).Return(nil, domain.ErrStockLimitExceeded)
			},
			wantErr: domain.ErrStockLimitExceeded,
		},
		{
			name:       "некорректная идентичность",
			tgID:       -1,
			count:      1,
			setupMocks: func(_ *RepoMock, _ *CacheMock, _ *PublisherMock) {},
			wantErr:    domain.ErrInvalidIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			pub := new(PublisherMock)
			tt.setupMocks(repo, cacheMock, pub)
			svc := newTestService(repo, cacheMock, pub)

			got, err := svc.RecordPaidStocks(context.Background(), tt.tgID, tt.count)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.wantLen)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_ConsumeStock(t *testing.T) {
	user := &models.User{ID: 1, TgID: 100}
	consumed := &models.Stock{ID: 3, UserID: 1, Kind: models.StockKindPaid,
		Status: models.StockStatusConsumed}

	tests := []struct {
		name       string
		tgID       int64
		stockID    int64
		setupMocks func(r *RepoMock, c *CacheMock, p *PublisherMock)
		wantErr    error
	}{
		{
			name:    "успешное списание",
			tgID:    100,
			stockID: 3,
			setupMocks: func(r *RepoMock, c *CacheMock, p *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
				r.On("ConsumeStock", mock.Anything, int64(1), int64(3)).Return(consumed, nil)
				c.On("Invalidate", "profile:100").Return(nil)
				p.On("PublishStockEvent", mock.MatchedBy(func(e events.StockEvent) bool {
					return e.Action == events.ActionConsumed && e.StockID == 3
				})).Return(nil)
			},
		},
		{
			name:    "повторное списание запрещено",
			tgID:    100,
			stockID: 3,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
				r.On("ConsumeStock", mock.Anything, int64(1), int64(3)).
					Return(nil, domain.ErrInvalidStockState)
			},
			wantErr: domain.ErrInvalidStockState,
		},
		{
			name:    "чужой слот",
			tgID:    100,
			stockID: 777,
			setupMocks: func(r *RepoMock, _ *CacheMock, _ *PublisherMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
				r.On("ConsumeStock", mock.Anything, int64(1), int64(777)).
					Return(nil, domain.ErrForbidden)
			},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			pub := new(PublisherMock)
			tt.setupMocks(repo, cacheMock, pub)
			svc := newTestService(repo, cacheMock, pub)

			got, err := svc.ConsumeStock(context.Background(), tt.tgID, tt.stockID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, consumed, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerService_ListStocks_EmptyForNewUser(t *testing.T) {
	user := &models.User{ID: 1, TgID: 100}
	repo := new(RepoMock)
	repo.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
	repo.On("ListStocks", mock.Anything, int64(1)).Return([]*models.Stock(nil), nil)

	svc := newTestService(repo, new(CacheMock), new(PublisherMock))

	got, err := svc.ListStocks(context.Background(), 100)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLedgerService_IsAdmin(t *testing.T) {
	svc := newTestService(new(RepoMock), new(CacheMock), new(PublisherMock))

	assert.True(t, svc.IsAdmin(999))
	assert.False(t, svc.IsAdmin(123))
}

func TestLedgerService_PublishFailureDoesNotFailOperation(t *testing.T) {
	user := &models.User{ID: 1, TgID: 100}
	consumed := &models.Stock{ID: 3, UserID: 1, Status: models.StockStatusConsumed}

	repo := new(RepoMock)
	repo.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
	repo.On("ConsumeStock", mock.Anything, int64(1), int64(3)).Return(consumed, nil)
	cacheMock := new(CacheMock)
	cacheMock.On("Invalidate", "profile:100").Return(nil)
	pub := new(PublisherMock)
	pub.On("PublishStockEvent", mock.Anything).Return(errors.New("broker down"))

	svc := newTestService(repo, cacheMock, pub)

	got, err := svc.ConsumeStock(context.Background(), 100, 3)
	require.NoError(t, err)
	assert.Equal(t, consumed, got)
}
