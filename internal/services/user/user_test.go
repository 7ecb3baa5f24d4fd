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

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) UpsertUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	args := m.Called(ctx, tgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
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

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestUserService_Resolve(t *testing.T) {
	user := &models.User{ID: 1, TgID: 100, FirstName: "Иван"}

	tests := []struct {
		name       string
		tgID       int64
		setupMocks func(r *RepoMock)
		wantUser   *models.User
		wantErr    error
	}{
		{
			name: "успешное разрешение идентичности",
			tgID: 100,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByTgID", mock.Anything, int64(100)).Return(user, nil)
			},
			wantUser: user,
		},
		{
			name:       "неположительный tg_id",
			tgID:       0,
			setupMocks: func(_ *RepoMock) {},
			wantErr:    domain.ErrInvalidIdentity,
		},
		{
			name:       "отрицательный tg_id",
			tgID:       -5,
			setupMocks: func(_ *RepoMock) {},
			wantErr:    domain.ErrInvalidIdentity,
		},
		{
			name: "пользователь не найден",
			tgID: 42,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserByTgID", mock.Anything, int64(42)).Return(nil, domain.ErrUserNotFound)
			},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := NewUserService(repo, new(CacheMock), newNoopLogger())

			got, err := svc.Resolve(context.Background(), tt.tgID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantUser, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestUserService_Register(t *testing.T) {
	req := models.RegisterRequest{
		TgID:      100,
		FirstName: "Иван",
		LastName:  "Петров",
		Phone:     "+79991234567",
	}
	user := &models.User{ID: 1, TgID: 100, FirstName: "Иван", LastName: "Петров"}

	tests := []struct {
		name       string
		req        models.RegisterRequest
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "успешная регистрация",
			req:  req,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("UpsertUser", mock.Anything, req).Return(user, nil)
				c.On("Invalidate", "profile:100").Return(nil)
			},
		},
		{
			name:       "неположительный tg_id",
			req:        models.RegisterRequest{TgID: 0, FirstName: "x", LastName: "y", Phone: "+7"},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantErr:    domain.ErrInvalidIdentity,
		},
		{
			name: "ошибка хранилища",
			req:  req,
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("UpsertUser", mock.Anything, req).Return(nil, errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
		{
			name: "ошибка кеша не мешает регистрации",
			req:  req,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("UpsertUser", mock.Anything, req).Return(user, nil)
				c.On("Invalidate", "profile:100").Return(errors.New("redis down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cacheMock := new(CacheMock)
			tt.setupMocks(repo, cacheMock)
			svc := NewUserService(repo, cacheMock, newNoopLogger())

			got, err := svc.Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, user, got)
			}
			repo.AssertExpectations(t)
			cacheMock.AssertExpectations(t)
		})
	}
}
