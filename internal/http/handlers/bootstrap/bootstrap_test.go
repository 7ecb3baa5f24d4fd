package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/models"
)

// MockService реализует интерфейс bootstrap.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Bootstrap(ctx context.Context, tgID int64) (*models.Profile, error) {
	args := m.Called(ctx, tgID)
	if res := args.Get(0); res != nil {
		return res.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestBootstrapHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		url            string
		tgParam        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "профиль зарегистрированного пользователя",
			url:     "/bootstrap/100",
			tgParam: "100",
			setupMock: func(m *MockService) {
				profile := &models.Profile{
					Registered: true,
					User:       &models.User{ID: 1, TgID: 100, FirstName: "Иван"},
					Stocks: []*models.Stock{
						{ID: 1, UserID: 1, Kind: models.StockKindPaid, Status: models.StockStatusActive},
					},
					CompletedStocks: 2,
				}
				m.On("Bootstrap", mock.Anything, int64(100)).Return(profile, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"registered":true`,
		},
		{
			name:    "незарегистрированный пользователь",
			url:     "/bootstrap/999",
			tgParam: "999",
			setupMock: func(m *MockService) {
				m.On("Bootstrap", mock.Anything, int64(999)).
					Return(&models.Profile{Registered: false}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"registered":false`,
		},
		{
			name:           "некорректный tg_id в URL",
			url:            "/bootstrap/abc",
			tgParam:        "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"failed to decode tg_id from url"`,
		},
		{
			name:    "отрицательный tg_id",
			url:     "/bootstrap/-5",
			tgParam: "-5",
			setupMock: func(m *MockService) {
				m.On("Bootstrap", mock.Anything, int64(-5)).
					Return(nil, domain.ErrInvalidIdentity)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid telegram id"`,
		},
		{
			name:    "ошибка сервиса загрузки",
			url:     "/bootstrap/100",
			tgParam: "100",
			setupMock: func(m *MockService) {
				m.On("Bootstrap", mock.Anything, int64(100)).
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not bootstrap profile"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("tg_id", tt.tgParam)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
