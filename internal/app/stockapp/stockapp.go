package stockapp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/hookahplace/stock-app/internal/cache"
	"github.com/hookahplace/stock-app/internal/config"
	"github.com/hookahplace/stock-app/internal/events"
	"github.com/hookahplace/stock-app/internal/migrations"
	"github.com/hookahplace/stock-app/internal/rabbitmq"
	bootstrapservice "github.com/hookahplace/stock-app/internal/services/bootstrap"
	ledgerservice "github.com/hookahplace/stock-app/internal/services/ledger"
	userservice "github.com/hookahplace/stock-app/internal/services/user"
	"github.com/hookahplace/stock-app/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Пустая строка подключения отключает публикацию событий леджера.
	var publisher events.Publisher = events.Nop{}
	var conn *amqp.Connection
	var ch *amqp.Channel
	if cfg.RabbitConnection != "" {
		conn, err = rabbitmq.Connect(cfg.RabbitConnection, cfg.ConnectRetries, cfg.ConnectDelay)
		if err != nil {
			return nil, err
		}
		ch, err = rabbitmq.SetupChannel(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		publisher = rabbitmq.NewEventPublisher(ch)
	}

	userService := userservice.NewUserService(db, cacheRedis, logger)
	ledgerService := ledgerservice.NewLedgerService(db, cacheRedis, publisher,
		cfg.AdminIDs, cfg.MaxStocksPerUser, logger)
	bootstrapService := bootstrapservice.NewBootstrapService(db, cacheRedis, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, db, userService, ledgerService, bootstrapService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.ch != nil {
			_ = a.ch.Close()
		}
		if a.conn != nil {
			_ = a.conn.Close()
		}
		a.db.DB.Close()
		return err
	}
}
