package exporter

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/hookahplace/stock-app/internal/config"
	"github.com/hookahplace/stock-app/internal/rabbitmq"
	exportservice "github.com/hookahplace/stock-app/internal/services/exporter"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	exportService *exportservice.ExportService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitConnection, cfg.ConnectRetries, cfg.ConnectDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	exportService := exportservice.NewExportService(cfg.SheetURL, cfg.ExportTimeout, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		exportService: exportService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueExport, a.exportService.ExportStockEvent)
	if err != nil {
		a.logger.Error("failed to start stocks.export consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Exporter service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
