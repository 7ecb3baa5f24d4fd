// Package services содержит выгрузку событий леджера во внешнюю
// Google Таблицу через Apps Script. Сервис потребляет события из
// очереди и отправляет их POST-запросом; ошибка отправки возвращает
// сообщение в очередь.
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hookahplace/stock-app/internal/events"
	"github.com/hookahplace/stock-app/internal/lib/sl"
)

// ExportService отправляет события леджера в Google Таблицу.
type ExportService struct {
	sheetURL string
	client   *http.Client
	log      *slog.Logger
}

// NewExportService создает новый экземпляр ExportService.
func NewExportService(sheetURL string, timeout time.Duration, log *slog.Logger) *ExportService {
	return &ExportService{
		sheetURL: sheetURL,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// sheetRow описывает строку, ожидаемую Apps Script.
type sheetRow struct {
	TgID      int64  `json:"tg_id"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Value     int    `json:"value"`
}

// ExportStockEvent декодирует событие леджера и отправляет его в таблицу.
// Используется как обработчик сообщений очереди выгрузки.
func (s *ExportService) ExportStockEvent(body []byte) error {
	const op = "exporter.ExportStockEvent"

	var event events.StockEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal stock event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	row := sheetRow{
		TgID:      event.TgID,
		Username:  event.Username,
		Timestamp: event.Timestamp.Format(time.RFC3339),
		Action:    event.Action,
		Value:     event.Count,
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := s.client.Post(s.sheetURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		s.log.Error("failed to post row to sheet", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		s.log.Error("sheet rejected row", slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	s.log.Info("exported stock event", sl.TgID(event.TgID), slog.String("action", event.Action))
	return nil
}
