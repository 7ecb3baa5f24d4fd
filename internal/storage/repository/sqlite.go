// Package repository реализует хранилище данных на основе встроенной
// базы SQLite для управления пользователями и их слотами. Предоставляет
// атомарную регистрацию (upsert по tg_id), выборку слотов и изменения
// леджера с проверкой лимита внутри одной транзакции.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Импорт регистрирует драйвер sqlite для использования с database/sql.
	sqlite3 "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Storage инкапсулирует соединение с базой данных SQLite
// и реализует методы работы с пользователями и слотами.
type Storage struct {
	DB *sql.DB
}

// New открывает файл базы данных SQLite и настраивает соединение.
// WAL и busy_timeout обязательны: запись в SQLite однописательная,
// конкурирующие транзакции должны ждать, а не падать с SQLITE_BUSY.
// Транзакции открываются как BEGIN IMMEDIATE (_txlock): deferred-транзакция
// с чтением перед записью при конкуренте падает с BUSY_SNAPSHOT вместо
// ожидания busy_timeout.
func New(storagePath string) (*Storage, error) {
	const op = "storage.New"

	dsn := "file:" + storagePath +
		"?_txlock=immediate" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master
        WHERE type = 'table' AND name = 'users'`).Scan(&exists)
	if err != nil || exists == 0 {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}

// isUniqueViolation сообщает, вызвана ли ошибка нарушением UNIQUE-ограничения.
func isUniqueViolation(err error) bool {
	var serr *sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
