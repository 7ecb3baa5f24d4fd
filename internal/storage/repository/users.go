package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hookahplace/stock-app/internal/domain"
	"github.com/hookahplace/stock-app/internal/models"
)

// UpsertUser атомарно создаёт пользователя либо обновляет профиль
// существующего. Уникальный индекс по tg_id гарантирует, что при
// конкурентной первой регистрации выигрывает ровно одно создание.
// Возвращает итоговую запись пользователя.
func (s *Storage) UpsertUser(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	now := time.Now().UTC()
	query := `INSERT INTO users (tg_id, username, first_name, last_name, phone, is_active, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, 1, ?, ?)
			  ON CONFLICT(tg_id) DO UPDATE SET
			      username = excluded.username,
			      first_name = excluded.first_name,
			      last_name = excluded.last_name,
			      phone = excluded.phone,
			      updated_at = excluded.updated_at
			  RETURNING id, tg_id, username, first_name, last_name, phone, is_active, created_at, updated_at`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query,
		req.TgID, req.Username, req.FirstName, req.LastName, req.Phone, now, now)
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.LastName,
		&u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByTgID возвращает пользователя по его Telegram ID.
// Для незарегистрированного ID возвращает domain.ErrUserNotFound.
func (s *Storage) GetUserByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	const op = "storage.GetUserByTgID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, tg_id, username, first_name, last_name, phone, is_active, created_at, updated_at
			  FROM users
			  WHERE tg_id = ?`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, tgID)
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.LastName,
		&u.Phone, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
