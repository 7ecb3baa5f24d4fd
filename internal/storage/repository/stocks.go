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

const scanStockColumns = `id, user_id, kind, status, granted_by, grant_key, created_at, updated_at`

func scanStock(row interface{ Scan(...any) error }) (*models.Stock, error) {
	st := &models.Stock{}
	var grantedBy sql.NullInt64
	var grantKey sql.NullString
	if err := row.Scan(&st.ID, &st.UserID, &st.Kind, &st.Status,
		&grantedBy, &grantKey, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	if grantedBy.Valid {
		st.GrantedBy = &grantedBy.Int64
	}
	if grantKey.Valid {
		st.GrantKey = &grantKey.String
	}
	return st, nil
}

// ListStocks возвращает все слоты пользователя в порядке создания.
func (s *Storage) ListStocks(ctx context.Context, userID int64) ([]*models.Stock, error) {
	const op = "storage.ListStocks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + scanStockColumns + `
			  FROM stocks
			  WHERE user_id = ?
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Stock
	for rows.Next() {
		st, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, st)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountConsumedStocks возвращает количество использованных слотов пользователя.
func (s *Storage) CountConsumedStocks(ctx context.Context, userID int64) (int, error) {
	const op = "storage.CountConsumedStocks"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*) FROM stocks WHERE user_id = ? AND status = ?`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userID, models.StockStatusConsumed).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// AddStocks добавляет пользователю count слотов вида kind одной транзакцией.
// Проверка лимита активных слотов и вставка выполняются в одной транзакции:
// запрос, превышающий maxActive, отклоняется целиком с
// domain.ErrStockLimitExceeded, леджер остаётся без изменений.
// Для админских начислений передаются grantedBy и, опционально, grantKey —
// повторное использование ключа возвращает domain.ErrDuplicateGrantKey.
func (s *Storage) AddStocks(ctx context.Context, userID int64, kind string, count int,
	grantedBy *int64, grantKey *string, maxActive int) ([]*models.Stock, error) {
	const op = "storage.AddStocks"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var active int
	countQuery := `SELECT COUNT(*) FROM stocks WHERE user_id = ? AND status = ?`
	if err = tx.QueryRowContext(ctx, countQuery, userID, models.StockStatusActive).Scan(&active); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active+count > maxActive {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrStockLimitExceeded)
	}

	now := time.Now().UTC()
	insertQuery := `INSERT INTO stocks (user_id, kind, status, granted_by, grant_key, created_at, updated_at)
				    VALUES (?, ?, ?, ?, ?, ?, ?)
				    RETURNING ` + scanStockColumns
	created := make([]*models.Stock, 0, count)
	for i := 0; i < count; i++ {
		row := tx.QueryRowContext(ctx, insertQuery,
			userID, kind, models.StockStatusActive, grantedBy, grantKey, now, now)
		st, err := scanStock(row)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%s: %w", op, domain.ErrDuplicateGrantKey)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		created = append(created, st)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetStockByGrantKey возвращает слот, начисленный с данным ключом
// идемпотентности, либо domain.ErrStockNotFound.
func (s *Storage) GetStockByGrantKey(ctx context.Context, grantKey string) (*models.Stock, error) {
	const op = "storage.GetStockByGrantKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + scanStockColumns + ` FROM stocks WHERE grant_key = ?`
	st, err := scanStock(s.DB.QueryRowContext(ctx, query, grantKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrStockNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// ConsumeStock переводит слот в статус consumed. Переход необратим.
// Слот должен существовать (domain.ErrStockNotFound), принадлежать
// пользователю userID (domain.ErrForbidden) и быть активным
// (domain.ErrInvalidStockState). Проверка и обновление выполняются
// в одной транзакции.
func (s *Storage) ConsumeStock(ctx context.Context, userID, stockID int64) (*models.Stock, error) {
	const op = "storage.ConsumeStock"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	selectQuery := `SELECT ` + scanStockColumns + ` FROM stocks WHERE id = ?`
	st, err := scanStock(tx.QueryRowContext(ctx, selectQuery, stockID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrStockNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if st.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrForbidden)
	}
	if st.Status != models.StockStatusActive {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrInvalidStockState)
	}

	now := time.Now().UTC()
	updateQuery := `UPDATE stocks SET status = ?, updated_at = ? WHERE id = ?`
	if _, err = tx.ExecContext(ctx, updateQuery, models.StockStatusConsumed, now, stockID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	st.Status = models.StockStatusConsumed
	st.UpdatedAt = now
	return st, nil
}
