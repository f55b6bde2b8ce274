package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/tkani-shop/internal/domain/models"
)

// OrderHistoryStorage описывает методы журнала статусов заказа.
// Журнал append-only: записи только добавляются
type OrderHistoryStorage interface {
	// AddHistoryTx добавляет запись о смене статуса в рамках транзакции
	AddHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status, changedBy, comment string) error
	// GetHistoryByOrderID возвращает журнал заказа в хронологическом порядке
	GetHistoryByOrderID(ctx context.Context, orderID int64) ([]*models.OrderHistory, error)
}

type orderHistoryRepository struct {
	db *sql.DB
}

func NewOrderHistoryRepository(db *sql.DB) OrderHistoryStorage {
	return &orderHistoryRepository{db: db}
}

func (r *orderHistoryRepository) AddHistoryTx(ctx context.Context, tx *sql.Tx, orderID int64, status, changedBy, comment string) error {
	query := `INSERT INTO order_history (order_id, status, changed_by, comment, created_at)
	          VALUES ($1, $2, $3, $4, NOW())`
	_, err := tx.ExecContext(ctx, query, orderID, status, changedBy, comment)
	if err != nil {
		return fmt.Errorf("failed to add order history: %w", err)
	}
	return nil
}

func (r *orderHistoryRepository) GetHistoryByOrderID(ctx context.Context, orderID int64) ([]*models.OrderHistory, error) {
	query := `
		SELECT id, order_id, status, changed_by, comment, created_at
		FROM order_history
		WHERE order_id = $1
		ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	var history []*models.OrderHistory
	for rows.Next() {
		h := &models.OrderHistory{}
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.ChangedBy, &h.Comment, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}
