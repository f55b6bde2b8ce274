package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/tkani-shop/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами и их позициями
type OrderStorage interface {
	// CreateOrderTx вставляет новый заказ в рамках транзакции и возвращает его id
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total float64, status string) (int64, error)
	// CreateOrderItemTx вставляет позицию заказа с ценой на момент покупки
	CreateOrderItemTx(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, price float64) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// GetOrderItems возвращает позиции заказа с JOIN на таблицу товаров
	GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	// ListOrdersByUser возвращает страницу заказов пользователя (новые первыми)
	// и общее число заказов под фильтром
	ListOrdersByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.Order, int, error)
	UpdateOrderStatusTx(ctx context.Context, tx *sql.Tx, orderID int64, status string) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, total float64, status string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, total, status, created_at) VALUES ($1, $2, $3, NOW()) RETURNING id",
		userID, total, status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}
	return id, nil
}

func (r *orderRepository) CreateOrderItemTx(ctx context.Context, tx *sql.Tx, orderID, productID int64, quantity int, price float64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)",
		orderID, productID, quantity, price)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, total, status, created_at FROM orders WHERE id = $1", id)
	if err := row.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price, p.title, p.image
		FROM order_items i
		JOIN products p ON i.product_id = p.id
		WHERE i.order_id = $1
		ORDER BY i.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item := &models.OrderItem{Product: &models.Product{}}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price,
			&item.Product.Title, &item.Product.Image); err != nil {
			return nil, err
		}
		item.Product.ID = item.ProductID
		item.Product.Price = item.Price
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID int64, status string, limit, offset int) ([]*models.Order, int, error) {
	countQuery := "SELECT COUNT(*) FROM orders WHERE user_id = $1"
	listQuery := `
		SELECT o.id, o.user_id, o.total, o.status, o.created_at,
		       (SELECT COUNT(*) FROM order_items i WHERE i.order_id = o.id) AS items_count
		FROM orders o
		WHERE o.user_id = $1`

	args := []any{userID}
	if status != "" {
		countQuery += " AND status = $2"
		listQuery += " AND o.status = $2"
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	listQuery += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &order.CreatedAt, &order.ItemsCount); err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateOrderStatusTx(ctx context.Context, tx *sql.Tx, orderID int64, status string) error {
	res, err := tx.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
