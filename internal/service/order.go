package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/lib/money"
	"github.com/linemk/tkani-shop/internal/storage"
)

// OrderService реализует жизненный цикл заказа: создание из корзины,
// выдачу деталей, списки и смену статуса с журналированием
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, cart models.Cart, delivery DeliveryInfo) (*OrderDetail, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetail, error)
	ListOrders(ctx context.Context, userID int64, status string, page, limit int) (*OrderList, error)
	UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, newStatus, comment string) error
}

// DeliveryInfo — данные доставки, сворачиваются в комментарий первой записи журнала
type DeliveryInfo struct {
	Address string
	Phone   string
	Comment string
}

// OrderDetail — заказ с позициями и журналом статусов
type OrderDetail struct {
	Order   *models.Order          `json:"order"`
	History []*models.OrderHistory `json:"history,omitempty"`
}

// OrderList — страница заказов пользователя
type OrderList struct {
	Orders     []*models.Order `json:"orders"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	historyRepo storage.OrderHistoryStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, productRepo storage.ProductStorage, orderRepo storage.OrderStorage, historyRepo storage.OrderHistoryStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
	}
}

// orderLine — позиция будущего заказа с ценой на момент покупки
type orderLine struct {
	product  *models.Product
	quantity int
	price    float64
}

// CreateOrder создает заказ из снимка корзины.
// Количество молча урезается до остатка, позиции с удаленными товарами
// пропускаются. Заказ, позиции, списание остатков и первая запись журнала —
// одна транзакция: любая ошибка откатывает все целиком
func (s *orderService) CreateOrder(ctx context.Context, userID int64, cart models.Cart, delivery DeliveryInfo) (*OrderDetail, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if len(cart) == 0 {
		return nil, apperr.Validation("cart is empty")
	}
	logger.Info("starting order transaction", slog.Int("positions", len(cart)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Блокируем товары в порядке возрастания id, чтобы параллельные заказы
	// не взаимоблокировались
	ids := cart.ProductIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var lines []orderLine
	total := 0.0
	for _, pid := range ids {
		product, err := s.productRepo.LockProductByIDTx(ctx, tx, pid)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				// товар удалили, пока корзина лежала в cookie
				continue
			}
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to lock product", slog.Int64("productID", pid), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to lock product: %w", op, err)
		}

		qty := cart[pid]
		if qty > product.Stock {
			qty = product.Stock
		}
		if qty <= 0 {
			continue
		}
		total += product.Price * float64(qty)
		lines = append(lines, orderLine{product: product, quantity: qty, price: product.Price})
	}

	if len(lines) == 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, apperr.Validation("no valid items in cart")
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, userID, money.Round2(total), models.OrderStatusPending)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	for _, line := range lines {
		if err := s.orderRepo.CreateOrderItemTx(ctx, tx, orderID, line.product.ID, line.quantity, line.price); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order item: %w", op, err)
		}

		newStock := line.product.Stock - line.quantity
		if newStock < 0 {
			newStock = 0
		}
		if err := s.productRepo.UpdateProductStockTx(ctx, tx, line.product.ID, newStock); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to update stock", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to update stock: %w", op, err)
		}
	}

	historyComment := buildCreationComment(delivery)
	if err := s.historyRepo.AddHistoryTx(ctx, tx, orderID, models.OrderStatusPending, strconv.FormatInt(userID, 10), historyComment); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to add order history", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to add order history: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order created", slog.Int64("orderID", orderID), slog.Int("items", len(lines)))
	return s.loadDetail(ctx, orderID)
}

func buildCreationComment(delivery DeliveryInfo) string {
	comment := "order created"
	if delivery.Address != "" {
		comment += ". delivery address: " + delivery.Address
	}
	if delivery.Phone != "" {
		comment += ". phone: " + delivery.Phone
	}
	if delivery.Comment != "" {
		comment += ". comment: " + delivery.Comment
	}
	return comment
}

// GetOrder возвращает заказ с позициями и журналом.
// Чужой заказ неотличим от несуществующего — в обоих случаях NotFound
func (s *orderService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetail, error) {
	const op = "service.OrderService.GetOrder"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}

	return s.loadDetail(ctx, orderID)
}

func (s *orderService) loadDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	const op = "service.OrderService.loadDetail"

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}
	order.Items = items

	history, err := s.historyRepo.GetHistoryByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get order history: %w", op, err)
	}

	return &OrderDetail{Order: order, History: history}, nil
}

// ListOrders возвращает страницу заказов пользователя, новые первыми
func (s *orderService) ListOrders(ctx context.Context, userID int64, status string, page, limit int) (*OrderList, error) {
	const op = "service.OrderService.ListOrders"

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	// Неизвестный статус в фильтре — ошибка валидации, а не пустой список:
	// опечатка в фильтре не должна выглядеть как отсутствие заказов
	if status != "" && !models.IsAllowedStatus(status) && status != models.OrderStatusPending {
		return nil, apperr.Validationf("unknown status filter: %s", status)
	}

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, status, limit, (page-1)*limit)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list orders: %w", op, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	pages := (total + limit - 1) / limit
	return &OrderList{Orders: orders, Total: total, Page: page, TotalPages: pages}, nil
}

// UpdateStatus переводит заказ в новый статус и добавляет ровно одну запись
// журнала. Менять статус может владелец заказа либо администратор.
// Легальность перехода между статусами не проверяется
func (s *orderService) UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, newStatus, comment string) error {
	const op = "service.OrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", orderID), slog.String("newStatus", newStatus))

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return apperr.NotFound("order not found")
		}
		logger.Error("failed to get order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	if order.UserID != actorID && actorRole != models.RoleAdmin {
		logger.Warn("status change denied", slog.Int64("actorID", actorID))
		return apperr.Forbidden("you are not allowed to modify this order")
	}

	if !models.IsAllowedStatus(newStatus) {
		return apperr.Validationf("invalid status, allowed: %v", models.AllowedStatuses)
	}

	if comment == "" {
		comment = fmt.Sprintf("status changed from '%s' to '%s'", order.Status, newStatus)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.orderRepo.UpdateOrderStatusTx(ctx, tx, orderID, newStatus); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to update status", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update status: %w", op, err)
	}

	if err := s.historyRepo.AddHistoryTx(ctx, tx, orderID, newStatus, strconv.FormatInt(actorID, 10), comment); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to add order history", slog.Any("error", err))
		return fmt.Errorf("%s: failed to add order history: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order status updated", slog.String("oldStatus", order.Status))
	return nil
}
