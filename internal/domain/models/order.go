package models

import "time"

// Статусы заказа. Начальный статус — pending, дальше любой из допустимого
// списка: переходы между статусами не ограничиваются
const (
	OrderStatusPending   = "pending"
	OrderStatusCreated   = "created"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

// AllowedStatuses — допустимые целевые статусы при обновлении заказа
var AllowedStatuses = []string{
	OrderStatusCreated,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCancelled,
}

// IsAllowedStatus проверяет статус по допустимому списку
func IsAllowedStatus(status string) bool {
	for _, s := range AllowedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Order представляет заказ. После создания неизменяем, кроме статуса
type Order struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	Total     float64      `json:"total"` // сумма по ценам на момент заказа
	Status    string       `json:"status"`
	Items     []*OrderItem `json:"items,omitempty"`
	// ItemsCount заполняется при выборке списков, когда сами позиции не грузятся
	ItemsCount int       `json:"items_count,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderItem представляет позицию заказа, цена фиксируется на момент покупки
type OrderItem struct {
	ID        int64    `json:"id"`
	OrderID   int64    `json:"order_id"`
	ProductID int64    `json:"product_id"`
	Quantity  int      `json:"quantity"`
	Price     float64  `json:"price"`
	Product   *Product `json:"product,omitempty"` // заполняется через JOIN с таблицей products
}

// OrderHistory — запись журнала смены статуса заказа.
// Журнал append-only: записи не редактируются и не удаляются
type OrderHistory struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
