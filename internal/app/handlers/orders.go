package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/security/jwtmiddleware"
	"github.com/linemk/tkani-shop/internal/service"
)

// CreateOrderRequest — необязательное тело POST /api/orders/create
// с данными доставки
type CreateOrderRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Phone           string `json:"phone"`
	Comment         string `json:"comment"`
}

// UpdateOrderStatusRequest — тело PUT /api/orders/{id}/status
type UpdateOrderStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Comment string `json:"comment"`
}

// CreateOrderHandler обрабатывает POST /api/orders/create:
// заказ собирается из cookie-корзины, при успехе cookie очищается
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeJSON(logger, w, http.StatusUnauthorized, errorResponse{Error: true, Message: "unauthorized"})
			return
		}

		// тело запроса опционально
		var req CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "invalid request"})
			return
		}

		detail, err := orderService.CreateOrder(r.Context(), userID, readCartCookie(r), service.DeliveryInfo{
			Address: req.DeliveryAddress,
			Phone:   req.Phone,
			Comment: req.Comment,
		})
		if err != nil {
			writeError(logger, w, err)
			return
		}

		clearCartCookie(w)
		writeJSON(logger, w, http.StatusCreated, map[string]any{
			"success": true,
			"order":   detail.Order,
		})
	}
}

// MyOrdersHandler обрабатывает GET /api/orders/my с фильтром по статусу и пагинацией
func MyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeJSON(logger, w, http.StatusUnauthorized, errorResponse{Error: true, Message: "unauthorized"})
			return
		}

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		status := r.URL.Query().Get("status")

		list, err := orderService.ListOrders(r.Context(), userID, status, page, limit)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, map[string]any{
			"success":    true,
			"orders":     list.Orders,
			"total":      list.Total,
			"page":       list.Page,
			"totalPages": list.TotalPages,
		})
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}.
// Чужой заказ — 404, владение проверяется сервисом
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeJSON(logger, w, http.StatusUnauthorized, errorResponse{Error: true, Message: "unauthorized"})
			return
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad order id"})
			return
		}

		detail, err := orderService.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, map[string]any{
			"success": true,
			"order":   detail.Order,
			"history": detail.History,
		})
	}
}

// UpdateOrderStatusHandler обрабатывает PUT /api/orders/{id}/status.
// Статус меняет владелец заказа или администратор
func UpdateOrderStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateOrderStatusHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeJSON(logger, w, http.StatusUnauthorized, errorResponse{Error: true, Message: "unauthorized"})
			return
		}
		role, _ := jwtmiddleware.RoleFromContext(r.Context())
		if role == "" {
			role = models.RoleUser
		}

		orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad order id"})
			return
		}

		var req UpdateOrderStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "invalid request"})
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeValidationError(logger, w, err)
			return
		}

		if err := orderService.UpdateStatus(r.Context(), userID, role, orderID, req.Status, req.Comment); err != nil {
			writeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  "order status updated",
			"order_id": orderID,
			"status":   req.Status,
		})
	}
}
