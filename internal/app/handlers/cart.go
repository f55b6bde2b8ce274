package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/tkani-shop/internal/service"
)

// CartAddRequest — тело запроса POST /api/cart/add
type CartAddRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"omitempty,gt=0"`
}

// CartUpdateRequest — тело запроса POST /api/cart/update.
// Количество — указатель: ноль является валидным значением и удаляет позицию
type CartUpdateRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"required"`
}

// CartRemoveRequest — тело запроса POST /api/cart/remove
type CartRemoveRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// GetCartHandler обрабатывает GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		view, err := cartService.Render(r.Context(), readCartCookie(r))
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// AddToCartHandler обрабатывает POST /api/cart/add.
// Каждый успешный ответ сопровождается обновленной cookie корзины
func AddToCartHandler(log *slog.Logger, cartService service.CartService, cookieTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		var req CartAddRequest
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
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		cart, view, err := cartService.AddItem(r.Context(), readCartCookie(r), req.ProductID, req.Quantity)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeCartCookie(w, cart, cookieTTL)
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// UpdateCartHandler обрабатывает POST /api/cart/update
func UpdateCartHandler(log *slog.Logger, cartService service.CartService, cookieTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartHandler"
		logger := log.With(slog.String("op", op))

		var req CartUpdateRequest
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

		cart, view, err := cartService.UpdateItem(r.Context(), readCartCookie(r), req.ProductID, *req.Quantity)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeCartCookie(w, cart, cookieTTL)
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// RemoveFromCartHandler обрабатывает POST /api/cart/remove, операция идемпотентна
func RemoveFromCartHandler(log *slog.Logger, cartService service.CartService, cookieTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		var req CartRemoveRequest
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

		cart, view, err := cartService.RemoveItem(r.Context(), readCartCookie(r), req.ProductID)
		if err != nil {
			writeError(logger, w, err)
			return
		}

		writeCartCookie(w, cart, cookieTTL)
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// ClearCartHandler обрабатывает POST /api/cart/clear: отдает пустую корзину
// и немедленно истекающую cookie
func ClearCartHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearCartHandler"
		logger := log.With(slog.String("op", op))

		clearCartCookie(w)
		writeJSON(logger, w, http.StatusOK, map[string]any{
			"success":     true,
			"message":     "cart cleared",
			"items":       []any{},
			"total":       0,
			"total_items": 0,
		})
	}
}
