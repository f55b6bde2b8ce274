package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/tkani-shop/internal/security/jwtmiddleware"
	"github.com/linemk/tkani-shop/internal/service"
)

// AdminProductRequest — тело POST /api/admin/products
type AdminProductRequest struct {
	Title          string   `json:"title" validate:"required,min=1,max=200"`
	Description    string   `json:"description"`
	Price          *float64 `json:"price" validate:"required,gte=0"`
	Stock          int      `json:"stock" validate:"gte=0"`
	Image          string   `json:"image"`
	Images         string   `json:"images"`
	Specifications string   `json:"specifications"`
	CategoryID     *int64   `json:"category_id"`
	BrandID        *int64   `json:"brand_id"`
}

// AdminProductUpdateRequest — частичное обновление товара:
// отсутствующие поля не меняются
type AdminProductUpdateRequest struct {
	Title          *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string  `json:"description"`
	Price          *float64 `json:"price" validate:"omitempty,gte=0"`
	Stock          *int     `json:"stock" validate:"omitempty,gte=0"`
	Image          *string  `json:"image"`
	Images         *string  `json:"images"`
	Specifications *string  `json:"specifications"`
	CategoryID     *int64   `json:"category_id"`
	BrandID        *int64   `json:"brand_id"`
}

// requireAdmin выполняет явную проверку роли в начале каждого
// административного обработчика
func requireAdmin(log *slog.Logger, w http.ResponseWriter, r *http.Request) bool {
	if !jwtmiddleware.IsAdmin(r.Context()) {
		log.Warn("admin access denied")
		writeJSON(log, w, http.StatusForbidden, errorResponse{Error: true, Message: "admin access required"})
		return false
	}
	return true
}

// AdminListProductsHandler обрабатывает GET /api/admin/products
func AdminListProductsHandler(log *slog.Logger, adminService service.AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminListProductsHandler"
		logger := log.With(slog.String("op", op))

		if !requireAdmin(logger, w, r) {
			return
		}

		products, err := adminService.ListProducts(r.Context())
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, products)
	}
}

// AdminCreateProductHandler обрабатывает POST /api/admin/products
func AdminCreateProductHandler(log *slog.Logger, adminService service.AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminCreateProductHandler"
		logger := log.With(slog.String("op", op))

		if !requireAdmin(logger, w, r) {
			return
		}

		var req AdminProductRequest
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

		product, err := adminService.CreateProduct(r.Context(), service.CreateProductInput{
			Title:          req.Title,
			Description:    req.Description,
			Price:          *req.Price,
			Stock:          req.Stock,
			Image:          req.Image,
			Images:         req.Images,
			Specifications: req.Specifications,
			CategoryID:     req.CategoryID,
			BrandID:        req.BrandID,
		})
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusCreated, product)
	}
}

// AdminUpdateProductHandler обрабатывает PUT /api/admin/products/{id}
func AdminUpdateProductHandler(log *slog.Logger, adminService service.AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminUpdateProductHandler"
		logger := log.With(slog.String("op", op))

		if !requireAdmin(logger, w, r) {
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad product id"})
			return
		}

		var req AdminProductUpdateRequest
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

		product, err := adminService.UpdateProduct(r.Context(), productID, service.UpdateProductInput{
			Title:          req.Title,
			Description:    req.Description,
			Price:          req.Price,
			Stock:          req.Stock,
			Image:          req.Image,
			Images:         req.Images,
			Specifications: req.Specifications,
			CategoryID:     req.CategoryID,
			BrandID:        req.BrandID,
		})
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, product)
	}
}

// AdminDeleteProductHandler обрабатывает DELETE /api/admin/products/{id}
func AdminDeleteProductHandler(log *slog.Logger, adminService service.AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AdminDeleteProductHandler"
		logger := log.With(slog.String("op", op))

		if !requireAdmin(logger, w, r) {
			return
		}

		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad product id"})
			return
		}

		if err := adminService.DeleteProduct(r.Context(), productID); err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, map[string]any{"success": true, "message": "product deleted"})
	}
}
