package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/tkani-shop/internal/service"
)

// parseListQuery разбирает query-параметры листинга каталога.
// Ошибки формата чисел — 400
func parseListQuery(r *http.Request) (service.ProductListQuery, bool) {
	q := service.ProductListQuery{
		Q:             r.URL.Query().Get("q"),
		CategoriesRaw: r.URL.Query().Get("categories"),
		Sort:          r.URL.Query().Get("sort"),
	}

	var bad bool
	intPtr := func(name string) *int64 {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			bad = true
			return nil
		}
		return &v
	}
	floatPtr := func(name string) *float64 {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			bad = true
			return nil
		}
		return &v
	}
	intVal := func(name string) int {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			bad = true
			return 0
		}
		return v
	}

	q.Category = intPtr("category")
	q.BrandID = intPtr("brand_id")
	q.MinPrice = floatPtr("min_price")
	q.MaxPrice = floatPtr("max_price")
	q.Page = intVal("page")
	q.PerPage = intVal("per_page")

	return q, !bad
}

// ListProductsHandler обрабатывает GET /api/catalog/products
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		query, ok := parseListQuery(r)
		if !ok {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad query parameters"})
			return
		}

		view, err := catalogService.ListProducts(r.Context(), query)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// ProductDetailHandler обрабатывает GET /api/catalog/products/{id}
func ProductDetailHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductDetailHandler"
		logger := log.With(slog.String("op", op))

		productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, errorResponse{Error: true, Message: "bad product id"})
			return
		}

		view, err := catalogService.ProductDetail(r.Context(), productID)
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// ListCategoriesHandler обрабатывает GET /api/catalog/categories
func ListCategoriesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		view, err := catalogService.Categories(r.Context())
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, view)
	}
}

// ListBrandsHandler обрабатывает GET /api/catalog/brands
func ListBrandsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListBrandsHandler"
		logger := log.With(slog.String("op", op))

		view, err := catalogService.Brands(r.Context())
		if err != nil {
			writeError(logger, w, err)
			return
		}
		writeJSON(logger, w, http.StatusOK, view)
	}
}
