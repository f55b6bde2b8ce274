package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/linemk/tkani-shop/internal/cache"
	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/storage"
)

// Сколько похожих товаров отдается на странице деталей
const relatedProductsLimit = 4

// CatalogService реализует публичную часть каталога: списки с фильтрацией
// и кэшем, справочники и детали товара
type CatalogService interface {
	ListProducts(ctx context.Context, query ProductListQuery) (*ProductListView, error)
	ProductDetail(ctx context.Context, productID int64) (*ProductDetailView, error)
	Categories(ctx context.Context) (*CategoriesView, error)
	Brands(ctx context.Context) (*BrandsView, error)
}

// ProductListQuery — параметры листинга каталога.
// CategoriesRaw — строка вида "1,2,3", разбирается сервисом
type ProductListQuery struct {
	Q             string
	Category      *int64
	CategoriesRaw string
	BrandID       *int64
	MinPrice      *float64
	MaxPrice      *float64
	Sort          string
	Page          int
	PerPage       int
}

type ProductListView struct {
	Success bool              `json:"success"`
	Items   []*models.Product `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Pages   int               `json:"pages"`
}

type ProductDetailView struct {
	Success bool         `json:"success"`
	Product *ProductFull `json:"product"`
}

// ProductFull — развернутое представление товара для страницы деталей
type ProductFull struct {
	ID              int64             `json:"id"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Price           float64           `json:"price"`
	Image           string            `json:"image"`
	Images          []string          `json:"images"`
	CategoryID      *int64            `json:"category_id"`
	Category        *models.Category  `json:"category"`
	BrandID         *int64            `json:"brand_id"`
	Stock           int               `json:"stock"`
	Rating          float64           `json:"rating"`
	ReviewsCount    int               `json:"reviews_count"`
	Specifications  map[string]string `json:"specifications"`
	RelatedProducts []*RelatedProduct `json:"related_products"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type RelatedProduct struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type CategoriesView struct {
	Success    bool               `json:"success"`
	Categories []*models.Category `json:"categories"`
}

type BrandsView struct {
	Success bool            `json:"success"`
	Brands  []*models.Brand `json:"brands"`
}

type catalogService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	categoryRepo storage.CategoryStorage
	brandRepo    storage.BrandStorage
	cache        cache.Cache
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage, categoryRepo storage.CategoryStorage, brandRepo storage.BrandStorage, c cache.Cache) CatalogService {
	return &catalogService{
		log:          log,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		cache:        c,
	}
}

// parseCategoryList разбирает строку "1,2,3" в список id категорий
func parseCategoryList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, apperr.Validation("bad category list format")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func fmtIntPtr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// ListProducts отдает страницу каталога. Результат целиком кэшируется
// по ключу, производному от всех параметров фильтра
func (s *catalogService) ListProducts(ctx context.Context, query ProductListQuery) (*ProductListView, error) {
	const op = "service.CatalogService.ListProducts"

	categoryIDs, err := parseCategoryList(query.CategoriesRaw)
	if err != nil {
		return nil, err
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = 12
	}
	if query.PerPage > 100 {
		query.PerPage = 100
	}
	if query.Sort == "" {
		query.Sort = storage.SortIDDesc
	}

	cacheKey := cache.ProductListKey(query.Q, fmtIntPtr(query.Category), query.CategoriesRaw,
		fmtIntPtr(query.BrandID), fmtFloatPtr(query.MinPrice), fmtFloatPtr(query.MaxPrice),
		query.Sort, query.Page, query.PerPage)
	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		view := &ProductListView{}
		if err := json.Unmarshal(data, view); err == nil {
			return view, nil
		}
	}

	products, total, err := s.productRepo.ListProducts(ctx, storage.ProductFilter{
		Query:       query.Q,
		CategoryID:  query.Category,
		CategoryIDs: categoryIDs,
		BrandID:     query.BrandID,
		MinPrice:    query.MinPrice,
		MaxPrice:    query.MaxPrice,
		Sort:        query.Sort,
		Page:        query.Page,
		PerPage:     query.PerPage,
	})
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	if products == nil {
		products = []*models.Product{}
	}

	pages := (total + query.PerPage - 1) / query.PerPage
	view := &ProductListView{
		Success: true,
		Items:   products,
		Total:   total,
		Page:    query.Page,
		Pages:   pages,
	}

	if data, err := json.Marshal(view); err == nil {
		s.cache.Set(ctx, cacheKey, data, cache.TTLCatalog)
	}
	return view, nil
}

// ProductDetail отдает развернутую карточку товара: разобранные JSON-поля,
// категорию и до четырех похожих товаров той же категории
func (s *catalogService) ProductDetail(ctx context.Context, productID int64) (*ProductDetailView, error) {
	const op = "service.CatalogService.ProductDetail"

	cacheKey := cache.ProductKey(productID)
	if data, ok := s.cache.Get(ctx, cacheKey); ok {
		view := &ProductDetailView{}
		if err := json.Unmarshal(data, view); err == nil {
			return view, nil
		}
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		s.log.Error("failed to get product", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	full := &ProductFull{
		ID:             product.ID,
		Title:          product.Title,
		Description:    product.Description,
		Price:          product.Price,
		Image:          product.ImageOrPlaceholder(),
		Images:         product.AllImages(),
		CategoryID:     product.CategoryID,
		BrandID:        product.BrandID,
		Stock:          product.Stock,
		Rating:         product.Rating,
		ReviewsCount:   product.ReviewsCount,
		Specifications: product.Specifications(),
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
	if full.Rating == 0 {
		full.Rating = 5.0
	}
	if full.Images == nil {
		full.Images = []string{}
	}
	full.RelatedProducts = []*RelatedProduct{}

	if product.CategoryID != nil {
		category, err := s.categoryRepo.GetCategoryByID(ctx, *product.CategoryID)
		if err == nil {
			full.Category = category
		} else if !errors.Is(err, storage.ErrCategoryNotFound) {
			s.log.Warn("failed to get category", slog.String("op", op), slog.Any("error", err))
		}

		related, err := s.productRepo.GetRelatedProducts(ctx, *product.CategoryID, product.ID, relatedProductsLimit)
		if err != nil {
			s.log.Error("failed to get related products", slog.String("op", op), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get related products: %w", op, err)
		}
		for _, rel := range related {
			full.RelatedProducts = append(full.RelatedProducts, &RelatedProduct{
				ID:    rel.ID,
				Title: rel.Title,
				Price: rel.Price,
				Image: rel.ImageOrPlaceholder(),
			})
		}
	}

	view := &ProductDetailView{Success: true, Product: full}
	if data, err := json.Marshal(view); err == nil {
		s.cache.Set(ctx, cacheKey, data, cache.TTLCatalog)
	}
	return view, nil
}

// Categories отдает справочник категорий, кэш на час
func (s *catalogService) Categories(ctx context.Context) (*CategoriesView, error) {
	const op = "service.CatalogService.Categories"

	if data, ok := s.cache.Get(ctx, cache.KeyCategories); ok {
		view := &CategoriesView{}
		if err := json.Unmarshal(data, view); err == nil {
			return view, nil
		}
	}

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.log.Error("failed to list categories", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list categories: %w", op, err)
	}
	if categories == nil {
		categories = []*models.Category{}
	}

	view := &CategoriesView{Success: true, Categories: categories}
	if data, err := json.Marshal(view); err == nil {
		s.cache.Set(ctx, cache.KeyCategories, data, cache.TTLReference)
	}
	return view, nil
}

// Brands отдает справочник брендов, кэш на час
func (s *catalogService) Brands(ctx context.Context) (*BrandsView, error) {
	const op = "service.CatalogService.Brands"

	if data, ok := s.cache.Get(ctx, cache.KeyBrands); ok {
		view := &BrandsView{}
		if err := json.Unmarshal(data, view); err == nil {
			return view, nil
		}
	}

	brands, err := s.brandRepo.ListBrands(ctx)
	if err != nil {
		s.log.Error("failed to list brands", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list brands: %w", op, err)
	}
	if brands == nil {
		brands = []*models.Brand{}
	}

	view := &BrandsView{Success: true, Brands: brands}
	if data, err := json.Marshal(view); err == nil {
		s.cache.Set(ctx, cache.KeyBrands, data, cache.TTLReference)
	}
	return view, nil
}
