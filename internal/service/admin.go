package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/tkani-shop/internal/cache"
	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/storage"
)

// AdminProductService — привилегированные мутации каталога.
// Проверка роли выполняется на уровне обработчиков
type AdminProductService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

type CreateProductInput struct {
	Title          string
	Description    string
	Price          float64
	Stock          int
	Image          string
	Images         string
	Specifications string
	CategoryID     *int64
	BrandID        *int64
}

// UpdateProductInput — частичное обновление: nil-поля не трогаются
type UpdateProductInput struct {
	Title          *string
	Description    *string
	Price          *float64
	Stock          *int
	Image          *string
	Images         *string
	Specifications *string
	CategoryID     *int64
	BrandID        *int64
}

type adminProductService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
	cache       cache.Cache
}

func NewAdminProductService(log *slog.Logger, productRepo storage.ProductStorage, c cache.Cache) AdminProductService {
	return &adminProductService{log: log, productRepo: productRepo, cache: c}
}

// ListProducts отдает полный перечень товаров для админки, кэш на 5 минут
func (s *adminProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.AdminProductService.ListProducts"

	if data, ok := s.cache.Get(ctx, cache.KeyAdminProducts); ok {
		var products []*models.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
	}

	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		s.log.Error("failed to list products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}
	if products == nil {
		products = []*models.Product{}
	}

	if data, err := json.Marshal(products); err == nil {
		s.cache.Set(ctx, cache.KeyAdminProducts, data, cache.TTLCatalog)
	}
	return products, nil
}

// CreateProduct заводит товар. Создание дополнительно сбрасывает кэш
// административного перечня; постраничные ключи каталога не трогаются
// и доживают до естественного истечения
func (s *adminProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	const op = "service.AdminProductService.CreateProduct"
	logger := s.log.With(slog.String("op", op), slog.String("title", input.Title))

	if input.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if input.Price < 0 {
		return nil, apperr.Validation("price must be non-negative")
	}
	if input.Stock < 0 {
		return nil, apperr.Validation("stock must be non-negative")
	}

	product := &models.Product{
		Title:              input.Title,
		Description:        input.Description,
		Price:              input.Price,
		Stock:              input.Stock,
		Image:              input.Image,
		ImagesJSON:         input.Images,
		SpecificationsJSON: input.Specifications,
		CategoryID:         input.CategoryID,
		BrandID:            input.BrandID,
	}

	product, err := s.productRepo.CreateProduct(ctx, product)
	if err != nil {
		logger.Error("failed to create product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create product: %w", op, err)
	}

	s.cache.Delete(ctx, cache.KeyCategories, cache.KeyAdminProducts)
	logger.Info("product created", slog.Int64("productID", product.ID))
	return product, nil
}

// UpdateProduct меняет переданные поля товара и сбрасывает кэш его карточки
func (s *adminProductService) UpdateProduct(ctx context.Context, productID int64, input UpdateProductInput) (*models.Product, error) {
	const op = "service.AdminProductService.UpdateProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperr.Validation("price must be non-negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, apperr.Validation("stock must be non-negative")
		}
		product.Stock = *input.Stock
	}
	if input.Image != nil {
		product.Image = *input.Image
	}
	if input.Images != nil {
		product.ImagesJSON = *input.Images
	}
	if input.Specifications != nil {
		product.SpecificationsJSON = *input.Specifications
	}
	if input.CategoryID != nil {
		product.CategoryID = input.CategoryID
	}
	if input.BrandID != nil {
		product.BrandID = input.BrandID
	}

	if err := s.productRepo.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		logger.Error("failed to update product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update product: %w", op, err)
	}

	s.cache.Delete(ctx, cache.ProductKey(productID), cache.KeyCategories)
	logger.Info("product updated")
	return product, nil
}

// DeleteProduct удаляет товар и сбрасывает кэш его карточки
func (s *adminProductService) DeleteProduct(ctx context.Context, productID int64) error {
	const op = "service.AdminProductService.DeleteProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID))

	if err := s.productRepo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return apperr.NotFound("product not found")
		}
		logger.Error("failed to delete product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete product: %w", op, err)
	}

	s.cache.Delete(ctx, cache.ProductKey(productID), cache.KeyCategories)
	logger.Info("product deleted")
	return nil
}
