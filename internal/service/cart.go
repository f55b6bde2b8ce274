package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/lib/money"
	"github.com/linemk/tkani-shop/internal/storage"
)

// CartService реализует операции над корзиной. Корзина приходит из cookie,
// каждая мутация возвращает новое состояние для записи обратно в cookie
type CartService interface {
	Render(ctx context.Context, cart models.Cart) (*CartView, error)
	AddItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *CartView, error)
	UpdateItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *CartView, error)
	RemoveItem(ctx context.Context, cart models.Cart, productID int64) (models.Cart, *CartView, error)
}

// CartView — содержимое корзины для ответа клиенту
type CartView struct {
	Success    bool            `json:"success"`
	Items      []*CartLineView `json:"items"`
	Total      float64         `json:"total"`
	TotalItems int             `json:"total_items"`
}

type CartLineView struct {
	ID         int              `json:"id"` // порядковый номер строки в ответе
	ProductID  int64            `json:"product_id"`
	Product    *CartProductView `json:"product"`
	Quantity   int              `json:"quantity"`
	TotalPrice float64          `json:"total_price"`
}

type CartProductView struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type cartService struct {
	log         *slog.Logger
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, productRepo storage.ProductStorage) CartService {
	return &cartService{log: log, productRepo: productRepo}
}

// Render собирает содержимое корзины: товары грузятся одним пакетным запросом,
// позиции с удаленными товарами молча пропускаются
func (s *cartService) Render(ctx context.Context, cart models.Cart) (*CartView, error) {
	const op = "service.CartService.Render"

	view := &CartView{Success: true, Items: []*CartLineView{}}
	if len(cart) == 0 {
		return view, nil
	}

	products, err := s.productRepo.GetProductsByIDs(ctx, cart.ProductIDs())
	if err != nil {
		s.log.Error("failed to load cart products", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to load products: %w", op, err)
	}
	byID := make(map[int64]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := 0.0
	for pid, qty := range cart {
		product, ok := byID[pid]
		if !ok {
			continue
		}
		lineTotal := money.LineTotal(product.Price, qty)
		subtotal += product.Price * float64(qty)
		view.Items = append(view.Items, &CartLineView{
			ID:        len(view.Items) + 1,
			ProductID: pid,
			Product: &CartProductView{
				ID:    product.ID,
				Title: product.Title,
				Price: product.Price,
				Image: product.ImageOrPlaceholder(),
			},
			Quantity:   qty,
			TotalPrice: lineTotal,
		})
	}
	view.Total = money.Round2(subtotal)
	view.TotalItems = len(view.Items)
	return view, nil
}

// AddItem добавляет товар в корзину. Запрошенное количество урезается до остатка
// на складе; ошибка возвращается только когда корзина уже держит весь остаток
func (s *cartService) AddItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *CartView, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID), slog.Int("quantity", quantity))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, nil, apperr.NotFound("product not found")
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	currentQty := cart[productID]
	newQty := currentQty + quantity
	if newQty > product.Stock {
		newQty = product.Stock
		if currentQty >= product.Stock {
			logger.Warn("insufficient stock", slog.Int("stock", product.Stock), slog.Int("inCart", currentQty))
			return nil, nil, apperr.Validationf("insufficient stock, available: %d", product.Stock)
		}
	}
	cart.Set(productID, newQty)

	view, err := s.Render(ctx, cart)
	if err != nil {
		return nil, nil, err
	}
	return cart, view, nil
}

// UpdateItem выставляет точное количество. Ноль и меньше удаляет позицию,
// превышение остатка — ошибка без урезания (в отличие от AddItem)
func (s *cartService) UpdateItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *CartView, error) {
	const op = "service.CartService.UpdateItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", productID), slog.Int("quantity", quantity))

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, nil, apperr.NotFound("product not found")
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	if quantity <= 0 {
		cart.Remove(productID)
	} else {
		if quantity > product.Stock {
			logger.Warn("insufficient stock", slog.Int("stock", product.Stock))
			return nil, nil, apperr.Validationf("insufficient stock, available: %d", product.Stock)
		}
		cart.Set(productID, quantity)
	}

	view, err := s.Render(ctx, cart)
	if err != nil {
		return nil, nil, err
	}
	return cart, view, nil
}

// RemoveItem убирает товар из корзины, отсутствие товара в корзине — не ошибка
func (s *cartService) RemoveItem(ctx context.Context, cart models.Cart, productID int64) (models.Cart, *CartView, error) {
	cart.Remove(productID)
	view, err := s.Render(ctx, cart)
	if err != nil {
		return nil, nil, err
	}
	return cart, view, nil
}
