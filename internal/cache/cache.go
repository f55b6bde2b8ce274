package cache

import (
	"context"
	"fmt"
	"time"
)

// Время жизни кэша: выборки каталога недолго, справочники — час
// (категории и бренды меняются редко)
const (
	TTLCatalog   = 5 * time.Minute
	TTLReference = time.Hour
)

// Cache — общий интерфейс key/value кэша. Значения — уже сериализованные
// JSON-ответы, промах не является ошибкой
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// Ключи справочников и административного перечня товаров
const (
	KeyCategories    = "categories_list"
	KeyBrands        = "brands_list"
	KeyAdminProducts = "products_all"
)

// ProductKey — ключ кэша деталей товара
func ProductKey(productID int64) string {
	return fmt.Sprintf("product_%d", productID)
}

// ProductListKey строит ключ кэша списка товаров из всех параметров фильтра
func ProductListKey(q, category, categories, brand, minPrice, maxPrice, sort string, page, perPage int) string {
	return fmt.Sprintf("products_%s_%s_%s_%s_%s_%s_%s_%d_%d",
		q, category, categories, brand, minPrice, maxPrice, sort, page, perPage)
}
