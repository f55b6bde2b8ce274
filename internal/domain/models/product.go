package models

import (
	"encoding/json"
	"time"
)

// PlaceholderImage подставляется вместо отсутствующего изображения товара
const PlaceholderImage = "/placeholder-product.jpg"

// Product представляет товар каталога
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"` // остаток на складе, всегда >= 0
	Image       string  `json:"image"`
	// Дополнительные изображения и характеристики хранятся JSON-строками,
	// разбор выполняется при отдаче деталей товара
	ImagesJSON         string    `json:"-"`
	SpecificationsJSON string    `json:"-"`
	CategoryID         *int64    `json:"category_id,omitempty"`
	BrandID            *int64    `json:"brand_id,omitempty"`
	Rating             float64   `json:"rating"`
	ReviewsCount       int       `json:"reviews_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ImageOrPlaceholder возвращает основное изображение либо заглушку
func (p *Product) ImageOrPlaceholder() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}

// ExtraImages разбирает JSON-поле с дополнительными изображениями.
// Битый JSON не считается ошибкой — возвращается пустой список
func (p *Product) ExtraImages() []string {
	if p.ImagesJSON == "" {
		return nil
	}
	var images []string
	if err := json.Unmarshal([]byte(p.ImagesJSON), &images); err != nil {
		return nil
	}
	return images
}

// Specifications разбирает JSON-поле характеристик, при ошибке — пустая структура
func (p *Product) Specifications() map[string]string {
	specs := map[string]string{}
	if p.SpecificationsJSON == "" {
		return specs
	}
	if err := json.Unmarshal([]byte(p.SpecificationsJSON), &specs); err != nil {
		return map[string]string{}
	}
	return specs
}

// AllImages собирает основное и дополнительные изображения без дубликатов
func (p *Product) AllImages() []string {
	var all []string
	seen := make(map[string]struct{})
	if p.Image != "" {
		all = append(all, p.Image)
		seen[p.Image] = struct{}{}
	}
	for _, img := range p.ExtraImages() {
		if _, ok := seen[img]; ok {
			continue
		}
		seen[img] = struct{}{}
		all = append(all, img)
	}
	return all
}

// Category представляет категорию товаров
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Brand представляет бренд (производителя ткани)
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
