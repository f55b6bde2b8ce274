package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/tkani-shop/internal/domain/models"
)

// BrandStorage описывает методы для работы с брендами
type BrandStorage interface {
	ListBrands(ctx context.Context) ([]*models.Brand, error)
}

type brandRepository struct {
	db *sql.DB
}

func NewBrandRepository(db *sql.DB) BrandStorage {
	return &brandRepository{db: db}
}

func (r *brandRepository) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, slug FROM brands ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		b := &models.Brand{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brands, nil
}
