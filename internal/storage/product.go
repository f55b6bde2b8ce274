package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/tkani-shop/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

const productColumns = "id, title, description, price, stock, image, images, specifications, category_id, brand_id, rating, reviews_count, created_at, updated_at"

// Ключи сортировки списка товаров
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitleAsc  = "title_asc"
	SortTitleDesc = "title_desc"
	SortNewest    = "newest"
	SortIDDesc    = "id_desc"
)

var sortClauses = map[string]string{
	SortPriceAsc:  "price ASC",
	SortPriceDesc: "price DESC",
	SortTitleAsc:  "title ASC",
	SortTitleDesc: "title DESC",
	SortNewest:    "created_at DESC",
	SortIDDesc:    "id DESC",
}

// ProductFilter — параметры выборки товаров, собираются в один составной запрос
type ProductFilter struct {
	Query       string
	CategoryID  *int64
	CategoryIDs []int64
	BrandID     *int64
	MinPrice    *float64
	MaxPrice    *float64
	Sort        string
	Page        int
	PerPage     int
}

// ProductStorage описывает методы для работы с таблицей товаров
type ProductStorage interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// GetProductsByIDs пакетно загружает товары одним запросом
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error)
	// ListProducts возвращает страницу товаров и общее число подходящих строк
	ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, int, error)
	ListAllProducts(ctx context.Context) ([]*models.Product, error)
	// GetRelatedProducts возвращает товары той же категории, исключая сам товар
	GetRelatedProducts(ctx context.Context, categoryID int64, excludeID int64, limit int) ([]*models.Product, error)
	// LockProductByIDTx блокирует строку товара на время транзакции заказа
	LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	UpdateProductStockTx(ctx context.Context, tx *sql.Tx, id int64, newStock int) error
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	var categoryID, brandID sql.NullInt64
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Stock, &p.Image,
		&p.ImagesJSON, &p.SpecificationsJSON, &categoryID, &brandID,
		&p.Rating, &p.ReviewsCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if brandID.Valid {
		p.BrandID = &brandID.Int64
	}
	return p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) GetProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products by ids: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// buildFilterClauses собирает условия WHERE и аргументы для составного запроса
func buildFilterClauses(filter ProductFilter) (string, []any) {
	var clauses []string
	var args []any

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Query != "" {
		ph := next("%" + filter.Query + "%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", ph, ph))
	}
	if filter.CategoryID != nil {
		clauses = append(clauses, "category_id = "+next(*filter.CategoryID))
	}
	if len(filter.CategoryIDs) > 0 {
		clauses = append(clauses, "category_id = ANY("+next(pq.Array(filter.CategoryIDs))+")")
	}
	if filter.BrandID != nil {
		clauses = append(clauses, "brand_id = "+next(*filter.BrandID))
	}
	if filter.MinPrice != nil {
		clauses = append(clauses, "price >= "+next(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		clauses = append(clauses, "price <= "+next(*filter.MaxPrice))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}
	return where, args
}

func (r *productRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]*models.Product, int, error) {
	where, args := buildFilterClauses(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	orderBy, ok := sortClauses[filter.Sort]
	if !ok {
		orderBy = sortClauses[SortIDDesc]
	}

	limitArgs := append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, limitArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) ListAllProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list all products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *productRepository) GetRelatedProducts(ctx context.Context, categoryID int64, excludeID int64, limit int) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE category_id = $1 AND id <> $2 LIMIT $3",
		categoryID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *productRepository) LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 FOR UPDATE NOWAIT", id)
	p, err := scanProduct(row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "55P03" { // lock
				return nil, fmt.Errorf("product is locked, please try again: %w", err)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) UpdateProductStockTx(ctx context.Context, tx *sql.Tx, id int64, newStock int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2", newStock, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (title, description, price, stock, image, images, specifications, category_id, brand_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		p.Title, p.Description, p.Price, p.Stock, p.Image, p.ImagesJSON, p.SpecificationsJSON,
		nullableID(p.CategoryID), nullableID(p.BrandID),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET title = $1, description = $2, price = $3, stock = $4, image = $5,
		 images = $6, specifications = $7, category_id = $8, brand_id = $9, updated_at = NOW() WHERE id = $10`,
		p.Title, p.Description, p.Price, p.Stock, p.Image, p.ImagesJSON, p.SpecificationsJSON,
		nullableID(p.CategoryID), nullableID(p.BrandID), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func collectProducts(rows *sql.Rows) ([]*models.Product, error) {
	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
