package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/furnibot/core/database"
	"github.com/m3rciful/furnibot/core/logger"
)

const productSelect = `
	SELECT p.id, p.category_id, p.product_type_id, p.country, p.title, p.description,
	       p.price, p.dimensions, p.in_stock, p.sort_order, p.created_at,
	       c.slug AS category_slug, c.name AS category_name, c.parent_id AS category_parent_id,
	       pt.name AS product_type_name
	FROM products p
	JOIN categories c ON c.id = p.category_id
	LEFT JOIN product_types pt ON pt.id = p.product_type_id`

// CreateProduct inserts the product and its photos in one transaction.
// An unknown category or product type yields ErrNotFound.
func (s *Store) CreateProduct(ctx context.Context, in NewProduct) (*Product, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, errors.New("catalog: product title is required")
	}
	if in.Price.Valid && in.Price.Decimal.IsNegative() {
		return nil, errors.New("catalog: price must not be negative")
	}
	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &id, `
			INSERT INTO products (category_id, product_type_id, country, title, description,
			                      price, dimensions, in_stock, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			in.CategoryID, in.ProductTypeID, strings.TrimSpace(in.Country), in.Title,
			strings.TrimSpace(in.Description), in.Price, in.Dimensions, inStock, in.SortOrder)
		if err != nil {
			return err
		}
		for i, url := range in.PhotoURLs {
			if err := insertPhoto(ctx, tx, id, url, i, i == 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if database.ForeignKeyViolation(err) {
			return nil, fmt.Errorf("category or product type: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "product.created",
		slog.String("status", logger.StatusOK),
		slog.Int64("product_id", id),
		slog.Int64("category_id", in.CategoryID),
		slog.Int("photos", len(in.PhotoURLs)),
	)
	return s.GetProduct(ctx, id)
}

func insertPhoto(ctx context.Context, tx *sqlx.Tx, productID int64, url string, order int, main bool) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_photos (product_id, photo_url, sort_order, is_main)
		VALUES ($1, $2, $3, $4)`, productID, url, order, main)
	return err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	if err := s.db.GetContext(ctx, &p, productSelect+` WHERE p.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// where renders the filter as a WHERE clause with positional arguments.
func (f ProductFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.CategoryID != 0 {
		add("p.category_id = ?", f.CategoryID)
	}
	if f.CategorySlug != "" {
		add("c.slug = ?", f.CategorySlug)
	}
	if f.Country != "" {
		add("p.country = ?", f.Country)
	}
	if f.ProductTypeID != 0 {
		add("p.product_type_id = ?", f.ProductTypeID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListProducts returns products ordered by sort_order then title.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	where, args := f.where()
	query := productSelect + where + ` ORDER BY p.sort_order, p.title, p.id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	var out []Product
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// CountProducts ignores Limit and Offset.
func (s *Store) CountProducts(ctx context.Context, f ProductFilter) (int, error) {
	where, args := f.where()
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM products p
		JOIN categories c ON c.id = p.category_id`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// UpdateProduct applies the non-nil fields of patch.
func (s *Store) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	if patch.empty() {
		return s.GetProduct(ctx, id)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, errors.New("catalog: product title is required")
	}
	if patch.Price != nil && patch.Price.Valid && patch.Price.Decimal.IsNegative() {
		return nil, errors.New("catalog: price must not be negative")
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if patch.CategoryID != nil {
		set("category_id", *patch.CategoryID)
	}
	if patch.ProductTypeID != nil {
		set("product_type_id", *patch.ProductTypeID)
	}
	if patch.Country != nil {
		set("country", strings.TrimSpace(*patch.Country))
	}
	if patch.Title != nil {
		set("title", strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		set("description", strings.TrimSpace(*patch.Description))
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Dimensions != nil {
		set("dimensions", *patch.Dimensions)
	}
	if patch.InStock != nil {
		set("in_stock", *patch.InStock)
	}
	if patch.SortOrder != nil {
		set("sort_order", *patch.SortOrder)
	}
	args = append(args, id)
	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = $` + strconv.Itoa(len(args))

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, err
	case database.ForeignKeyViolation(err):
		return nil, fmt.Errorf("category or product type: %w", ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("update product: %w", err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "product.updated",
		slog.String("status", logger.StatusOK),
		slog.Int64("product_id", id),
		slog.Int("fields", len(sets)),
	)
	return s.GetProduct(ctx, id)
}

// DeleteProduct removes the product and its photos. Leads that point at it keep their product id.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete product: %w", err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "product.deleted",
		slog.String("status", logger.StatusOK),
		slog.Int64("product_id", id),
	)
	return nil
}

// AddProductPhoto appends a photo. Marking it main clears the flag on the others.
func (s *Store) AddProductPhoto(ctx context.Context, productID int64, url string, main bool) (*ProductPhoto, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("catalog: photo url is required")
	}
	var ph ProductPhoto
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if main {
			if _, err := tx.ExecContext(ctx, `UPDATE product_photos SET is_main = FALSE WHERE product_id = $1`, productID); err != nil {
				return err
			}
		}
		return tx.GetContext(ctx, &ph, `
			INSERT INTO product_photos (product_id, photo_url, sort_order, is_main)
			VALUES ($1, $2, (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM product_photos WHERE product_id = $1), $3)
			RETURNING id, product_id, photo_url, sort_order, is_main`,
			productID, url, main)
	})
	if err != nil {
		if database.ForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("add product photo: %w", err)
	}
	return &ph, nil
}

// ListProductPhotos returns the main photo first.
func (s *Store) ListProductPhotos(ctx context.Context, productID int64) ([]ProductPhoto, error) {
	var out []ProductPhoto
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, product_id, photo_url, sort_order, is_main
		FROM product_photos
		WHERE product_id = $1
		ORDER BY is_main DESC, sort_order, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list product photos: %w", err)
	}
	return out, nil
}

// Stats counts products and categories and averages known prices.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM products) AS products,
			(SELECT COUNT(*) FROM categories) AS categories,
			(SELECT ROUND(AVG(price), 2) FROM products WHERE price IS NOT NULL) AS avg_price`)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return st, nil
}
