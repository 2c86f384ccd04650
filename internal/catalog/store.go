package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/furnibot/core/database"
	"github.com/m3rciful/furnibot/core/logger"
)

// Store is the PostgreSQL-backed catalog. Every write runs in its own transaction.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const categoryColumns = `id, slug, name, parent_id, sort_order`

// CreateCategory inserts a category. Duplicate slug or name yields a
// *ConflictError; an unknown parent yields ErrNotFound.
func (s *Store) CreateCategory(ctx context.Context, in NewCategory) (*Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("catalog: category name is required")
	}
	if in.Slug == "" {
		in.Slug = MakeSlug(in.Name)
	}
	if !ValidSlug(in.Slug) {
		return nil, fmt.Errorf("%w %q", ErrInvalidSlug, in.Slug)
	}

	var c Category
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &c, `
			INSERT INTO categories (slug, name, parent_id, sort_order)
			VALUES ($1, $2, $3, $4)
			RETURNING `+categoryColumns,
			in.Slug, in.Name, in.ParentID, in.SortOrder)
	})
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok {
			field := conflictField(constraint)
			value := in.Slug
			if field == "name" {
				value = in.Name
			}
			return nil, &ConflictError{Entity: "category", Field: field, Value: value}
		}
		if database.ForeignKeyViolation(err) {
			return nil, fmt.Errorf("parent category: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "category.created",
		slog.String("status", logger.StatusOK),
		slog.Int64("category_id", c.ID),
		slog.String("category", c.Slug),
	)
	return &c, nil
}

// ListCategories returns the children of parentID, or the roots when it is nil,
// ordered by sort_order then name.
func (s *Store) ListCategories(ctx context.Context, parentID *int64) ([]Category, error) {
	var (
		out []Category
		err error
	)
	if parentID == nil {
		err = s.db.SelectContext(ctx, &out, `
			SELECT `+categoryColumns+` FROM categories
			WHERE parent_id IS NULL
			ORDER BY sort_order, name`)
	} else {
		err = s.db.SelectContext(ctx, &out, `
			SELECT `+categoryColumns+` FROM categories
			WHERE parent_id = $1
			ORDER BY sort_order, name`, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// ListAllCategories returns the whole tree flattened, roots first.
func (s *Store) ListAllCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.db.SelectContext(ctx, &out, `
		SELECT `+categoryColumns+` FROM categories
		ORDER BY parent_id NULLS FIRST, sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list all categories: %w", err)
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*Category, error) {
	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.getCategory(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
}

func (s *Store) getCategory(ctx context.Context, query string, arg any) (*Category, error) {
	var c Category
	if err := s.db.GetContext(ctx, &c, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *Store) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// DeleteCategory removes the category; child categories, their products and
// photos go with it through ON DELETE CASCADE.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete category: %w", err)
	}
	logger.LogEvent(ctx, logger.Catalog, slog.LevelInfo, "category.deleted",
		slog.String("status", logger.StatusOK),
		slog.Int64("category_id", id),
	)
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const productTypeColumns = `id, name, slug, description`

func (s *Store) CreateProductType(ctx context.Context, in NewProductType) (*ProductType, error) {
	if in.Slug == "" {
		in.Slug = MakeSlug(in.Name)
	}
	var desc *string
	if d := strings.TrimSpace(in.Description); d != "" {
		desc = &d
	}
	var pt ProductType
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &pt, `
			INSERT INTO product_types (name, slug, description)
			VALUES ($1, $2, $3)
			RETURNING `+productTypeColumns,
			strings.TrimSpace(in.Name), in.Slug, desc)
	})
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok {
			return nil, &ConflictError{Entity: "product type", Field: conflictField(constraint), Value: in.Slug}
		}
		return nil, fmt.Errorf("create product type: %w", err)
	}
	return &pt, nil
}

func (s *Store) ListProductTypes(ctx context.Context) ([]ProductType, error) {
	var out []ProductType
	if err := s.db.SelectContext(ctx, &out, `SELECT `+productTypeColumns+` FROM product_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list product types: %w", err)
	}
	return out, nil
}

func (s *Store) GetProductTypeBySlug(ctx context.Context, slug string) (*ProductType, error) {
	var pt ProductType
	err := s.db.GetContext(ctx, &pt, `SELECT `+productTypeColumns+` FROM product_types WHERE slug = $1`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product type: %w", err)
	}
	return &pt, nil
}
