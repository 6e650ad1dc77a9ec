package infrastructure

import (
	"context"
	"database/sql"
	"errors"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, policy, display_order, created_at, updated_at FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, policy, display_order, created_at, updated_at FROM categories WHERE id = $1`, id)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) ExistsByName(ctx context.Context, name string, excludeID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE lower(name) = lower($1) AND id <> $2)`, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *CategoryRepository) Save(ctx context.Context, category *domain.Category) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name, description, policy, display_order, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		category.Name, category.Description, category.Policy, category.DisplayOrder,
		category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, description = $2, policy = $3, updated_at = $4 WHERE id = $5`,
		category.Name, category.Description, category.Policy, category.UpdatedAt, category.ID)
	return err
}

func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}

// SwapDisplayOrder writes both orders in one statement so concurrent readers
// never observe a half-applied swap.
func (r *CategoryRepository) SwapDisplayOrder(ctx context.Context, firstID, firstOrder, secondID, secondOrder int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE categories
         SET display_order = CASE id WHEN $1 THEN $2 WHEN $3 THEN $4 END, updated_at = now()
         WHERE id IN ($1, $3)`,
		firstID, firstOrder, secondID, secondOrder)
	return err
}

// HasDisplayOrder checks the live schema; deployments that predate the
// ordering column fall back to alphabetical listing and refuse reorders.
func (r *CategoryRepository) HasDisplayOrder(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(
            SELECT 1 FROM information_schema.columns
            WHERE table_name = 'categories' AND column_name = 'display_order')`).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var category domain.Category
	var displayOrder sql.NullInt64
	if err := row.Scan(&category.ID, &category.Name, &category.Description, &category.Policy,
		&displayOrder, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return nil, err
	}
	if displayOrder.Valid {
		order := int(displayOrder.Int64)
		category.DisplayOrder = &order
	}
	return &category, nil
}
