package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

// CategoryPolicy decides which subsystem is authoritative for a category's
// figures: "auto" categories are derived from transaction records, "manual"
// categories are fed from the manual ledger. The two are mutually exclusive
// per category per reporting period.
type CategoryPolicy string

const (
	PolicyAuto   CategoryPolicy = "auto"
	PolicyManual CategoryPolicy = "manual"
)

// UncategorizedName is the display name of the synthetic category that
// collects transactions without a category reference. It always sorts last.
const UncategorizedName = "Uncategorized"

type Category struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Policy       CategoryPolicy `json:"policy"`
	DisplayOrder *int           `json:"display_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return pnlErrors.NewValidationError("Category name must not be empty")
	}
	if len(c.Name) > 255 {
		return pnlErrors.NewValidationError("Category name must be of length less than 256")
	}
	if c.Policy != PolicyAuto && c.Policy != PolicyManual {
		return pnlErrors.NewValidationError("Category policy must be 'auto' or 'manual'")
	}
	return nil
}

// SortCategories orders categories by explicit display order ascending, ties
// and missing orders broken alphabetically by name. Categories without a
// display order sort after those that have one.
func SortCategories(categories []Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		oi, oj := categories[i].DisplayOrder, categories[j].DisplayOrder
		switch {
		case oi != nil && oj != nil && *oi != *oj:
			return *oi < *oj
		case oi != nil && oj == nil:
			return true
		case oi == nil && oj != nil:
			return false
		}
		return strings.ToLower(categories[i].Name) < strings.ToLower(categories[j].Name)
	})
}

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]Category, error)
	FindByID(ctx context.Context, id int) (*Category, error)
	ExistsByName(ctx context.Context, name string, excludeID int) (bool, error)
	Save(ctx context.Context, category *Category) error
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id int) error
	// SwapDisplayOrder assigns both orders in a single statement so a reorder
	// cannot be observed half-applied.
	SwapDisplayOrder(ctx context.Context, firstID, firstOrder, secondID, secondOrder int) error
	// HasDisplayOrder reports whether the underlying schema carries the
	// display_order column; listing falls back to alphabetical when it does not.
	HasDisplayOrder(ctx context.Context) (bool, error)
}
