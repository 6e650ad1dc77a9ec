package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

// ManualEntry is a hand-entered monthly figure for a manual-policy category.
// Revenue entries are unique per (category, year, month) and written through
// an upsert; expense entries may repeat per period, each independently
// identified, so discrete cash outlays stay individually editable.
type ManualEntry struct {
	ID         string                     `json:"id"`
	CategoryID int                        `json:"category_id"`
	Direction  Direction                  `json:"direction"`
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
	Amount     decimal.Decimal            `json:"amount"`
	Breakdown  map[string]decimal.Decimal `json:"breakdown,omitempty"`
	Note       string                     `json:"note"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

func (e *ManualEntry) Validate() error {
	if !e.Direction.Valid() {
		return pnlErrors.NewValidationError("Direction must be 'revenue' or 'expense'")
	}
	if e.Month < 1 || e.Month > 12 {
		return pnlErrors.NewValidationError("Month must be between 1 and 12")
	}
	if e.Direction == DirectionRevenue && e.Amount.IsNegative() {
		return pnlErrors.NewValidationError("Revenue amount must not be negative")
	}
	if len(e.Note) > 500 {
		return pnlErrors.NewValidationError("Note must be of length less than 501")
	}
	return nil
}

type ManualEntryRepository interface {
	// UpsertByPeriod inserts or replaces the single revenue entry for the
	// entry's (category, year, month) key as one atomic conditional write.
	UpsertByPeriod(ctx context.Context, entry ManualEntry) (*ManualEntry, error)
	Insert(ctx context.Context, entry ManualEntry) error
	FindByID(ctx context.Context, id string) (*ManualEntry, error)
	FindByCategoryAndYear(ctx context.Context, categoryID, year int, direction Direction) ([]ManualEntry, error)
	FindByCategoriesAndYear(ctx context.Context, categoryIDs []int, year int, direction Direction) (map[int][]ManualEntry, error)
	UpdateByID(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByPeriod(ctx context.Context, categoryID, year, month int, direction Direction) (int, error)
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}
