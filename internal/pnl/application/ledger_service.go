package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

type CategoryResolver interface {
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
}

// LedgerService is the authoritative store for manual-policy categories. It
// guarantees a manual figure can never silently apply to an auto-managed
// category. Write failures are surfaced unmodified: a write that silently
// no-ops is worse than a read that silently shows zero.
type LedgerService struct {
	repo       domain.ManualEntryRepository
	categories CategoryResolver
	minYear    int
	maxYear    int
	logger     *slog.Logger
}

func NewLedgerService(repo domain.ManualEntryRepository, categories CategoryResolver, minYear, maxYear int, logger *slog.Logger) *LedgerService {
	return &LedgerService{repo: repo, categories: categories, minYear: minYear, maxYear: maxYear, logger: logger}
}

func (s *LedgerService) validatePeriod(year, month int) error {
	if year < s.minYear || year > s.maxYear {
		return pnlErrors.NewValidationError(
			fmt.Sprintf("Year must be between %d and %d", s.minYear, s.maxYear))
	}
	if month < 1 || month > 12 {
		return pnlErrors.NewValidationError("Month must be between 1 and 12")
	}
	return nil
}

func (s *LedgerService) resolveManualCategory(ctx context.Context, categoryID int) (*domain.Category, error) {
	category, err := s.categories.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.Policy != domain.PolicyManual {
		return nil, pnlErrors.NewPolicyViolationError(
			fmt.Sprintf("Category %q is managed automatically; manual entries are not allowed", category.Name))
	}
	return category, nil
}

// UpsertRevenueEntry writes the single revenue figure for (category, year,
// month). Repeating the call replaces the amount; it never creates a second
// record for the same key.
func (s *LedgerService) UpsertRevenueEntry(ctx context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	if err := s.validatePeriod(year, month); err != nil {
		return nil, err
	}
	if _, err := s.resolveManualCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	entry := domain.ManualEntry{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Direction:  domain.DirectionRevenue,
		Year:       year,
		Month:      month,
		Amount:     amount,
		Breakdown:  breakdown,
		Note:       note,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	stored, err := s.repo.UpsertByPeriod(ctx, entry)
	if err != nil {
		return nil, err
	}
	s.logger.Info("upserted revenue entry", "category_id", categoryID, "year", year, "month", month)
	return stored, nil
}

// CreateExpenseEntry always inserts a new record; several discrete outlays in
// one month are expected and must remain individually editable.
func (s *LedgerService) CreateExpenseEntry(ctx context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	if err := s.validatePeriod(year, month); err != nil {
		return nil, err
	}
	if _, err := s.resolveManualCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	entry := domain.ManualEntry{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Direction:  domain.DirectionExpense,
		Year:       year,
		Month:      month,
		Amount:     amount,
		Breakdown:  breakdown,
		Note:       note,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("created expense entry", "category_id", categoryID, "year", year, "month", month, "entry_id", entry.ID)
	return &entry, nil
}

func (s *LedgerService) GetEntry(ctx context.Context, id string) (*domain.ManualEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, pnlErrors.ErrEntryNotFound
	}
	return entry, nil
}

func (s *LedgerService) ListEntries(ctx context.Context, categoryID, year int, direction domain.Direction) ([]domain.ManualEntry, error) {
	if !direction.Valid() {
		return nil, pnlErrors.NewValidationError("Direction must be 'revenue' or 'expense'")
	}
	if _, err := s.resolveManualCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	entries, err := s.repo.FindByCategoryAndYear(ctx, categoryID, year, direction)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		return []domain.ManualEntry{}, nil
	}
	return entries, nil
}

// ListByCategoriesAndPeriod returns category -> month -> entries for the
// aggregator, one query instead of one per category.
func (s *LedgerService) ListByCategoriesAndPeriod(ctx context.Context, categoryIDs []int, year int, direction domain.Direction) (map[int]map[int][]domain.ManualEntry, error) {
	byCategory, err := s.repo.FindByCategoriesAndYear(ctx, categoryIDs, year, direction)
	if err != nil {
		return nil, err
	}
	result := make(map[int]map[int][]domain.ManualEntry, len(byCategory))
	for categoryID, entries := range byCategory {
		months := make(map[int][]domain.ManualEntry)
		for _, entry := range entries {
			months[entry.Month] = append(months[entry.Month], entry)
		}
		result[categoryID] = months
	}
	return result, nil
}

// UpdateEntry mutates amount, breakdown and note. The category/period key is
// immutable once created; changing the period means delete and recreate.
func (s *LedgerService) UpdateEntry(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Direction == domain.DirectionRevenue && amount.IsNegative() {
		return nil, pnlErrors.NewValidationError("Revenue amount must not be negative")
	}
	if len(note) > 500 {
		return nil, pnlErrors.NewValidationError("Note must be of length less than 501")
	}
	if err := s.repo.UpdateByID(ctx, id, amount, breakdown, note); err != nil {
		return nil, err
	}
	entry.Amount = amount
	entry.Breakdown = breakdown
	entry.Note = note
	entry.UpdatedAt = time.Now().UTC()
	return entry, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.GetEntry(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteByID(ctx, id)
}

func (s *LedgerService) DeleteByPeriod(ctx context.Context, categoryID, year, month int, direction domain.Direction) error {
	if err := s.validatePeriod(year, month); err != nil {
		return err
	}
	if !direction.Valid() {
		return pnlErrors.NewValidationError("Direction must be 'revenue' or 'expense'")
	}
	deleted, err := s.repo.DeleteByPeriod(ctx, categoryID, year, month, direction)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return pnlErrors.ErrEntryNotFound
	}
	return nil
}
