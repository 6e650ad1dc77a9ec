package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

type CategoryLister interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type LedgerReader interface {
	ListByCategoriesAndPeriod(ctx context.Context, categoryIDs []int, year int, direction domain.Direction) (map[int]map[int][]domain.ManualEntry, error)
}

type ReportConfig struct {
	ReportingCurrency string
	MinYear           int
	MaxYear           int
}

// ReportService merges transaction-source data and manual-ledger data per
// category per month into the canonical yearly report. It is stateless
// between requests: every report reflects the stores at request time.
type ReportService struct {
	categories CategoryLister
	ledger     LedgerReader
	bank       domain.TransactionRepository
	processor  domain.TransactionRepository
	rates      domain.RateProvider
	cfg        ReportConfig
	logger     *slog.Logger
}

func NewReportService(categories CategoryLister, ledger LedgerReader, bank, processor domain.TransactionRepository, rates domain.RateProvider, cfg ReportConfig, logger *slog.Logger) *ReportService {
	return &ReportService{
		categories: categories,
		ledger:     ledger,
		bank:       bank,
		processor:  processor,
		rates:      rates,
		cfg:        cfg,
		logger:     logger,
	}
}

// monthAccumulator keeps full-precision sums; rounding happens once, at the
// presentation boundary, to avoid compounding rounding error.
type monthAccumulator struct {
	sum       decimal.Decimal
	count     int
	breakdown map[string]decimal.Decimal
}

type categoryAccumulator struct {
	months [12]monthAccumulator
}

func (a *categoryAccumulator) add(month int, amount decimal.Decimal, count int) {
	acc := &a.months[month-1]
	acc.sum = acc.sum.Add(amount)
	acc.count += count
}

func (a *categoryAccumulator) addBreakdown(month int, breakdown map[string]decimal.Decimal) {
	acc := &a.months[month-1]
	if acc.breakdown == nil {
		acc.breakdown = make(map[string]decimal.Decimal)
	}
	for currency, amount := range breakdown {
		acc.breakdown[currency] = acc.breakdown[currency].Add(amount)
	}
}

// YearlyReport produces the ordered category list with 12 monthly totals, a
// yearly total per category and a grand total, in the reporting currency.
// Read-only; an invalid year is the only whole-report failure.
func (s *ReportService) YearlyReport(ctx context.Context, year int, direction domain.Direction, withBreakdown bool) (*domain.YearlyReport, error) {
	if year < s.cfg.MinYear || year > s.cfg.MaxYear {
		return nil, pnlErrors.NewValidationError(
			fmt.Sprintf("Year must be between %d and %d", s.cfg.MinYear, s.cfg.MaxYear))
	}
	if !direction.Valid() {
		return nil, pnlErrors.NewValidationError("Direction must be 'revenue' or 'expense'")
	}

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	autoIDs := make(map[int]bool)
	manualIDs := make([]int, 0)
	manualSet := make(map[int]bool)
	for _, category := range categories {
		switch category.Policy {
		case domain.PolicyManual:
			manualIDs = append(manualIDs, category.ID)
			manualSet[category.ID] = true
		default:
			autoIDs[category.ID] = true
		}
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	// The two branches are pure reads with no data dependency on each other;
	// they only meet at merge time.
	var (
		transactions   []domain.Transaction
		refunded       map[string]struct{}
		sourceWarnings []string
		manualData     map[int]map[int][]domain.ManualEntry
		manualErr      error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		transactions, refunded, sourceWarnings = s.loadTransactions(groupCtx, direction, from, to)
		return nil
	})
	group.Go(func() error {
		if len(manualIDs) == 0 {
			return nil
		}
		manualData, manualErr = s.ledger.ListByCategoriesAndPeriod(groupCtx, manualIDs, year, direction)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	warnings := append([]string{}, sourceWarnings...)

	accumulators := make(map[int]*categoryAccumulator)
	accumulatorFor := func(key int) *categoryAccumulator {
		acc, ok := accumulators[key]
		if !ok {
			acc = &categoryAccumulator{}
			accumulators[key] = acc
		}
		return acc
	}

	for _, transaction := range transactions {
		if transaction.Deleted() || !transaction.Eligible() {
			continue
		}
		if s.isRefunded(transaction, refunded) {
			continue
		}
		key := 0
		if transaction.CategoryID != nil {
			key = *transaction.CategoryID
		}
		if manualSet[key] {
			// The manual ledger is authoritative for this category; transaction
			// data must never contribute to it.
			continue
		}
		if key != 0 && !autoIDs[key] {
			key = 0
		}
		amount, ok, warning := s.convertAmount(ctx, transaction)
		if !ok {
			warnings = append(warnings, warning)
			continue
		}
		acc := accumulatorFor(key)
		acc.add(transaction.Month(), amount, 1)
		if withBreakdown {
			acc.addBreakdown(transaction.Month(), map[string]decimal.Decimal{transaction.Currency: transaction.Amount})
		}
	}

	unavailable := make(map[int]bool)
	if manualErr != nil {
		s.logger.Warn("manual ledger unavailable, manual categories flagged", "year", year, "error", manualErr)
		for _, id := range manualIDs {
			unavailable[id] = true
		}
		warnings = append(warnings, "manual ledger unavailable: manual categories carry no figures for this report")
	} else {
		for categoryID, months := range manualData {
			acc := accumulatorFor(categoryID)
			for month, entries := range months {
				for _, entry := range entries {
					acc.add(month, entry.Amount, 1)
					if withBreakdown && len(entry.Breakdown) > 0 {
						acc.addBreakdown(month, entry.Breakdown)
					}
				}
			}
		}
	}

	report := &domain.YearlyReport{
		Year:      year,
		Direction: direction,
	}
	grandTotal := decimal.Zero
	appendCategory := func(categoryID *int, name string, policy domain.CategoryPolicy, acc *categoryAccumulator, failed bool) error {
		categoryReport := domain.CategoryReport{
			CategoryID:  categoryID,
			Name:        name,
			Policy:      policy,
			Months:      make([]domain.MonthTotal, 12),
			Unavailable: failed,
		}
		total := decimal.Zero
		for month := 1; month <= 12; month++ {
			monthTotal := domain.MonthTotal{Month: month, Amount: decimal.Zero}
			if acc != nil {
				bucket := acc.months[month-1]
				monthTotal.Amount = bucket.sum
				monthTotal.Count = bucket.count
				if len(bucket.breakdown) > 0 {
					monthTotal.Breakdown = roundBreakdown(bucket.breakdown)
				}
				total = total.Add(bucket.sum)
			}
			categoryReport.Months[month-1] = monthTotal
		}
		monthSum := decimal.Zero
		for _, monthTotal := range categoryReport.Months {
			monthSum = monthSum.Add(monthTotal.Amount)
		}
		if !monthSum.Equal(total) {
			return pnlErrors.NewInvariantViolationError(
				fmt.Sprintf("category %q yearly total diverges from its monthly sums", name))
		}
		for month := range categoryReport.Months {
			categoryReport.Months[month].Amount = categoryReport.Months[month].Amount.Round(2)
		}
		categoryReport.Total = total.Round(2)
		// The grand total is the sum of the category totals as presented, not
		// an independent pass over raw data, so the two stay mechanically
		// consistent after rounding.
		grandTotal = grandTotal.Add(categoryReport.Total)
		report.Categories = append(report.Categories, categoryReport)
		return nil
	}

	for _, category := range categories {
		category := category
		if err := appendCategory(&category.ID, category.Name, category.Policy, accumulators[category.ID], unavailable[category.ID]); err != nil {
			return nil, err
		}
	}
	// Synthetic bucket for transactions without a category reference, always last.
	if err := appendCategory(nil, domain.UncategorizedName, domain.PolicyAuto, accumulators[0], false); err != nil {
		return nil, err
	}

	checksum := decimal.Zero
	for _, categoryReport := range report.Categories {
		checksum = checksum.Add(categoryReport.Total)
	}
	if !checksum.Equal(grandTotal) {
		return nil, pnlErrors.NewInvariantViolationError("grand total diverges from the sum of category totals")
	}
	report.Total = grandTotal
	report.Warnings = warnings
	return report, nil
}

func (s *ReportService) isRefunded(transaction domain.Transaction, refunded map[string]struct{}) bool {
	if _, ok := refunded[transaction.ID]; ok {
		return true
	}
	if transaction.Settlement != nil {
		if _, ok := refunded[transaction.Settlement.ID]; ok {
			return true
		}
	}
	return false
}

// loadTransactions reads both sources and the refund feeds. A source that
// cannot be reached degrades to a warning; partial availability must not
// block the rest of the report.
func (s *ReportService) loadTransactions(ctx context.Context, direction domain.Direction, from, to time.Time) ([]domain.Transaction, map[string]struct{}, []string) {
	var warnings []string
	var transactions []domain.Transaction
	refunded := make(map[string]struct{})
	reasons := []domain.RefundReason{domain.ReasonRefunded, domain.ReasonVoided}

	sources := []struct {
		name string
		repo domain.TransactionRepository
	}{
		{name: string(domain.SourceBank), repo: s.bank},
		{name: string(domain.SourceProcessor), repo: s.processor},
	}
	for _, source := range sources {
		rows, err := source.repo.FindByDirectionAndRange(ctx, direction, from, to)
		if err != nil {
			s.logger.Warn("transaction source unavailable", "source", source.name, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s transaction source unavailable: affected categories report zero", source.name))
			continue
		}
		transactions = append(transactions, rows...)

		ids, err := source.repo.FindRefundedIDs(ctx, from, to, reasons)
		if err != nil {
			s.logger.Warn("refund feed unavailable", "source", source.name, "error", err)
			warnings = append(warnings, fmt.Sprintf("%s refund feed unavailable: refunded transactions may be included", source.name))
			continue
		}
		for _, id := range ids {
			refunded[id] = struct{}{}
		}
	}
	return transactions, refunded, warnings
}

// convertAmount converts a transaction into the reporting currency. Priority:
// the settlement's converted amount, then the settlement's exchange rate,
// then pass-through for amounts already in the reporting currency, then a
// rate lookup by currency pair and event date. A transaction that cannot be
// converted is excluded with a warning; partial data beats a silently wrong
// number.
func (s *ReportService) convertAmount(ctx context.Context, transaction domain.Transaction) (decimal.Decimal, bool, string) {
	if transaction.Settlement != nil {
		if transaction.Settlement.ConvertedAmount != nil {
			return *transaction.Settlement.ConvertedAmount, true, ""
		}
		if transaction.Settlement.ExchangeRate != nil {
			return transaction.Amount.Mul(*transaction.Settlement.ExchangeRate), true, ""
		}
	}
	if transaction.Currency == s.cfg.ReportingCurrency {
		return transaction.Amount, true, ""
	}
	if s.rates != nil {
		rate, err := s.rates.GetRate(ctx, transaction.Currency, s.cfg.ReportingCurrency, transaction.OccurredAt)
		if err == nil {
			return transaction.Amount.Mul(rate), true, ""
		}
		s.logger.Warn("rate lookup failed", "transaction_id", transaction.ID, "currency", transaction.Currency, "error", err)
	}
	return decimal.Zero, false, fmt.Sprintf(
		"transaction %s excluded: no %s/%s conversion available", transaction.ID, transaction.Currency, s.cfg.ReportingCurrency)
}

func roundBreakdown(breakdown map[string]decimal.Decimal) map[string]decimal.Decimal {
	rounded := make(map[string]decimal.Decimal, len(breakdown))
	for currency, amount := range breakdown {
		rounded[currency] = amount.Round(2)
	}
	return rounded
}
