package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() ReportConfig {
	return ReportConfig{ReportingCurrency: "PLN", MinYear: 2020, MaxYear: 2030}
}

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func bankTxn(id string, categoryID *int, day int, amount, status string) domain.Transaction {
	return domain.Transaction{
		ID:         id,
		Source:     domain.SourceBank,
		OccurredAt: time.Date(2024, time.June, day, 12, 0, 0, 0, time.UTC),
		Amount:     dec(amount),
		Currency:   "PLN",
		Direction:  domain.DirectionExpense,
		CategoryID: categoryID,
		Status:     status,
		CreatedAt:  time.Date(2024, time.June, day, 12, 0, 0, 0, time.UTC),
	}
}

func findCategory(t *testing.T, report *domain.YearlyReport, name string) domain.CategoryReport {
	t.Helper()
	for _, category := range report.Categories {
		if category.Name == name {
			return category
		}
	}
	t.Fatalf("category %q not found in report", name)
	return domain.CategoryReport{}
}

func TestYearlyReport_YearBounds(t *testing.T) {
	service := NewReportService(
		&MockCategoryLister{}, &MockLedgerReader{},
		&MockTransactionRepository{}, &MockTransactionRepository{},
		&MockRateProvider{}, testConfig(), testLogger(),
	)

	for _, year := range []int{2019, 2031} {
		_, err := service.YearlyReport(context.Background(), year, domain.DirectionExpense, false)
		assert.Error(t, err)
		assert.True(t, pnlErrors.IsValidationError(err), "year %d should fail validation", year)
	}
	for _, year := range []int{2020, 2030} {
		report, err := service.YearlyReport(context.Background(), year, domain.DirectionExpense, false)
		assert.NoError(t, err, "year %d should be accepted", year)
		assert.NotNil(t, report)
	}
}

func TestYearlyReport_StatusFiltering(t *testing.T) {
	categories := []domain.Category{
		{ID: 4, Name: "Office", Policy: domain.PolicyAuto},
	}
	matched := bankTxn("tx-2", intPtr(4), 6, "200", domain.BankStatusPending)
	matched.Settlement = &domain.Settlement{ID: "inv-1"}
	bank := &MockTransactionRepository{Transactions: []domain.Transaction{
		bankTxn("tx-1", intPtr(4), 6, "100", domain.BankStatusApproved),
		matched,
		bankTxn("tx-4", intPtr(4), 6, "9999", domain.BankStatusPending),
	}}
	paid := bankTxn("tx-3", intPtr(4), 6, "300", domain.ProcessorStatusPaid)
	paid.Source = domain.SourceProcessor
	processor := &MockTransactionRepository{Transactions: []domain.Transaction{paid}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		bank, processor, &MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	office := findCategory(t, report, "Office")
	june := office.Months[5]
	assert.True(t, june.Amount.Equal(dec("600")), "expected June total 600, got %s", june.Amount)
	assert.Equal(t, 3, june.Count)
}

func TestYearlyReport_RefundExclusion(t *testing.T) {
	categories := []domain.Category{{ID: 1, Name: "Sales", Policy: domain.PolicyAuto}}
	settled := bankTxn("tx-2", intPtr(1), 10, "250", domain.BankStatusApproved)
	settled.Settlement = &domain.Settlement{ID: "inv-9"}
	bank := &MockTransactionRepository{
		Transactions: []domain.Transaction{
			bankTxn("tx-1", intPtr(1), 5, "100", domain.BankStatusApproved),
			settled,
			bankTxn("tx-3", intPtr(1), 15, "400", domain.BankStatusApproved),
		},
		// tx-1 refunded by its own ID, tx-2 by its linked settlement ID.
		RefundedIDs: []string{"tx-1", "inv-9"},
	}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		bank, &MockTransactionRepository{}, &MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	sales := findCategory(t, report, "Sales")
	assert.True(t, sales.Total.Equal(dec("400")), "expected only tx-3 to survive, got %s", sales.Total)
}

func TestYearlyReport_ManualCategoryUsesLedgerOnly(t *testing.T) {
	categories := []domain.Category{
		{ID: 7, Name: "Consulting", Policy: domain.PolicyManual},
	}
	// A transaction wrongly pointing at a manual category must not contribute.
	bank := &MockTransactionRepository{Transactions: []domain.Transaction{
		bankTxn("tx-1", intPtr(7), 6, "5000", domain.BankStatusApproved),
	}}
	ledger := &MockLedgerReader{Data: map[int]map[int][]domain.ManualEntry{
		7: {3: {{ID: "e1", CategoryID: 7, Year: 2024, Month: 3, Amount: dec("1000")}}},
	}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, ledger,
		bank, &MockTransactionRepository{}, &MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	consulting := findCategory(t, report, "Consulting")
	assert.True(t, consulting.Months[2].Amount.Equal(dec("1000")), "expected ledger figure, got %s", consulting.Months[2].Amount)
	assert.True(t, consulting.Months[5].Amount.IsZero(), "transaction must not leak into a manual category")
	assert.True(t, consulting.Total.Equal(dec("1000")))
}

func TestYearlyReport_ManualMultipleEntriesPerMonthAreSummed(t *testing.T) {
	categories := []domain.Category{{ID: 3, Name: "Rent", Policy: domain.PolicyManual}}
	ledger := &MockLedgerReader{Data: map[int]map[int][]domain.ManualEntry{
		3: {6: {
			{ID: "e1", Amount: dec("100")},
			{ID: "e2", Amount: dec("200")},
			{ID: "e3", Amount: dec("300")},
		}},
	}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, ledger,
		&MockTransactionRepository{}, &MockTransactionRepository{},
		&MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	rent := findCategory(t, report, "Rent")
	assert.True(t, rent.Months[5].Amount.Equal(dec("600")), "expected 600, got %s", rent.Months[5].Amount)
	assert.Equal(t, 3, rent.Months[5].Count)
}

func TestYearlyReport_CurrencyConversionPriority(t *testing.T) {
	categories := []domain.Category{{ID: 1, Name: "Export", Policy: domain.PolicyAuto}}

	settledAmount := bankTxn("tx-1", intPtr(1), 2, "100", domain.BankStatusApproved)
	settledAmount.Currency = "EUR"
	settledAmount.Settlement = &domain.Settlement{ID: "inv-1", ConvertedAmount: decPtr("430"), ExchangeRate: decPtr("9.99")}

	settledRate := bankTxn("tx-2", intPtr(1), 3, "100", domain.BankStatusApproved)
	settledRate.Currency = "EUR"
	settledRate.Settlement = &domain.Settlement{ID: "inv-2", ExchangeRate: decPtr("4.5")}

	passThrough := bankTxn("tx-3", intPtr(1), 4, "100", domain.BankStatusApproved)

	lookedUp := bankTxn("tx-4", intPtr(1), 5, "100", domain.BankStatusApproved)
	lookedUp.Currency = "EUR"

	unconvertible := bankTxn("tx-5", intPtr(1), 6, "100", domain.BankStatusApproved)
	unconvertible.Currency = "XXX"

	bank := &MockTransactionRepository{Transactions: []domain.Transaction{
		settledAmount, settledRate, passThrough, lookedUp, unconvertible,
	}}
	rates := &MockRateProvider{Rates: map[string]decimal.Decimal{"EUR/PLN": dec("4.3")}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		bank, &MockTransactionRepository{}, rates, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	export := findCategory(t, report, "Export")
	june := export.Months[5]
	// 430 (settlement amount) + 450 (settlement rate) + 100 (pass-through) + 430 (lookup)
	assert.True(t, june.Amount.Equal(dec("1410")), "expected 1410, got %s", june.Amount)
	assert.Equal(t, 4, june.Count)
	// Only tx-4 needed a lookup; the settlement and same-currency rows must not.
	assert.Equal(t, 1, rates.Calls)
	assert.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "tx-5")
}

func TestYearlyReport_BreakdownSumsNativeAmounts(t *testing.T) {
	categories := []domain.Category{{ID: 1, Name: "Export", Policy: domain.PolicyAuto}}
	first := bankTxn("tx-1", intPtr(1), 2, "100", domain.BankStatusApproved)
	first.Currency = "EUR"
	second := bankTxn("tx-2", intPtr(1), 3, "50", domain.BankStatusApproved)
	second.Currency = "EUR"
	bank := &MockTransactionRepository{Transactions: []domain.Transaction{first, second}}
	rates := &MockRateProvider{Rates: map[string]decimal.Decimal{"EUR/PLN": dec("4")}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		bank, &MockTransactionRepository{}, rates, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, true)
	assert.NoError(t, err)

	june := findCategory(t, report, "Export").Months[5]
	assert.True(t, june.Amount.Equal(dec("600")))
	assert.True(t, june.Breakdown["EUR"].Equal(dec("150")), "expected native EUR 150, got %s", june.Breakdown["EUR"])
}

func TestYearlyReport_GrandTotalEqualsCategorySum(t *testing.T) {
	categories := []domain.Category{
		{ID: 1, Name: "Alpha", Policy: domain.PolicyAuto},
		{ID: 2, Name: "Beta", Policy: domain.PolicyManual},
	}
	bank := &MockTransactionRepository{Transactions: []domain.Transaction{
		bankTxn("tx-1", intPtr(1), 2, "123.45", domain.BankStatusApproved),
		bankTxn("tx-2", nil, 9, "10.55", domain.BankStatusApproved),
	}}
	ledger := &MockLedgerReader{Data: map[int]map[int][]domain.ManualEntry{
		2: {1: {{ID: "e1", Amount: dec("999.99")}}},
	}}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, ledger,
		bank, &MockTransactionRepository{}, &MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	sum := decimal.Zero
	for _, category := range report.Categories {
		sum = sum.Add(category.Total)
	}
	assert.True(t, report.Total.Equal(sum), "grand total %s != category sum %s", report.Total, sum)
	assert.True(t, report.Total.Equal(dec("1133.99")))
}

func TestYearlyReport_OrderingAndUncategorizedLast(t *testing.T) {
	categories := []domain.Category{
		{ID: 1, Name: "Zeta", Policy: domain.PolicyAuto, DisplayOrder: intPtr(1)},
		{ID: 2, Name: "Alpha", Policy: domain.PolicyAuto},
		{ID: 3, Name: "Mid", Policy: domain.PolicyAuto, DisplayOrder: intPtr(2)},
	}
	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		&MockTransactionRepository{}, &MockTransactionRepository{},
		&MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionRevenue, false)
	assert.NoError(t, err)

	names := make([]string, len(report.Categories))
	for i, category := range report.Categories {
		names[i] = category.Name
	}
	assert.Equal(t, []string{"Zeta", "Mid", "Alpha", domain.UncategorizedName}, names)
	assert.Nil(t, report.Categories[len(report.Categories)-1].CategoryID)
}

func TestYearlyReport_SourceUnavailableDegrades(t *testing.T) {
	categories := []domain.Category{{ID: 1, Name: "Ops", Policy: domain.PolicyAuto}}
	paid := bankTxn("tx-1", intPtr(1), 6, "75", domain.ProcessorStatusPaid)
	paid.Source = domain.SourceProcessor

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		&MockTransactionRepository{Err: context.DeadlineExceeded},
		&MockTransactionRepository{Transactions: []domain.Transaction{paid}},
		&MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err, "a single unreachable source must not abort the report")

	ops := findCategory(t, report, "Ops")
	assert.True(t, ops.Months[5].Amount.Equal(dec("75")), "processor data must still be reported")
	assert.NotEmpty(t, report.Warnings)
}

func TestYearlyReport_ManualLedgerUnavailableFlagsCategory(t *testing.T) {
	categories := []domain.Category{
		{ID: 1, Name: "Ops", Policy: domain.PolicyAuto},
		{ID: 2, Name: "Consulting", Policy: domain.PolicyManual},
	}
	service := NewReportService(
		&MockCategoryLister{Categories: categories},
		&MockLedgerReader{Err: context.DeadlineExceeded},
		&MockTransactionRepository{}, &MockTransactionRepository{},
		&MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionRevenue, false)
	assert.NoError(t, err)

	consulting := findCategory(t, report, "Consulting")
	assert.True(t, consulting.Unavailable, "manual category must carry an explicit partial-failure marker")
	ops := findCategory(t, report, "Ops")
	assert.False(t, ops.Unavailable)
	assert.NotEmpty(t, report.Warnings)
}

func TestYearlyReport_RoundsOnlyAtPresentation(t *testing.T) {
	categories := []domain.Category{{ID: 1, Name: "Export", Policy: domain.PolicyAuto}}
	first := bankTxn("tx-1", intPtr(1), 2, "10.555", domain.BankStatusApproved)
	first.Currency = "EUR"
	first.Settlement = &domain.Settlement{ID: "inv-1", ExchangeRate: decPtr("1.005")}
	second := bankTxn("tx-2", intPtr(1), 3, "10.555", domain.BankStatusApproved)
	second.Currency = "EUR"
	second.Settlement = &domain.Settlement{ID: "inv-2", ExchangeRate: decPtr("1.005")}

	service := NewReportService(
		&MockCategoryLister{Categories: categories}, &MockLedgerReader{},
		&MockTransactionRepository{Transactions: []domain.Transaction{first, second}},
		&MockTransactionRepository{}, &MockRateProvider{}, testConfig(), testLogger(),
	)

	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionExpense, false)
	assert.NoError(t, err)

	export := findCategory(t, report, "Export")
	// 10.555*1.005 = 10.607775 per transaction; the category total is rounded
	// from the full-precision sum 21.21555, not from two pre-rounded months.
	assert.True(t, export.Total.Equal(dec("21.22")), "expected 21.22, got %s", export.Total)
}

func TestYearlyReport_UpsertReplacesRevenueFigure(t *testing.T) {
	categories := []domain.Category{{ID: 9, Name: "Licensing", Policy: domain.PolicyManual}}
	repo := NewMockManualEntryRepository()
	resolver := &MockCategoryLister{Categories: categories}
	ledger := NewLedgerService(repo, &listerResolver{lister: resolver}, 2020, 2030, testLogger())

	_, err := ledger.UpsertRevenueEntry(context.Background(), 9, 2024, 3, dec("1000"), nil, "")
	assert.NoError(t, err)

	service := NewReportService(
		resolver, ledger,
		&MockTransactionRepository{}, &MockTransactionRepository{},
		&MockRateProvider{}, testConfig(), testLogger(),
	)
	report, err := service.YearlyReport(context.Background(), 2024, domain.DirectionRevenue, false)
	assert.NoError(t, err)
	licensing := findCategory(t, report, "Licensing")
	assert.True(t, licensing.Months[2].Amount.Equal(dec("1000")), "got %s", licensing.Months[2].Amount)

	_, err = ledger.UpsertRevenueEntry(context.Background(), 9, 2024, 3, dec("1500"), nil, "")
	assert.NoError(t, err)

	report, err = service.YearlyReport(context.Background(), 2024, domain.DirectionRevenue, false)
	assert.NoError(t, err)
	licensing = findCategory(t, report, "Licensing")
	assert.True(t, licensing.Months[2].Amount.Equal(dec("1500")), "upsert must replace, not add; got %s", licensing.Months[2].Amount)
}

// listerResolver adapts a MockCategoryLister to the CategoryResolver the
// ledger service expects.
type listerResolver struct {
	lister *MockCategoryLister
}

func (r *listerResolver) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	categories, err := r.lister.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		if category.ID == id {
			category := category
			return &category, nil
		}
	}
	return nil, pnlErrors.ErrCategoryNotFound
}
