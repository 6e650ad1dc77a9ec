package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

// TransactionStore reads the imported rows of one transaction feed. The
// import jobs that fill these tables are external collaborators; the store is
// read-only apart from them. One type serves both feeds since they share a
// row shape and differ only in table and status vocabulary.
type TransactionStore struct {
	db     *sql.DB
	table  string
	source domain.TransactionSource
}

func NewBankTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db, table: "bank_transactions", source: domain.SourceBank}
}

func NewProcessorTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db, table: "processor_transactions", source: domain.SourceProcessor}
}

// FindByDirectionAndRange returns rows with occurred_at in [from, to),
// unfiltered by status; eligibility is the aggregation pass's concern.
func (s *TransactionStore) FindByDirectionAndRange(ctx context.Context, direction domain.Direction, from, to time.Time) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, occurred_at, amount, currency, payer, description, direction, category_id,
                status, settlement_id, settlement_amount, settlement_rate, fingerprint, deleted_at, created_at
         FROM %s WHERE direction = $1 AND occurred_at >= $2 AND occurred_at < $3
         ORDER BY occurred_at`, s.table),
		direction, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		var categoryID sql.NullInt64
		var settlementID sql.NullString
		var settlementAmount, settlementRate decimal.NullDecimal
		var deletedAt sql.NullTime
		if err := rows.Scan(&transaction.ID, &transaction.OccurredAt, &transaction.Amount,
			&transaction.Currency, &transaction.Payer, &transaction.Description, &transaction.Direction,
			&categoryID, &transaction.Status, &settlementID, &settlementAmount, &settlementRate,
			&transaction.Fingerprint, &deletedAt, &transaction.CreatedAt); err != nil {
			return nil, err
		}
		transaction.Source = s.source
		if categoryID.Valid {
			id := int(categoryID.Int64)
			transaction.CategoryID = &id
		}
		if settlementID.Valid {
			settlement := &domain.Settlement{ID: settlementID.String}
			if settlementAmount.Valid {
				settlement.ConvertedAmount = &settlementAmount.Decimal
			}
			if settlementRate.Valid {
				settlement.ExchangeRate = &settlementRate.Decimal
			}
			transaction.Settlement = settlement
		}
		if deletedAt.Valid {
			transaction.DeletedAt = &deletedAt.Time
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

// FindRefundedIDs reads this feed's deletions/refunds rows. The returned IDs
// may be transaction or settlement identifiers; callers match against both.
func (s *TransactionStore) FindRefundedIDs(ctx context.Context, from, to time.Time, reasons []domain.RefundReason) ([]string, error) {
	if len(reasons) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(reasons))
	args := []interface{}{s.source, from, to}
	for i, reason := range reasons {
		placeholders[i] = fmt.Sprintf("$%d", i+4)
		args = append(args, reason)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id FROM transaction_refunds
         WHERE source = $1 AND refunded_at >= $2 AND refunded_at < $3
           AND reason IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *TransactionStore) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE category_id = $1 AND deleted_at IS NULL`, s.table),
		categoryID).Scan(&count)
	return count, err
}
