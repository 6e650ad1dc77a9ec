package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionRevenue Direction = "revenue"
	DirectionExpense Direction = "expense"
)

func (d Direction) Valid() bool {
	return d == DirectionRevenue || d == DirectionExpense
}

// TransactionSource identifies which feed a transaction row came from. The
// two sources carry different status vocabularies, normalized by Eligible.
type TransactionSource string

const (
	SourceBank      TransactionSource = "bank"
	SourceProcessor TransactionSource = "processor"
)

// Bank-statement rows are eligible when approved or matched against a
// settlement record; processor rows only when the processor marked them paid.
const (
	BankStatusApproved  = "approved"
	BankStatusPending   = "pending"
	BankStatusRejected  = "rejected"
	ProcessorStatusPaid = "paid"
)

// Settlement is the linked invoice/proforma record. When present it may carry
// an authoritative converted amount in the reporting currency, or an exchange
// rate agreed at settlement time.
type Settlement struct {
	ID              string           `json:"id"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
	ExchangeRate    *decimal.Decimal `json:"exchange_rate,omitempty"`
}

// Transaction is read-only to the reporting core; rows are written by the
// external import jobs.
type Transaction struct {
	ID          string            `json:"id"`
	Source      TransactionSource `json:"source"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Amount      decimal.Decimal   `json:"amount"`
	Currency    string            `json:"currency"`
	Payer       string            `json:"payer"`
	Description string            `json:"description"`
	Direction   Direction         `json:"direction"`
	CategoryID  *int              `json:"category_id"`
	Status      string            `json:"status"`
	Settlement  *Settlement       `json:"settlement,omitempty"`
	Fingerprint string            `json:"fingerprint"`
	DeletedAt   *time.Time        `json:"deleted_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Eligible normalizes the two source-specific status vocabularies into one
// aggregation predicate.
func (t Transaction) Eligible() bool {
	switch t.Source {
	case SourceBank:
		return t.Status == BankStatusApproved || t.Settlement != nil
	case SourceProcessor:
		return t.Status == ProcessorStatusPaid
	}
	return false
}

func (t Transaction) Deleted() bool {
	return t.DeletedAt != nil
}

// Month returns the reporting month (1-12) of the economic event, derived in
// UTC so both sources bucket on the same boundary.
func (t Transaction) Month() int {
	return int(t.OccurredAt.UTC().Month())
}

// RefundReason is the key of the deletions/refunds feed.
type RefundReason string

const (
	ReasonRefunded RefundReason = "refunded"
	ReasonVoided   RefundReason = "voided"
)

// TransactionRepository is implemented once per source. Rows are returned
// unfiltered; status and refund filtering belongs to the aggregation pass.
type TransactionRepository interface {
	FindByDirectionAndRange(ctx context.Context, direction Direction, from, to time.Time) ([]Transaction, error)
	FindRefundedIDs(ctx context.Context, from, to time.Time, reasons []RefundReason) ([]string, error)
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

// RateProvider looks up the exchange rate between a currency pair effective
// at a given date. Unavailability is reported as an UpstreamUnavailableError.
type RateProvider interface {
	GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error)
}
