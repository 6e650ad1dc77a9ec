package domain

import (
	"github.com/shopspring/decimal"
)

// MonthTotal is one reporting bucket: the converted sum, the number of
// contributing records and, when requested, the per-currency native amounts
// before conversion. Derived fresh on every report request, never cached.
type MonthTotal struct {
	Month     int                        `json:"month"`
	Amount    decimal.Decimal            `json:"amount"`
	Count     int                        `json:"count"`
	Breakdown map[string]decimal.Decimal `json:"breakdown,omitempty"`
}

type CategoryReport struct {
	CategoryID *int            `json:"category_id"`
	Name       string          `json:"name"`
	Policy     CategoryPolicy  `json:"policy"`
	Months     []MonthTotal    `json:"months"`
	Total      decimal.Decimal `json:"total"`
	// Unavailable marks a manual category whose ledger could not be read;
	// its zeros must not be mistaken for real figures.
	Unavailable bool `json:"unavailable,omitempty"`
}

type YearlyReport struct {
	Year       int              `json:"year"`
	Direction  Direction        `json:"direction"`
	Categories []CategoryReport `json:"categories"`
	Total      decimal.Decimal  `json:"total"`
	Warnings   []string         `json:"warnings,omitempty"`
}
