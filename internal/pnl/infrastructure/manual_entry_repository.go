package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type ManualEntryRepository struct {
	db *sql.DB
}

func NewManualEntryRepository(db *sql.DB) *ManualEntryRepository {
	return &ManualEntryRepository{db: db}
}

const manualEntryColumns = `id, category_id, direction, year, month, amount, breakdown, note, created_at, updated_at`

// UpsertByPeriod is a single atomic conditional write against the partial
// unique index on revenue rows; two concurrent upserts for the same period
// key can no longer race into two competing records.
func (r *ManualEntryRepository) UpsertByPeriod(ctx context.Context, entry domain.ManualEntry) (*domain.ManualEntry, error) {
	breakdown, err := marshalBreakdown(entry.Breakdown)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO manual_entries (`+manualEntryColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
         ON CONFLICT (category_id, year, month) WHERE direction = 'revenue'
         DO UPDATE SET amount = EXCLUDED.amount, breakdown = EXCLUDED.breakdown,
                       note = EXCLUDED.note, updated_at = now()
         RETURNING `+manualEntryColumns,
		entry.ID, entry.CategoryID, entry.Direction, entry.Year, entry.Month,
		entry.Amount, breakdown, entry.Note)
	return scanManualEntry(row)
}

func (r *ManualEntryRepository) Insert(ctx context.Context, entry domain.ManualEntry) error {
	breakdown, err := marshalBreakdown(entry.Breakdown)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO manual_entries (`+manualEntryColumns+`)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		entry.ID, entry.CategoryID, entry.Direction, entry.Year, entry.Month,
		entry.Amount, breakdown, entry.Note)
	return err
}

func (r *ManualEntryRepository) FindByID(ctx context.Context, id string) (*domain.ManualEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+manualEntryColumns+` FROM manual_entries WHERE id = $1`, id)
	entry, err := scanManualEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *ManualEntryRepository) FindByCategoryAndYear(ctx context.Context, categoryID, year int, direction domain.Direction) ([]domain.ManualEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+manualEntryColumns+` FROM manual_entries
         WHERE category_id = $1 AND year = $2 AND direction = $3
         ORDER BY month, created_at`,
		categoryID, year, direction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectManualEntries(rows)
}

func (r *ManualEntryRepository) FindByCategoriesAndYear(ctx context.Context, categoryIDs []int, year int, direction domain.Direction) (map[int][]domain.ManualEntry, error) {
	result := make(map[int][]domain.ManualEntry)
	if len(categoryIDs) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(categoryIDs))
	args := []interface{}{year, direction}
	for i, id := range categoryIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+manualEntryColumns+` FROM manual_entries
         WHERE year = $1 AND direction = $2 AND category_id IN (`+strings.Join(placeholders, ", ")+`)
         ORDER BY month, created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries, err := collectManualEntries(rows)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		result[entry.CategoryID] = append(result[entry.CategoryID], entry)
	}
	return result, nil
}

func (r *ManualEntryRepository) UpdateByID(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) error {
	encoded, err := marshalBreakdown(breakdown)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE manual_entries SET amount = $1, breakdown = $2, note = $3, updated_at = now() WHERE id = $4`,
		amount, encoded, note, id)
	return err
}

func (r *ManualEntryRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM manual_entries WHERE id = $1`, id)
	return err
}

func (r *ManualEntryRepository) DeleteByPeriod(ctx context.Context, categoryID, year, month int, direction domain.Direction) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM manual_entries WHERE category_id = $1 AND year = $2 AND month = $3 AND direction = $4`,
		categoryID, year, month, direction)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (r *ManualEntryRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM manual_entries WHERE category_id = $1`, categoryID).Scan(&count)
	return count, err
}

func marshalBreakdown(breakdown map[string]decimal.Decimal) (interface{}, error) {
	if len(breakdown) == 0 {
		return nil, nil
	}
	return json.Marshal(breakdown)
}

func scanManualEntry(row rowScanner) (*domain.ManualEntry, error) {
	var entry domain.ManualEntry
	var breakdown []byte
	if err := row.Scan(&entry.ID, &entry.CategoryID, &entry.Direction, &entry.Year, &entry.Month,
		&entry.Amount, &breakdown, &entry.Note, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &entry.Breakdown); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

func collectManualEntries(rows *sql.Rows) ([]domain.ManualEntry, error) {
	var entries []domain.ManualEntry
	for rows.Next() {
		entry, err := scanManualEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}
