package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

// Hand-tuned policy constants; change only on a product decision.
const (
	descriptionSimilarityThreshold = 0.5
	duplicateWindow                = 7 * 24 * time.Hour
	minTokenLength                 = 3
)

// DuplicateService partitions one month's transactions into groups that most
// likely represent the same real-world payment recorded more than once, so an
// operator can remove the extras. Exact fingerprint matches first, then fuzzy
// similarity over what remains.
type DuplicateService struct {
	bank      domain.TransactionRepository
	processor domain.TransactionRepository
	minYear   int
	maxYear   int
	logger    *slog.Logger
}

func NewDuplicateService(bank, processor domain.TransactionRepository, minYear, maxYear int, logger *slog.Logger) *DuplicateService {
	return &DuplicateService{bank: bank, processor: processor, minYear: minYear, maxYear: maxYear, logger: logger}
}

func (s *DuplicateService) FindDuplicates(ctx context.Context, year, month int, direction domain.Direction) ([]domain.DuplicateGroup, error) {
	if year < s.minYear || year > s.maxYear {
		return nil, pnlErrors.NewValidationError(
			fmt.Sprintf("Year must be between %d and %d", s.minYear, s.maxYear))
	}
	if month < 1 || month > 12 {
		return nil, pnlErrors.NewValidationError("Month must be between 1 and 12")
	}
	if !direction.Valid() {
		return nil, pnlErrors.NewValidationError("Direction must be 'revenue' or 'expense'")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var transactions []domain.Transaction
	for _, repo := range []domain.TransactionRepository{s.bank, s.processor} {
		rows, err := repo.FindByDirectionAndRange(ctx, direction, from, to)
		if err != nil {
			return nil, pnlErrors.NewUpstreamUnavailableError("transaction source unavailable", err)
		}
		transactions = append(transactions, rows...)
	}
	return s.detect(transactions), nil
}

func (s *DuplicateService) detect(transactions []domain.Transaction) []domain.DuplicateGroup {
	active := make([]domain.Transaction, 0, len(transactions))
	for _, transaction := range transactions {
		if !transaction.Deleted() {
			active = append(active, transaction)
		}
	}

	var groups []domain.DuplicateGroup
	matched := make(map[string]bool)

	// Phase 1: exact content-hash matches. Members of an exact group are
	// never reconsidered in the fuzzy phase.
	byFingerprint := make(map[string][]domain.Transaction)
	for _, transaction := range active {
		if transaction.Fingerprint != "" {
			byFingerprint[transaction.Fingerprint] = append(byFingerprint[transaction.Fingerprint], transaction)
		}
	}
	for fingerprint, members := range byFingerprint {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, newGroup(fingerprint, domain.MatchExact, members))
		for _, member := range members {
			matched[member.ID] = true
		}
	}

	// Phase 2: fuzzy similarity over the remainder.
	withPayer := make(map[string][]domain.Transaction)
	withoutPayer := make(map[string][]domain.Transaction)
	for _, transaction := range active {
		if matched[transaction.ID] {
			continue
		}
		payer := normalizePayer(transaction.Payer)
		amountKey := transaction.Amount.StringFixed(2) + "|" + transaction.Currency
		if payer != "" {
			key := payer + "|" + amountKey
			withPayer[key] = append(withPayer[key], transaction)
		} else {
			withoutPayer[amountKey] = append(withoutPayer[amountKey], transaction)
		}
	}

	for key, candidates := range withPayer {
		for _, window := range splitByWindow(candidates) {
			if len(window) >= 2 {
				groups = append(groups, newGroup(key, domain.MatchFuzzy, window))
			}
		}
	}
	for key, candidates := range withoutPayer {
		for _, cluster := range clusterByDescription(candidates) {
			for _, window := range splitByWindow(cluster) {
				if len(window) >= 2 {
					groups = append(groups, newGroup(key, domain.MatchFuzzy, window))
				}
			}
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Keeper().CreatedAt.Before(groups[j].Keeper().CreatedAt)
	})
	return groups
}

func newGroup(key string, match domain.DuplicateMatch, members []domain.Transaction) domain.DuplicateGroup {
	sorted := append([]domain.Transaction{}, members...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return domain.DuplicateGroup{Key: key, Match: match, Transactions: sorted}
}

// splitByWindow splits same-key candidates into temporally disjoint groups:
// every member lies within the 7-day window (inclusive) of the group's
// earliest event.
func splitByWindow(transactions []domain.Transaction) [][]domain.Transaction {
	sorted := append([]domain.Transaction{}, transactions...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	var windows [][]domain.Transaction
	var current []domain.Transaction
	var anchor time.Time
	for _, transaction := range sorted {
		if len(current) == 0 || transaction.OccurredAt.Sub(anchor) > duplicateWindow {
			if len(current) > 0 {
				windows = append(windows, current)
			}
			current = []domain.Transaction{transaction}
			anchor = transaction.OccurredAt
			continue
		}
		current = append(current, transaction)
	}
	if len(current) > 0 {
		windows = append(windows, current)
	}
	return windows
}

// clusterByDescription groups payer-less candidates whose descriptions share
// enough words. Empty descriptions tokenize to nothing and never match.
func clusterByDescription(transactions []domain.Transaction) [][]domain.Transaction {
	tokens := make([]map[string]struct{}, len(transactions))
	for i, transaction := range transactions {
		tokens[i] = tokenize(transaction.Description)
	}

	var clusters [][]domain.Transaction
	used := make([]bool, len(transactions))
	for i := range transactions {
		if used[i] || len(tokens[i]) == 0 {
			continue
		}
		cluster := []domain.Transaction{transactions[i]}
		used[i] = true
		for j := i + 1; j < len(transactions); j++ {
			if used[j] {
				continue
			}
			if descriptionSimilarity(tokens[i], tokens[j]) >= descriptionSimilarityThreshold {
				cluster = append(cluster, transactions[j])
				used[j] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

func normalizePayer(payer string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(payer))), " ")
}

func tokenize(description string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(description)) {
		if len(field) > minTokenLength {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}

// descriptionSimilarity is the Dice coefficient over the two token sets:
// 2*shared / (len(a)+len(b)).
func descriptionSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for token := range a {
		if _, ok := b[token]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}
