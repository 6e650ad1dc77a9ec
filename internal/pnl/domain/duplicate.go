package domain

type DuplicateMatch string

const (
	MatchExact DuplicateMatch = "exact"
	MatchFuzzy DuplicateMatch = "fuzzy"
)

// DuplicateGroup is a set of transactions judged to represent one real-world
// payment recorded more than once. Members are ordered by creation time; the
// earliest-created member is the conventional keeper, the rest are removal
// candidates for the operator to act on.
type DuplicateGroup struct {
	Key          string         `json:"key"`
	Match        DuplicateMatch `json:"match"`
	Transactions []Transaction  `json:"transactions"`
}

func (g DuplicateGroup) Keeper() Transaction {
	return g.Transactions[0]
}
