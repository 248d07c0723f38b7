package reconcile

import (
	"fmt"
	"sort"

	"github.com/savegress/ledgerlens/pkg/models"
)

// Result is the raw output of one matching pass: a strict partition of the
// two input sets into matched pairs and the unmatched remainder.
type Result struct {
	Matched           []models.MatchedPair
	UnmatchedInternal []models.Transaction
	UnmatchedExternal []models.Transaction
	Warnings          []string
	SkippedInternal   int
	SkippedExternal   int
}

// Reconcile pairs internal against external transactions using a greedy,
// deterministic one-pass assignment. Internal transactions are processed in
// (timestamp, id) order against a shrinking pool of unclaimed externals;
// the top candidate is bound only when its confidence clears the policy
// threshold. Greedy is a deliberate trade-off over global assignment: exact
// matches dominate real volumes, the threshold plus deterministic tie-break
// bounds the error rate, and the pass stays O(n*m).
//
// The function is pure: it holds no state between calls and identical
// inputs yield identical output, including ordering.
func Reconcile(internal, external []models.Transaction, policy TolerancePolicy) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("tolerance policy: %w", err)
	}

	result := &Result{}

	internalSet := sanitize(internal, models.SideInternal, result)
	pool := sanitize(external, models.SideExternal, result)

	sortByTimestampID(internalSet)

	for _, txn := range internalSet {
		candidates := FindCandidates(txn, pool, policy)
		if len(candidates) == 0 || candidates[0].Confidence < policy.AutoMatchConfidence {
			result.UnmatchedInternal = append(result.UnmatchedInternal, *txn)
			continue
		}

		best := candidates[0]
		result.Matched = append(result.Matched, models.MatchedPair{
			Internal:      *txn,
			External:      *best.External,
			MatchType:     best.MatchType,
			Confidence:    best.Confidence,
			AmountMatch:   best.AmountDiffCents <= policy.ExactToleranceCents,
			TimestampDiff: txn.Timestamp.Sub(best.External.Timestamp),
		})
		pool = remove(pool, best.External)
	}

	sortByTimestampID(pool)
	for _, txn := range pool {
		result.UnmatchedExternal = append(result.UnmatchedExternal, *txn)
	}

	return result, nil
}

// sanitize filters out records missing their required fields. Each rejected
// record is a data-quality warning, not a discrepancy: the run degrades
// gracefully and reports how many records were skipped.
func sanitize(set []models.Transaction, side models.TransactionSide, result *Result) []*models.Transaction {
	valid := make([]*models.Transaction, 0, len(set))
	for i := range set {
		txn := set[i]
		if reason := validateTransaction(&txn); reason != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %s transaction %q: %s", side, txn.ID, reason))
			if side == models.SideInternal {
				result.SkippedInternal++
			} else {
				result.SkippedExternal++
			}
			continue
		}
		valid = append(valid, &txn)
	}
	return valid
}

func validateTransaction(txn *models.Transaction) string {
	if txn.ID == "" {
		return "missing id"
	}
	if txn.AmountCents == 0 {
		return "missing amount"
	}
	if txn.Timestamp.IsZero() {
		return "missing timestamp"
	}
	return ""
}

func sortByTimestampID(set []*models.Transaction) {
	sort.Slice(set, func(i, j int) bool {
		if !set[i].Timestamp.Equal(set[j].Timestamp) {
			return set[i].Timestamp.Before(set[j].Timestamp)
		}
		return set[i].ID < set[j].ID
	})
}

func remove(pool []*models.Transaction, txn *models.Transaction) []*models.Transaction {
	out := pool[:0]
	for _, candidate := range pool {
		if candidate != txn {
			out = append(out, candidate)
		}
	}
	return out
}
