package reconcile

import (
	"fmt"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

// DefaultMaxSuggestions caps ranked suggestions per unmatched record to
// bound report size.
const DefaultMaxSuggestions = 5

// Suggest re-scans the opposite unmatched set with the relaxed policy and
// returns ranked, human-readable suggestions for manual review. These are
// hints only; the engine never binds them.
func Suggest(txn models.Transaction, opposite []models.Transaction, relaxed TolerancePolicy, limit int) []models.PossibleMatch {
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}

	pool := make([]*models.Transaction, 0, len(opposite))
	for i := range opposite {
		pool = append(pool, &opposite[i])
	}

	candidates := FindCandidates(&txn, pool, relaxed)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	suggestions := make([]models.PossibleMatch, 0, len(candidates))
	for _, candidate := range candidates {
		suggestions = append(suggestions, models.PossibleMatch{
			ID:         candidate.External.ID,
			Confidence: candidate.Confidence,
			Reasons:    reasons(txn, candidate),
		})
	}
	return suggestions
}

func reasons(txn models.Transaction, candidate MatchCandidate) []string {
	var out []string

	if candidate.AmountDiffCents == 0 {
		out = append(out, "amount matches exactly")
	} else {
		out = append(out, fmt.Sprintf("amount within $%s", models.Dollars(candidate.AmountDiffCents).StringFixed(2)))
	}

	if sameCalendarDay(txn.Timestamp, candidate.External.Timestamp) {
		out = append(out, "same calendar day")
	} else {
		days := int((candidate.TimestampDiff + 24*time.Hour - time.Nanosecond) / (24 * time.Hour))
		out = append(out, fmt.Sprintf("within %d day(s)", days))
	}

	if txn.Status != "" && txn.Status == candidate.External.Status {
		out = append(out, "same status")
	}

	return out
}

func sameCalendarDay(a, b time.Time) bool {
	return a.UTC().Format("2006-01-02") == b.UTC().Format("2006-01-02")
}
