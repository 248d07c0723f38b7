package reconcile

import (
	"sort"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

// MatchCandidate is a transient pairing of one internal transaction with
// one external candidate. It is consumed immediately into a MatchedPair or
// discarded; it is never stored.
type MatchCandidate struct {
	External        *models.Transaction
	MatchType       models.MatchType
	Confidence      float64
	AmountDiffCents int64
	TimestampDiff   time.Duration
}

// FindCandidates scans the external pool for transactions within tolerance
// of txn and scores each survivor. Results are sorted by confidence
// descending, ties broken by smaller timestamp difference, then by external
// id, so reruns over identical inputs produce identical orderings.
func FindCandidates(txn *models.Transaction, pool []*models.Transaction, policy TolerancePolicy) []MatchCandidate {
	var candidates []MatchCandidate

	for _, ext := range pool {
		timeDiff := absDuration(txn.Timestamp.Sub(ext.Timestamp))
		if timeDiff > policy.TimingTolerance {
			continue
		}

		amountDiff := absInt64(txn.AmountCents - ext.AmountCents)
		if amountDiff > policy.FuzzyToleranceCents {
			continue
		}

		matchType := models.MatchTypeFuzzy
		if amountDiff == 0 && timeDiff == 0 {
			matchType = models.MatchTypeExact
		}

		candidates = append(candidates, MatchCandidate{
			External:        ext,
			MatchType:       matchType,
			Confidence:      score(amountDiff, timeDiff, policy),
			AmountDiffCents: amountDiff,
			TimestampDiff:   timeDiff,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].TimestampDiff != candidates[j].TimestampDiff {
			return candidates[i].TimestampDiff < candidates[j].TimestampDiff
		}
		return candidates[i].External.ID < candidates[j].External.ID
	})

	return candidates
}

// score combines amount and timing proximity into a single confidence in
// [0,1] using the policy weights.
func score(amountDiff int64, timeDiff time.Duration, policy TolerancePolicy) float64 {
	amountScore := 1.0 - float64(amountDiff)/float64(maxInt64(1, policy.FuzzyToleranceCents))
	timingScore := 1.0 - float64(timeDiff)/float64(maxDuration(time.Nanosecond, policy.TimingTolerance))

	totalWeight := policy.AmountWeight + policy.TimingWeight
	confidence := (policy.AmountWeight*amountScore + policy.TimingWeight*timingScore) / totalWeight

	return clamp01(confidence)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
