package reconcile

import (
	"fmt"

	"github.com/savegress/ledgerlens/pkg/models"
)

var suggestedActions = map[models.DiscrepancyType]string{
	models.DiscrepancyAmountMismatch:   "verify fees, partial captures and currency conversion",
	models.DiscrepancyStatusMismatch:   "confirm settlement status with the payment processor",
	models.DiscrepancyTimingMismatch:   "check settlement delay against the posting date",
	models.DiscrepancyMetadataMismatch: "review correlation keys on both records",
}

// Classify inspects a matched pair for sub-tolerance mismatches and assigns
// each one a severity from the rule table. Exact pairs produce nothing by
// construction. At most one discrepancy per type is produced, and the
// output is fully determined by the pair, policy and rules.
func Classify(pair models.MatchedPair, policy TolerancePolicy, rules []SeverityRule) []models.Discrepancy {
	if pair.MatchType == models.MatchTypeExact {
		return nil
	}

	var found []models.Discrepancy

	amountDiff := absInt64(pair.Internal.AmountCents - pair.External.AmountCents)
	if amountDiff > policy.ExactToleranceCents {
		found = append(found, newDiscrepancy(pair, models.DiscrepancyAmountMismatch, rules,
			fmt.Sprintf("amount differs by $%s", models.Dollars(amountDiff).StringFixed(2)),
			[]models.FieldDifference{{
				Field:    "amount",
				Internal: models.Dollars(pair.Internal.AmountCents).StringFixed(2),
				External: models.Dollars(pair.External.AmountCents).StringFixed(2),
			}},
		))
	}

	if pair.Internal.Status != pair.External.Status {
		found = append(found, newDiscrepancy(pair, models.DiscrepancyStatusMismatch, rules,
			fmt.Sprintf("status %s on the ledger, %s at the source", pair.Internal.Status, pair.External.Status),
			[]models.FieldDifference{{
				Field:    "status",
				Internal: string(pair.Internal.Status),
				External: string(pair.External.Status),
			}},
		))
	}

	if absDuration(pair.TimestampDiff) > policy.SameDayThreshold {
		found = append(found, newDiscrepancy(pair, models.DiscrepancyTimingMismatch, rules,
			fmt.Sprintf("timestamps differ by %s", absDuration(pair.TimestampDiff)),
			[]models.FieldDifference{{
				Field:    "timestamp",
				Internal: pair.Internal.Timestamp.UTC().String(),
				External: pair.External.Timestamp.UTC().String(),
			}},
		))
	}

	if diffs := metadataDifferences(pair, policy.CorrelationKeys); len(diffs) > 0 {
		found = append(found, newDiscrepancy(pair, models.DiscrepancyMetadataMismatch, rules,
			"correlation metadata differs between the two records", diffs))
	}

	return found
}

func metadataDifferences(pair models.MatchedPair, keys []string) []models.FieldDifference {
	var diffs []models.FieldDifference
	for _, key := range keys {
		internalVal, internalOK := pair.Internal.Metadata[key]
		externalVal, externalOK := pair.External.Metadata[key]
		if internalOK && externalOK && internalVal != externalVal {
			diffs = append(diffs, models.FieldDifference{
				Field:    "metadata." + key,
				Internal: internalVal,
				External: externalVal,
			})
		}
	}
	return diffs
}

func newDiscrepancy(pair models.MatchedPair, discType models.DiscrepancyType, rules []SeverityRule, description string, diffs []models.FieldDifference) models.Discrepancy {
	return models.Discrepancy{
		// Deterministic id: recomputing from the same inputs yields the same set.
		ID:                    fmt.Sprintf("disc-%s-%s", pair.Internal.ID, discType),
		Type:                  discType,
		Severity:              severityFor(pair, discType, rules),
		InternalTransactionID: pair.Internal.ID,
		ExternalTransactionID: pair.External.ID,
		Description:           description,
		Differences:           diffs,
		SuggestedAction:       suggestedActions[discType],
	}
}

// severityFor walks the ordered rule table and returns the first matching
// tier. A rule applies when the absolute internal amount clears its floor
// and any of its conditions holds, where a condition names either the
// discrepancy type or an externally supplied flag on either record.
// Anything the table does not claim is low severity.
func severityFor(pair models.MatchedPair, discType models.DiscrepancyType, rules []SeverityRule) models.Severity {
	amount := absInt64(pair.Internal.AmountCents)
	for _, rule := range rules {
		if amount < rule.MinAmountCents {
			continue
		}
		for _, condition := range rule.Conditions {
			if condition == string(discType) || hasFlag(pair, condition) {
				return rule.Severity
			}
		}
	}
	return models.SeverityLow
}

func hasFlag(pair models.MatchedPair, flag string) bool {
	for _, f := range pair.Internal.Flags {
		if f == flag {
			return true
		}
	}
	for _, f := range pair.External.Flags {
		if f == flag {
			return true
		}
	}
	return false
}
