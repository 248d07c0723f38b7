package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savegress/ledgerlens/pkg/models"
)

func pairOf(internal, external models.Transaction, matchType models.MatchType) models.MatchedPair {
	return models.MatchedPair{
		Internal:      internal,
		External:      external,
		MatchType:     matchType,
		AmountMatch:   internal.AmountCents == external.AmountCents,
		TimestampDiff: internal.Timestamp.Sub(external.Timestamp),
	}
}

func TestClassify_ExactPairProducesNothing(t *testing.T) {
	// Even a status difference is ignored on an exact pair.
	internal := txn("txn-1", 5000, baseTime)
	external := txn("bt-1", 5000, baseTime)
	external.Status = models.TransactionStatusPending

	found := Classify(pairOf(internal, external, models.MatchTypeExact), DefaultPolicy(), DefaultSeverityRules())
	assert.Empty(t, found)
}

func TestClassify_AmountMismatchLowSeverity(t *testing.T) {
	internal := txn("txn-1", 5000, baseTime)
	external := txn("bt-1", 5050, baseTime)

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 1)
	disc := found[0]
	assert.Equal(t, models.DiscrepancyAmountMismatch, disc.Type)
	assert.Equal(t, models.SeverityLow, disc.Severity)
	assert.Equal(t, "txn-1", disc.InternalTransactionID)
	assert.Equal(t, "bt-1", disc.ExternalTransactionID)
	assert.Contains(t, disc.Description, "$0.50")
	require.Len(t, disc.Differences, 1)
	assert.Equal(t, "amount", disc.Differences[0].Field)
	assert.Equal(t, "50.00", disc.Differences[0].Internal)
	assert.Equal(t, "50.50", disc.Differences[0].External)
}

func TestClassify_AmountMismatchHighSeverity(t *testing.T) {
	// $600 transaction with an amount drift clears the high-severity floor.
	internal := txn("txn-1", 60000, baseTime)
	external := txn("bt-1", 60020, baseTime)

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityHigh, found[0].Severity)
}

func TestClassify_FraudFlagEscalatesToCritical(t *testing.T) {
	// $1200 flagged by an external fraud indicator: critical regardless of
	// discrepancy type.
	internal := txn("txn-1", 120000, baseTime)
	internal.Flags = []string{"fraud_indicator"}
	external := txn("bt-1", 120010, baseTime)

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityCritical, found[0].Severity)
}

func TestClassify_StatusMismatchMediumSeverity(t *testing.T) {
	internal := txn("txn-1", 20000, baseTime)
	external := txn("bt-1", 20010, baseTime)
	external.Status = models.TransactionStatusPending

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 2)

	byType := make(map[models.DiscrepancyType]models.Discrepancy)
	for _, disc := range found {
		byType[disc.Type] = disc
	}
	assert.Equal(t, models.SeverityLow, byType[models.DiscrepancyAmountMismatch].Severity)
	assert.Equal(t, models.SeverityMedium, byType[models.DiscrepancyStatusMismatch].Severity)
}

func TestClassify_TimingMismatch(t *testing.T) {
	internal := txn("txn-1", 15000, baseTime.Add(72*time.Hour))
	external := txn("bt-1", 15000, baseTime)

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 1)
	assert.Equal(t, models.DiscrepancyTimingMismatch, found[0].Type)
	assert.Equal(t, models.SeverityMedium, found[0].Severity)
}

func TestClassify_MetadataMismatchAlwaysLow(t *testing.T) {
	internal := txn("txn-1", 500000, baseTime.Add(time.Hour))
	internal.Metadata = map[string]string{"currency": "USD", "reference": "ref-1"}
	external := txn("bt-1", 500000, baseTime)
	external.Metadata = map[string]string{"currency": "EUR", "reference": "ref-1"}

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), DefaultSeverityRules())

	require.Len(t, found, 1)
	disc := found[0]
	assert.Equal(t, models.DiscrepancyMetadataMismatch, disc.Type)
	assert.Equal(t, models.SeverityLow, disc.Severity)
	require.Len(t, disc.Differences, 1)
	assert.Equal(t, "metadata.currency", disc.Differences[0].Field)
}

func TestClassify_DeterministicIDs(t *testing.T) {
	internal := txn("txn-1", 5000, baseTime)
	external := txn("bt-1", 5050, baseTime)
	pair := pairOf(internal, external, models.MatchTypeFuzzy)

	first := Classify(pair, DefaultPolicy(), DefaultSeverityRules())
	second := Classify(pair, DefaultPolicy(), DefaultSeverityRules())

	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, "disc-txn-1-amount_mismatch", first[0].ID)
}

func TestClassify_CustomRuleTable(t *testing.T) {
	// Operators can retune the table without touching the algorithm.
	rules := []SeverityRule{
		{Severity: models.SeverityCritical, MinAmountCents: 1000, Conditions: []string{string(models.DiscrepancyAmountMismatch)}},
	}

	internal := txn("txn-1", 5000, baseTime)
	external := txn("bt-1", 5050, baseTime)

	found := Classify(pairOf(internal, external, models.MatchTypeFuzzy), DefaultPolicy(), rules)

	require.Len(t, found, 1)
	assert.Equal(t, models.SeverityCritical, found[0].Severity)
}
