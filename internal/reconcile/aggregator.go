package reconcile

import (
	"fmt"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

// RunInput carries everything one reconciliation run needs. All state is
// scoped to the call; concurrent runs share nothing.
type RunInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Internal    []models.Transaction
	External    []models.Transaction
	Policy      TolerancePolicy
	// SeverityRules is the ordered severity table; DefaultSeverityRules when empty.
	SeverityRules  []SeverityRule
	MaxSuggestions int
	// PartialExternal marks the report when the caller could not guarantee a
	// complete external set. The engine never reconciles against a partial
	// set silently.
	PartialExternal bool
}

// Run executes a full reconciliation: matching, discrepancy classification
// and possible-match suggestion, assembled into a report. It is safely
// re-invocable: identical inputs produce an identical report body.
func Run(in RunInput) (*models.ReconciliationReport, error) {
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() || !in.PeriodEnd.After(in.PeriodStart) {
		return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidPeriod, in.PeriodStart, in.PeriodEnd)
	}

	rules := in.SeverityRules
	if len(rules) == 0 {
		rules = DefaultSeverityRules()
	}
	if err := ValidateSeverityRules(rules); err != nil {
		return nil, fmt.Errorf("severity rules: %w", err)
	}

	result, err := Reconcile(in.Internal, in.External, in.Policy)
	if err != nil {
		return nil, err
	}

	var discrepancies []models.Discrepancy
	for _, pair := range result.Matched {
		discrepancies = append(discrepancies, Classify(pair, in.Policy, rules)...)
	}

	report := Aggregate(result, discrepancies, in)
	return report, nil
}

// Aggregate computes summary statistics over the matching result and
// assembles the final report collections.
func Aggregate(result *Result, discrepancies []models.Discrepancy, in RunInput) *models.ReconciliationReport {
	relaxed := in.Policy.Relaxed()

	var totalInternal, totalExternal, matchedInternal int64

	matched := make([]models.MatchedEntry, 0, len(result.Matched))
	for _, pair := range result.Matched {
		totalInternal += pair.Internal.AmountCents
		totalExternal += pair.External.AmountCents
		matchedInternal += pair.Internal.AmountCents
		matched = append(matched, models.MatchedEntry{
			InternalTransactionID: pair.Internal.ID,
			ExternalTransactionID: pair.External.ID,
			MatchType:             pair.MatchType,
			MatchConfidence:       pair.Confidence,
			InternalAmountCents:   pair.Internal.AmountCents,
			ExternalAmountCents:   pair.External.AmountCents,
			AmountMatch:           pair.AmountMatch,
			TimestampDiffMs:       pair.TimestampDiff.Milliseconds(),
		})
	}

	unmatchedInternal := make([]models.UnmatchedEntry, 0, len(result.UnmatchedInternal))
	for _, txn := range result.UnmatchedInternal {
		totalInternal += txn.AmountCents
		unmatchedInternal = append(unmatchedInternal, unmatchedEntry(txn, result.UnmatchedExternal, relaxed, in.MaxSuggestions))
	}

	unmatchedExternal := make([]models.UnmatchedEntry, 0, len(result.UnmatchedExternal))
	for _, txn := range result.UnmatchedExternal {
		totalExternal += txn.AmountCents
		unmatchedExternal = append(unmatchedExternal, unmatchedEntry(txn, result.UnmatchedInternal, relaxed, in.MaxSuggestions))
	}

	rate := 1.0
	if totalInternal != 0 {
		rate = clamp01(float64(matchedInternal) / float64(totalInternal))
	}

	if discrepancies == nil {
		discrepancies = make([]models.Discrepancy, 0)
	}

	return &models.ReconciliationReport{
		Summary: models.ReportSummary{
			PeriodStart:            in.PeriodStart,
			PeriodEnd:              in.PeriodEnd,
			TotalInternalCents:     totalInternal,
			TotalExternalCents:     totalExternal,
			TotalInternal:          models.Dollars(totalInternal),
			TotalExternal:          models.Dollars(totalExternal),
			DiscrepancyCents:       totalInternal - totalExternal,
			ReconciliationRate:     rate,
			MatchedCount:           len(matched),
			UnmatchedInternalCount: len(unmatchedInternal),
			UnmatchedExternalCount: len(unmatchedExternal),
			DiscrepancyCount:       len(discrepancies),
			SkippedInternal:        result.SkippedInternal,
			SkippedExternal:        result.SkippedExternal,
		},
		Reconciliation: models.ReconciliationDetail{
			MatchedTransactions: matched,
			UnmatchedInternal:   unmatchedInternal,
			UnmatchedExternal:   unmatchedExternal,
			Discrepancies:       discrepancies,
		},
		Warnings:        result.Warnings,
		PartialExternal: in.PartialExternal,
	}
}

func unmatchedEntry(txn models.Transaction, opposite []models.Transaction, relaxed TolerancePolicy, limit int) models.UnmatchedEntry {
	suggestions := Suggest(txn, opposite, relaxed, limit)
	if suggestions == nil {
		suggestions = make([]models.PossibleMatch, 0)
	}
	return models.UnmatchedEntry{
		ID:              txn.ID,
		AmountCents:     txn.AmountCents,
		Timestamp:       txn.Timestamp,
		Description:     txn.Description,
		PossibleMatches: suggestions,
	}
}
