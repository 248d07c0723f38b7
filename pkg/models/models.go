package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the normalized status of a transaction.
// Source-specific vocabularies (Stripe, ledger rows) are mapped onto this
// set by the connectors before matching.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// TransactionSide identifies which set a transaction came from.
type TransactionSide string

const (
	SideInternal TransactionSide = "internal"
	SideExternal TransactionSide = "external"
)

// Transaction is the source-agnostic record shape used for both sides of a
// reconciliation run. Amounts are signed minor units (cents); positive for
// charges, negative for refunds. Amount and Timestamp are required; records
// missing either are rejected before matching.
type Transaction struct {
	ID          string            `json:"id"`
	AmountCents int64             `json:"amount_cents"`
	Timestamp   time.Time         `json:"timestamp"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	// Flags carries externally supplied risk indicators (fraud_indicator,
	// compliance_violation, duplicate_transaction). The engine never computes
	// these, it only feeds them to the severity rule table.
	Flags []string `json:"flags,omitempty"`
}

// MatchType classifies how a pair was matched.
type MatchType string

const (
	MatchTypeExact MatchType = "exact"
	MatchTypeFuzzy MatchType = "fuzzy"
)

// MatchedPair is the finalized one-to-one binding of an internal and an
// external transaction. Once bound, neither side is a candidate again.
type MatchedPair struct {
	Internal      Transaction   `json:"internal"`
	External      Transaction   `json:"external"`
	MatchType     MatchType     `json:"match_type"`
	Confidence    float64       `json:"confidence"`
	AmountMatch   bool          `json:"amount_match"`
	TimestampDiff time.Duration `json:"timestamp_diff"`
}

// PossibleMatch is a ranked suggestion attached to an unmatched transaction
// for human review. It is never a binding.
type PossibleMatch struct {
	ID         string   `json:"id"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// UnmatchedTransaction is a transaction with no assigned pair, decorated
// with relaxed-tolerance suggestions.
type UnmatchedTransaction struct {
	Transaction
	Side            TransactionSide `json:"side"`
	PossibleMatches []PossibleMatch `json:"possible_matches"`
}

// DiscrepancyType classifies a sub-tolerance mismatch on a matched pair.
type DiscrepancyType string

const (
	DiscrepancyAmountMismatch   DiscrepancyType = "amount_mismatch"
	DiscrepancyStatusMismatch   DiscrepancyType = "status_mismatch"
	DiscrepancyTimingMismatch   DiscrepancyType = "timing_mismatch"
	DiscrepancyMetadataMismatch DiscrepancyType = "metadata_mismatch"
)

// Severity is the operational urgency tier assigned to a discrepancy.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FieldDifference is a field-by-field delta between the two sides of a pair.
type FieldDifference struct {
	Field    string `json:"field"`
	Internal string `json:"internal"`
	External string `json:"external"`
}

// Discrepancy is derived from a matched pair whose sub-fields disagree
// beyond the exact-match threshold but within overall tolerance. It is
// computed, never stored state: the same inputs always yield the same set.
type Discrepancy struct {
	ID                    string            `json:"id"`
	Type                  DiscrepancyType   `json:"type"`
	Severity              Severity          `json:"severity"`
	InternalTransactionID string            `json:"internalTransactionId"`
	ExternalTransactionID string            `json:"externalTransactionId"`
	Description           string            `json:"description"`
	Differences           []FieldDifference `json:"differences"`
	SuggestedAction       string            `json:"suggestedAction,omitempty"`
}

// ReportSummary holds the quantitative roll-up of one reconciliation run.
type ReportSummary struct {
	PeriodStart            time.Time       `json:"periodStart"`
	PeriodEnd              time.Time       `json:"periodEnd"`
	TotalInternalCents     int64           `json:"totalInternalCents"`
	TotalExternalCents     int64           `json:"totalExternalCents"`
	TotalInternal          decimal.Decimal `json:"totalInternal"`
	TotalExternal          decimal.Decimal `json:"totalExternal"`
	DiscrepancyCents       int64           `json:"discrepancyCents"`
	ReconciliationRate     float64         `json:"reconciliationRate"`
	MatchedCount           int             `json:"matchedCount"`
	UnmatchedInternalCount int             `json:"unmatchedInternalCount"`
	UnmatchedExternalCount int             `json:"unmatchedExternalCount"`
	DiscrepancyCount       int             `json:"discrepancyCount"`
	SkippedInternal        int             `json:"skippedInternal,omitempty"`
	SkippedExternal        int             `json:"skippedExternal,omitempty"`
}

// MatchedEntry is the report projection of a matched pair.
type MatchedEntry struct {
	InternalTransactionID string    `json:"internalTransactionId"`
	ExternalTransactionID string    `json:"externalTransactionId"`
	MatchType             MatchType `json:"matchType"`
	MatchConfidence       float64   `json:"matchConfidence"`
	InternalAmountCents   int64     `json:"internalAmountCents"`
	ExternalAmountCents   int64     `json:"externalAmountCents"`
	AmountMatch           bool      `json:"amountMatch"`
	TimestampDiffMs       int64     `json:"timestampDiffMs"`
}

// UnmatchedEntry is the report projection of an unmatched transaction.
type UnmatchedEntry struct {
	ID              string          `json:"id"`
	AmountCents     int64           `json:"amountCents"`
	Timestamp       time.Time       `json:"timestamp"`
	Description     string          `json:"description,omitempty"`
	PossibleMatches []PossibleMatch `json:"possibleMatches"`
}

// ReconciliationDetail holds the four result collections of a run.
type ReconciliationDetail struct {
	MatchedTransactions []MatchedEntry   `json:"matchedTransactions"`
	UnmatchedInternal   []UnmatchedEntry `json:"unmatchedInternal"`
	UnmatchedExternal   []UnmatchedEntry `json:"unmatchedExternal"`
	Discrepancies       []Discrepancy    `json:"discrepancies"`
}

// ReconciliationReport is the immutable aggregate output of one run. A new
// run produces a new report; prior reports are never mutated.
type ReconciliationReport struct {
	ID              string               `json:"id"`
	GeneratedAt     time.Time            `json:"generatedAt"`
	Summary         ReportSummary        `json:"summary"`
	Reconciliation  ReconciliationDetail `json:"reconciliation"`
	Warnings        []string             `json:"warnings,omitempty"`
	PartialExternal bool                 `json:"partialExternal,omitempty"`
}

// Dollars converts signed minor units to a decimal dollar amount for
// display and report totals.
func Dollars(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
