package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/savegress/ledgerlens/pkg/models"
)

var (
	ErrNegativeTolerance = errors.New("tolerance must not be negative")
	ErrInvalidThreshold  = errors.New("auto-match confidence threshold must be in [0,1]")
	ErrInvalidWeights    = errors.New("score weights must be non-negative and sum to a positive value")
	ErrInvalidPeriod     = errors.New("period end must be after period start")
)

// TolerancePolicy holds the thresholds that drive matching. It is pure
// configuration: the algorithm never hard-codes a tolerance, so policy can
// be swapped per currency or per data-source reliability.
type TolerancePolicy struct {
	// ExactToleranceCents is the amount difference still considered exact.
	ExactToleranceCents int64 `yaml:"exact_tolerance_cents" json:"exactToleranceCents"`
	// FuzzyToleranceCents is the maximum amount difference for a fuzzy match.
	FuzzyToleranceCents int64 `yaml:"fuzzy_tolerance_cents" json:"fuzzyToleranceCents"`
	// TimingTolerance is the maximum timestamp difference for any match.
	TimingTolerance time.Duration `yaml:"timing_tolerance" json:"timingTolerance"`
	// AutoMatchConfidence gates automatic binding of the top candidate.
	AutoMatchConfidence float64 `yaml:"auto_match_confidence" json:"autoMatchConfidence"`

	// AmountWeight and TimingWeight combine the two proximity scores into a
	// single confidence. Amount equality is the stronger signal: settlement
	// delays are routine, amount drift is not.
	AmountWeight float64 `yaml:"amount_weight" json:"amountWeight"`
	TimingWeight float64 `yaml:"timing_weight" json:"timingWeight"`

	// SameDayThreshold is the stricter sub-threshold for flagging a timing
	// discrepancy on a pair that matched within the overall tolerance.
	SameDayThreshold time.Duration `yaml:"same_day_threshold" json:"sameDayThreshold"`
	// CorrelationKeys are the metadata keys compared for metadata mismatches.
	CorrelationKeys []string `yaml:"correlation_keys" json:"correlationKeys"`
}

// DefaultPolicy returns the stock tolerance policy: exact amounts, $1.00
// fuzzy tolerance, a 7-day timing window and a 0.8 auto-match threshold.
func DefaultPolicy() TolerancePolicy {
	return TolerancePolicy{
		ExactToleranceCents: 0,
		FuzzyToleranceCents: 100,
		TimingTolerance:     7 * 24 * time.Hour,
		AutoMatchConfidence: 0.8,
		AmountWeight:        0.7,
		TimingWeight:        0.3,
		SameDayThreshold:    24 * time.Hour,
		CorrelationKeys:     []string{"currency", "reference"},
	}
}

// Validate rejects operator errors outright. A bad policy fails the whole
// run, unlike malformed input records which are skipped with warnings.
func (p TolerancePolicy) Validate() error {
	if p.ExactToleranceCents < 0 || p.FuzzyToleranceCents < 0 || p.TimingTolerance < 0 {
		return ErrNegativeTolerance
	}
	if p.AutoMatchConfidence < 0 || p.AutoMatchConfidence > 1 {
		return ErrInvalidThreshold
	}
	if p.AmountWeight < 0 || p.TimingWeight < 0 || p.AmountWeight+p.TimingWeight <= 0 {
		return ErrInvalidWeights
	}
	if p.SameDayThreshold < 0 {
		return fmt.Errorf("same-day threshold: %w", ErrNegativeTolerance)
	}
	return nil
}

// Relaxed returns the widened policy used when scanning for possible-match
// suggestions: double the fuzzy tolerance and double the timing window.
// Suggestions produced under it are never auto-bound.
func (p TolerancePolicy) Relaxed() TolerancePolicy {
	relaxed := p
	relaxed.FuzzyToleranceCents = p.FuzzyToleranceCents * 2
	relaxed.TimingTolerance = p.TimingTolerance * 2
	return relaxed
}

// SeverityRule maps a discrepancy onto a severity tier. Rules are ordered
// data, evaluated highest severity first, so operators can tune thresholds
// without a code change.
type SeverityRule struct {
	Severity Severity `yaml:"severity" json:"severity"`
	// MinAmountCents is the minimum absolute internal transaction amount for
	// the rule to apply.
	MinAmountCents int64 `yaml:"min_amount_cents" json:"minAmountCents"`
	// Conditions name discrepancy types or externally supplied transaction
	// flags; the rule applies when any of them holds for the pair.
	Conditions []string `yaml:"conditions" json:"conditions"`
}

// Severity aliases the models type for yaml-friendly rule declarations.
type Severity = models.Severity

// DefaultSeverityRules returns the stock severity table.
func DefaultSeverityRules() []SeverityRule {
	return []SeverityRule{
		{
			Severity:       models.SeverityCritical,
			MinAmountCents: 100_000,
			Conditions:     []string{"fraud_indicator", "compliance_violation"},
		},
		{
			Severity:       models.SeverityHigh,
			MinAmountCents: 50_000,
			Conditions:     []string{string(models.DiscrepancyAmountMismatch), "duplicate_transaction"},
		},
		{
			Severity:       models.SeverityMedium,
			MinAmountCents: 10_000,
			Conditions:     []string{string(models.DiscrepancyStatusMismatch), string(models.DiscrepancyTimingMismatch)},
		},
	}
}

// ValidateSeverityRules rejects malformed rule tables.
func ValidateSeverityRules(rules []SeverityRule) error {
	for i, rule := range rules {
		switch rule.Severity {
		case models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical:
		default:
			return fmt.Errorf("severity rule %d: unknown severity %q", i, rule.Severity)
		}
		if rule.MinAmountCents < 0 {
			return fmt.Errorf("severity rule %d: %w", i, ErrNegativeTolerance)
		}
		if len(rule.Conditions) == 0 {
			return fmt.Errorf("severity rule %d: at least one condition required", i)
		}
	}
	return nil
}
