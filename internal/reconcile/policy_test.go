package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savegress/ledgerlens/pkg/models"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, int64(0), policy.ExactToleranceCents)
	assert.Equal(t, int64(100), policy.FuzzyToleranceCents)
	assert.Equal(t, 7*24*time.Hour, policy.TimingTolerance)
	assert.Equal(t, 0.8, policy.AutoMatchConfidence)
	assert.InDelta(t, 1.0, policy.AmountWeight+policy.TimingWeight, 1e-9)

	require.NoError(t, policy.Validate())
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TolerancePolicy)
		want   error
	}{
		{"negative fuzzy tolerance", func(p *TolerancePolicy) { p.FuzzyToleranceCents = -100 }, ErrNegativeTolerance},
		{"negative timing tolerance", func(p *TolerancePolicy) { p.TimingTolerance = -time.Hour }, ErrNegativeTolerance},
		{"negative exact tolerance", func(p *TolerancePolicy) { p.ExactToleranceCents = -1 }, ErrNegativeTolerance},
		{"threshold above one", func(p *TolerancePolicy) { p.AutoMatchConfidence = 1.5 }, ErrInvalidThreshold},
		{"threshold below zero", func(p *TolerancePolicy) { p.AutoMatchConfidence = -0.1 }, ErrInvalidThreshold},
		{"zero weights", func(p *TolerancePolicy) { p.AmountWeight, p.TimingWeight = 0, 0 }, ErrInvalidWeights},
		{"negative weight", func(p *TolerancePolicy) { p.AmountWeight = -0.5 }, ErrInvalidWeights},
		{"negative same-day threshold", func(p *TolerancePolicy) { p.SameDayThreshold = -time.Hour }, ErrNegativeTolerance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(&policy)
			assert.ErrorIs(t, policy.Validate(), tt.want)
		})
	}
}

func TestDefaultSeverityRulesAreValid(t *testing.T) {
	rules := DefaultSeverityRules()
	require.NoError(t, ValidateSeverityRules(rules))

	// Ordered highest severity first.
	require.Len(t, rules, 3)
	assert.Equal(t, models.SeverityCritical, rules[0].Severity)
	assert.Equal(t, models.SeverityHigh, rules[1].Severity)
	assert.Equal(t, models.SeverityMedium, rules[2].Severity)
}

func TestValidateSeverityRules(t *testing.T) {
	assert.Error(t, ValidateSeverityRules([]SeverityRule{
		{Severity: "urgent", MinAmountCents: 100, Conditions: []string{"amount_mismatch"}},
	}))
	assert.Error(t, ValidateSeverityRules([]SeverityRule{
		{Severity: models.SeverityHigh, MinAmountCents: -1, Conditions: []string{"amount_mismatch"}},
	}))
	assert.Error(t, ValidateSeverityRules([]SeverityRule{
		{Severity: models.SeverityHigh, MinAmountCents: 100},
	}))
}
