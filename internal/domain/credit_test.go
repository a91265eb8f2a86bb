package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abdidvp/shelfready/internal/domain"
)

func TestCreditState_Decide(t *testing.T) {
	tests := []struct {
		name  string
		state domain.CreditState
		want  domain.GateDecision
	}{
		{"own key is never metered", domain.CreditState{HasOwnKey: true, Limit: 0, Consumed: 9},
			domain.GateDecision{Allowed: true}},
		{"zero limit is locked", domain.CreditState{Limit: 0},
			domain.GateDecision{Reason: domain.DenialLocked}},
		{"exhausted", domain.CreditState{Limit: 5, Consumed: 5},
			domain.GateDecision{Reason: domain.DenialExhausted, UsingFallbackKey: true}},
		{"allowed with remaining", domain.CreditState{Limit: 5, Consumed: 2},
			domain.GateDecision{Allowed: true, CreditsRemaining: 3, UsingFallbackKey: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Decide())
		})
	}
}

func TestCreditState_RemainingNeverNegative(t *testing.T) {
	assert.Equal(t, 0, domain.CreditState{Limit: 3, Consumed: 7}.Remaining())
}

func TestNextReset(t *testing.T) {
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		domain.NextReset(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		domain.NextReset(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
}
