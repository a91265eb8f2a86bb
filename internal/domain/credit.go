package domain

import "time"

// GateDecision answers whether an AI operation may run right now.
type GateDecision struct {
	Allowed          bool         `json:"allowed"`
	Reason           DenialReason `json:"reason,omitempty"`
	CreditsRemaining int          `json:"credits_remaining"`
	UsingFallbackKey bool         `json:"using_fallback_key"`
}

// CreditState is the ledger's per-shop counters.
type CreditState struct {
	ShopID    string    `json:"shop_id"`
	Consumed  int       `json:"consumed"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
	HasOwnKey bool      `json:"has_own_key"`
}

// Remaining is the unused allowance, never negative.
func (s CreditState) Remaining() int {
	if r := s.Limit - s.Consumed; r > 0 {
		return r
	}
	return 0
}

// Decide applies the plan policy to the counters. A shop with its own key is
// never metered; a zero limit means the feature is locked.
func (s CreditState) Decide() GateDecision {
	if s.HasOwnKey {
		return GateDecision{Allowed: true, CreditsRemaining: s.Remaining()}
	}
	if s.Limit <= 0 {
		return GateDecision{Allowed: false, Reason: DenialLocked}
	}
	if s.Consumed >= s.Limit {
		return GateDecision{Allowed: false, Reason: DenialExhausted, UsingFallbackKey: true}
	}
	return GateDecision{Allowed: true, CreditsRemaining: s.Remaining(), UsingFallbackKey: true}
}

// NextReset returns the first instant of the month following t, in UTC.
func NextReset(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
