// Package rules holds the listing checks and the registry that maps rule
// keys to them. Rules are pure: they read a snapshot and a typed config and
// never perform I/O.
package rules

import (
	"fmt"

	"github.com/abdidvp/shelfready/internal/domain"
)

// Rule evaluates one listing attribute.
type Rule interface {
	Evaluate(l *domain.ListingSnapshot, cfg domain.RuleConfig) (domain.Evaluation, error)
}

// Func adapts a plain function to the Rule interface.
type Func func(l *domain.ListingSnapshot, cfg domain.RuleConfig) (domain.Evaluation, error)

func (f Func) Evaluate(l *domain.ListingSnapshot, cfg domain.RuleConfig) (domain.Evaluation, error) {
	return f(l, cfg)
}

// typed wraps a rule that expects a specific config type.
func typed[C domain.RuleConfig](fn func(*domain.ListingSnapshot, C) domain.Evaluation) Rule {
	return Func(func(l *domain.ListingSnapshot, cfg domain.RuleConfig) (domain.Evaluation, error) {
		c, ok := cfg.(C)
		if !ok {
			var want C
			return domain.Evaluation{}, fmt.Errorf("rule expects %T config, got %T", want, cfg)
		}
		return fn(l, c), nil
	})
}
