// Package audit runs a shop's checklist against one listing snapshot and
// aggregates the rule results into a scored AuditResult.
package audit

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

// Engine evaluates checklists. It performs no I/O and never reads the clock.
type Engine struct {
	registry *rules.Registry
	log      logrus.FieldLogger
}

func NewEngine(registry *rules.Registry, log logrus.FieldLogger) *Engine {
	return &Engine{registry: registry, log: log}
}

// Run evaluates every enabled definition against the listing exactly once,
// in position order, and returns the aggregate. Definitions with an unknown
// key or an unparsed config are skipped with a warning. AuditedAt and ShopID
// are left for the caller to stamp.
func (e *Engine) Run(listing *domain.ListingSnapshot, defs []domain.RuleDefinition) domain.AuditResult {
	ordered := make([]domain.RuleDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Enabled {
			ordered = append(ordered, d)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})

	result := domain.AuditResult{ListingID: listing.ID, Results: make([]domain.RuleResult, 0, len(ordered))}
	for _, d := range ordered {
		fields := logrus.Fields{"rule": d.Key, "definition_id": d.ID, "listing_id": listing.ID}
		rule, ok := e.registry.Lookup(d.Key)
		if !ok {
			e.log.WithFields(fields).Warn("unknown rule key, skipped")
			continue
		}
		if d.Config == nil {
			e.log.WithFields(fields).Warn("rule config missing or invalid, skipped")
			continue
		}
		result.Results = append(result.Results, resolve(d, invoke(rule, listing, d.Config)))
	}
	tally(&result)
	return result
}

// RunChecklist is a convenience for one-off audits.
func RunChecklist(listing *domain.ListingSnapshot, defs []domain.RuleDefinition, registry *rules.Registry, log logrus.FieldLogger) domain.AuditResult {
	return NewEngine(registry, log).Run(listing, defs)
}

// invoke calls the rule, turning returned errors and panics into a failed,
// manual-only evaluation.
func invoke(rule rules.Rule, listing *domain.ListingSnapshot, cfg domain.RuleConfig) (ev domain.Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			ev = fault(fmt.Errorf("panic: %v", r))
		}
	}()
	ev, err := rule.Evaluate(listing, cfg)
	if err != nil {
		return fault(err)
	}
	return ev
}

func fault(err error) domain.Evaluation {
	return domain.Evaluation{
		Details:    fmt.Sprintf("internal error: %v", err),
		CanAutoFix: false,
		FixType:    domain.FixManual,
	}
}

// resolve merges the evaluation with the definition defaults: the value the
// rule returned wins, then the definition's declared value, then manual.
func resolve(d domain.RuleDefinition, ev domain.Evaluation) domain.RuleResult {
	rr := domain.RuleResult{
		DefinitionID: d.ID,
		Key:          d.Key,
		Label:        d.Label,
		Weight:       d.EffectiveWeight(),
		Status:       domain.StatusFailed,
		Details:      ev.Details,
		CanAutoFix:   ev.CanAutoFix,
		FixType:      ev.FixType,
		TargetField:  ev.TargetField,
	}
	if ev.Passed {
		rr.Status = domain.StatusPassed
		rr.CanAutoFix = false
	}
	if rr.FixType == "" {
		rr.FixType = d.FixType
	}
	if !rr.FixType.Valid() {
		rr.FixType = domain.FixManual
	}
	if rr.TargetField == "" {
		rr.TargetField = d.TargetField
	}
	return rr
}

func tally(a *domain.AuditResult) {
	a.Total = len(a.Results)
	for _, r := range a.Results {
		if !r.Failed() {
			a.Passed++
			continue
		}
		a.Failed++
		if !r.CanAutoFix {
			continue
		}
		switch r.FixType {
		case domain.FixAuto:
			a.AutoFixable++
		case domain.FixAI:
			a.AIFixable++
		}
	}
	a.Score = domain.ComputeWeightedScore(a.Results)
	a.Status = domain.AuditIncomplete
	if a.Failed == 0 {
		a.Status = domain.AuditReady
	}
}
