package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/domain"
)

// RuleService manages a shop's checklist: listing, toggling, reweighting
// and seeding rule definitions.
type RuleService struct {
	settings domain.SettingsStore
	editor   domain.RuleEditor
	log      logrus.FieldLogger
}

func NewRuleService(settings domain.SettingsStore, editor domain.RuleEditor, log logrus.FieldLogger) *RuleService {
	return &RuleService{settings: settings, editor: editor, log: log}
}

// ListRules returns the shop's definitions in evaluation order.
func (s *RuleService) ListRules(ctx context.Context, shopID string) ([]domain.RuleDefinition, error) {
	settings, err := s.settings.ShopSettings(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("loading shop settings: %w", err)
	}
	defs := settings.Rules
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Position != defs[j].Position {
			return defs[i].Position < defs[j].Position
		}
		return defs[i].ID < defs[j].ID
	})
	return defs, nil
}

func (s *RuleService) SetEnabled(ctx context.Context, shopID string, key domain.RuleKey, enabled bool) error {
	if err := s.editor.SetRuleEnabled(ctx, shopID, key, enabled); err != nil {
		return fmt.Errorf("updating rule %s: %w", key, err)
	}
	s.log.WithFields(logrus.Fields{"shop_id": shopID, "rule": key, "enabled": enabled}).Info("rule toggled")
	return nil
}

func (s *RuleService) SetWeight(ctx context.Context, shopID string, key domain.RuleKey, weight int) error {
	if weight < 1 {
		return domain.NewUserError(fmt.Sprintf("weight must be at least 1 (got %d)", weight), domain.ErrInvalidRuleConfig)
	}
	if err := s.editor.SetRuleWeight(ctx, shopID, key, weight); err != nil {
		return fmt.Errorf("updating rule %s: %w", key, err)
	}
	s.log.WithFields(logrus.Fields{"shop_id": shopID, "rule": key, "weight": weight}).Info("rule reweighted")
	return nil
}

// Seed creates the template's definitions for a shop. Definitions that
// already exist are kept as they are; it returns how many were created.
func (s *RuleService) Seed(ctx context.Context, shopID string, tmpl domain.ChecklistTemplate) (int, error) {
	if err := tmpl.Validate(); err != nil {
		return 0, fmt.Errorf("invalid checklist: %w", err)
	}
	n, err := s.editor.SeedRules(ctx, shopID, tmpl)
	if err != nil {
		return 0, fmt.Errorf("seeding rules: %w", err)
	}
	s.log.WithFields(logrus.Fields{"shop_id": shopID, "created": n}).Info("checklist seeded")
	return n, nil
}
