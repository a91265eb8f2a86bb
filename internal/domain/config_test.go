package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/domain"
)

func TestDefaultChecklist_IsValid(t *testing.T) {
	require.NoError(t, domain.DefaultChecklist().Validate())
}

func TestDefaultChecklist_CoversEveryRule(t *testing.T) {
	defs := domain.DefaultChecklist().Definitions()
	require.Len(t, defs, len(domain.ValidRuleKeys))
	for i, d := range defs {
		assert.Equal(t, i+1, d.Position)
		assert.True(t, domain.IsKnownRuleKey(d.Key), d.Key)
	}
}

func TestDefinitions_DefaultsEnabledAndWeight(t *testing.T) {
	off := false
	defs := domain.ChecklistTemplate{Rules: []domain.RuleTemplate{
		{Key: domain.RuleHasVendor},
		{Key: domain.RuleHasTags, Enabled: &off, Weight: 3},
	}}.Definitions()

	assert.True(t, defs[0].Enabled)
	assert.Equal(t, 1, defs[0].Weight)
	assert.False(t, defs[1].Enabled)
	assert.Equal(t, 3, defs[1].Weight)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		tmpl domain.ChecklistTemplate
		msg  string
	}{
		{"empty key", domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{}}}, "rules[0].key must not be empty"},
		{"duplicate", domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{Key: "has_tags"}, {Key: "has_tags"}}}, `duplicate rule key "has_tags"`},
		{"negative weight", domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{Key: "has_tags", Weight: -1}}}, "weight must be >= 1"},
		{"bad fix type", domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{Key: "has_tags", FixType: "magic"}}}, `unknown fix_type "magic"`},
		{"unknown fix default", domain.ChecklistTemplate{FixDefaults: map[domain.RuleKey]domain.FixConfig{"nope": {}}}, `unknown rule "nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValidate_UnknownRuleKeyAllowed(t *testing.T) {
	tmpl := domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{Key: "custom_rule"}}}
	assert.NoError(t, tmpl.Validate())
}
