package domain

import "fmt"

// ValidRuleKeys enumerates every rule key the engine ships with.
var ValidRuleKeys = []RuleKey{
	RuleTitleLength, RuleDescriptionLength, RuleHasVendor, RuleHasProductType,
	RuleHasTags, RuleMinImages, RuleImageAltText, RuleSEOTitle,
	RuleSEODescription, RuleHasCollections, RuleTagFormat, RuleRequiredMetafields,
}

// ChecklistTemplate is the onboarding checklist loaded from .shelfready.yaml.
type ChecklistTemplate struct {
	Rules       []RuleTemplate        `yaml:"rules"        json:"rules"`
	FixDefaults map[RuleKey]FixConfig `yaml:"fix_defaults" json:"fix_defaults,omitempty"`
}

// RuleTemplate describes one rule definition to create at onboarding.
// Enabled is a pointer to distinguish "not specified" from false.
type RuleTemplate struct {
	Key         RuleKey        `yaml:"key"                    json:"key"`
	Label       string         `yaml:"label"                  json:"label"`
	Config      map[string]any `yaml:"config,omitempty"       json:"config,omitempty"`
	Enabled     *bool          `yaml:"enabled,omitempty"      json:"enabled,omitempty"`
	Weight      int            `yaml:"weight,omitempty"       json:"weight,omitempty"`
	FixType     FixType        `yaml:"fix_type,omitempty"     json:"fix_type,omitempty"`
	TargetField string         `yaml:"target_field,omitempty" json:"target_field,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

// DefaultChecklist returns the checklist every new shop starts with.
func DefaultChecklist() ChecklistTemplate {
	return ChecklistTemplate{
		Rules: []RuleTemplate{
			{Key: RuleTitleLength, Label: "Title length", Weight: 2, FixType: FixAI, TargetField: FieldTitle,
				Config: map[string]any{"min": 20, "max": 70}},
			{Key: RuleDescriptionLength, Label: "Description length", Weight: 2, FixType: FixAI, TargetField: FieldDescription,
				Config: map[string]any{"min_words": 50}},
			{Key: RuleHasVendor, Label: "Has vendor", Weight: 1, FixType: FixAuto, TargetField: FieldVendor},
			{Key: RuleHasProductType, Label: "Has product type", Weight: 1, FixType: FixAuto, TargetField: FieldProductType},
			{Key: RuleHasTags, Label: "Has tags", Weight: 2, FixType: FixAI, TargetField: FieldTags,
				Config: map[string]any{"min_count": 3}},
			{Key: RuleMinImages, Label: "Minimum images", Weight: 2, FixType: FixManual, TargetField: FieldImages,
				Config: map[string]any{"min_count": 1}},
			{Key: RuleImageAltText, Label: "Image alt text", Weight: 1, FixType: FixAuto, TargetField: FieldImageAltText},
			{Key: RuleSEOTitle, Label: "SEO title", Weight: 1, FixType: FixAuto, TargetField: FieldSEOTitle,
				Config: map[string]any{"max_length": 70}},
			{Key: RuleSEODescription, Label: "SEO description", Weight: 2, FixType: FixAI, TargetField: FieldSEODescription,
				Config: map[string]any{"min_length": 50, "max_length": 160}},
			{Key: RuleHasCollections, Label: "In a collection", Weight: 1, FixType: FixAuto, TargetField: FieldCollections},
			{Key: RuleTagFormat, Label: "Readable tags", Weight: 1, FixType: FixAuto, TargetField: FieldTags, Enabled: boolPtr(false)},
			{Key: RuleRequiredMetafields, Label: "Required metafields", Weight: 1, FixType: FixManual, TargetField: FieldMetafields,
				Enabled: boolPtr(false), Config: map[string]any{"keys": []any{}}},
		},
	}
}

// Definitions converts the template into ordered rule definitions. Configs
// are left unparsed; the rules package parses them at load time.
func (t ChecklistTemplate) Definitions() []RuleDefinition {
	defs := make([]RuleDefinition, 0, len(t.Rules))
	for i, r := range t.Rules {
		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}
		weight := r.Weight
		if weight == 0 {
			weight = 1
		}
		defs = append(defs, RuleDefinition{
			Key:         r.Key,
			Label:       r.Label,
			RawConfig:   r.Config,
			Enabled:     enabled,
			Weight:      weight,
			FixType:     r.FixType,
			TargetField: r.TargetField,
			Position:    i + 1,
		})
	}
	return defs
}

// Validate checks the template for structural problems. Unknown rule keys are
// allowed here: the audit engine skips them with a warning.
func (t ChecklistTemplate) Validate() error {
	seen := make(map[RuleKey]bool, len(t.Rules))
	for i, r := range t.Rules {
		if r.Key == "" {
			return fmt.Errorf("rules[%d].key must not be empty", i)
		}
		if seen[r.Key] {
			return fmt.Errorf("duplicate rule key %q", r.Key)
		}
		seen[r.Key] = true
		if r.Weight < 0 {
			return fmt.Errorf("rules[%d].weight must be >= 1 (got %d)", i, r.Weight)
		}
		if r.FixType != "" && !r.FixType.Valid() {
			return fmt.Errorf("unknown fix_type %q for rule %q (valid: manual, auto, ai)", r.FixType, r.Key)
		}
	}
	for k := range t.FixDefaults {
		if !IsKnownRuleKey(k) {
			return fmt.Errorf("unknown rule %q in fix_defaults", k)
		}
	}
	return nil
}

func IsKnownRuleKey(k RuleKey) bool {
	for _, v := range ValidRuleKeys {
		if v == k {
			return true
		}
	}
	return false
}
