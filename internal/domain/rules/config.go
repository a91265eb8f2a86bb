package rules

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/domain"
)

type TitleLengthConfig struct{ Min, Max int }

func (TitleLengthConfig) RuleKey() domain.RuleKey { return domain.RuleTitleLength }

type DescriptionLengthConfig struct{ MinWords int }

func (DescriptionLengthConfig) RuleKey() domain.RuleKey { return domain.RuleDescriptionLength }

type HasTagsConfig struct{ MinCount int }

func (HasTagsConfig) RuleKey() domain.RuleKey { return domain.RuleHasTags }

type MinImagesConfig struct{ MinCount int }

func (MinImagesConfig) RuleKey() domain.RuleKey { return domain.RuleMinImages }

type SEOTitleConfig struct{ MaxLength int }

func (SEOTitleConfig) RuleKey() domain.RuleKey { return domain.RuleSEOTitle }

type SEODescriptionConfig struct{ MinLength, MaxLength int }

func (SEODescriptionConfig) RuleKey() domain.RuleKey { return domain.RuleSEODescription }

type RequiredMetafieldsConfig struct{ Keys []string }

func (RequiredMetafieldsConfig) RuleKey() domain.RuleKey { return domain.RuleRequiredMetafields }

// VendorConfig, ProductTypeConfig, AltTextConfig, CollectionsConfig and
// TagFormatConfig take no parameters.
type VendorConfig struct{}

func (VendorConfig) RuleKey() domain.RuleKey { return domain.RuleHasVendor }

type ProductTypeConfig struct{}

func (ProductTypeConfig) RuleKey() domain.RuleKey { return domain.RuleHasProductType }

type AltTextConfig struct{}

func (AltTextConfig) RuleKey() domain.RuleKey { return domain.RuleImageAltText }

type CollectionsConfig struct{}

func (CollectionsConfig) RuleKey() domain.RuleKey { return domain.RuleHasCollections }

type TagFormatConfig struct{}

func (TagFormatConfig) RuleKey() domain.RuleKey { return domain.RuleTagFormat }

// ParseConfig converts a raw persisted config into the typed config for key.
func ParseConfig(key domain.RuleKey, raw map[string]any) (domain.RuleConfig, error) {
	p := params{raw: raw}
	var cfg domain.RuleConfig
	switch key {
	case domain.RuleTitleLength:
		c := TitleLengthConfig{Min: p.intValue("min", 20), Max: p.intValue("max", 70)}
		if p.err == nil && c.Min > c.Max {
			p.err = fmt.Errorf("min (%d) must not exceed max (%d)", c.Min, c.Max)
		}
		cfg = c
	case domain.RuleDescriptionLength:
		cfg = DescriptionLengthConfig{MinWords: p.intValue("min_words", 50)}
	case domain.RuleHasTags:
		cfg = HasTagsConfig{MinCount: p.positiveValue("min_count", 1)}
	case domain.RuleMinImages:
		cfg = MinImagesConfig{MinCount: p.positiveValue("min_count", 1)}
	case domain.RuleSEOTitle:
		cfg = SEOTitleConfig{MaxLength: p.positiveValue("max_length", 70)}
	case domain.RuleSEODescription:
		c := SEODescriptionConfig{MinLength: p.intValue("min_length", 50), MaxLength: p.positiveValue("max_length", 160)}
		if p.err == nil && c.MinLength > c.MaxLength {
			p.err = fmt.Errorf("min_length (%d) must not exceed max_length (%d)", c.MinLength, c.MaxLength)
		}
		cfg = c
	case domain.RuleRequiredMetafields:
		cfg = RequiredMetafieldsConfig{Keys: p.stringList("keys")}
	case domain.RuleHasVendor:
		cfg = VendorConfig{}
	case domain.RuleHasProductType:
		cfg = ProductTypeConfig{}
	case domain.RuleImageAltText:
		cfg = AltTextConfig{}
	case domain.RuleHasCollections:
		cfg = CollectionsConfig{}
	case domain.RuleTagFormat:
		cfg = TagFormatConfig{}
	default:
		return nil, fmt.Errorf("%w: no config shape for rule %q", domain.ErrInvalidRuleConfig, key)
	}
	if p.err != nil {
		return nil, fmt.Errorf("%w for %q: %v", domain.ErrInvalidRuleConfig, key, p.err)
	}
	return cfg, nil
}

// Load parses the config of every definition once. A definition whose config
// is malformed keeps a nil Config and is skipped by the audit engine.
func Load(defs []domain.RuleDefinition, log logrus.FieldLogger) []domain.RuleDefinition {
	out := make([]domain.RuleDefinition, len(defs))
	for i, d := range defs {
		cfg, err := ParseConfig(d.Key, d.RawConfig)
		if err != nil && domain.IsKnownRuleKey(d.Key) {
			log.WithFields(logrus.Fields{"rule": d.Key, "definition_id": d.ID}).
				WithError(err).Warn("rule config not loaded")
		}
		d.Config = cfg
		out[i] = d
	}
	return out
}

// params reads typed values out of a raw YAML/JSON map, keeping the first
// error it meets.
type params struct {
	raw map[string]any
	err error
}

func (p *params) intValue(key string, def int) int {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return p.nonNegative(key, n)
	case int64:
		return p.nonNegative(key, int(n))
	case float64:
		if n != float64(int(n)) {
			p.fail(fmt.Errorf("%s must be a whole number (got %v)", key, n))
			return def
		}
		return p.nonNegative(key, int(n))
	default:
		p.fail(fmt.Errorf("%s must be a number (got %T)", key, v))
		return def
	}
}

func (p *params) nonNegative(key string, n int) int {
	if n < 0 {
		p.fail(fmt.Errorf("%s must be >= 0 (got %d)", key, n))
	}
	return n
}

func (p *params) positiveValue(key string, def int) int {
	n := p.intValue(key, def)
	if n <= 0 && p.err == nil {
		p.fail(fmt.Errorf("%s must be > 0 (got %d)", key, n))
	}
	return n
}

func (p *params) stringList(key string) []string {
	v, ok := p.raw[key]
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				p.fail(fmt.Errorf("%s must be a list of strings (got %T item)", key, it))
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		p.fail(fmt.Errorf("%s must be a list (got %T)", key, v))
		return nil
	}
}

func (p *params) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
