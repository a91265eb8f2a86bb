// Package fixes plans remediations for failed rules. A fix never performs
// I/O: it inspects a snapshot, optionally asks for generated content, and
// returns the single ListingUpdate the dispatcher should send to the catalog.
package fixes

import (
	"github.com/abdidvp/shelfready/internal/domain"
)

// Target is what a fix works against.
type Target struct {
	Listing *domain.ListingSnapshot
	Config  domain.FixConfig
	// Rule is the parsed config of the rule being fixed. May be nil.
	Rule domain.RuleConfig
}

// Fix remediates one rule key.
type Fix interface {
	Type() domain.FixType
	// Satisfied reports whether the listing is already in the state the
	// fix would produce.
	Satisfied(t Target) bool
	// Generation returns the content request the fix needs, or nil when the
	// update can be derived from the snapshot and config alone.
	Generation(t Target) *domain.GenerationRequest
	// Build computes the update. gen is nil when Generation returned nil.
	Build(t Target, gen *domain.Generated) (domain.ListingUpdate, error)
}

// Registry maps rule keys to fixes. It is separate from the rule registry:
// not every rule has a fix.
type Registry struct {
	fixes map[domain.RuleKey]Fix
}

func NewRegistry(fixes map[domain.RuleKey]Fix) *Registry {
	return &Registry{fixes: fixes}
}

func (r *Registry) Lookup(key domain.RuleKey) (Fix, bool) {
	f, ok := r.fixes[key]
	return f, ok
}

// Keys returns the rule keys that have a fix of the given type.
func (r *Registry) Keys(t domain.FixType) []domain.RuleKey {
	var out []domain.RuleKey
	for _, k := range domain.ValidRuleKeys {
		if f, ok := r.fixes[k]; ok && f.Type() == t {
			out = append(out, k)
		}
	}
	return out
}

// Default returns the built-in fixes.
func Default() *Registry {
	return NewRegistry(map[domain.RuleKey]Fix{
		domain.RuleHasVendor:         attributeFix{field: domain.FieldVendor, option: "vendor"},
		domain.RuleHasProductType:    attributeFix{field: domain.FieldProductType, option: "product_type"},
		domain.RuleSEOTitle:          seoTitleFix{},
		domain.RuleHasCollections:    collectionFix{},
		domain.RuleImageAltText:      altTextFix{},
		domain.RuleTagFormat:         tagFormatFix{},
		domain.RuleTitleLength:       titleFix{},
		domain.RuleDescriptionLength: descriptionFix{},
		domain.RuleSEODescription:    seoDescriptionFix{},
		domain.RuleHasTags:           tagsFix{},
	})
}
