package rules

import "github.com/abdidvp/shelfready/internal/domain"

// Registry maps rule keys to implementations.
type Registry struct {
	rules map[domain.RuleKey]Rule
}

func NewRegistry(rules map[domain.RuleKey]Rule) *Registry {
	return &Registry{rules: rules}
}

// Lookup returns the rule registered for key. Unknown keys report false.
func (r *Registry) Lookup(key domain.RuleKey) (Rule, bool) {
	rule, ok := r.rules[key]
	return rule, ok
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

// Default returns the registry of built-in rules.
func Default() *Registry {
	return NewRegistry(map[domain.RuleKey]Rule{
		domain.RuleTitleLength:        typed(titleLength),
		domain.RuleDescriptionLength:  typed(descriptionLength),
		domain.RuleHasVendor:          typed(hasVendor),
		domain.RuleHasProductType:     typed(hasProductType),
		domain.RuleHasTags:            typed(hasTags),
		domain.RuleMinImages:          typed(minImages),
		domain.RuleImageAltText:       typed(imageAltText),
		domain.RuleSEOTitle:           typed(seoTitle),
		domain.RuleSEODescription:     typed(seoDescription),
		domain.RuleHasCollections:     typed(hasCollections),
		domain.RuleTagFormat:          typed(tagFormat),
		domain.RuleRequiredMetafields: typed(requiredMetafields),
	})
}
