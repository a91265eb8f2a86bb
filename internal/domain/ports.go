package domain

import "context"

// CatalogReader fetches listing snapshots. Returns ErrListingNotFound when
// the listing does not exist.
type CatalogReader interface {
	FetchListing(ctx context.Context, id string) (*ListingSnapshot, error)
}

// CatalogWriter applies partial updates to a listing. A non-nil error means
// the call itself failed; a rejected update comes back as an unsuccessful
// MutationResult with field errors.
type CatalogWriter interface {
	MutateListing(ctx context.Context, id string, update ListingUpdate) (MutationResult, error)
}

type Catalog interface {
	CatalogReader
	CatalogWriter
}

// ContentGenerator produces suggested content for a listing field.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (Generated, error)
}

// CreditLedger gates and accounts for AI-consuming operations.
type CreditLedger interface {
	Gate(ctx context.Context, shopID string) (GateDecision, error)
	Consume(ctx context.Context, shopID string) (CreditState, error)
}

// AuditStore keeps exactly one current audit per listing per shop.
type AuditStore interface {
	SaveAudit(ctx context.Context, result AuditResult) error
	LatestAudit(ctx context.Context, shopID, listingID string) (*AuditResult, error)
}

// VersionHistory is the append-only log of field mutations.
type VersionHistory interface {
	Append(ctx context.Context, entries ...VersionEntry) error
	Entry(ctx context.Context, shopID, entryID string) (*VersionEntry, error)
	List(ctx context.Context, shopID, listingID string) ([]VersionEntry, error)
}

// SettingsStore provides per-shop rule definitions and fix defaults.
type SettingsStore interface {
	ShopSettings(ctx context.Context, shopID string) (ShopSettings, error)
}

// RuleEditor mutates persisted rule definitions.
type RuleEditor interface {
	SetRuleEnabled(ctx context.Context, shopID string, key RuleKey, enabled bool) error
	SetRuleWeight(ctx context.Context, shopID string, key RuleKey, weight int) error
	SeedRules(ctx context.Context, shopID string, template ChecklistTemplate) (int, error)
}

// ShopSettings is everything the engine needs to know about one shop.
type ShopSettings struct {
	ShopID      string                `json:"shop_id"`
	Rules       []RuleDefinition      `json:"rules"`
	FixDefaults map[RuleKey]FixConfig `json:"fix_defaults,omitempty"`
}

// Definition returns the rule definition for key.
func (s ShopSettings) Definition(key RuleKey) (RuleDefinition, bool) {
	for _, d := range s.Rules {
		if d.Key == key {
			return d, true
		}
	}
	return RuleDefinition{}, false
}
