package domain

import (
	"math"
	"time"
)

// FixType classifies how a failed rule can be remediated.
type FixType string

const (
	FixManual FixType = "manual"
	FixAuto   FixType = "auto"
	FixAI     FixType = "ai"
)

// Valid reports whether t is one of the known fix types.
func (t FixType) Valid() bool {
	return t == FixManual || t == FixAuto || t == FixAI
}

type RuleStatus string

const (
	StatusPassed RuleStatus = "passed"
	StatusFailed RuleStatus = "failed"
)

type AuditStatus string

const (
	AuditReady      AuditStatus = "ready"
	AuditIncomplete AuditStatus = "incomplete"
)

// Image is a single listing image. AltText may be empty.
type Image struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
}

// ListingSnapshot is an immutable view of a catalog product, fetched once per
// audit pass.
type ListingSnapshot struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	DescriptionHTML string            `json:"description_html"`
	Vendor          string            `json:"vendor"`
	ProductType     string            `json:"product_type"`
	Tags            []string          `json:"tags"`
	Images          []Image           `json:"images"`
	SEOTitle        string            `json:"seo_title"`
	SEODescription  string            `json:"seo_description"`
	Collections     []string          `json:"collections"`
	Metafields      map[string]string `json:"metafields,omitempty"`
}

// RuleDefinition is a shop's configured instance of a registered rule.
// Config is parsed from RawConfig once, when the definition is loaded. A nil
// Config means parsing failed and the definition is skipped during audits.
type RuleDefinition struct {
	ID          int64          `json:"id"`
	Key         RuleKey        `json:"key"`
	Label       string         `json:"label"`
	RawConfig   map[string]any `json:"config,omitempty"`
	Config      RuleConfig     `json:"-"`
	Enabled     bool           `json:"enabled"`
	Weight      int            `json:"weight"`
	FixType     FixType        `json:"fix_type,omitempty"`
	TargetField string         `json:"target_field,omitempty"`
	Position    int            `json:"position"`
}

// EffectiveWeight returns the definition weight, defaulting to 1.
func (d RuleDefinition) EffectiveWeight() int {
	if d.Weight <= 0 {
		return 1
	}
	return d.Weight
}

// Evaluation is what a rule returns for one listing. FixType and TargetField
// are optional overrides of the definition defaults.
type Evaluation struct {
	Passed      bool
	Details     string
	CanAutoFix  bool
	FixType     FixType
	TargetField string
}

// RuleResult is the outcome of evaluating one definition against one listing.
type RuleResult struct {
	DefinitionID int64      `json:"definition_id"`
	Key          RuleKey    `json:"key"`
	Label        string     `json:"label"`
	Weight       int        `json:"weight"`
	Status       RuleStatus `json:"status"`
	Details      string     `json:"details,omitempty"`
	CanAutoFix   bool       `json:"can_auto_fix"`
	FixType      FixType    `json:"fix_type"`
	TargetField  string     `json:"target_field,omitempty"`
}

func (r RuleResult) Failed() bool { return r.Status == StatusFailed }

// AuditResult aggregates all enabled rule results for one listing.
type AuditResult struct {
	ShopID      string       `json:"shop_id,omitempty"`
	ListingID   string       `json:"listing_id"`
	Results     []RuleResult `json:"results"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	AutoFixable int          `json:"auto_fixable"`
	AIFixable   int          `json:"ai_fixable"`
	Total       int          `json:"total"`
	Status      AuditStatus  `json:"status"`
	Score       int          `json:"score"`
	AuditedAt   time.Time    `json:"audited_at"`
}

// Result returns the result for the given rule key.
func (a *AuditResult) Result(key RuleKey) (RuleResult, bool) {
	for _, r := range a.Results {
		if r.Key == key {
			return r, true
		}
	}
	return RuleResult{}, false
}

func (a *AuditResult) Grade() string { return GradeFor(a.Score) }

// ComputeWeightedScore returns round(100 * passed weight / total weight).
// An empty checklist scores 100.
func ComputeWeightedScore(results []RuleResult) int {
	var passed, total int
	for _, r := range results {
		total += r.Weight
		if r.Status == StatusPassed {
			passed += r.Weight
		}
	}
	if total == 0 {
		return 100
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

func GradeFor(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
