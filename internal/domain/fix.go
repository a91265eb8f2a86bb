package domain

import (
	"fmt"
	"slices"
	"strings"
)

// FixConfig holds fix-specific parameters such as the default collection.
type FixConfig map[string]string

// Merge overlays overrides on top of c. Override values always win.
func (c FixConfig) Merge(overrides FixConfig) FixConfig {
	out := make(FixConfig, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func (c FixConfig) Get(key, def string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return def
}

// DenialReason explains why the credit gate refused an AI operation.
type DenialReason string

const (
	DenialLocked    DenialReason = "locked"
	DenialExhausted DenialReason = "exhausted"
)

// Message is the user-facing text for the denial.
func (r DenialReason) Message() string {
	switch r {
	case DenialLocked:
		return "AI features are locked on the current plan"
	case DenialExhausted:
		return "AI credits exhausted for this period"
	default:
		return string(r)
	}
}

// FixOutcome is the result of one fix dispatch.
type FixOutcome struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	RuleKey RuleKey       `json:"rule_key,omitempty"`
	FixType FixType       `json:"fix_type,omitempty"`
	NoOp    bool          `json:"no_op,omitempty"`
	Denied  DenialReason  `json:"denied,omitempty"`
	Changes []FieldChange `json:"changes,omitempty"`
	Audit   *AuditResult  `json:"audit,omitempty"`
}

// FieldError is a structured catalog mutation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MutationResult is the catalog's answer to a mutation.
type MutationResult struct {
	Success bool         `json:"success"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// ErrorMessage joins field errors verbatim as "field: message; ...".
func (m MutationResult) ErrorMessage() string {
	if len(m.Errors) == 0 {
		return "mutation failed"
	}
	parts := make([]string, 0, len(m.Errors))
	for _, e := range m.Errors {
		if e.Field == "" {
			parts = append(parts, e.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// ListingUpdate is a partial set of fields to write. Nil fields are unchanged.
type ListingUpdate struct {
	Title           *string           `json:"title,omitempty"`
	DescriptionHTML *string           `json:"description_html,omitempty"`
	Vendor          *string           `json:"vendor,omitempty"`
	ProductType     *string           `json:"product_type,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	SEOTitle        *string           `json:"seo_title,omitempty"`
	SEODescription  *string           `json:"seo_description,omitempty"`
	AddCollections  []string          `json:"add_collections,omitempty"`
	ImageAltText    map[string]string `json:"image_alt_text,omitempty"`
	AddImages       []Image           `json:"add_images,omitempty"`
}

func (u ListingUpdate) IsEmpty() bool {
	return u.Title == nil && u.DescriptionHTML == nil && u.Vendor == nil &&
		u.ProductType == nil && u.Tags == nil && u.SEOTitle == nil &&
		u.SEODescription == nil && len(u.AddCollections) == 0 &&
		len(u.ImageAltText) == 0 && len(u.AddImages) == 0
}

// FieldChange records one field's previous and new value.
type FieldChange struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	New      string `json:"new"`
}

// Changes lists the fields the update would actually change on l.
func (u ListingUpdate) Changes(l *ListingSnapshot) []FieldChange {
	var out []FieldChange
	add := func(field, prev string, next *string) {
		if next != nil && *next != prev {
			out = append(out, FieldChange{Field: field, Previous: prev, New: *next})
		}
	}
	add(FieldTitle, l.Title, u.Title)
	add(FieldDescription, l.DescriptionHTML, u.DescriptionHTML)
	add(FieldVendor, l.Vendor, u.Vendor)
	add(FieldProductType, l.ProductType, u.ProductType)
	if u.Tags != nil && !slices.Equal(u.Tags, l.Tags) {
		out = append(out, FieldChange{Field: FieldTags, Previous: JoinList(l.Tags), New: JoinList(u.Tags)})
	}
	add(FieldSEOTitle, l.SEOTitle, u.SEOTitle)
	add(FieldSEODescription, l.SEODescription, u.SEODescription)
	if len(u.AddCollections) > 0 {
		next := append(slices.Clone(l.Collections), u.AddCollections...)
		out = append(out, FieldChange{Field: FieldCollections, Previous: JoinList(l.Collections), New: JoinList(next)})
	}
	for _, img := range l.Images {
		if alt, ok := u.ImageAltText[img.ID]; ok && alt != img.AltText {
			out = append(out, FieldChange{Field: FieldImageAltText + ":" + img.ID, Previous: img.AltText, New: alt})
		}
	}
	for _, img := range u.AddImages {
		out = append(out, FieldChange{Field: FieldImages, New: img.URL})
	}
	return out
}

// JoinList renders a list field the way catalogs store tags.
func JoinList(items []string) string { return strings.Join(items, ", ") }

// SplitList is the inverse of JoinList.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func StringPtr(s string) *string { return &s }

// Apply returns a copy of l with the update applied.
func (u ListingUpdate) Apply(l ListingSnapshot) ListingSnapshot {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&l.Title, u.Title)
	set(&l.DescriptionHTML, u.DescriptionHTML)
	set(&l.Vendor, u.Vendor)
	set(&l.ProductType, u.ProductType)
	set(&l.SEOTitle, u.SEOTitle)
	set(&l.SEODescription, u.SEODescription)
	if u.Tags != nil {
		l.Tags = slices.Clone(u.Tags)
	}
	if len(u.AddCollections) > 0 {
		l.Collections = append(slices.Clone(l.Collections), u.AddCollections...)
	}
	if len(u.ImageAltText) > 0 || len(u.AddImages) > 0 {
		images := slices.Clone(l.Images)
		for i := range images {
			if alt, ok := u.ImageAltText[images[i].ID]; ok {
				images[i].AltText = alt
			}
		}
		l.Images = append(images, u.AddImages...)
	}
	return l
}
