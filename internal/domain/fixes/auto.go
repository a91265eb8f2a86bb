package fixes

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

var builtin = rules.Default()

// rulePasses evaluates the built-in rule for key against the target. The
// target's rule config is used when it belongs to key, defaults otherwise.
func rulePasses(key domain.RuleKey, t Target) bool {
	cfg := t.Rule
	if cfg == nil || cfg.RuleKey() != key {
		var err error
		if cfg, err = rules.ParseConfig(key, nil); err != nil {
			return false
		}
	}
	rule, ok := builtin.Lookup(key)
	if !ok {
		return false
	}
	ev, err := rule.Evaluate(t.Listing, cfg)
	return err == nil && ev.Passed
}

// attributeFix fills an empty scalar attribute from a configured default.
type attributeFix struct {
	field  string
	option string
}

func (attributeFix) Type() domain.FixType { return domain.FixAuto }

func (f attributeFix) current(l *domain.ListingSnapshot) string {
	if f.field == domain.FieldVendor {
		return l.Vendor
	}
	return l.ProductType
}

func (f attributeFix) Satisfied(t Target) bool {
	return strings.TrimSpace(f.current(t.Listing)) != ""
}

func (attributeFix) Generation(Target) *domain.GenerationRequest { return nil }

func (f attributeFix) Build(t Target, _ *domain.Generated) (domain.ListingUpdate, error) {
	v := strings.TrimSpace(t.Config.Get(f.option, ""))
	if v == "" {
		return domain.ListingUpdate{}, domain.NewUserError(
			fmt.Sprintf("no default %s configured; set fix config %q", strings.ReplaceAll(f.field, "_", " "), f.option), nil)
	}
	if f.field == domain.FieldVendor {
		return domain.ListingUpdate{Vendor: &v}, nil
	}
	return domain.ListingUpdate{ProductType: &v}, nil
}

// seoTitleFix derives the SEO title from the product title.
type seoTitleFix struct{}

func (seoTitleFix) Type() domain.FixType { return domain.FixAuto }

func (seoTitleFix) Satisfied(t Target) bool { return rulePasses(domain.RuleSEOTitle, t) }

func (seoTitleFix) Generation(Target) *domain.GenerationRequest { return nil }

func (seoTitleFix) Build(t Target, _ *domain.Generated) (domain.ListingUpdate, error) {
	limit := 70
	if c, ok := t.Rule.(rules.SEOTitleConfig); ok {
		limit = c.MaxLength
	}
	base := strings.TrimSpace(t.Listing.Title)
	if base == "" {
		return domain.ListingUpdate{}, domain.NewUserError("a product title is required to derive the SEO title", nil)
	}
	if suffix := t.Config.Get("suffix", ""); suffix != "" {
		if withSuffix := base + " " + suffix; utf8.RuneCountInString(withSuffix) <= limit {
			base = withSuffix
		}
	}
	v := Truncate(base, limit)
	return domain.ListingUpdate{SEOTitle: &v}, nil
}

// collectionFix adds the listing to the configured default collection.
type collectionFix struct{}

func (collectionFix) Type() domain.FixType { return domain.FixAuto }

func (collectionFix) Satisfied(t Target) bool {
	c := t.Config.Get("collection", "")
	if c != "" {
		return slices.Contains(t.Listing.Collections, c)
	}
	return len(t.Listing.Collections) > 0
}

func (collectionFix) Generation(Target) *domain.GenerationRequest { return nil }

func (collectionFix) Build(t Target, _ *domain.Generated) (domain.ListingUpdate, error) {
	c := strings.TrimSpace(t.Config.Get("collection", ""))
	if c == "" {
		return domain.ListingUpdate{}, domain.NewUserError(`no default collection configured; set fix config "collection"`, nil)
	}
	return domain.ListingUpdate{AddCollections: []string{c}}, nil
}

// altTextFix describes images from the product title.
type altTextFix struct{}

func (altTextFix) Type() domain.FixType { return domain.FixAuto }

func (altTextFix) Satisfied(t Target) bool { return len(rules.MissingAltText(t.Listing.Images)) == 0 }

func (altTextFix) Generation(Target) *domain.GenerationRequest { return nil }

func (altTextFix) Build(t Target, _ *domain.Generated) (domain.ListingUpdate, error) {
	title := strings.TrimSpace(t.Listing.Title)
	if title == "" {
		return domain.ListingUpdate{}, domain.NewUserError("a product title is required to derive alt text", nil)
	}
	alts := make(map[string]string)
	for i, img := range t.Listing.Images {
		if strings.TrimSpace(img.AltText) != "" {
			continue
		}
		if i == 0 {
			alts[img.ID] = title
		} else {
			alts[img.ID] = fmt.Sprintf("%s - view %d", title, i+1)
		}
	}
	return domain.ListingUpdate{ImageAltText: alts}, nil
}

// tagFormatFix rewrites tags into readable lower-case words.
type tagFormatFix struct{}

func (tagFormatFix) Type() domain.FixType { return domain.FixAuto }

func (tagFormatFix) Satisfied(t Target) bool {
	return len(rules.UnreadableTags(t.Listing.Tags)) == 0
}

func (tagFormatFix) Generation(Target) *domain.GenerationRequest { return nil }

func (tagFormatFix) Build(t Target, _ *domain.Generated) (domain.ListingUpdate, error) {
	return domain.ListingUpdate{Tags: rules.NormalizeTags(t.Listing.Tags)}, nil
}

// Truncate shortens s to at most limit runes, cutting at a word boundary when
// one exists.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)[:limit]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:-|")
}
