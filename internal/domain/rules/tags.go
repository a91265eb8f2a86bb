package rules

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/camelcase"

	"github.com/abdidvp/shelfready/internal/domain"
)

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasTags(l *domain.ListingSnapshot, c HasTagsConfig) domain.Evaluation {
	n := len(nonEmpty(l.Tags))
	if n >= c.MinCount {
		return domain.Evaluation{Passed: true}
	}
	return domain.Evaluation{
		Details:    fmt.Sprintf("Product has %d tags; minimum is %d", n, c.MinCount),
		CanAutoFix: true,
	}
}

// NormalizeTag rewrites a tag into lower-case words separated by single
// spaces. "SummerDress", "summer_dress" and "summer-dress" all become
// "summer dress".
func NormalizeTag(tag string) string {
	fields := strings.FieldsFunc(tag, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	var words []string
	for _, f := range fields {
		words = append(words, splitCamel(f)...)
	}
	return strings.ToLower(strings.Join(words, " "))
}

// splitCamel splits only on lower-to-upper transitions so that acronyms and
// model numbers such as "HTML5" stay whole.
func splitCamel(word string) []string {
	var out []string
	for _, part := range camelcase.Split(word) {
		if len(out) > 0 {
			last := out[len(out)-1]
			prev, _ := utf8.DecodeLastRuneInString(last)
			next, _ := utf8.DecodeRuneInString(part)
			if !(unicode.IsLower(prev) && unicode.IsUpper(next)) {
				out[len(out)-1] = last + part
				continue
			}
		}
		out = append(out, part)
	}
	return out
}

// NormalizeTags normalizes every tag and drops empties and duplicates,
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// UnreadableTags returns the tags that are not already normalized or that
// repeat an earlier tag once normalized.
func UnreadableTags(tags []string) []string {
	var bad []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n != t || seen[n] {
			bad = append(bad, t)
		}
		seen[n] = true
	}
	return bad
}

func tagFormat(l *domain.ListingSnapshot, _ TagFormatConfig) domain.Evaluation {
	bad := UnreadableTags(l.Tags)
	if len(bad) == 0 {
		return domain.Evaluation{Passed: true}
	}
	shown := bad
	if len(shown) > 3 {
		shown = shown[:3]
	}
	details := fmt.Sprintf("%d tags need reformatting: %s", len(bad), strings.Join(shown, ", "))
	if len(bad) > len(shown) {
		details += ", ..."
	}
	return domain.Evaluation{Details: details, CanAutoFix: true}
}
