package rules

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/abdidvp/shelfready/internal/domain"
)

// PlainText strips markup from a rich-text description and collapses
// whitespace. Malformed HTML falls back to the raw input.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			switch goquery.NodeName(s) {
			case "#text":
				parts = append(parts, s.Text())
			case "script", "style":
			default:
				walk(s)
			}
		})
	}
	walk(doc.Selection)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// WordCount counts the words of the plain text of html.
func WordCount(html string) int {
	return len(strings.Fields(PlainText(html)))
}

func runeLen(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

func titleLength(l *domain.ListingSnapshot, c TitleLengthConfig) domain.Evaluation {
	n := runeLen(l.Title)
	switch {
	case n == 0:
		return domain.Evaluation{Details: "Title is empty", CanAutoFix: true}
	case n < c.Min:
		return domain.Evaluation{Details: fmt.Sprintf("Title is %d characters; minimum is %d", n, c.Min), CanAutoFix: true}
	case c.Max > 0 && n > c.Max:
		return domain.Evaluation{Details: fmt.Sprintf("Title is %d characters; maximum is %d", n, c.Max), CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}

func descriptionLength(l *domain.ListingSnapshot, c DescriptionLengthConfig) domain.Evaluation {
	words := WordCount(l.DescriptionHTML)
	if words >= c.MinWords && words > 0 {
		return domain.Evaluation{Passed: true}
	}
	details := fmt.Sprintf("Description has %d words; minimum is %d", words, c.MinWords)
	if words == 0 {
		details = "Description is empty"
	}
	// Nothing to generate from without a title.
	if runeLen(l.Title) == 0 {
		return domain.Evaluation{Details: details + "; add a title first", FixType: domain.FixManual}
	}
	return domain.Evaluation{Details: details, CanAutoFix: true}
}

func seoTitle(l *domain.ListingSnapshot, c SEOTitleConfig) domain.Evaluation {
	n := runeLen(l.SEOTitle)
	switch {
	case n == 0 && runeLen(l.Title) == 0:
		return domain.Evaluation{Details: "SEO title is empty and there is no title to derive it from", FixType: domain.FixManual}
	case n == 0:
		return domain.Evaluation{Details: "SEO title is empty", CanAutoFix: true}
	case n > c.MaxLength:
		return domain.Evaluation{Details: fmt.Sprintf("SEO title is %d characters; maximum is %d", n, c.MaxLength), CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}

func seoDescription(l *domain.ListingSnapshot, c SEODescriptionConfig) domain.Evaluation {
	n := runeLen(l.SEODescription)
	switch {
	case n == 0:
		return domain.Evaluation{Details: "SEO description is empty", CanAutoFix: true}
	case n < c.MinLength:
		return domain.Evaluation{Details: fmt.Sprintf("SEO description is %d characters; minimum is %d", n, c.MinLength), CanAutoFix: true}
	case n > c.MaxLength:
		return domain.Evaluation{Details: fmt.Sprintf("SEO description is %d characters; maximum is %d", n, c.MaxLength), CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}
