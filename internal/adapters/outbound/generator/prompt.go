package generator

import (
	"fmt"
	"strings"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

const systemPrompt = "You write product listing copy for an online store. " +
	"Reply with the requested text only: no preamble, no markdown, no surrounding quotes."

// Prompt renders the user prompt for a text generation request.
func Prompt(req domain.GenerationRequest) (string, error) {
	l := req.Listing
	var b strings.Builder
	b.WriteString(instruction(req))
	if b.Len() == 0 {
		return "", fmt.Errorf("unsupported generation kind %q", req.Kind)
	}
	if tone := req.Options["tone"]; tone != "" {
		fmt.Fprintf(&b, " Use a %s tone.", tone)
	}

	b.WriteString("\n\nProduct:\n")
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
	}
	field("Title", l.Title)
	field("Vendor", l.Vendor)
	field("Type", l.ProductType)
	field("Tags", domain.JoinList(l.Tags))
	if text := rules.PlainText(l.DescriptionHTML); text != "" {
		field("Description", clip(text, 1200))
	}
	return b.String(), nil
}

func instruction(req domain.GenerationRequest) string {
	o := req.Options
	switch req.Kind {
	case domain.GenerateTitle:
		return fmt.Sprintf("Write a product title between %s and %s characters.", or(o["min_length"], "20"), or(o["max_length"], "70"))
	case domain.GenerateDescription:
		return fmt.Sprintf("Write a product description of at least %s words as simple HTML paragraphs.", or(o["min_words"], "50"))
	case domain.GenerateSEOTitle:
		return fmt.Sprintf("Write an SEO page title of at most %s characters.", or(o["max_length"], "70"))
	case domain.GenerateSEODescription:
		return fmt.Sprintf("Write a search result meta description between %s and %s characters.", or(o["min_length"], "50"), or(o["max_length"], "160"))
	case domain.GenerateTags:
		return fmt.Sprintf("Suggest %s short lowercase product tags as a comma separated list.", or(o["count"], "5"))
	case domain.GenerateAltText:
		return "Write concise image alt text describing the product photo."
	default:
		return ""
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
