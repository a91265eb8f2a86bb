package fixes

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

var errEmptyGeneration = domain.NewUserError("the generator returned no content", nil)

func request(kind domain.GenerationKind, t Target, opts map[string]string) *domain.GenerationRequest {
	if tone := t.Config.Get("tone", ""); tone != "" {
		if opts == nil {
			opts = map[string]string{}
		}
		opts["tone"] = tone
	}
	return &domain.GenerationRequest{Kind: kind, Listing: t.Listing, Options: opts}
}

func generatedText(gen *domain.Generated) (string, error) {
	if gen == nil {
		return "", errors.New("generated content missing")
	}
	s := strings.TrimSpace(gen.Text)
	if s == "" {
		return "", errEmptyGeneration
	}
	return s, nil
}

type titleFix struct{}

func (titleFix) Type() domain.FixType { return domain.FixAI }

func (titleFix) Satisfied(t Target) bool { return rulePasses(domain.RuleTitleLength, t) }

func (titleFix) Generation(t Target) *domain.GenerationRequest {
	c, ok := t.Rule.(rules.TitleLengthConfig)
	if !ok {
		c = rules.TitleLengthConfig{Min: 20, Max: 70}
	}
	return request(domain.GenerateTitle, t, map[string]string{
		"min_length": strconv.Itoa(c.Min),
		"max_length": strconv.Itoa(c.Max),
	})
}

func (titleFix) Build(t Target, gen *domain.Generated) (domain.ListingUpdate, error) {
	s, err := generatedText(gen)
	if err != nil {
		return domain.ListingUpdate{}, err
	}
	if c, ok := t.Rule.(rules.TitleLengthConfig); ok {
		s = Truncate(s, c.Max)
	}
	return domain.ListingUpdate{Title: &s}, nil
}

type descriptionFix struct{}

func (descriptionFix) Type() domain.FixType { return domain.FixAI }

func (descriptionFix) Satisfied(t Target) bool { return rulePasses(domain.RuleDescriptionLength, t) }

func (descriptionFix) Generation(t Target) *domain.GenerationRequest {
	words := 50
	if c, ok := t.Rule.(rules.DescriptionLengthConfig); ok {
		words = c.MinWords
	}
	return request(domain.GenerateDescription, t, map[string]string{"min_words": strconv.Itoa(words)})
}

func (descriptionFix) Build(_ Target, gen *domain.Generated) (domain.ListingUpdate, error) {
	s, err := generatedText(gen)
	if err != nil {
		return domain.ListingUpdate{}, err
	}
	return domain.ListingUpdate{DescriptionHTML: &s}, nil
}

type seoDescriptionFix struct{}

func (seoDescriptionFix) Type() domain.FixType { return domain.FixAI }

func (seoDescriptionFix) Satisfied(t Target) bool { return rulePasses(domain.RuleSEODescription, t) }

func (seoDescriptionFix) Generation(t Target) *domain.GenerationRequest {
	c, ok := t.Rule.(rules.SEODescriptionConfig)
	if !ok {
		c = rules.SEODescriptionConfig{MinLength: 50, MaxLength: 160}
	}
	return request(domain.GenerateSEODescription, t, map[string]string{
		"min_length": strconv.Itoa(c.MinLength),
		"max_length": strconv.Itoa(c.MaxLength),
	})
}

func (seoDescriptionFix) Build(t Target, gen *domain.Generated) (domain.ListingUpdate, error) {
	s, err := generatedText(gen)
	if err != nil {
		return domain.ListingUpdate{}, err
	}
	if c, ok := t.Rule.(rules.SEODescriptionConfig); ok {
		s = Truncate(s, c.MaxLength)
	}
	return domain.ListingUpdate{SEODescription: &s}, nil
}

// tagsFix applies the tags named in the "tags" fix config, or generated
// tags when none are configured. Existing tags are kept.
type tagsFix struct{}

func (tagsFix) Type() domain.FixType { return domain.FixAI }

func configuredTags(t Target) []string { return domain.SplitList(t.Config.Get("tags", "")) }

func (tagsFix) Satisfied(t Target) bool {
	if want := configuredTags(t); len(want) > 0 {
		for _, tag := range want {
			if !slices.Contains(t.Listing.Tags, tag) {
				return false
			}
		}
		return true
	}
	return rulePasses(domain.RuleHasTags, t)
}

func (tagsFix) Generation(t Target) *domain.GenerationRequest {
	if len(configuredTags(t)) > 0 {
		return nil
	}
	n := 5
	if c, ok := t.Rule.(rules.HasTagsConfig); ok && c.MinCount > n {
		n = c.MinCount
	}
	return request(domain.GenerateTags, t, map[string]string{"count": strconv.Itoa(n)})
}

func (tagsFix) Build(t Target, gen *domain.Generated) (domain.ListingUpdate, error) {
	add := configuredTags(t)
	if len(add) == 0 {
		if gen == nil || len(gen.Items) == 0 {
			return domain.ListingUpdate{}, errEmptyGeneration
		}
		add = gen.Items
	}
	tags := slices.Clone(t.Listing.Tags)
	for _, tag := range add {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return domain.ListingUpdate{Tags: tags}, nil
}

// ImageFix synthesizes a product image for listings below the image
// minimum. It is not registered under a rule key: minimum images is a manual
// rule, and image generation runs only as an explicit batch operation.
type ImageFix struct{}

func (ImageFix) Type() domain.FixType { return domain.FixAI }

func (ImageFix) Satisfied(t Target) bool { return rulePasses(domain.RuleMinImages, t) }

func (ImageFix) Generation(t Target) *domain.GenerationRequest {
	opts := map[string]string{"prompt": imagePrompt(t.Listing)}
	if style := t.Config.Get("style", ""); style != "" {
		opts["style"] = style
	}
	return &domain.GenerationRequest{Kind: domain.GenerateImage, Listing: t.Listing, Options: opts}
}

func (ImageFix) Build(t Target, gen *domain.Generated) (domain.ListingUpdate, error) {
	if gen == nil || strings.TrimSpace(gen.ImageURL) == "" {
		return domain.ListingUpdate{}, domain.NewUserError("the generator returned no image", nil)
	}
	return domain.ListingUpdate{AddImages: []domain.Image{{URL: gen.ImageURL, AltText: strings.TrimSpace(t.Listing.Title)}}}, nil
}

func imagePrompt(l *domain.ListingSnapshot) string {
	parts := []string{"Product photo of " + strings.TrimSpace(l.Title)}
	if l.ProductType != "" {
		parts = append(parts, "category: "+l.ProductType)
	}
	if text := rules.PlainText(l.DescriptionHTML); text != "" {
		parts = append(parts, Truncate(text, 300))
	}
	return strings.Join(parts, ". ")
}
