package rules

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/abdidvp/shelfready/internal/domain"
)

// InlineImageCount counts <img> elements embedded in a rich-text description.
func InlineImageCount(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find("img").Length()
}

func minImages(l *domain.ListingSnapshot, c MinImagesConfig) domain.Evaluation {
	n := len(l.Images)
	if n >= c.MinCount {
		return domain.Evaluation{Passed: true}
	}
	details := fmt.Sprintf("Product has %d images; minimum is %d", n, c.MinCount)
	if inline := InlineImageCount(l.DescriptionHTML); inline > 0 {
		details += fmt.Sprintf(" (%d more embedded in the description do not count)", inline)
	}
	return domain.Evaluation{Details: details}
}

// MissingAltText returns the images that have no alt text.
func MissingAltText(images []domain.Image) []domain.Image {
	var out []domain.Image
	for _, img := range images {
		if strings.TrimSpace(img.AltText) == "" {
			out = append(out, img)
		}
	}
	return out
}

func imageAltText(l *domain.ListingSnapshot, _ AltTextConfig) domain.Evaluation {
	if len(l.Images) == 0 {
		return domain.Evaluation{Passed: true, Details: "No images to describe"}
	}
	missing := MissingAltText(l.Images)
	if len(missing) == 0 {
		return domain.Evaluation{Passed: true}
	}
	return domain.Evaluation{
		Details:    fmt.Sprintf("%d of %d images have no alt text", len(missing), len(l.Images)),
		CanAutoFix: true,
	}
}
