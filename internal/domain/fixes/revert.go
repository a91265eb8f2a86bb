package fixes

import (
	"fmt"
	"strings"

	"github.com/abdidvp/shelfready/internal/domain"
)

// RevertUpdate builds the update that restores the previous value recorded
// in a history entry. Additive changes (collections, new images) cannot be
// reverted through a partial update.
func RevertUpdate(e domain.VersionEntry) (domain.ListingUpdate, error) {
	prev := e.Previous
	switch e.Field {
	case domain.FieldTitle:
		return domain.ListingUpdate{Title: &prev}, nil
	case domain.FieldDescription:
		return domain.ListingUpdate{DescriptionHTML: &prev}, nil
	case domain.FieldVendor:
		return domain.ListingUpdate{Vendor: &prev}, nil
	case domain.FieldProductType:
		return domain.ListingUpdate{ProductType: &prev}, nil
	case domain.FieldSEOTitle:
		return domain.ListingUpdate{SEOTitle: &prev}, nil
	case domain.FieldSEODescription:
		return domain.ListingUpdate{SEODescription: &prev}, nil
	case domain.FieldTags:
		return domain.ListingUpdate{Tags: domain.SplitList(prev)}, nil
	}
	if id, ok := strings.CutPrefix(e.Field, domain.FieldImageAltText+":"); ok && id != "" {
		return domain.ListingUpdate{ImageAltText: map[string]string{id: prev}}, nil
	}
	return domain.ListingUpdate{}, domain.NewUserError(
		fmt.Sprintf("changes to %s cannot be reverted automatically", e.Field), nil)
}
