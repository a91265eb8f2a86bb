package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdidvp/shelfready/internal/domain"
)

func hasVendor(l *domain.ListingSnapshot, _ VendorConfig) domain.Evaluation {
	if strings.TrimSpace(l.Vendor) == "" {
		return domain.Evaluation{Details: "Vendor is missing", CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}

func hasProductType(l *domain.ListingSnapshot, _ ProductTypeConfig) domain.Evaluation {
	if strings.TrimSpace(l.ProductType) == "" {
		return domain.Evaluation{Details: "Product type is missing", CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}

func hasCollections(l *domain.ListingSnapshot, _ CollectionsConfig) domain.Evaluation {
	if len(l.Collections) == 0 {
		return domain.Evaluation{Details: "Product is not in any collection", CanAutoFix: true}
	}
	return domain.Evaluation{Passed: true}
}

func requiredMetafields(l *domain.ListingSnapshot, c RequiredMetafieldsConfig) domain.Evaluation {
	var missing []string
	for _, k := range c.Keys {
		if strings.TrimSpace(l.Metafields[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return domain.Evaluation{Passed: true}
	}
	sort.Strings(missing)
	return domain.Evaluation{Details: fmt.Sprintf("Missing metafields: %s", strings.Join(missing, ", "))}
}
