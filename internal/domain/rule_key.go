package domain

// RuleKey is the stable identifier of a registered rule.
type RuleKey string

const (
	RuleTitleLength        RuleKey = "title_length"
	RuleDescriptionLength  RuleKey = "description_length"
	RuleHasVendor          RuleKey = "has_vendor"
	RuleHasProductType     RuleKey = "has_product_type"
	RuleHasTags            RuleKey = "has_tags"
	RuleMinImages          RuleKey = "min_images"
	RuleImageAltText       RuleKey = "image_alt_text"
	RuleSEOTitle           RuleKey = "seo_title"
	RuleSEODescription     RuleKey = "seo_description"
	RuleHasCollections     RuleKey = "has_collections"
	RuleTagFormat          RuleKey = "tag_format"
	RuleRequiredMetafields RuleKey = "required_metafields"
)

// RuleConfig is the typed configuration of a single rule. Each rule key has
// its own concrete config type.
type RuleConfig interface {
	RuleKey() RuleKey
}

// Target fields a fix may write to.
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldVendor         = "vendor"
	FieldProductType    = "product_type"
	FieldTags           = "tags"
	FieldImages         = "images"
	FieldImageAltText   = "image_alt_text"
	FieldSEOTitle       = "seo_title"
	FieldSEODescription = "seo_description"
	FieldCollections    = "collections"
	FieldMetafields     = "metafields"
)
