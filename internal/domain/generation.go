package domain

// GenerationKind selects what the content generator should produce.
type GenerationKind string

const (
	GenerateTitle          GenerationKind = "title"
	GenerateDescription    GenerationKind = "description"
	GenerateSEOTitle       GenerationKind = "seo_title"
	GenerateSEODescription GenerationKind = "seo_description"
	GenerateTags           GenerationKind = "tags"
	GenerateAltText        GenerationKind = "alt_text"
	GenerateImage          GenerationKind = "image"
)

// GenerationRequest asks for content for one field of one listing.
type GenerationRequest struct {
	Kind    GenerationKind    `json:"kind"`
	Listing *ListingSnapshot  `json:"-"`
	Options map[string]string `json:"options,omitempty"`
}

// Generated is the generator's answer. Text carries free text; Items carries
// list answers such as tags; ImageURL is set for image generation.
type Generated struct {
	Text     string   `json:"text,omitempty"`
	Items    []string `json:"items,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}
