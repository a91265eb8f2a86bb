package domain

import "time"

// VersionEntry is one field mutation recorded for manual reversion.
type VersionEntry struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	ListingID string    `json:"listing_id"`
	RuleKey   RuleKey   `json:"rule_key,omitempty"`
	Field     string    `json:"field"`
	Previous  string    `json:"previous"`
	New       string    `json:"new"`
	Source    FixType   `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
