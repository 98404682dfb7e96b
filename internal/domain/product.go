package domain

import "time"

// Product is one physical item on the user's shelf. Catalog fields describe
// the product itself; instance fields describe this particular unit's
// lifecycle in the user's hands.
//
// Relationships to tags and bags are held as local-ID sets, resolved during
// merge by cross-referencing backend identifiers. They are never traversed
// as live object pointers.
type Product struct {
	Linked

	// Catalog fields.
	Barcode             string  `json:"barcode"`
	Name                string  `json:"name"`
	Brand               string  `json:"brand"`
	PeriodsAfterOpening int     `json:"periods_after_opening"` // months until expiry once opened
	Vegan               bool    `json:"vegan"`
	CrueltyFree         bool    `json:"cruelty_free"`
	Shade               string  `json:"shade"`
	SizeMl              float64 `json:"size_ml"`
	SPF                 int     `json:"spf"`
	ImageRef            string  `json:"image_ref"` // opaque reference, storage is external

	// Instance fields.
	PurchaseDate  *time.Time `json:"purchase_date,omitempty"`
	OpenDate      *time.Time `json:"open_date,omitempty"`
	ExpireDate    *time.Time `json:"expire_date,omitempty"`
	IsFinished    bool       `json:"is_finished"`
	FinishDate    *time.Time `json:"finish_date,omitempty"`
	CurrentAmount float64    `json:"current_amount"` // estimated remaining fraction, 0..1
	TimesUsed     int        `json:"times_used"`
	Quantity      int        `json:"quantity"`

	// Relationship sets, local IDs.
	TagIDs []string `json:"tag_ids"`
	BagIDs []string `json:"bag_ids"`
}

// HasTag reports whether the product carries the given local tag ID.
func (p *Product) HasTag(tagID string) bool {
	for _, id := range p.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// HasBag reports whether the product is in the given local bag ID.
func (p *Product) HasBag(bagID string) bool {
	for _, id := range p.BagIDs {
		if id == bagID {
			return true
		}
	}
	return false
}
