package domain

// UsageEntry is one logged use of a product. Entries are append-only from
// the user's perspective and belong to exactly one product: deleting the
// product deletes its entries.
type UsageEntry struct {
	Linked
	ProductID   string  `json:"product_id"` // local ID of the owning product
	UsageType   string  `json:"usage_type"`
	UsageAmount float64 `json:"usage_amount"`
	Notes       string  `json:"notes,omitempty"`
}
