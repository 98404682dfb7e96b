package domain

// Bag is a named container grouping products ("Gym bag", "Shower shelf").
// Like tags, bags are server-authoritative catalog entities.
type Bag struct {
	Linked
	Name    string `json:"name"`
	Color   string `json:"color"`
	Icon    string `json:"icon"`
	OwnerID string `json:"owner_id"`
}
