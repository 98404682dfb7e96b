package domain

// Tag is a user-defined label for categorizing products ("Holy Grail",
// "Travel", ...). The backend is the registry of record for tags: a local
// tag that the server has not acknowledged does not survive an
// authoritative refresh.
type Tag struct {
	Linked
	Name    string `json:"name"`
	Color   string `json:"color"`
	OwnerID string `json:"owner_id"`
}
