package domain

// JourneyEventType classifies an entry on a product's narrative timeline.
type JourneyEventType string

const (
	JourneyPurchase   JourneyEventType = "purchase"
	JourneyOpen       JourneyEventType = "open"
	JourneyThought    JourneyEventType = "thought"
	JourneyFinished   JourneyEventType = "finished"
	JourneyRepurchase JourneyEventType = "repurchase"
)

// JourneyEvent is one entry on a product's timeline: bought it, opened it,
// had a thought about it, finished it. Append-only, owned by its product.
type JourneyEvent struct {
	Linked
	ProductID string           `json:"product_id"` // local ID of the owning product
	EventType JourneyEventType `json:"event_type"`
	Title     string           `json:"title,omitempty"`
	Text      string           `json:"text,omitempty"`
	Rating    int              `json:"rating"` // 0 means unrated
}
