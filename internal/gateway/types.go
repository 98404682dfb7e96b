package gateway

import "time"

// Wire representations of backend entities. These mirror the local domain
// types minus local-only fields; relationship references carry backend
// identifiers, which the merge step resolves against the local cache.

// RemoteTag is the backend representation of a tag.
type RemoteTag struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Color     string    `json:"color"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RemoteBag is the backend representation of a bag.
type RemoteBag struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RemoteUsageEntry is one usage log entry nested under a product payload.
type RemoteUsageEntry struct {
	ID          string    `json:"id" validate:"required"`
	UsageType   string    `json:"usageType"`
	UsageAmount float64   `json:"usageAmount"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RemoteJourneyEvent is one journey timeline entry nested under a product
// payload.
type RemoteJourneyEvent struct {
	ID        string    `json:"id" validate:"required"`
	EventType string    `json:"eventType" validate:"required"`
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// RemoteProduct is the backend representation of a product. TagIDs and
// BagIDs carry backend identifiers of related tags/bags; telemetry rides
// along nested in the read payload but is pushed per-entry on write.
type RemoteProduct struct {
	ID      string `json:"id" validate:"required"`
	Barcode string `json:"barcode"`
	Name    string `json:"name" validate:"required"`
	Brand   string `json:"brand"`

	PeriodsAfterOpening int     `json:"periodsAfterOpening"`
	Vegan               bool    `json:"vegan"`
	CrueltyFree         bool    `json:"crueltyFree"`
	Shade               string  `json:"shade"`
	SizeMl              float64 `json:"sizeInMl"`
	SPF                 int     `json:"spf"`
	ImageRef            string  `json:"imageRef"`

	PurchaseDate  *time.Time `json:"purchaseDate,omitempty"`
	OpenDate      *time.Time `json:"openDate,omitempty"`
	ExpireDate    *time.Time `json:"expireDate,omitempty"`
	IsFinished    bool       `json:"isFinished"`
	FinishDate    *time.Time `json:"finishDate,omitempty"`
	CurrentAmount float64    `json:"currentAmount"`
	TimesUsed     int        `json:"timesUsed"`
	Quantity      int        `json:"quantity"`

	TagIDs []string `json:"tagIds"`
	BagIDs []string `json:"bagIds"`

	UsageEntries  []RemoteUsageEntry   `json:"usageEntries"`
	JourneyEvents []RemoteJourneyEvent `json:"journeyEvents"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Request payloads.

// TagCreate is the body for POST /users/{id}/tags.
type TagCreate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// BagCreate is the body for POST /users/{id}/bags.
type BagCreate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// BagUpdate is the body for PUT /users/{id}/bags/{bagId}.
type BagUpdate struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// ProductCreate is the body for POST /users/{id}/products. Telemetry is
// never part of the create call; it is pushed per-entry afterwards.
type ProductCreate struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Brand   string `json:"brand"`

	PeriodsAfterOpening int     `json:"periodsAfterOpening"`
	Vegan               bool    `json:"vegan"`
	CrueltyFree         bool    `json:"crueltyFree"`
	Shade               string  `json:"shade"`
	SizeMl              float64 `json:"sizeInMl"`
	SPF                 int     `json:"spf"`
	ImageRef            string  `json:"imageRef"`

	PurchaseDate  *time.Time `json:"purchaseDate,omitempty"`
	OpenDate      *time.Time `json:"openDate,omitempty"`
	ExpireDate    *time.Time `json:"expireDate,omitempty"`
	IsFinished    bool       `json:"isFinished"`
	FinishDate    *time.Time `json:"finishDate,omitempty"`
	CurrentAmount float64    `json:"currentAmount"`
	TimesUsed     int        `json:"timesUsed"`
	Quantity      int        `json:"quantity"`
}

// ProductPatch is the body for PUT /users/{id}/products/{productId}.
// Relationship edits use the add/remove fields; field updates use the rest.
// Only non-nil fields are sent.
type ProductPatch struct {
	AddTagID    *string `json:"addTagId,omitempty"`
	RemoveTagID *string `json:"removeTagId,omitempty"`
	AddBagID    *string `json:"addBagId,omitempty"`
	RemoveBagID *string `json:"removeBagId,omitempty"`

	IsFinished    *bool      `json:"isFinished,omitempty"`
	FinishDate    *time.Time `json:"finishDate,omitempty"`
	OpenDate      *time.Time `json:"openDate,omitempty"`
	CurrentAmount *float64   `json:"currentAmount,omitempty"`
	TimesUsed     *int       `json:"timesUsed,omitempty"`
	Quantity      *int       `json:"quantity,omitempty"`
}

// UsageEntryCreate is the body for POST /users/{id}/products/{productId}/usages.
type UsageEntryCreate struct {
	UsageType   string    `json:"usageType"`
	UsageAmount float64   `json:"usageAmount"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// JourneyEventCreate is the body for POST /users/{id}/products/{productId}/journey-events.
type JourneyEventCreate struct {
	EventType string    `json:"eventType"`
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}
