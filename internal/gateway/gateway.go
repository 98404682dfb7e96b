// Package gateway implements the stateless HTTP client for the Lumie
// backend. Every call is a single request/response exchange scoped to one
// entity collection; the gateway never retries and never subscribes.
package gateway

import "context"

// Gateway is the outbound interface consumed by the sync orchestrator.
// Failures map onto the engine's error taxonomy: ErrUnauthorized,
// ErrNotFound, ErrNetwork, ErrDecoding, ErrConflict.
type Gateway interface {
	// Tags.
	FetchTags(ctx context.Context) ([]RemoteTag, error)
	CreateTag(ctx context.Context, body TagCreate) (*RemoteTag, error)
	DeleteTag(ctx context.Context, backendID string) error

	// Bags.
	FetchBags(ctx context.Context) ([]RemoteBag, error)
	CreateBag(ctx context.Context, body BagCreate) (*RemoteBag, error)
	UpdateBag(ctx context.Context, backendID string, body BagUpdate) error
	DeleteBag(ctx context.Context, backendID string) error

	// Products.
	FetchProducts(ctx context.Context) ([]RemoteProduct, error)
	GetProduct(ctx context.Context, backendID string) (*RemoteProduct, error)
	CreateProduct(ctx context.Context, body ProductCreate) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, backendID string, patch ProductPatch) error
	DeleteProduct(ctx context.Context, backendID string) error

	// Telemetry, pushed per-entry under a bound product.
	CreateUsageEntry(ctx context.Context, productBackendID string, body UsageEntryCreate) (*RemoteUsageEntry, error)
	CreateJourneyEvent(ctx context.Context, productBackendID string, body JourneyEventCreate) (*RemoteJourneyEvent, error)
}
