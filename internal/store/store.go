// Package store defines the persistence interface for the local cache.
package store

import (
	"context"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/merge"
)

// Store defines the interface for all persistence operations. Merge plans
// commit as one transaction per phase; everything else is a short
// independent transaction.
type Store interface {
	// Lifecycle
	Close() error

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, localID string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTag(ctx context.Context, localID string) error
	ApplyTagPlan(ctx context.Context, plan merge.TagPlan) error

	// Bags
	CreateBag(ctx context.Context, b *domain.Bag) error
	GetBag(ctx context.Context, localID string) (*domain.Bag, error)
	ListBags(ctx context.Context) ([]*domain.Bag, error)
	UpdateBag(ctx context.Context, b *domain.Bag) error
	DeleteBag(ctx context.Context, localID string) error
	ApplyBagPlan(ctx context.Context, plan merge.BagPlan) error

	// Products
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, localID string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, localID string) error
	ApplyProductPlan(ctx context.Context, plan merge.ProductPlan) error

	// Telemetry
	CreateUsageEntry(ctx context.Context, u *domain.UsageEntry) error
	UpdateUsageEntry(ctx context.Context, u *domain.UsageEntry) error
	ListUsageEntries(ctx context.Context, productLocalID string) ([]*domain.UsageEntry, error)
	ListPendingUsageEntries(ctx context.Context) ([]*domain.UsageEntry, error)

	CreateJourneyEvent(ctx context.Context, j *domain.JourneyEvent) error
	UpdateJourneyEvent(ctx context.Context, j *domain.JourneyEvent) error
	ListJourneyEvents(ctx context.Context, productLocalID string) ([]*domain.JourneyEvent, error)
	ListPendingJourneyEvents(ctx context.Context) ([]*domain.JourneyEvent, error)
}
