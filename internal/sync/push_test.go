package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/errors"
)

func seedPendingTag(t *testing.T, f *fixture, localID, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: name, Color: "pink"}
	tag.LocalID = localID
	tag.InitTimestamps()
	require.NoError(t, f.store.CreateTag(context.Background(), tag))
	return tag
}

func seedPendingProduct(t *testing.T, f *fixture, localID, name string, tagIDs []string) *domain.Product {
	t.Helper()
	product := &domain.Product{Name: name, Brand: "Glossier", TagIDs: tagIDs}
	product.LocalID = localID
	product.InitTimestamps()
	require.NoError(t, f.store.CreateProduct(context.Background(), product))
	return product
}

func TestSyncTag_BindsReturnedID(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	seedPendingTag(t, f, "tag-1", "Favorites")
	require.NoError(t, f.orch.SyncTag(ctx, "tag-1"))

	tag, err := f.store.GetTag(ctx, "tag-1")
	require.NoError(t, err)
	require.True(t, tag.IsBound())
	assert.Equal(t, "T1", *tag.BackendID)
	require.Len(t, f.gw.createdTags, 1)
	assert.Equal(t, "Favorites", f.gw.createdTags[0].Name)
}

func TestSyncTag_BoundIsNoOp(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	tag := seedPendingTag(t, f, "tag-1", "Favorites")
	tag.Bind("T-existing")
	require.NoError(t, f.store.UpdateTag(ctx, tag))

	require.NoError(t, f.orch.SyncTag(ctx, "tag-1"))
	assert.Empty(t, f.gw.createdTags)
}

func TestSyncTag_FailureDiscardsLocal(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	seedPendingTag(t, f, "tag-1", "Favorites")
	f.gw.createTagErr = errors.Network("backend down")

	err := f.orch.SyncTag(ctx, "tag-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNetwork))

	_, err = f.store.GetTag(ctx, "tag-1")
	assert.True(t, errors.Is(err, errors.ErrNotFound), "rejected tag must not linger locally")
}

func TestUpdateBag_MirrorsWhenBound(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	bag := &domain.Bag{Name: "Gym bag", Icon: "duffel"}
	bag.LocalID = "bag-1"
	bag.InitTimestamps()
	bag.Bind("B-1")
	require.NoError(t, f.store.CreateBag(ctx, bag))

	require.NoError(t, f.orch.UpdateBag(ctx, "bag-1", "Travel bag", "teal", "suitcase"))

	got, err := f.store.GetBag(ctx, "bag-1")
	require.NoError(t, err)
	assert.Equal(t, "Travel bag", got.Name)
	assert.Equal(t, "teal", got.Color)

	require.Len(t, f.gw.bagUpdates, 1)
	assert.Equal(t, "Travel bag", f.gw.bagUpdates[0].Name)
}

func TestUpdateBag_LocalOnlyWhilePending(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	bag := &domain.Bag{Name: "Gym bag"}
	bag.LocalID = "bag-1"
	bag.InitTimestamps()
	require.NoError(t, f.store.CreateBag(ctx, bag))

	require.NoError(t, f.orch.UpdateBag(ctx, "bag-1", "Travel bag", "", ""))

	got, err := f.store.GetBag(ctx, "bag-1")
	require.NoError(t, err)
	assert.Equal(t, "Travel bag", got.Name)
	assert.Empty(t, f.gw.bagUpdates)
}

func TestSyncProduct_BindsAndPushesRelationships(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	tag := seedPendingTag(t, f, "tag-1", "Favorites")
	tag.Bind("T-9")
	require.NoError(t, f.store.UpdateTag(ctx, tag))

	// A second, still-pending tag must be skipped by the relationship push.
	seedPendingTag(t, f, "tag-2", "Wishlist")

	seedPendingProduct(t, f, "prod-1", "Serum", []string{"tag-1", "tag-2"})
	require.NoError(t, f.orch.SyncProduct(ctx, "prod-1"))

	product, err := f.store.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	require.True(t, product.IsBound())

	require.Len(t, f.gw.createdProducts, 1)
	assert.Equal(t, "Serum", f.gw.createdProducts[0].Name)

	require.Len(t, f.gw.patches, 1)
	require.NotNil(t, f.gw.patches[0].AddTagID)
	assert.Equal(t, "T-9", *f.gw.patches[0].AddTagID)
}

func TestSyncProduct_CreateFailureDiscardsLocal(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	seedPendingProduct(t, f, "prod-1", "Serum", nil)
	f.gw.createProductErr = errors.Network("backend down")

	err := f.orch.SyncProduct(ctx, "prod-1")
	require.Error(t, err)

	_, err = f.store.GetProduct(ctx, "prod-1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSyncProduct_UnauthorizedInvalidatesCredentials(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	seedPendingProduct(t, f, "prod-1", "Serum", nil)
	f.gw.createProductErr = errors.Unauthorized("token expired")

	err := f.orch.SyncProduct(ctx, "prod-1")
	require.Error(t, err)
	assert.True(t, f.creds.Invalidated())
}

func TestSyncPendingTelemetry_PushesAndBinds(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	product := seedPendingProduct(t, f, "prod-1", "Serum", nil)
	product.Bind("P-1")
	require.NoError(t, f.store.UpdateProduct(ctx, product))

	entry := &domain.UsageEntry{ProductID: "prod-1", UsageType: "applied", UsageAmount: 0.05}
	entry.LocalID = "use-1"
	entry.InitTimestamps()
	require.NoError(t, f.store.CreateUsageEntry(ctx, entry))

	event := &domain.JourneyEvent{ProductID: "prod-1", EventType: domain.JourneyOpen}
	event.LocalID = "jrn-1"
	event.InitTimestamps()
	require.NoError(t, f.store.CreateJourneyEvent(ctx, event))

	require.NoError(t, f.orch.SyncPendingTelemetry(ctx))

	require.Len(t, f.gw.createdUsage, 1)
	require.Len(t, f.gw.createdJourney, 1)

	pending, err := f.store.ListPendingUsageEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "pushed entries must bind and leave the pending set")

	// A second sweep pushes nothing.
	require.NoError(t, f.orch.SyncPendingTelemetry(ctx))
	assert.Len(t, f.gw.createdUsage, 1)
	assert.Len(t, f.gw.createdJourney, 1)
}

func TestSyncPendingTelemetry_SkipsUnboundProducts(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	seedPendingProduct(t, f, "prod-1", "Serum", nil)

	entry := &domain.UsageEntry{ProductID: "prod-1", UsageType: "applied"}
	entry.LocalID = "use-1"
	entry.InitTimestamps()
	require.NoError(t, f.store.CreateUsageEntry(ctx, entry))

	require.NoError(t, f.orch.SyncPendingTelemetry(ctx))
	assert.Empty(t, f.gw.createdUsage, "entries of unpushed products stay pending")
}

func TestSyncPendingTelemetry_NonAuthFailureSkipsEntry(t *testing.T) {
	f := setupOrchestrator(t)
	ctx := context.Background()

	product := seedPendingProduct(t, f, "prod-1", "Serum", nil)
	product.Bind("P-1")
	require.NoError(t, f.store.UpdateProduct(ctx, product))

	entry := &domain.UsageEntry{ProductID: "prod-1", UsageType: "applied"}
	entry.LocalID = "use-1"
	entry.InitTimestamps()
	require.NoError(t, f.store.CreateUsageEntry(ctx, entry))

	f.gw.createUsageErr = errors.Network("backend down")
	require.NoError(t, f.orch.SyncPendingTelemetry(ctx), "per-entry failures do not fail the sweep")

	pending, err := f.store.ListPendingUsageEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed entry stays pending for the next sweep")
}
