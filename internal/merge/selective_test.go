package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/gateway"
)

func boundProduct(localID, backendID, name string) *domain.Product {
	p := &domain.Product{Name: name}
	p.LocalID = localID
	p.InitTimestamps()
	p.Bind(backendID)
	return p
}

func pendingProduct(localID, name string) *domain.Product {
	p := &domain.Product{Name: name}
	p.LocalID = localID
	p.InitTimestamps()
	return p
}

func localUsage(localID, productID string, createdAt time.Time) *domain.UsageEntry {
	u := &domain.UsageEntry{ProductID: productID, UsageType: "applied"}
	u.LocalID = localID
	u.CreatedAt = createdAt
	u.UpdatedAt = createdAt
	return u
}

func noTelemetry() LocalTelemetry {
	return LocalTelemetry{
		Usage:   map[string][]*domain.UsageEntry{},
		Journey: map[string][]*domain.JourneyEvent{},
	}
}

func TestSelective_UpdatesCatalogFields(t *testing.T) {
	local := []*domain.Product{boundProduct("prd-1", "P1", "Old")}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Cleanser", Brand: "Glossier", SizeMl: 150, SPF: 30, Vegan: true,
	}}

	plan := SelectiveProducts(remote, local, noTelemetry(), Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	got := plan.Upserts[0].Product
	assert.Equal(t, "prd-1", got.LocalID)
	assert.Equal(t, "Cleanser", got.Name)
	assert.Equal(t, "Glossier", got.Brand)
	assert.Equal(t, 150.0, got.SizeMl)
	assert.Equal(t, 30, got.SPF)
	assert.True(t, got.Vegan)
	assert.Empty(t, plan.DeleteLocalIDs)
}

func TestSelective_ResolvesRelationshipsThroughIndex(t *testing.T) {
	// Remote product P2 references tag backend id T9, known locally as L-T9.
	remote := []gateway.RemoteProduct{{
		ID: "P2", Name: "Mask", TagIDs: []string{"T9", "T-unknown"}, BagIDs: []string{"B1"},
	}}
	tagIdx := Index{"T9": "L-T9"}
	bagIdx := Index{"B1": "L-B1"}

	plan := SelectiveProducts(remote, nil, noTelemetry(), tagIdx, bagIdx)

	require.Len(t, plan.Upserts, 1)
	got := plan.Upserts[0].Product
	assert.Equal(t, []string{"L-T9"}, got.TagIDs, "unknown refs are dropped")
	assert.Equal(t, []string{"L-B1"}, got.BagIDs)
}

func TestSelective_PrunesServerDeletedButKeepsPending(t *testing.T) {
	local := []*domain.Product{
		boundProduct("prd-gone", "P1", "Server deleted"),
		pendingProduct("prd-midpush", "Not yet pushed"),
	}

	plan := SelectiveProducts(nil, local, noTelemetry(), Index{}, Index{})

	assert.Equal(t, []string{"prd-gone"}, plan.DeleteLocalIDs)
	assert.Empty(t, plan.Upserts)
}

// A pending local usage entry absent from the remote snapshot survives the
// merge untouched.
func TestSelective_PreservesUnpushedTelemetry(t *testing.T) {
	now := time.Now().UTC()
	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{
			"prd-1": {localUsage("use-1", "prd-1", now)},
		},
		Journey: map[string][]*domain.JourneyEvent{},
	}
	remote := []gateway.RemoteProduct{{ID: "P1", Name: "Serum"}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	// No usage upserts: the local entry is neither deleted nor rewritten.
	assert.Empty(t, plan.Upserts[0].UsageUpserts)
	assert.Empty(t, plan.DeleteLocalIDs)
}

func TestSelective_UsageDedupWithinWindow(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{
			"prd-1": {localUsage("use-1", "prd-1", base)},
		},
		Journey: map[string][]*domain.JourneyEvent{},
	}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		UsageEntries: []gateway.RemoteUsageEntry{
			{ID: "U1", UsageType: "applied", CreatedAt: base.Add(800 * time.Millisecond)},
		},
	}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	// The matched pending entry picks up the backend id; no new entry.
	require.Len(t, plan.Upserts[0].UsageUpserts, 1)
	bound := plan.Upserts[0].UsageUpserts[0]
	assert.Equal(t, "use-1", bound.LocalID)
	require.NotNil(t, bound.BackendID)
	assert.Equal(t, "U1", *bound.BackendID)
}

func TestSelective_UsageOutsideWindowAppends(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{
			"prd-1": {localUsage("use-1", "prd-1", base)},
		},
		Journey: map[string][]*domain.JourneyEvent{},
	}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		UsageEntries: []gateway.RemoteUsageEntry{
			{ID: "U2", UsageType: "applied", CreatedAt: base.Add(5 * time.Second)},
		},
	}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts[0].UsageUpserts, 1)
	appended := plan.Upserts[0].UsageUpserts[0]
	assert.NotEqual(t, "use-1", appended.LocalID)
	assert.True(t, appended.IsBound())
	assert.Equal(t, "prd-1", appended.ProductID)
}

// Merging the same remote usage entry twice never yields two local entries.
func TestSelective_UsageMergeIsIdempotent(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		UsageEntries: []gateway.RemoteUsageEntry{
			{ID: "U1", UsageType: "applied", CreatedAt: base},
		},
	}}

	// First run: no local state, entry appended.
	first := SelectiveProducts(remote, nil, noTelemetry(), Index{}, Index{})
	require.Len(t, first.Upserts, 1)
	require.Len(t, first.Upserts[0].UsageUpserts, 1)
	appended := first.Upserts[0].UsageUpserts[0]
	product := first.Upserts[0].Product

	// Second run: local state now contains the appended entry.
	telemetry := LocalTelemetry{
		Usage:   map[string][]*domain.UsageEntry{product.LocalID: {appended}},
		Journey: map[string][]*domain.JourneyEvent{},
	}
	second := SelectiveProducts(remote, []*domain.Product{product}, telemetry, Index{}, Index{})

	require.Len(t, second.Upserts, 1)
	assert.Empty(t, second.Upserts[0].UsageUpserts, "already-present entry must not duplicate")
}

// A backend id held by a bound local entry must never be claimed a second
// time. Here a pending entry sits inside the skew window of the bound twin
// and sorts before it; binding it to U1 would collide on the backend-id
// unique index when the plan is applied.
func TestSelective_UsageBoundTwinBlocksRebind(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pending := localUsage("use-pending", "prd-1", base.Add(-500*time.Millisecond))
	twin := localUsage("use-bound", "prd-1", base)
	twin.Bind("U1")

	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{
			"prd-1": {pending, twin},
		},
		Journey: map[string][]*domain.JourneyEvent{},
	}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		UsageEntries: []gateway.RemoteUsageEntry{
			{ID: "U1", UsageType: "applied", CreatedAt: base},
		},
	}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	assert.Empty(t, plan.Upserts[0].UsageUpserts,
		"remote entry is already bound to the twin; the pending entry stays pending")
	assert.Nil(t, pending.BackendID)
}

func TestSelective_JourneyDedupExactKey(t *testing.T) {
	at := time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)
	existing := &domain.JourneyEvent{ProductID: "prd-1", EventType: domain.JourneyOpen}
	existing.LocalID = "jrn-1"
	existing.CreatedAt = at
	existing.Bind("J1")

	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{},
		Journey: map[string][]*domain.JourneyEvent{
			"prd-1": {existing},
		},
	}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		JourneyEvents: []gateway.RemoteJourneyEvent{
			{ID: "J1", EventType: "open", CreatedAt: at},                        // exact match, skipped
			{ID: "J2", EventType: "open", CreatedAt: at.Add(time.Millisecond)}, // different createdAt, appended
			{ID: "J3", EventType: "thought", CreatedAt: at, Text: "love it"},   // different type, appended
		},
	}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	upserts := plan.Upserts[0].JourneyUpserts
	require.Len(t, upserts, 2)
	assert.Equal(t, domain.JourneyOpen, upserts[0].EventType)
	assert.Equal(t, domain.JourneyThought, upserts[1].EventType)
	assert.True(t, upserts[0].IsBound())
}

// Same invariant for journey events: a pending event sharing the exact
// (eventType, createdAt) key with the bound holder of the remote ID must
// not be bound to that ID again.
func TestSelective_JourneyBoundTwinBlocksRebind(t *testing.T) {
	at := time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)
	bound := &domain.JourneyEvent{ProductID: "prd-1", EventType: domain.JourneyOpen}
	bound.LocalID = "jrn-bound"
	bound.CreatedAt = at
	bound.Bind("J1")
	pending := &domain.JourneyEvent{ProductID: "prd-1", EventType: domain.JourneyOpen}
	pending.LocalID = "jrn-pending"
	pending.CreatedAt = at

	local := []*domain.Product{boundProduct("prd-1", "P1", "Serum")}
	telemetry := LocalTelemetry{
		Usage: map[string][]*domain.UsageEntry{},
		Journey: map[string][]*domain.JourneyEvent{
			"prd-1": {bound, pending},
		},
	}
	remote := []gateway.RemoteProduct{{
		ID: "P1", Name: "Serum",
		JourneyEvents: []gateway.RemoteJourneyEvent{
			{ID: "J1", EventType: "open", CreatedAt: at},
		},
	}}

	plan := SelectiveProducts(remote, local, telemetry, Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	assert.Empty(t, plan.Upserts[0].JourneyUpserts)
	assert.Nil(t, pending.BackendID)
}

func TestSelective_MaterializedProductGetsRemoteTelemetry(t *testing.T) {
	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	remote := []gateway.RemoteProduct{{
		ID: "P5", Name: "Balm",
		UsageEntries:  []gateway.RemoteUsageEntry{{ID: "U5", UsageType: "applied", CreatedAt: at}},
		JourneyEvents: []gateway.RemoteJourneyEvent{{ID: "J5", EventType: "purchase", CreatedAt: at}},
	}}

	plan := SelectiveProducts(remote, nil, noTelemetry(), Index{}, Index{})

	require.Len(t, plan.Upserts, 1)
	up := plan.Upserts[0]
	require.Len(t, up.UsageUpserts, 1)
	require.Len(t, up.JourneyUpserts, 1)
	assert.Equal(t, up.Product.LocalID, up.UsageUpserts[0].ProductID)
	assert.Equal(t, up.Product.LocalID, up.JourneyUpserts[0].ProductID)
}
