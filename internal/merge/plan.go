// Package merge computes reconciliation plans between a remote snapshot and
// the current local cache. It is pure: nothing here touches the store or
// the network. Entities live in flat collections keyed by identifier and
// relationships are looked up through backend-ID indexes, never traversed
// as live object graphs. The orchestrator feeds each plan to the store,
// which commits it as one transaction.
package merge

import "github.com/lumieapp/lumie-sync/internal/domain"

// TagPlan is the outcome of an authoritative tag merge.
type TagPlan struct {
	// Upserts are tags to insert or overwrite, keyed by LocalID. Existing
	// entities keep their LocalID so product relationships stay valid.
	Upserts []*domain.Tag
	// DeleteLocalIDs are tags to remove: bound tags absent from the
	// snapshot plus every pending tag.
	DeleteLocalIDs []string
}

// BagPlan is the outcome of an authoritative bag merge.
type BagPlan struct {
	Upserts        []*domain.Bag
	DeleteLocalIDs []string
}

// ProductUpsert is one product's contribution to a selective merge plan.
type ProductUpsert struct {
	Product *domain.Product
	// UsageUpserts are remote usage entries not already present locally
	// (appended as bound entries) plus existing local entries that matched
	// a remote entry and picked up its backend ID.
	UsageUpserts []*domain.UsageEntry
	// JourneyUpserts, same shape for journey events.
	JourneyUpserts []*domain.JourneyEvent
}

// ProductPlan is the outcome of a selective product merge.
type ProductPlan struct {
	Upserts []ProductUpsert
	// DeleteLocalIDs are bound products whose backend ID is absent from
	// the snapshot (server deleted them). Pending products are never
	// listed here.
	DeleteLocalIDs []string
}

// Index maps backend IDs to local IDs for one catalog collection. Built
// from the already-merged local tag/bag sets before the product phase.
type Index map[string]string

// TagIndex builds a backend-ID index over local tags. Pending tags are not
// indexed.
func TagIndex(tags []*domain.Tag) Index {
	idx := make(Index, len(tags))
	for _, t := range tags {
		if t.IsBound() {
			idx[*t.BackendID] = t.LocalID
		}
	}
	return idx
}

// BagIndex builds a backend-ID index over local bags.
func BagIndex(bags []*domain.Bag) Index {
	idx := make(Index, len(bags))
	for _, b := range bags {
		if b.IsBound() {
			idx[*b.BackendID] = b.LocalID
		}
	}
	return idx
}
