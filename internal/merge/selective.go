package merge

import (
	"time"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/id"
)

// usageDedupWindow is the clock-skew tolerance when matching a remote usage
// entry against local ones. Two entries within this window of each other
// are treated as the same logged use.
const usageDedupWindow = time.Second

// LocalTelemetry carries a product's local usage entries and journey
// events into the selective merge, keyed by product LocalID.
type LocalTelemetry struct {
	Usage   map[string][]*domain.UsageEntry
	Journey map[string][]*domain.JourneyEvent
}

// SelectiveProducts reconciles the local product set against a remote
// snapshot under the selective policy: catalog and instance fields follow
// the server, relationship sets are rebuilt from the snapshot's backend
// identifiers, and locally authored telemetry is preserved.
//
// Remote telemetry merges by de-duplication, not replacement: a usage entry
// already present within the skew window is matched (and bound if it was
// pending) rather than appended; journey events match on the exact
// (eventType, createdAt) key.
//
// tagIdx and bagIdx must come from the already-merged tag/bag sets; the
// product phase depends on those phases having committed first.
func SelectiveProducts(remote []gateway.RemoteProduct, local []*domain.Product, telemetry LocalTelemetry, tagIdx, bagIdx Index) ProductPlan {
	byBackendID := make(map[string]*domain.Product, len(local))
	for _, p := range local {
		if p.IsBound() {
			byBackendID[*p.BackendID] = p
		}
	}

	var plan ProductPlan
	seen := make(map[string]bool, len(remote))

	for _, r := range remote {
		seen[r.ID] = true

		var product *domain.Product
		if existing, ok := byBackendID[r.ID]; ok {
			updated := *existing
			applyProductFields(&updated, r)
			updated.Touch()
			product = &updated
		} else {
			product = &domain.Product{}
			product.LocalID = id.MustGenerate(id.PrefixProduct)
			product.InitTimestamps()
			product.Bind(r.ID)
			applyProductFields(product, r)
		}

		product.TagIDs = resolveRefs(r.TagIDs, tagIdx)
		product.BagIDs = resolveRefs(r.BagIDs, bagIdx)

		upsert := ProductUpsert{Product: product}
		upsert.UsageUpserts = mergeUsage(r, product.LocalID, telemetry.Usage[product.LocalID])
		upsert.JourneyUpserts = mergeJourney(r, product.LocalID, telemetry.Journey[product.LocalID])
		plan.Upserts = append(plan.Upserts, upsert)
	}

	// Prune bound products the server no longer knows. Pending products
	// stay: they may be mid-push and are only removed on push failure or
	// explicit user delete.
	for _, p := range local {
		if p.IsBound() && !seen[*p.BackendID] {
			plan.DeleteLocalIDs = append(plan.DeleteLocalIDs, p.LocalID)
		}
	}

	return plan
}

// applyProductFields overwrites catalog and instance fields from the remote
// record. Relationship sets and telemetry are handled separately.
func applyProductFields(p *domain.Product, r gateway.RemoteProduct) {
	p.Barcode = r.Barcode
	p.Name = r.Name
	p.Brand = r.Brand
	p.PeriodsAfterOpening = r.PeriodsAfterOpening
	p.Vegan = r.Vegan
	p.CrueltyFree = r.CrueltyFree
	p.Shade = r.Shade
	p.SizeMl = r.SizeMl
	p.SPF = r.SPF
	p.ImageRef = r.ImageRef

	p.PurchaseDate = r.PurchaseDate
	p.OpenDate = r.OpenDate
	p.ExpireDate = r.ExpireDate
	p.IsFinished = r.IsFinished
	p.FinishDate = r.FinishDate
	p.CurrentAmount = r.CurrentAmount
	p.TimesUsed = r.TimesUsed
	p.Quantity = r.Quantity
}

// resolveRefs maps backend identifiers to local IDs through the index.
// Unknown identifiers are dropped; the next pipeline run picks them up once
// the catalog phase has seen them.
func resolveRefs(backendIDs []string, idx Index) []string {
	localIDs := make([]string, 0, len(backendIDs))
	for _, bid := range backendIDs {
		if localID, ok := idx[bid]; ok {
			localIDs = append(localIDs, localID)
		}
	}
	return localIDs
}

// mergeUsage de-duplicates remote usage entries against the product's
// local ones. A remote entry already bound to a local entry is skipped
// outright. Otherwise a pending local entry whose createdAt falls within
// the skew window is the same event and picks up the backend ID. Unmatched
// remote entries are appended as new bound entries.
//
// The window only ever matches pending entries: binding over a bound
// entry, or next to one that already holds the remote ID, would collide
// on the backend-id unique index and wedge the product phase.
func mergeUsage(r gateway.RemoteProduct, productLocalID string, local []*domain.UsageEntry) []*domain.UsageEntry {
	var upserts []*domain.UsageEntry

	boundIDs := make(map[string]bool, len(local))
	for _, lu := range local {
		if lu.IsBound() {
			boundIDs[*lu.BackendID] = true
		}
	}
	claimed := make(map[string]bool, len(local))

	for _, ru := range r.UsageEntries {
		if boundIDs[ru.ID] {
			continue
		}

		var match *domain.UsageEntry
		for _, lu := range local {
			if lu.IsBound() || claimed[lu.LocalID] {
				continue
			}
			delta := lu.CreatedAt.Sub(ru.CreatedAt)
			if delta < 0 {
				delta = -delta
			}
			if delta <= usageDedupWindow {
				match = lu
				break
			}
		}

		if match != nil {
			claimed[match.LocalID] = true
			bound := *match
			bound.Bind(ru.ID)
			upserts = append(upserts, &bound)
			continue
		}

		entry := &domain.UsageEntry{
			ProductID:   productLocalID,
			UsageType:   ru.UsageType,
			UsageAmount: ru.UsageAmount,
			Notes:       ru.Notes,
		}
		entry.LocalID = id.MustGenerate(id.PrefixUsage)
		entry.CreatedAt = ru.CreatedAt
		entry.UpdatedAt = ru.CreatedAt
		entry.Bind(ru.ID)
		upserts = append(upserts, entry)
	}

	return upserts
}

// mergeJourney de-duplicates remote journey events against the product's
// local ones on the exact (eventType, createdAt) key. As with usage, a
// remote event whose ID is already bound locally is skipped before the key
// lookup, so it can never re-bind onto a second local event.
func mergeJourney(r gateway.RemoteProduct, productLocalID string, local []*domain.JourneyEvent) []*domain.JourneyEvent {
	var upserts []*domain.JourneyEvent

	type key struct {
		eventType string
		createdAt int64
	}
	boundIDs := make(map[string]bool, len(local))
	byKey := make(map[key]*domain.JourneyEvent, len(local))
	for _, lj := range local {
		if lj.IsBound() {
			boundIDs[*lj.BackendID] = true
		}
		byKey[key{string(lj.EventType), lj.CreatedAt.UnixNano()}] = lj
	}

	for _, rj := range r.JourneyEvents {
		if boundIDs[rj.ID] {
			continue
		}
		if match, ok := byKey[key{rj.EventType, rj.CreatedAt.UnixNano()}]; ok {
			if !match.IsBound() {
				bound := *match
				bound.Bind(rj.ID)
				upserts = append(upserts, &bound)
			}
			continue
		}

		event := &domain.JourneyEvent{
			ProductID: productLocalID,
			EventType: domain.JourneyEventType(rj.EventType),
			Title:     rj.Title,
			Text:      rj.Text,
			Rating:    rj.Rating,
		}
		event.LocalID = id.MustGenerate(id.PrefixJourney)
		event.CreatedAt = rj.CreatedAt
		event.UpdatedAt = rj.CreatedAt
		event.Bind(rj.ID)
		upserts = append(upserts, event)
	}

	return upserts
}
