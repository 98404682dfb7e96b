package merge

import (
	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/id"
)

// AuthoritativeTags reconciles the local tag set against a remote snapshot
// under the authoritative policy: the backend fully determines existence
// and field values.
//
// Bound local tags matching a snapshot record are overwritten in place
// (LocalID preserved so product relationships stay valid). Snapshot records
// with no local counterpart are materialized as new bound tags. Bound tags
// absent from the snapshot and every pending tag are deleted.
func AuthoritativeTags(remote []gateway.RemoteTag, local []*domain.Tag, ownerID string) TagPlan {
	byBackendID := make(map[string]*domain.Tag, len(local))
	for _, t := range local {
		if t.IsBound() {
			byBackendID[*t.BackendID] = t
		}
	}

	var plan TagPlan
	seen := make(map[string]bool, len(remote))

	for _, r := range remote {
		seen[r.ID] = true

		if existing, ok := byBackendID[r.ID]; ok {
			updated := *existing
			updated.Name = r.Name
			updated.Color = r.Color
			updated.OwnerID = ownerID
			updated.Touch()
			plan.Upserts = append(plan.Upserts, &updated)
			continue
		}

		t := &domain.Tag{
			Name:    r.Name,
			Color:   r.Color,
			OwnerID: ownerID,
		}
		t.LocalID = id.MustGenerate(id.PrefixTag)
		t.InitTimestamps()
		t.Bind(r.ID)
		plan.Upserts = append(plan.Upserts, t)
	}

	for _, t := range local {
		if !t.IsBound() || !seen[*t.BackendID] {
			plan.DeleteLocalIDs = append(plan.DeleteLocalIDs, t.LocalID)
		}
	}

	return plan
}

// AuthoritativeBags is the authoritative policy applied to bags.
func AuthoritativeBags(remote []gateway.RemoteBag, local []*domain.Bag, ownerID string) BagPlan {
	byBackendID := make(map[string]*domain.Bag, len(local))
	for _, b := range local {
		if b.IsBound() {
			byBackendID[*b.BackendID] = b
		}
	}

	var plan BagPlan
	seen := make(map[string]bool, len(remote))

	for _, r := range remote {
		seen[r.ID] = true

		if existing, ok := byBackendID[r.ID]; ok {
			updated := *existing
			updated.Name = r.Name
			updated.Color = r.Color
			updated.Icon = r.Icon
			updated.OwnerID = ownerID
			updated.Touch()
			plan.Upserts = append(plan.Upserts, &updated)
			continue
		}

		b := &domain.Bag{
			Name:    r.Name,
			Color:   r.Color,
			Icon:    r.Icon,
			OwnerID: ownerID,
		}
		b.LocalID = id.MustGenerate(id.PrefixBag)
		b.InitTimestamps()
		b.Bind(r.ID)
		plan.Upserts = append(plan.Upserts, b)
	}

	for _, b := range local {
		if !b.IsBound() || !seen[*b.BackendID] {
			plan.DeleteLocalIDs = append(plan.DeleteLocalIDs, b.LocalID)
		}
	}

	return plan
}
