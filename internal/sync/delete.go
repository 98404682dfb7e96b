package sync

import (
	"context"

	"github.com/lumieapp/lumie-sync/internal/bus"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/gateway"
)

// DeleteProduct removes a product on explicit user request: the remote
// delete goes first, the local record is removed only on confirmation.
// A never-bound product is removed locally without a remote call, and a
// remote 404 counts as confirmation (already gone). Telemetry cascades
// with the product.
func (o *Orchestrator) DeleteProduct(ctx context.Context, localID string) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	product, err := o.store.GetProduct(ctx, localID)
	if err != nil {
		return err
	}

	if product.IsBound() {
		if err := o.gateway.DeleteProduct(ctx, *product.BackendID); err != nil && !errors.Is(err, errors.ErrNotFound) {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
			}
			return err
		}
	}

	if err := o.store.DeleteProduct(ctx, localID); err != nil {
		return err
	}

	o.bus.Publish(bus.TopicProductDeleted, localID)
	return nil
}

// DeleteTag removes a tag remotely first, then locally.
func (o *Orchestrator) DeleteTag(ctx context.Context, localID string) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tag, err := o.store.GetTag(ctx, localID)
	if err != nil {
		return err
	}

	if tag.IsBound() {
		if err := o.gateway.DeleteTag(ctx, *tag.BackendID); err != nil && !errors.Is(err, errors.ErrNotFound) {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
			}
			return err
		}
	}

	return o.store.DeleteTag(ctx, localID)
}

// DeleteBag removes a bag remotely first, then locally.
func (o *Orchestrator) DeleteBag(ctx context.Context, localID string) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	bag, err := o.store.GetBag(ctx, localID)
	if err != nil {
		return err
	}

	if bag.IsBound() {
		if err := o.gateway.DeleteBag(ctx, *bag.BackendID); err != nil && !errors.Is(err, errors.ErrNotFound) {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
			}
			return err
		}
	}

	return o.store.DeleteBag(ctx, localID)
}

// AddProductTag associates a tag with a product locally and, when both
// sides are bound, mirrors the edit remotely.
func (o *Orchestrator) AddProductTag(ctx context.Context, productLocalID, tagLocalID string) error {
	return o.editRelationship(ctx, productLocalID, tagLocalID, relationshipEdit{addTag: true})
}

// RemoveProductTag dissociates a tag from a product.
func (o *Orchestrator) RemoveProductTag(ctx context.Context, productLocalID, tagLocalID string) error {
	return o.editRelationship(ctx, productLocalID, tagLocalID, relationshipEdit{removeTag: true})
}

// AddProductBag places a product in a bag.
func (o *Orchestrator) AddProductBag(ctx context.Context, productLocalID, bagLocalID string) error {
	return o.editRelationship(ctx, productLocalID, bagLocalID, relationshipEdit{addBag: true})
}

// RemoveProductBag takes a product out of a bag.
func (o *Orchestrator) RemoveProductBag(ctx context.Context, productLocalID, bagLocalID string) error {
	return o.editRelationship(ctx, productLocalID, bagLocalID, relationshipEdit{removeBag: true})
}

type relationshipEdit struct {
	addTag    bool
	removeTag bool
	addBag    bool
	removeBag bool
}

// editRelationship applies one relationship edit locally under the guard,
// then mirrors it remotely when both product and catalog entity are bound.
// The remote call failing does not undo the local edit; the next pipeline
// run reconciles.
func (o *Orchestrator) editRelationship(ctx context.Context, productLocalID, otherLocalID string, edit relationshipEdit) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	product, err := o.store.GetProduct(ctx, productLocalID)
	if err != nil {
		return err
	}

	var otherBackendID *string
	patch := gateway.ProductPatch{}

	switch {
	case edit.addTag:
		tag, err := o.store.GetTag(ctx, otherLocalID)
		if err != nil {
			return err
		}
		if !product.HasTag(otherLocalID) {
			product.TagIDs = append(product.TagIDs, otherLocalID)
		}
		otherBackendID = tag.BackendID
		patch.AddTagID = otherBackendID

	case edit.removeTag:
		tag, err := o.store.GetTag(ctx, otherLocalID)
		if err != nil {
			return err
		}
		product.TagIDs = removeID(product.TagIDs, otherLocalID)
		otherBackendID = tag.BackendID
		patch.RemoveTagID = otherBackendID

	case edit.addBag:
		bag, err := o.store.GetBag(ctx, otherLocalID)
		if err != nil {
			return err
		}
		if !product.HasBag(otherLocalID) {
			product.BagIDs = append(product.BagIDs, otherLocalID)
		}
		otherBackendID = bag.BackendID
		patch.AddBagID = otherBackendID

	case edit.removeBag:
		bag, err := o.store.GetBag(ctx, otherLocalID)
		if err != nil {
			return err
		}
		product.BagIDs = removeID(product.BagIDs, otherLocalID)
		otherBackendID = bag.BackendID
		patch.RemoveBagID = otherBackendID
	}

	product.Touch()
	if err := o.store.UpdateProduct(ctx, product); err != nil {
		return err
	}

	if product.IsBound() && otherBackendID != nil && *otherBackendID != "" {
		if err := o.gateway.UpdateProduct(ctx, *product.BackendID, patch); err != nil {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
			}
			o.logger.Warn("failed to mirror relationship edit", "product", productLocalID, "error", err)
		}
	}

	return nil
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
