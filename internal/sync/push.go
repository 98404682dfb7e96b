package sync

import (
	"context"

	"github.com/lumieapp/lumie-sync/internal/bus"
	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/gateway"
)

// SyncTag pushes a pending local tag to the backend and binds the returned
// identifier. A bound tag is never re-pushed; the call is a no-op.
//
// On push failure the local tag is deleted: the cache must never retain a
// catalog entity the server rejected.
func (o *Orchestrator) SyncTag(ctx context.Context, localID string) error {
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
		return nil
	}

	created, err := o.gateway.CreateTag(ctx, gateway.TagCreate{Name: tag.Name, Color: tag.Color})
	if err != nil {
		return o.discardAfterPushFailure(ctx, err, "tag", localID, o.store.DeleteTag)
	}

	tag.Bind(created.ID)
	return o.store.UpdateTag(ctx, tag)
}

// SyncBag pushes a pending local bag, mirroring SyncTag.
func (o *Orchestrator) SyncBag(ctx context.Context, localID string) error {
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
		return nil
	}

	created, err := o.gateway.CreateBag(ctx, gateway.BagCreate{Name: bag.Name, Color: bag.Color, Icon: bag.Icon})
	if err != nil {
		return o.discardAfterPushFailure(ctx, err, "bag", localID, o.store.DeleteBag)
	}

	bag.Bind(created.ID)
	return o.store.UpdateBag(ctx, bag)
}

// UpdateBag persists bag field edits and mirrors them remotely when the
// bag is bound. The remote call failing does not undo the local edit; the
// next pipeline run reconciles.
func (o *Orchestrator) UpdateBag(ctx context.Context, localID, name, color, icon string) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	bag, err := o.store.GetBag(ctx, localID)
	if err != nil {
		return err
	}

	bag.Name = name
	bag.Color = color
	bag.Icon = icon
	bag.Touch()
	if err := o.store.UpdateBag(ctx, bag); err != nil {
		return err
	}

	if bag.IsBound() {
		if err := o.gateway.UpdateBag(ctx, *bag.BackendID, gateway.BagUpdate{Name: name, Color: color, Icon: icon}); err != nil {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
			}
			o.logger.Warn("failed to mirror bag update", "bag", localID, "error", err)
		}
	}

	return nil
}

// SyncProduct pushes a pending local product: create remote, bind the
// returned identifier, then push any already-bound tag/bag relationships
// one call each. Telemetry is never part of the create; the pending sweep
// pushes it separately.
//
// On create failure the local product is deleted and the error surfaced.
// Relationship-push failures after a successful bind are logged and
// non-fatal; the next authoritative pull reconciles them.
func (o *Orchestrator) SyncProduct(ctx context.Context, localID string) error {
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
		return nil
	}

	created, err := o.gateway.CreateProduct(ctx, productCreateBody(product))
	if err != nil {
		return o.discardAfterPushFailure(ctx, err, "product", localID, o.store.DeleteProduct)
	}

	product.Bind(created.ID)
	if err := o.store.UpdateProduct(ctx, product); err != nil {
		return err
	}

	o.pushRelationships(ctx, product)

	o.bus.Publish(bus.TopicProductPushed, localID)
	return nil
}

// pushRelationships issues one relationship-update call per bound tag/bag
// already associated with the product.
func (o *Orchestrator) pushRelationships(ctx context.Context, product *domain.Product) {
	backendID := *product.BackendID

	for _, tagID := range product.TagIDs {
		tag, err := o.store.GetTag(ctx, tagID)
		if err != nil || !tag.IsBound() {
			continue
		}
		patch := gateway.ProductPatch{AddTagID: tag.BackendID}
		if err := o.gateway.UpdateProduct(ctx, backendID, patch); err != nil {
			o.logger.Warn("failed to push tag relationship", "product", product.LocalID, "tag", tagID, "error", err)
		}
	}

	for _, bagID := range product.BagIDs {
		bag, err := o.store.GetBag(ctx, bagID)
		if err != nil || !bag.IsBound() {
			continue
		}
		patch := gateway.ProductPatch{AddBagID: bag.BackendID}
		if err := o.gateway.UpdateProduct(ctx, backendID, patch); err != nil {
			o.logger.Warn("failed to push bag relationship", "product", product.LocalID, "bag", bagID, "error", err)
		}
	}
}

// SyncPendingTelemetry pushes every unbound usage entry and journey event
// whose owning product is bound. The sweep is idempotent and safe to
// re-run: entries bind as they succeed and are skipped thereafter.
func (o *Orchestrator) SyncPendingTelemetry(ctx context.Context) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return o.sweepPendingTelemetry(ctx)
}

// sweepPendingTelemetry does the work; the caller holds the guard.
// Per-entry failures are logged and skipped so one bad entry cannot stall
// the rest, except Unauthorized, which aborts the sweep.
func (o *Orchestrator) sweepPendingTelemetry(ctx context.Context) error {
	products, err := o.store.ListProducts(ctx)
	if err != nil {
		return err
	}
	productByLocalID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		productByLocalID[p.LocalID] = p
	}

	pushed := 0

	usage, err := o.store.ListPendingUsageEntries(ctx)
	if err != nil {
		return err
	}
	for _, entry := range usage {
		product, ok := productByLocalID[entry.ProductID]
		if !ok || !product.IsBound() {
			continue
		}

		created, err := o.gateway.CreateUsageEntry(ctx, *product.BackendID, gateway.UsageEntryCreate{
			UsageType:   entry.UsageType,
			UsageAmount: entry.UsageAmount,
			Notes:       entry.Notes,
			CreatedAt:   entry.CreatedAt,
		})
		if err != nil {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
				return err
			}
			o.logger.Warn("failed to push usage entry", "entry", entry.LocalID, "error", err)
			continue
		}

		entry.Bind(created.ID)
		if err := o.store.UpdateUsageEntry(ctx, entry); err != nil {
			return err
		}
		pushed++
	}

	journey, err := o.store.ListPendingJourneyEvents(ctx)
	if err != nil {
		return err
	}
	for _, event := range journey {
		product, ok := productByLocalID[event.ProductID]
		if !ok || !product.IsBound() {
			continue
		}

		created, err := o.gateway.CreateJourneyEvent(ctx, *product.BackendID, gateway.JourneyEventCreate{
			EventType: string(event.EventType),
			Title:     event.Title,
			Text:      event.Text,
			Rating:    event.Rating,
			CreatedAt: event.CreatedAt,
		})
		if err != nil {
			if errors.Is(err, errors.ErrUnauthorized) {
				o.creds.Invalidate()
				return err
			}
			o.logger.Warn("failed to push journey event", "event", event.LocalID, "error", err)
			continue
		}

		event.Bind(created.ID)
		if err := o.store.UpdateJourneyEvent(ctx, event); err != nil {
			return err
		}
		pushed++
	}

	if pushed > 0 {
		o.bus.Publish(bus.TopicTelemetryPushed, pushed)
	}
	return nil
}

// discardAfterPushFailure removes the local speculative entity after a
// rejected push and surfaces the original error.
func (o *Orchestrator) discardAfterPushFailure(ctx context.Context, pushErr error, kind, localID string, deleteFn func(context.Context, string) error) error {
	o.logger.Warn("push failed, discarding local entity", "kind", kind, "local_id", localID, "error", pushErr)

	if errors.Is(pushErr, errors.ErrUnauthorized) {
		o.creds.Invalidate()
	}
	if err := deleteFn(ctx, localID); err != nil {
		o.logger.Error("failed to discard entity after push failure", "kind", kind, "local_id", localID, "error", err)
	}
	return pushErr
}

// productCreateBody serializes a product's catalog and instance fields for
// the create call.
func productCreateBody(p *domain.Product) gateway.ProductCreate {
	return gateway.ProductCreate{
		Barcode:             p.Barcode,
		Name:                p.Name,
		Brand:               p.Brand,
		PeriodsAfterOpening: p.PeriodsAfterOpening,
		Vegan:               p.Vegan,
		CrueltyFree:         p.CrueltyFree,
		Shade:               p.Shade,
		SizeMl:              p.SizeMl,
		SPF:                 p.SPF,
		ImageRef:            p.ImageRef,
		PurchaseDate:        p.PurchaseDate,
		OpenDate:            p.OpenDate,
		ExpireDate:          p.ExpireDate,
		IsFinished:          p.IsFinished,
		FinishDate:          p.FinishDate,
		CurrentAmount:       p.CurrentAmount,
		TimesUsed:           p.TimesUsed,
		Quantity:            p.Quantity,
	}
}
