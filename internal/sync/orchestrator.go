package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/lumieapp/lumie-sync/internal/bus"
	"github.com/lumieapp/lumie-sync/internal/credentials"
	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/merge"
	"github.com/lumieapp/lumie-sync/internal/store"
)

// ErrCoalesced is returned when a refresh trigger is dropped because a
// pipeline is already running or ran within the minimum interval. It is
// benign: the caller's intent is already satisfied by the other run.
var ErrCoalesced = errors.New("sync trigger coalesced")

// Orchestrator sequences the pull-merge pipeline and the push flows. One
// orchestrator exists per process; all collaborators are injected.
type Orchestrator struct {
	store   store.Store
	gateway gateway.Gateway
	guard   *Guard
	bus     *bus.Bus
	creds   credentials.Provider
	logger  *slog.Logger
	ownerID string

	initialDone atomic.Bool
}

// New creates an orchestrator.
func New(st store.Store, gw gateway.Gateway, guard *Guard, b *bus.Bus, creds credentials.Provider, ownerID string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   st,
		gateway: gw,
		guard:   guard,
		bus:     b,
		creds:   creds,
		logger:  logger,
		ownerID: ownerID,
	}
}

// PerformInitialSync runs the full pipeline once per process, then sweeps
// pending telemetry. Subsequent calls are no-ops for the process lifetime,
// whether or not the first attempt succeeded.
func (o *Orchestrator) PerformInitialSync(ctx context.Context) error {
	if !o.initialDone.CompareAndSwap(false, true) {
		o.logger.Debug("initial sync already attempted, skipping")
		return nil
	}

	release, ok := o.guard.TryEnter()
	if !ok {
		return ErrCoalesced
	}
	defer release()

	if err := o.runPipeline(ctx); err != nil {
		return err
	}
	return o.sweepPendingTelemetry(ctx)
}

// RefreshAll runs the throttled, guarded pipeline. Safe to call on every
// app-foreground event; bursts collapse into at most one run per interval.
func (o *Orchestrator) RefreshAll(ctx context.Context) error {
	release, ok := o.guard.TryEnter()
	if !ok {
		o.logger.Debug("refresh trigger coalesced")
		return ErrCoalesced
	}
	defer release()

	return o.runPipeline(ctx)
}

// AuthoritativeRefresh runs the pipeline bypassing both the throttle and
// the once-per-process latch. Used when the caller has high confidence a
// refresh is warranted, e.g. right after login.
func (o *Orchestrator) AuthoritativeRefresh(ctx context.Context) error {
	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return o.runPipeline(ctx)
}

// InitialSyncDone reports whether the once-per-process latch has fired.
func (o *Orchestrator) InitialSyncDone() bool {
	return o.initialDone.Load()
}

// Guard exposes the exclusivity guard for status reporting.
func (o *Orchestrator) Guard() *Guard {
	return o.guard
}

// runPipeline executes the strict Tags, Bags, Products phase sequence.
// Each phase commits its own transaction and publishes exactly one event;
// a failing phase aborts the remainder but never rolls back committed
// phases. The caller holds the guard.
func (o *Orchestrator) runPipeline(ctx context.Context) error {
	if err := o.runTagPhase(ctx); err != nil {
		return o.abort(err, "tag phase")
	}
	if err := o.runBagPhase(ctx); err != nil {
		return o.abort(err, "bag phase")
	}
	if err := o.runProductPhase(ctx); err != nil {
		return o.abort(err, "product phase")
	}
	return nil
}

func (o *Orchestrator) runTagPhase(ctx context.Context) error {
	remote, err := o.gateway.FetchTags(ctx)
	if err != nil {
		return err
	}

	local, err := o.store.ListTags(ctx)
	if err != nil {
		return err
	}

	plan := merge.AuthoritativeTags(remote, local, o.ownerID)
	if err := o.store.ApplyTagPlan(ctx, plan); err != nil {
		return err
	}

	o.logger.Info("tag phase complete", "upserts", len(plan.Upserts), "deletes", len(plan.DeleteLocalIDs))
	o.bus.Publish(bus.TopicTagsRefreshed, len(plan.Upserts))
	return nil
}

func (o *Orchestrator) runBagPhase(ctx context.Context) error {
	remote, err := o.gateway.FetchBags(ctx)
	if err != nil {
		return err
	}

	local, err := o.store.ListBags(ctx)
	if err != nil {
		return err
	}

	plan := merge.AuthoritativeBags(remote, local, o.ownerID)
	if err := o.store.ApplyBagPlan(ctx, plan); err != nil {
		return err
	}

	o.logger.Info("bag phase complete", "upserts", len(plan.Upserts), "deletes", len(plan.DeleteLocalIDs))
	o.bus.Publish(bus.TopicBagsRefreshed, len(plan.Upserts))
	return nil
}

// runProductPhase depends on the tag and bag phases having committed:
// relationship resolution reads the already-merged catalog sets.
func (o *Orchestrator) runProductPhase(ctx context.Context) error {
	remote, err := o.gateway.FetchProducts(ctx)
	if err != nil {
		return err
	}

	local, err := o.store.ListProducts(ctx)
	if err != nil {
		return err
	}

	telemetry, err := o.loadTelemetry(ctx, local)
	if err != nil {
		return err
	}

	tags, err := o.store.ListTags(ctx)
	if err != nil {
		return err
	}
	bags, err := o.store.ListBags(ctx)
	if err != nil {
		return err
	}

	plan := merge.SelectiveProducts(remote, local, telemetry, merge.TagIndex(tags), merge.BagIndex(bags))
	if err := o.store.ApplyProductPlan(ctx, plan); err != nil {
		return err
	}

	o.logger.Info("product phase complete", "upserts", len(plan.Upserts), "deletes", len(plan.DeleteLocalIDs))
	o.bus.Publish(bus.TopicProductsRefreshed, len(plan.Upserts))
	return nil
}

// loadTelemetry gathers each local product's usage entries and journey
// events for the selective merge.
func (o *Orchestrator) loadTelemetry(ctx context.Context, products []*domain.Product) (merge.LocalTelemetry, error) {
	telemetry := merge.LocalTelemetry{
		Usage:   make(map[string][]*domain.UsageEntry, len(products)),
		Journey: make(map[string][]*domain.JourneyEvent, len(products)),
	}

	for _, p := range products {
		usage, err := o.store.ListUsageEntries(ctx, p.LocalID)
		if err != nil {
			return telemetry, err
		}
		telemetry.Usage[p.LocalID] = usage

		journey, err := o.store.ListJourneyEvents(ctx, p.LocalID)
		if err != nil {
			return telemetry, err
		}
		telemetry.Journey[p.LocalID] = journey
	}

	return telemetry, nil
}

// abort logs a phase failure and routes Unauthorized to the credential
// provider. The engine never refreshes credentials itself; invalidation
// signals the external authentication collaborator.
func (o *Orchestrator) abort(err error, phase string) error {
	o.logger.Error("pipeline aborted", "phase", phase, "error", err)
	if errors.Is(err, errors.ErrUnauthorized) {
		o.creds.Invalidate()
	}
	return errors.Wrapf(err, codeOf(err), "%s", phase)
}

// codeOf extracts the taxonomy code from an error, defaulting to internal.
func codeOf(err error) errors.Code {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return errors.CodeInternal
}
