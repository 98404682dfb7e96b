package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumieapp/lumie-sync/internal/bus"
	"github.com/lumieapp/lumie-sync/internal/credentials"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/store/sqlite"
)

// fakeGateway implements gateway.Gateway with canned snapshots and
// scriptable failures, recording every mutating call.
type fakeGateway struct {
	tags     []gateway.RemoteTag
	bags     []gateway.RemoteBag
	products []gateway.RemoteProduct

	fetchTagsErr     error
	fetchBagsErr     error
	fetchProductsErr error
	createTagErr     error
	createProductErr error
	createUsageErr   error

	nextID int

	createdTags     []gateway.TagCreate
	createdBags     []gateway.BagCreate
	createdProducts []gateway.ProductCreate
	bagUpdates      []gateway.BagUpdate
	createdUsage    []gateway.UsageEntryCreate
	createdJourney  []gateway.JourneyEventCreate
	patches         []gateway.ProductPatch
	deletedTags     []string
	deletedBags     []string
	deletedProducts []string

	deleteProductErr error
}

func (f *fakeGateway) assign(prefix string) string {
	f.nextID++
	return prefix + string(rune('0'+f.nextID))
}

func (f *fakeGateway) FetchTags(context.Context) ([]gateway.RemoteTag, error) {
	return f.tags, f.fetchTagsErr
}

func (f *fakeGateway) CreateTag(_ context.Context, body gateway.TagCreate) (*gateway.RemoteTag, error) {
	if f.createTagErr != nil {
		return nil, f.createTagErr
	}
	f.createdTags = append(f.createdTags, body)
	return &gateway.RemoteTag{ID: f.assign("T"), Name: body.Name, Color: body.Color}, nil
}

func (f *fakeGateway) DeleteTag(_ context.Context, backendID string) error {
	f.deletedTags = append(f.deletedTags, backendID)
	return nil
}

func (f *fakeGateway) FetchBags(context.Context) ([]gateway.RemoteBag, error) {
	return f.bags, f.fetchBagsErr
}

func (f *fakeGateway) CreateBag(_ context.Context, body gateway.BagCreate) (*gateway.RemoteBag, error) {
	f.createdBags = append(f.createdBags, body)
	return &gateway.RemoteBag{ID: f.assign("B"), Name: body.Name}, nil
}

func (f *fakeGateway) UpdateBag(_ context.Context, _ string, body gateway.BagUpdate) error {
	f.bagUpdates = append(f.bagUpdates, body)
	return nil
}

func (f *fakeGateway) DeleteBag(_ context.Context, backendID string) error {
	f.deletedBags = append(f.deletedBags, backendID)
	return nil
}

func (f *fakeGateway) FetchProducts(context.Context) ([]gateway.RemoteProduct, error) {
	return f.products, f.fetchProductsErr
}

func (f *fakeGateway) GetProduct(_ context.Context, backendID string) (*gateway.RemoteProduct, error) {
	for _, p := range f.products {
		if p.ID == backendID {
			return &p, nil
		}
	}
	return nil, errors.NotFound("product not found")
}

func (f *fakeGateway) CreateProduct(_ context.Context, body gateway.ProductCreate) (*gateway.RemoteProduct, error) {
	if f.createProductErr != nil {
		return nil, f.createProductErr
	}
	f.createdProducts = append(f.createdProducts, body)
	return &gateway.RemoteProduct{ID: f.assign("P"), Name: body.Name}, nil
}

func (f *fakeGateway) UpdateProduct(_ context.Context, _ string, patch gateway.ProductPatch) error {
	f.patches = append(f.patches, patch)
	return nil
}

func (f *fakeGateway) DeleteProduct(_ context.Context, backendID string) error {
	if f.deleteProductErr != nil {
		return f.deleteProductErr
	}
	f.deletedProducts = append(f.deletedProducts, backendID)
	return nil
}

func (f *fakeGateway) CreateUsageEntry(_ context.Context, _ string, body gateway.UsageEntryCreate) (*gateway.RemoteUsageEntry, error) {
	if f.createUsageErr != nil {
		return nil, f.createUsageErr
	}
	f.createdUsage = append(f.createdUsage, body)
	return &gateway.RemoteUsageEntry{ID: f.assign("U"), UsageType: body.UsageType, CreatedAt: body.CreatedAt}, nil
}

func (f *fakeGateway) CreateJourneyEvent(_ context.Context, _ string, body gateway.JourneyEventCreate) (*gateway.RemoteJourneyEvent, error) {
	f.createdJourney = append(f.createdJourney, body)
	return &gateway.RemoteJourneyEvent{ID: f.assign("J"), EventType: body.EventType, CreatedAt: body.CreatedAt}, nil
}

// fixture bundles the orchestrator with its collaborators for assertions.
type fixture struct {
	orch  *Orchestrator
	store *sqlite.Store
	gw    *fakeGateway
	bus   *bus.Bus
	creds *credentials.StaticProvider
}

func setupOrchestrator(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	gw := &fakeGateway{}
	b := bus.New(logger)
	t.Cleanup(b.Close)
	creds := credentials.NewStaticProvider("tok")

	orch := New(st, gw, NewGuard(DefaultMinInterval), b, creds, "usr-1", logger)
	return &fixture{orch: orch, store: st, gw: gw, bus: b, creds: creds}
}
