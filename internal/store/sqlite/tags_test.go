package sqlite

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/errors"
	"github.com/lumieapp/lumie-sync/internal/merge"
	"github.com/lumieapp/lumie-sync/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(localID, name string) *domain.Tag {
	tag := &domain.Tag{
		Name:    name,
		Color:   "pink",
		OwnerID: "usr-1",
	}
	tag.LocalID = localID
	now := time.Now()
	tag.CreatedAt = now
	tag.UpdatedAt = now
	return tag
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "Holy Grail")

	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}

	if got.LocalID != tag.LocalID {
		t.Errorf("LocalID: got %q, want %q", got.LocalID, tag.LocalID)
	}
	if got.Name != tag.Name {
		t.Errorf("Name: got %q, want %q", got.Name, tag.Name)
	}
	if got.BackendID != nil {
		t.Errorf("BackendID: got %v, want nil", *got.BackendID)
	}

	// Timestamps round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetTag(context.Background(), "tag-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTag_DuplicateBackendID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := makeTestTag("tag-1", "A")
	first.Bind("T1")
	if err := s.CreateTag(ctx, first); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	second := makeTestTag("tag-2", "B")
	second.Bind("T1")
	if err := s.CreateTag(ctx, second); !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := makeTestTag("tag-1", "Old")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	tag.Name = "New"
	tag.Bind("T1")
	if err := s.UpdateTag(ctx, tag); err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}

	got, err := s.GetTag(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTag: %v", err)
	}
	if got.Name != "New" {
		t.Errorf("Name: got %q, want New", got.Name)
	}
	if got.BackendID == nil || *got.BackendID != "T1" {
		t.Errorf("BackendID: got %v, want T1", got.BackendID)
	}
}

func TestDeleteTag_NotFound(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteTag(context.Background(), "tag-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyTagPlan_CommitsAsOneUnit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	existing := makeTestTag("tag-keep", "Stale name")
	existing.Bind("T1")
	if err := s.CreateTag(ctx, existing); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	doomed := makeTestTag("tag-doomed", "Pending local")
	if err := s.CreateTag(ctx, doomed); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	fresh := makeTestTag("tag-new", "From server")
	fresh.Bind("T2")
	existing.Name = "Fresh name"

	plan := merge.TagPlan{
		Upserts:        []*domain.Tag{existing, fresh},
		DeleteLocalIDs: []string{"tag-doomed"},
	}
	if err := s.ApplyTagPlan(ctx, plan); err != nil {
		t.Fatalf("ApplyTagPlan: %v", err)
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	want := []string{"Fresh name", "From server"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("tags after plan: got %v, want %v", names, want)
	}
}
