package merge

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/gateway"
	"github.com/lumieapp/lumie-sync/internal/id"
)

func boundTag(localID, backendID, name string) *domain.Tag {
	t := &domain.Tag{Name: name}
	t.LocalID = localID
	t.InitTimestamps()
	t.Bind(backendID)
	return t
}

func pendingTag(localID, name, color string) *domain.Tag {
	t := &domain.Tag{Name: name, Color: color}
	t.LocalID = localID
	t.InitTimestamps()
	return t
}

func TestAuthoritativeTags_OverwritesBoundInPlace(t *testing.T) {
	local := []*domain.Tag{boundTag("tag-1", "T1", "Old Name")}
	remote := []gateway.RemoteTag{{ID: "T1", Name: "New Name", Color: "pink"}}

	plan := AuthoritativeTags(remote, local, "usr-1")

	require.Len(t, plan.Upserts, 1)
	assert.Equal(t, "tag-1", plan.Upserts[0].LocalID, "identity must be preserved")
	assert.Equal(t, "New Name", plan.Upserts[0].Name)
	assert.Equal(t, "pink", plan.Upserts[0].Color)
	assert.Empty(t, plan.DeleteLocalIDs)
}

func TestAuthoritativeTags_MaterializesUnknownRemote(t *testing.T) {
	remote := []gateway.RemoteTag{{ID: "T7", Name: "Travel"}}

	plan := AuthoritativeTags(remote, nil, "usr-1")

	require.Len(t, plan.Upserts, 1)
	created := plan.Upserts[0]
	assert.True(t, created.IsBound())
	assert.Equal(t, "T7", *created.BackendID)
	assert.NotEmpty(t, created.LocalID)
	assert.Equal(t, "usr-1", created.OwnerID)
}

func TestAuthoritativeTags_DeletesPendingAndAbsent(t *testing.T) {
	local := []*domain.Tag{
		boundTag("tag-kept", "T1", "Kept"),
		boundTag("tag-gone", "T2", "Server deleted"),
		pendingTag("tag-pending", "Holy Grail", "pink"),
	}
	remote := []gateway.RemoteTag{{ID: "T1", Name: "Kept"}}

	plan := AuthoritativeTags(remote, local, "usr-1")

	sort.Strings(plan.DeleteLocalIDs)
	assert.Equal(t, []string{"tag-gone", "tag-pending"}, plan.DeleteLocalIDs)
}

// A pending local tag against an empty snapshot leaves zero tags.
func TestAuthoritativeTags_EmptySnapshotDropsEverything(t *testing.T) {
	local := []*domain.Tag{pendingTag("tag-hg", "Holy Grail", "pink")}

	plan := AuthoritativeTags(nil, local, "usr-1")

	assert.Empty(t, plan.Upserts)
	assert.Equal(t, []string{"tag-hg"}, plan.DeleteLocalIDs)
}

// Two merge runs from different local states converge on the same shape.
func TestAuthoritativeTags_Confluence(t *testing.T) {
	remote := []gateway.RemoteTag{
		{ID: "T1", Name: "A", Color: "red"},
		{ID: "T2", Name: "B", Color: "blue"},
	}

	stateA := []*domain.Tag{boundTag("tag-a1", "T1", "stale")}
	stateB := []*domain.Tag{
		boundTag("tag-b2", "T2", "stale"),
		pendingTag("tag-b3", "local only", ""),
	}

	shape := func(plan TagPlan) map[string]string {
		m := make(map[string]string)
		for _, u := range plan.Upserts {
			m[*u.BackendID] = u.Name + "/" + u.Color
		}
		return m
	}

	planA := AuthoritativeTags(remote, stateA, "usr-1")
	planB := AuthoritativeTags(remote, stateB, "usr-1")

	assert.Equal(t, shape(planA), shape(planB))
	assert.Empty(t, planA.DeleteLocalIDs)
	assert.Equal(t, []string{"tag-b3"}, planB.DeleteLocalIDs)
}

func TestAuthoritativeBags_FullCycle(t *testing.T) {
	bound := &domain.Bag{Name: "Gym", Icon: "old"}
	bound.LocalID = "bag-1"
	bound.InitTimestamps()
	bound.Bind("B1")

	pending := &domain.Bag{Name: "Unsynced"}
	pending.LocalID = "bag-2"
	pending.InitTimestamps()

	remote := []gateway.RemoteBag{
		{ID: "B1", Name: "Gym bag", Color: "green", Icon: "dumbbell"},
		{ID: "B9", Name: "Shower shelf", Icon: "drop"},
	}

	plan := AuthoritativeBags(remote, []*domain.Bag{bound, pending}, "usr-1")

	require.Len(t, plan.Upserts, 2)
	assert.Equal(t, "bag-1", plan.Upserts[0].LocalID)
	assert.Equal(t, "Gym bag", plan.Upserts[0].Name)
	assert.Equal(t, "dumbbell", plan.Upserts[0].Icon)
	assert.True(t, plan.Upserts[1].IsBound())
	assert.Equal(t, "B9", *plan.Upserts[1].BackendID)
	assert.Equal(t, []string{"bag-2"}, plan.DeleteLocalIDs)
}

func TestTagIndex_SkipsPending(t *testing.T) {
	idx := TagIndex([]*domain.Tag{
		boundTag("tag-1", "T1", "A"),
		pendingTag("tag-2", "B", ""),
	})

	assert.Equal(t, Index{"T1": "tag-1"}, idx)
}

func TestGeneratedLocalIDsCarryPrefix(t *testing.T) {
	plan := AuthoritativeTags([]gateway.RemoteTag{{ID: "T1", Name: "A"}}, nil, "usr-1")
	require.Len(t, plan.Upserts, 1)
	assert.Contains(t, plan.Upserts[0].LocalID, id.PrefixTag+"-")
}
