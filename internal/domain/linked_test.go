package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinked_IsBound(t *testing.T) {
	var l Linked
	assert.False(t, l.IsBound())

	empty := ""
	l.BackendID = &empty
	assert.False(t, l.IsBound())

	id := "tag-remote-1"
	l.BackendID = &id
	assert.True(t, l.IsBound())
}

func TestLinked_Bind(t *testing.T) {
	l := Linked{LocalID: "tag-abc"}
	before := time.Now()

	l.Bind("remote-9")

	assert.True(t, l.IsBound())
	assert.Equal(t, "remote-9", *l.BackendID)
	assert.False(t, l.UpdatedAt.Before(before))
}

func TestLinked_InitTimestamps(t *testing.T) {
	var l Linked
	l.InitTimestamps()

	assert.False(t, l.CreatedAt.IsZero())
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)
}

func TestProduct_HasTagAndBag(t *testing.T) {
	p := Product{
		TagIDs: []string{"tag-1", "tag-2"},
		BagIDs: []string{"bag-1"},
	}

	assert.True(t, p.HasTag("tag-1"))
	assert.False(t, p.HasTag("tag-3"))
	assert.True(t, p.HasBag("bag-1"))
	assert.False(t, p.HasBag("bag-2"))
}
