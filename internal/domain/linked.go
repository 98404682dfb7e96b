// Package domain contains the core entity types for the Lumie sync engine.
package domain

import "time"

// Linked provides common fields for entities that live in the local cache
// and are linked to a record in the remote backend.
// It gets embedded in every domain type that participates in sync.
type Linked struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// LocalID is the cache-local identifier, assigned at creation and never
	// reused. Foreign keys between local entities always reference LocalID.
	LocalID string `json:"local_id"`
	// BackendID is the server-assigned identifier. Nil means the entity is
	// pending: created locally and not yet acknowledged by the backend.
	BackendID *string `json:"backend_id,omitempty"`
}

// IsBound returns true if the backend has acknowledged this entity.
func (l *Linked) IsBound() bool {
	return l.BackendID != nil && *l.BackendID != ""
}

// Bind records the server-assigned identifier after a successful push.
func (l *Linked) Bind(backendID string) {
	l.BackendID = &backendID
	l.UpdatedAt = time.Now()
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (l *Linked) Touch() {
	l.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (l *Linked) InitTimestamps() {
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
}
