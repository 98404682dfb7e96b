package store

import "github.com/lumieapp/lumie-sync/internal/errors"

// Sentinel errors returned by store implementations. They carry codes from
// the engine's taxonomy so callers can match with errors.Is.
var (
	ErrNotFound      = errors.NotFound("record not found")
	ErrAlreadyExists = errors.Conflict("record already exists")
)
