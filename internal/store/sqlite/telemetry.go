package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/store"
)

// usageColumns must match the scan order in scanUsageEntry.
const usageColumns = `local_id, backend_id, product_id, usage_type, usage_amount, notes, created_at, updated_at`

func scanUsageEntry(scanner interface{ Scan(dest ...any) error }) (*domain.UsageEntry, error) {
	var u domain.UsageEntry

	var (
		backendID sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&u.LocalID,
		&backendID,
		&u.ProductID,
		&u.UsageType,
		&u.UsageAmount,
		&u.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.BackendID = stringPtr(backendID)
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &u, nil
}

// CreateUsageEntry inserts a new usage entry.
func (s *Store) CreateUsageEntry(ctx context.Context, u *domain.UsageEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_entries (local_id, backend_id, product_id, usage_type, usage_amount, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.LocalID,
		nullableString(u.BackendID),
		u.ProductID,
		u.UsageType,
		u.UsageAmount,
		u.Notes,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateUsageEntry replaces a usage entry's mutable fields.
func (s *Store) UpdateUsageEntry(ctx context.Context, u *domain.UsageEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE usage_entries SET backend_id = ?, usage_type = ?, usage_amount = ?, notes = ?, updated_at = ?
		WHERE local_id = ?`,
		nullableString(u.BackendID),
		u.UsageType,
		u.UsageAmount,
		u.Notes,
		formatTime(u.UpdatedAt),
		u.LocalID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListUsageEntries returns a product's usage entries, oldest first.
func (s *Store) ListUsageEntries(ctx context.Context, productLocalID string) ([]*domain.UsageEntry, error) {
	return s.queryUsageEntries(ctx,
		`SELECT `+usageColumns+` FROM usage_entries WHERE product_id = ? ORDER BY created_at ASC`,
		productLocalID)
}

// ListPendingUsageEntries returns all unbound usage entries across products.
// The telemetry push sweep feeds on this.
func (s *Store) ListPendingUsageEntries(ctx context.Context) ([]*domain.UsageEntry, error) {
	return s.queryUsageEntries(ctx,
		`SELECT `+usageColumns+` FROM usage_entries WHERE backend_id IS NULL ORDER BY created_at ASC`)
}

func (s *Store) queryUsageEntries(ctx context.Context, query string, args ...any) ([]*domain.UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.UsageEntry
	for rows.Next() {
		u, err := scanUsageEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []*domain.UsageEntry{}
	}

	return entries, nil
}

// journeyColumns must match the scan order in scanJourneyEvent.
const journeyColumns = `local_id, backend_id, product_id, event_type, title, text, rating, created_at, updated_at`

func scanJourneyEvent(scanner interface{ Scan(dest ...any) error }) (*domain.JourneyEvent, error) {
	var j domain.JourneyEvent

	var (
		backendID sql.NullString
		eventType string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&j.LocalID,
		&backendID,
		&j.ProductID,
		&eventType,
		&j.Title,
		&j.Text,
		&j.Rating,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.BackendID = stringPtr(backendID)
	j.EventType = domain.JourneyEventType(eventType)
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &j, nil
}

// CreateJourneyEvent inserts a new journey event.
func (s *Store) CreateJourneyEvent(ctx context.Context, j *domain.JourneyEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journey_events (local_id, backend_id, product_id, event_type, title, text, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.LocalID,
		nullableString(j.BackendID),
		j.ProductID,
		string(j.EventType),
		j.Title,
		j.Text,
		j.Rating,
		formatTime(j.CreatedAt),
		formatTime(j.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateJourneyEvent replaces a journey event's mutable fields.
func (s *Store) UpdateJourneyEvent(ctx context.Context, j *domain.JourneyEvent) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journey_events SET backend_id = ?, event_type = ?, title = ?, text = ?, rating = ?, updated_at = ?
		WHERE local_id = ?`,
		nullableString(j.BackendID),
		string(j.EventType),
		j.Title,
		j.Text,
		j.Rating,
		formatTime(j.UpdatedAt),
		j.LocalID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListJourneyEvents returns a product's journey events, oldest first.
func (s *Store) ListJourneyEvents(ctx context.Context, productLocalID string) ([]*domain.JourneyEvent, error) {
	return s.queryJourneyEvents(ctx,
		`SELECT `+journeyColumns+` FROM journey_events WHERE product_id = ? ORDER BY created_at ASC`,
		productLocalID)
}

// ListPendingJourneyEvents returns all unbound journey events.
func (s *Store) ListPendingJourneyEvents(ctx context.Context) ([]*domain.JourneyEvent, error) {
	return s.queryJourneyEvents(ctx,
		`SELECT `+journeyColumns+` FROM journey_events WHERE backend_id IS NULL ORDER BY created_at ASC`)
}

func (s *Store) queryJourneyEvents(ctx context.Context, query string, args ...any) ([]*domain.JourneyEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.JourneyEvent
	for rows.Next() {
		j, err := scanJourneyEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if events == nil {
		events = []*domain.JourneyEvent{}
	}

	return events, nil
}

// upsertUsageEntry inserts or overwrites one usage entry row within a merge
// transaction.
func upsertUsageEntry(ctx context.Context, tx *sql.Tx, u *domain.UsageEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO usage_entries (local_id, backend_id, product_id, usage_type, usage_amount, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			backend_id   = excluded.backend_id,
			usage_type   = excluded.usage_type,
			usage_amount = excluded.usage_amount,
			notes        = excluded.notes,
			updated_at   = excluded.updated_at`,
		u.LocalID,
		nullableString(u.BackendID),
		u.ProductID,
		u.UsageType,
		u.UsageAmount,
		u.Notes,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	return err
}

// upsertJourneyEvent inserts or overwrites one journey event row within a
// merge transaction.
func upsertJourneyEvent(ctx context.Context, tx *sql.Tx, j *domain.JourneyEvent) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO journey_events (local_id, backend_id, product_id, event_type, title, text, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			backend_id = excluded.backend_id,
			event_type = excluded.event_type,
			title      = excluded.title,
			text       = excluded.text,
			rating     = excluded.rating,
			updated_at = excluded.updated_at`,
		j.LocalID,
		nullableString(j.BackendID),
		j.ProductID,
		string(j.EventType),
		j.Title,
		j.Text,
		j.Rating,
		formatTime(j.CreatedAt),
		formatTime(j.UpdatedAt),
	)
	return err
}
