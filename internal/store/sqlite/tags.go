package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/merge"
	"github.com/lumieapp/lumie-sync/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `local_id, backend_id, name, color, owner_id, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		backendID sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&t.LocalID,
		&backendID,
		&t.Name,
		&t.Color,
		&t.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.BackendID = stringPtr(backendID)
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag.
// Returns store.ErrAlreadyExists on duplicate local or backend id.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (local_id, backend_id, name, color, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.LocalID,
		nullableString(t.BackendID),
		t.Name,
		t.Color,
		t.OwnerID,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by its local ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, localID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE local_id = ?`, localID)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}

	return tags, nil
}

// UpdateTag replaces a tag's mutable fields.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) UpdateTag(ctx context.Context, t *domain.Tag) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tags SET backend_id = ?, name = ?, color = ?, owner_id = ?, updated_at = ?
		WHERE local_id = ?`,
		nullableString(t.BackendID),
		t.Name,
		t.Color,
		t.OwnerID,
		formatTime(t.UpdatedAt),
		t.LocalID,
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

// DeleteTag removes a tag by its local ID. Product associations go with it.
func (s *Store) DeleteTag(ctx context.Context, localID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE local_id = ?`, localID)
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

// ApplyTagPlan commits an authoritative tag merge plan in one transaction.
func (s *Store) ApplyTagPlan(ctx context.Context, plan merge.TagPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range plan.Upserts {
		if err := upsertTag(ctx, tx, t); err != nil {
			return fmt.Errorf("upsert tag %s: %w", t.LocalID, err)
		}
	}

	for _, localID := range plan.DeleteLocalIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE local_id = ?`, localID); err != nil {
			return fmt.Errorf("delete tag %s: %w", localID, err)
		}
	}

	return tx.Commit()
}

// upsertTag inserts or overwrites one tag row, preserving created_at on
// conflict so existing identities keep their history.
func upsertTag(ctx context.Context, tx *sql.Tx, t *domain.Tag) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tags (local_id, backend_id, name, color, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			backend_id = excluded.backend_id,
			name       = excluded.name,
			color      = excluded.color,
			owner_id   = excluded.owner_id,
			updated_at = excluded.updated_at`,
		t.LocalID,
		nullableString(t.BackendID),
		t.Name,
		t.Color,
		t.OwnerID,
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	return err
}
