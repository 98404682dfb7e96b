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

// bagColumns must match the scan order in scanBag.
const bagColumns = `local_id, backend_id, name, color, icon, owner_id, created_at, updated_at`

func scanBag(scanner interface{ Scan(dest ...any) error }) (*domain.Bag, error) {
	var b domain.Bag

	var (
		backendID sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&b.LocalID,
		&backendID,
		&b.Name,
		&b.Color,
		&b.Icon,
		&b.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.BackendID = stringPtr(backendID)
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateBag inserts a new bag.
// Returns store.ErrAlreadyExists on duplicate local or backend id.
func (s *Store) CreateBag(ctx context.Context, b *domain.Bag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bags (local_id, backend_id, name, color, icon, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.LocalID,
		nullableString(b.BackendID),
		b.Name,
		b.Color,
		b.Icon,
		b.OwnerID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetBag retrieves a bag by its local ID.
// Returns store.ErrNotFound if the bag does not exist.
func (s *Store) GetBag(ctx context.Context, localID string) (*domain.Bag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bagColumns+` FROM bags WHERE local_id = ?`, localID)

	b, err := scanBag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ListBags returns all bags ordered by name.
func (s *Store) ListBags(ctx context.Context) ([]*domain.Bag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bagColumns+` FROM bags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bags []*domain.Bag
	for rows.Next() {
		b, err := scanBag(rows)
		if err != nil {
			return nil, err
		}
		bags = append(bags, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if bags == nil {
		bags = []*domain.Bag{}
	}

	return bags, nil
}

// UpdateBag replaces a bag's mutable fields.
// Returns store.ErrNotFound if the bag does not exist.
func (s *Store) UpdateBag(ctx context.Context, b *domain.Bag) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bags SET backend_id = ?, name = ?, color = ?, icon = ?, owner_id = ?, updated_at = ?
		WHERE local_id = ?`,
		nullableString(b.BackendID),
		b.Name,
		b.Color,
		b.Icon,
		b.OwnerID,
		formatTime(b.UpdatedAt),
		b.LocalID,
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

// DeleteBag removes a bag by its local ID.
func (s *Store) DeleteBag(ctx context.Context, localID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bags WHERE local_id = ?`, localID)
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

// ApplyBagPlan commits an authoritative bag merge plan in one transaction.
func (s *Store) ApplyBagPlan(ctx context.Context, plan merge.BagPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, b := range plan.Upserts {
		if err := upsertBag(ctx, tx, b); err != nil {
			return fmt.Errorf("upsert bag %s: %w", b.LocalID, err)
		}
	}

	for _, localID := range plan.DeleteLocalIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bags WHERE local_id = ?`, localID); err != nil {
			return fmt.Errorf("delete bag %s: %w", localID, err)
		}
	}

	return tx.Commit()
}

func upsertBag(ctx context.Context, tx *sql.Tx, b *domain.Bag) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bags (local_id, backend_id, name, color, icon, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			backend_id = excluded.backend_id,
			name       = excluded.name,
			color      = excluded.color,
			icon       = excluded.icon,
			owner_id   = excluded.owner_id,
			updated_at = excluded.updated_at`,
		b.LocalID,
		nullableString(b.BackendID),
		b.Name,
		b.Color,
		b.Icon,
		b.OwnerID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	return err
}
