package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lumieapp/lumie-sync/internal/domain"
	"github.com/lumieapp/lumie-sync/internal/merge"
	"github.com/lumieapp/lumie-sync/internal/store"
)

// productColumns must match the scan order in scanProduct.
const productColumns = `local_id, backend_id, barcode, name, brand, periods_after_opening,
	vegan, cruelty_free, shade, size_ml, spf, image_ref,
	purchase_date, open_date, expire_date, is_finished, finish_date,
	current_amount, times_used, quantity, created_at, updated_at`

func scanProduct(scanner interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	var p domain.Product

	var (
		backendID    sql.NullString
		purchaseDate sql.NullString
		openDate     sql.NullString
		expireDate   sql.NullString
		finishDate   sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := scanner.Scan(
		&p.LocalID,
		&backendID,
		&p.Barcode,
		&p.Name,
		&p.Brand,
		&p.PeriodsAfterOpening,
		&p.Vegan,
		&p.CrueltyFree,
		&p.Shade,
		&p.SizeMl,
		&p.SPF,
		&p.ImageRef,
		&purchaseDate,
		&openDate,
		&expireDate,
		&p.IsFinished,
		&finishDate,
		&p.CurrentAmount,
		&p.TimesUsed,
		&p.Quantity,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.BackendID = stringPtr(backendID)

	if p.PurchaseDate, err = parseNullableTime(purchaseDate); err != nil {
		return nil, err
	}
	if p.OpenDate, err = parseNullableTime(openDate); err != nil {
		return nil, err
	}
	if p.ExpireDate, err = parseNullableTime(expireDate); err != nil {
		return nil, err
	}
	if p.FinishDate, err = parseNullableTime(finishDate); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// CreateProduct inserts a new product with its relationship rows.
// Returns store.ErrAlreadyExists on duplicate local or backend id.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertProduct(ctx, tx, p); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := replaceProductRefs(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProduct retrieves a product by its local ID, including relationship sets.
// Returns store.ErrNotFound if the product does not exist.
func (s *Store) GetProduct(ctx context.Context, localID string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE local_id = ?`, localID)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadProductRefs(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns all products with relationship sets, ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range products {
		if err := s.loadProductRefs(ctx, p); err != nil {
			return nil, err
		}
	}

	if products == nil {
		products = []*domain.Product{}
	}

	return products, nil
}

// UpdateProduct replaces a product's fields and relationship rows.
// Returns store.ErrNotFound if the product does not exist.
func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET
			backend_id = ?, barcode = ?, name = ?, brand = ?, periods_after_opening = ?,
			vegan = ?, cruelty_free = ?, shade = ?, size_ml = ?, spf = ?, image_ref = ?,
			purchase_date = ?, open_date = ?, expire_date = ?, is_finished = ?, finish_date = ?,
			current_amount = ?, times_used = ?, quantity = ?, updated_at = ?
		WHERE local_id = ?`,
		nullableString(p.BackendID),
		p.Barcode,
		p.Name,
		p.Brand,
		p.PeriodsAfterOpening,
		p.Vegan,
		p.CrueltyFree,
		p.Shade,
		p.SizeMl,
		p.SPF,
		p.ImageRef,
		nullTimeString(p.PurchaseDate),
		nullTimeString(p.OpenDate),
		nullTimeString(p.ExpireDate),
		p.IsFinished,
		nullTimeString(p.FinishDate),
		p.CurrentAmount,
		p.TimesUsed,
		p.Quantity,
		formatTime(p.UpdatedAt),
		p.LocalID,
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

	if err := replaceProductRefs(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteProduct removes a product by its local ID. Telemetry and
// relationship rows cascade with it.
func (s *Store) DeleteProduct(ctx context.Context, localID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE local_id = ?`, localID)
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

// ApplyProductPlan commits a selective product merge plan in one
// transaction: product upserts, relationship replacement, telemetry
// appends/binds, and server-side deletions.
func (s *Store) ApplyProductPlan(ctx context.Context, plan merge.ProductPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, up := range plan.Upserts {
		if err := upsertProduct(ctx, tx, up.Product); err != nil {
			return fmt.Errorf("upsert product %s: %w", up.Product.LocalID, err)
		}
		if err := replaceProductRefs(ctx, tx, up.Product); err != nil {
			return fmt.Errorf("replace refs for %s: %w", up.Product.LocalID, err)
		}
		for _, u := range up.UsageUpserts {
			if err := upsertUsageEntry(ctx, tx, u); err != nil {
				return fmt.Errorf("upsert usage entry %s: %w", u.LocalID, err)
			}
		}
		for _, j := range up.JourneyUpserts {
			if err := upsertJourneyEvent(ctx, tx, j); err != nil {
				return fmt.Errorf("upsert journey event %s: %w", j.LocalID, err)
			}
		}
	}

	for _, localID := range plan.DeleteLocalIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE local_id = ?`, localID); err != nil {
			return fmt.Errorf("delete product %s: %w", localID, err)
		}
	}

	return tx.Commit()
}

func insertProduct(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO products (local_id, backend_id, barcode, name, brand, periods_after_opening,
			vegan, cruelty_free, shade, size_ml, spf, image_ref,
			purchase_date, open_date, expire_date, is_finished, finish_date,
			current_amount, times_used, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		productArgs(p)...,
	)
	return err
}

// upsertProduct inserts or overwrites one product row, preserving
// created_at on conflict. An UPDATE (not REPLACE) keeps the row identity so
// cascading foreign keys never fire on an overwrite.
func upsertProduct(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO products (local_id, backend_id, barcode, name, brand, periods_after_opening,
			vegan, cruelty_free, shade, size_ml, spf, image_ref,
			purchase_date, open_date, expire_date, is_finished, finish_date,
			current_amount, times_used, quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(local_id) DO UPDATE SET
			backend_id = excluded.backend_id,
			barcode = excluded.barcode,
			name = excluded.name,
			brand = excluded.brand,
			periods_after_opening = excluded.periods_after_opening,
			vegan = excluded.vegan,
			cruelty_free = excluded.cruelty_free,
			shade = excluded.shade,
			size_ml = excluded.size_ml,
			spf = excluded.spf,
			image_ref = excluded.image_ref,
			purchase_date = excluded.purchase_date,
			open_date = excluded.open_date,
			expire_date = excluded.expire_date,
			is_finished = excluded.is_finished,
			finish_date = excluded.finish_date,
			current_amount = excluded.current_amount,
			times_used = excluded.times_used,
			quantity = excluded.quantity,
			updated_at = excluded.updated_at`,
		productArgs(p)...,
	)
	return err
}

// productArgs returns the insert arguments in column order.
func productArgs(p *domain.Product) []any {
	return []any{
		p.LocalID,
		nullableString(p.BackendID),
		p.Barcode,
		p.Name,
		p.Brand,
		p.PeriodsAfterOpening,
		p.Vegan,
		p.CrueltyFree,
		p.Shade,
		p.SizeMl,
		p.SPF,
		p.ImageRef,
		nullTimeString(p.PurchaseDate),
		nullTimeString(p.OpenDate),
		nullTimeString(p.ExpireDate),
		p.IsFinished,
		nullTimeString(p.FinishDate),
		p.CurrentAmount,
		p.TimesUsed,
		p.Quantity,
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	}
}

// replaceProductRefs rewrites a product's tag and bag association rows.
// Delete-then-insert, the same shape every merge uses.
func replaceProductRefs(ctx context.Context, tx *sql.Tx, p *domain.Product) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = ?`, p.LocalID); err != nil {
		return fmt.Errorf("delete product_tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_bags WHERE product_id = ?`, p.LocalID); err != nil {
		return fmt.Errorf("delete product_bags: %w", err)
	}

	now := formatTime(time.Now().UTC())
	for _, tagID := range p.TagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_tags (product_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			p.LocalID, tagID, now,
		)
		if err != nil {
			return fmt.Errorf("insert product_tag: %w", err)
		}
	}
	for _, bagID := range p.BagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_bags (product_id, bag_id, created_at)
			VALUES (?, ?, ?)`,
			p.LocalID, bagID, now,
		)
		if err != nil {
			return fmt.Errorf("insert product_bag: %w", err)
		}
	}

	return nil
}

// loadProductRefs fills a product's TagIDs and BagIDs.
func (s *Store) loadProductRefs(ctx context.Context, p *domain.Product) error {
	tagIDs, err := s.queryRefs(ctx, `SELECT tag_id FROM product_tags WHERE product_id = ? ORDER BY tag_id`, p.LocalID)
	if err != nil {
		return fmt.Errorf("load product tags: %w", err)
	}
	p.TagIDs = tagIDs

	bagIDs, err := s.queryRefs(ctx, `SELECT bag_id FROM product_bags WHERE product_id = ? ORDER BY bag_id`, p.LocalID)
	if err != nil {
		return fmt.Errorf("load product bags: %w", err)
	}
	p.BagIDs = bagIDs

	return nil
}

func (s *Store) queryRefs(ctx context.Context, query, productID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
