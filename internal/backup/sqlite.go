package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"shopify-variant-reset/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements Store using SQLite temporary tables. Useful for
// local runs without a MySQL server; the file only ever holds the schema,
// the temp tables live in the session.
type SQLiteStore struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSQLiteStore opens the SQLite database and creates the backup tables.
// dbPath may be ":memory:" for a fully ephemeral store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// Single connection keeps the temporary tables in one session.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ddl := []string{
		`CREATE TEMPORARY TABLE IF NOT EXISTS variant_backup (
			id INTEGER,
			product_id INTEGER,
			inventory_item_id INTEGER,
			variant_json TEXT,
			position INTEGER,
			PRIMARY KEY (product_id, id)
		)`,
		`CREATE TEMPORARY TABLE IF NOT EXISTS inventory_backup (
			variant_id INTEGER,
			inventory_item_id INTEGER,
			location_id INTEGER,
			available INTEGER,
			PRIMARY KEY (variant_id, location_id)
		)`,
	}
	for _, q := range ddl {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create backup tables: %w", err)
		}
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

// Begin opens the capture transaction for a product.
func (s *SQLiteStore) Begin(ctx context.Context, productID int64) error {
	if s.tx != nil {
		return fmt.Errorf("capture transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin capture transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// SaveVariants persists one snapshot per variant.
func (s *SQLiteStore) SaveVariants(ctx context.Context, snaps []model.VariantSnapshot) error {
	if s.tx == nil {
		return fmt.Errorf("no capture transaction open")
	}
	for _, snap := range snaps {
		_, err := s.tx.ExecContext(ctx, `
			INSERT INTO variant_backup (id, product_id, inventory_item_id, variant_json, position)
			VALUES (?, ?, ?, ?, ?)`,
			snap.VariantID, snap.ProductID, snap.InventoryItemID, string(snap.RawJSON), snap.Position)
		if err != nil {
			return fmt.Errorf("failed to save variant %d: %w", snap.VariantID, err)
		}
	}
	return nil
}

// SaveInventory persists captured (location, quantity) rows.
func (s *SQLiteStore) SaveInventory(ctx context.Context, rows []model.InventorySnapshot) error {
	if s.tx == nil {
		return fmt.Errorf("no capture transaction open")
	}
	for _, row := range rows {
		_, err := s.tx.ExecContext(ctx, `
			INSERT INTO inventory_backup (variant_id, inventory_item_id, location_id, available)
			VALUES (?, ?, ?, ?)`,
			row.VariantID, row.InventoryItemID, row.LocationID, row.Available)
		if err != nil {
			return fmt.Errorf("failed to save inventory for variant %d location %d: %w",
				row.VariantID, row.LocationID, err)
		}
	}
	return nil
}

// Commit makes the captured snapshots visible for read-back.
func (s *SQLiteStore) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("no capture transaction open")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit capture: %w", err)
	}
	return nil
}

// VariantAtPosition1 returns the snapshot at original position 1.
func (s *SQLiteStore) VariantAtPosition1(ctx context.Context, productID int64) (model.VariantSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, inventory_item_id, variant_json, position
		FROM variant_backup WHERE product_id = ? AND position = 1 LIMIT 1`, productID)
	return scanSnapshot(row)
}

// SecondaryVariants returns snapshots ordered by original position,
// excluding position 1.
func (s *SQLiteStore) SecondaryVariants(ctx context.Context, productID int64) ([]model.VariantSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, inventory_item_id, variant_json, position
		FROM variant_backup WHERE product_id = ? AND position <> 1 ORDER BY position`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query secondary variants: %w", err)
	}
	defer rows.Close()

	var snaps []model.VariantSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Levels returns all captured inventory rows for a variant.
func (s *SQLiteStore) Levels(ctx context.Context, variantID int64) ([]model.InventorySnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT variant_id, inventory_item_id, location_id, available
		FROM inventory_backup WHERE variant_id = ?`, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory rows: %w", err)
	}
	defer rows.Close()

	var out []model.InventorySnapshot
	for rows.Next() {
		var r model.InventorySnapshot
		if err := rows.Scan(&r.VariantID, &r.InventoryItemID, &r.LocationID, &r.Available); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OriginalLocations returns the set of locations captured for a variant.
func (s *SQLiteStore) OriginalLocations(ctx context.Context, variantID int64) (map[int64]struct{}, error) {
	levels, err := s.Levels(ctx, variantID)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(levels))
	for _, l := range levels {
		set[l.LocationID] = struct{}{}
	}
	return set, nil
}

// QuantityAt returns the captured quantity for one (variant, location) pair.
func (s *SQLiteStore) QuantityAt(ctx context.Context, variantID, locationID int64) (int, error) {
	var available int
	err := s.db.QueryRowContext(ctx, `
		SELECT available FROM inventory_backup WHERE variant_id = ? AND location_id = ?`,
		variantID, locationID).Scan(&available)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query quantity: %w", err)
	}
	return available, nil
}

// Discard drops all snapshot rows for a product.
func (s *SQLiteStore) Discard(ctx context.Context, productID int64) error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory_backup
		WHERE variant_id IN (SELECT id FROM variant_backup WHERE product_id = ?)`, productID)
	if err != nil {
		return fmt.Errorf("failed to discard inventory rows: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM variant_backup WHERE product_id = ?`, productID)
	if err != nil {
		return fmt.Errorf("failed to discard variant rows: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
