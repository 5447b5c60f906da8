package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"shopify-variant-reset/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store using session-scoped MySQL temporary tables.
// All statements run on one dedicated connection: temporary tables are
// bound to the session and vanish when it closes, which gives the
// run-scoped lifecycle for free.
type MySQLStore struct {
	db   *sql.DB
	conn *sql.Conn
	tx   *sql.Tx
}

// NewMySQLStore connects to MySQL and creates the temporary backup tables.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to acquire MySQL connection: %w", err)
	}

	ddl := []string{
		`CREATE TEMPORARY TABLE IF NOT EXISTS variant_backup (
			id BIGINT,
			product_id BIGINT,
			inventory_item_id BIGINT,
			variant_json TEXT,
			position INT,
			PRIMARY KEY (product_id, id)
		)`,
		`CREATE TEMPORARY TABLE IF NOT EXISTS inventory_backup (
			variant_id BIGINT,
			inventory_item_id BIGINT,
			location_id BIGINT,
			available INT,
			PRIMARY KEY (variant_id, location_id)
		)`,
	}
	for _, q := range ddl {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			conn.Close()
			db.Close()
			return nil, fmt.Errorf("failed to create backup tables: %w", err)
		}
	}

	log.Printf("[MySQLStore] Temporary backup tables ready")
	return &MySQLStore{db: db, conn: conn}, nil
}

// Begin opens the capture transaction for a product.
func (s *MySQLStore) Begin(ctx context.Context, productID int64) error {
	if s.tx != nil {
		return fmt.Errorf("capture transaction already open")
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin capture transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// SaveVariants persists one snapshot per variant.
func (s *MySQLStore) SaveVariants(ctx context.Context, snaps []model.VariantSnapshot) error {
	if s.tx == nil {
		return fmt.Errorf("no capture transaction open")
	}
	stmt, err := s.tx.PrepareContext(ctx, `
		INSERT INTO variant_backup (id, product_id, inventory_item_id, variant_json, position)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare variant insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		_, err := stmt.ExecContext(ctx,
			snap.VariantID, snap.ProductID, snap.InventoryItemID, string(snap.RawJSON), snap.Position)
		if err != nil {
			return fmt.Errorf("failed to save variant %d: %w", snap.VariantID, err)
		}
	}
	return nil
}

// SaveInventory persists captured (location, quantity) rows.
func (s *MySQLStore) SaveInventory(ctx context.Context, rows []model.InventorySnapshot) error {
	if s.tx == nil {
		return fmt.Errorf("no capture transaction open")
	}
	stmt, err := s.tx.PrepareContext(ctx, `
		INSERT INTO inventory_backup (variant_id, inventory_item_id, location_id, available)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare inventory insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.VariantID, row.InventoryItemID, row.LocationID, row.Available)
		if err != nil {
			return fmt.Errorf("failed to save inventory for variant %d location %d: %w",
				row.VariantID, row.LocationID, err)
		}
	}
	return nil
}

// Commit makes the captured snapshots visible for read-back.
func (s *MySQLStore) Commit(ctx context.Context) error {
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
func (s *MySQLStore) VariantAtPosition1(ctx context.Context, productID int64) (model.VariantSnapshot, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, product_id, inventory_item_id, variant_json, position
		FROM variant_backup WHERE product_id = ? AND position = 1 LIMIT 1`, productID)
	return scanSnapshot(row)
}

// SecondaryVariants returns snapshots ordered by original position,
// excluding position 1.
func (s *MySQLStore) SecondaryVariants(ctx context.Context, productID int64) ([]model.VariantSnapshot, error) {
	rows, err := s.conn.QueryContext(ctx, `
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
func (s *MySQLStore) Levels(ctx context.Context, variantID int64) ([]model.InventorySnapshot, error) {
	rows, err := s.conn.QueryContext(ctx, `
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
func (s *MySQLStore) OriginalLocations(ctx context.Context, variantID int64) (map[int64]struct{}, error) {
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
func (s *MySQLStore) QuantityAt(ctx context.Context, variantID, locationID int64) (int, error) {
	var available int
	err := s.conn.QueryRowContext(ctx, `
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
func (s *MySQLStore) Discard(ctx context.Context, productID int64) error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	_, err := s.conn.ExecContext(ctx, `
		DELETE FROM inventory_backup
		WHERE variant_id IN (SELECT id FROM variant_backup WHERE product_id = ?)`, productID)
	if err != nil {
		return fmt.Errorf("failed to discard inventory rows: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `DELETE FROM variant_backup WHERE product_id = ?`, productID)
	if err != nil {
		return fmt.Errorf("failed to discard variant rows: %w", err)
	}
	return nil
}

// Close releases the connection; the temporary tables die with the session.
func (s *MySQLStore) Close() error {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return s.db.Close()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (model.VariantSnapshot, error) {
	var snap model.VariantSnapshot
	var rawJSON string
	err := row.Scan(&snap.VariantID, &snap.ProductID, &snap.InventoryItemID, &rawJSON, &snap.Position)
	if err == sql.ErrNoRows {
		return model.VariantSnapshot{}, ErrNotFound
	}
	if err != nil {
		return model.VariantSnapshot{}, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.RawJSON = []byte(rawJSON)
	if err := decodeSnapshotVariant(&snap); err != nil {
		return model.VariantSnapshot{}, err
	}
	return snap, nil
}

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
