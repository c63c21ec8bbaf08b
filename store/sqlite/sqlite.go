/*
Package sqlite provides the SQLite-backed implementation of the
depreciation storage interfaces.

PURPOSE:
  Implements depreciation.Store and depreciation.TxStore using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the entries table
  - The only DELETE is the whole-asset reset used by the corrective
    reset-then-regenerate workflow

KEY TABLES:
  assets:  Asset registry (value, useful life, purchase date, status)
  entries: Immutable depreciation ledger, one row per asset per period

CRITICAL INDEX:
  idx_entries_asset_sequence is a UNIQUE index on (asset_id, sequence).
  Two concurrent requests that both compute "next sequence = N+1" race at
  the insert; the loser gets a unique-constraint violation which this
  package maps to depreciation.ErrDuplicatePeriod. The engine treats that
  as a benign "someone else advanced this asset" signal.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/assets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  engine := depreciation.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - depreciation/store.go: Interface definitions
  - depreciation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/asset-ledger/depreciation"
)

// Store implements depreciation.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Asset registry
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		acquisition_value TEXT NOT NULL,
		useful_life_months INTEGER NOT NULL,
		purchase_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_status ON assets(status);

	-- Depreciation entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		sequence INTEGER NOT NULL,
		amount TEXT NOT NULL,
		cumulative TEXT NOT NULL,
		book_value TEXT NOT NULL,
		period_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one entry per asset per period. Concurrent inserts of the
	-- same next sequence race here; the loser sees a unique violation.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_asset_sequence
		ON entries(asset_id, sequence);

	-- Ledger reads (hot path)
	CREATE INDEX IF NOT EXISTS idx_entries_asset
		ON entries(asset_id, sequence ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSET REGISTRY
// =============================================================================

// SaveAsset inserts or updates an asset record.
func (s *Store) SaveAsset(ctx context.Context, a depreciation.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAsset(ctx, s.db, a)
}

func (s *Store) saveAsset(ctx context.Context, db execer, a depreciation.Asset) error {
	query := `
		INSERT INTO assets (id, name, acquisition_value, useful_life_months, purchase_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			acquisition_value = excluded.acquisition_value,
			useful_life_months = excluded.useful_life_months,
			purchase_date = excluded.purchase_date,
			status = excluded.status
	`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = depreciation.DateOf(time.Now())
	}

	_, err := db.ExecContext(ctx, query,
		string(a.ID),
		a.Name,
		a.AcquisitionValue.String(),
		a.UsefulLifeMonths,
		a.PurchaseDate.String(),
		string(a.Status),
		createdAt.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset by ID.
func (s *Store) GetAsset(ctx context.Context, id depreciation.AssetID) (*depreciation.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAsset(ctx, id)
}

func (s *Store) getAsset(ctx context.Context, id depreciation.AssetID) (*depreciation.Asset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, acquisition_value, useful_life_months, purchase_date, status, created_at
		 FROM assets WHERE id = ?`, string(id))

	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, depreciation.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssets returns all assets ordered by name.
func (s *Store) ListAssets(ctx context.Context) ([]depreciation.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, acquisition_value, useful_life_months, purchase_date, status, created_at
		 FROM assets ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []depreciation.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*depreciation.Asset, error) {
	var (
		a                        depreciation.Asset
		id, status               string
		value, purchase, created string
	)
	if err := row.Scan(&id, &a.Name, &value, &a.UsefulLifeMonths, &purchase, &status, &created); err != nil {
		return nil, err
	}

	a.ID = depreciation.AssetID(id)
	a.Status = depreciation.Status(status)
	a.AcquisitionValue = mustDecimal(value)

	var err error
	if a.PurchaseDate, err = depreciation.ParseDate(purchase); err != nil {
		return nil, fmt.Errorf("failed to parse purchase date: %w", err)
	}
	if a.CreatedAt, err = depreciation.ParseDate(created); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &a, nil
}

// =============================================================================
// LEDGER ENTRIES (append-only)
// =============================================================================

// AppendEntry adds one entry to the ledger.
func (s *Store) AppendEntry(ctx context.Context, e depreciation.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntry(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) appendEntry(ctx context.Context, db execer, e depreciation.Entry) error {
	query := `
		INSERT INTO entries
		(id, asset_id, sequence, amount, cumulative, book_value, period_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		string(e.ID),
		string(e.AssetID),
		e.Sequence,
		e.Amount.String(),
		e.Cumulative.String(),
		e.BookValue.String(),
		e.PeriodDate.String(),
		e.CreatedAt.String(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return depreciation.ErrDuplicatePeriod
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// Entries returns an asset's ledger in ascending sequence order.
func (s *Store) Entries(ctx context.Context, assetID depreciation.AssetID) ([]depreciation.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, asset_id, sequence, amount, cumulative, book_value, period_date, created_at
		FROM entries
		WHERE asset_id = ?
		ORDER BY sequence ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(assetID))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []depreciation.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastEntry returns the highest-sequence entry, or nil for an empty ledger.
func (s *Store) LastEntry(ctx context.Context, assetID depreciation.AssetID) (*depreciation.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, asset_id, sequence, amount, cumulative, book_value, period_date, created_at
		FROM entries
		WHERE asset_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, string(assetID))
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ResetEntries deletes the asset's whole ledger. The one sanctioned
// delete: corrective re-computation after critical field edits.
func (s *Store) ResetEntries(ctx context.Context, assetID depreciation.AssetID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE asset_id = ?", string(assetID))
	if err != nil {
		return 0, fmt.Errorf("failed to reset entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanEntry(row rowScanner) (depreciation.Entry, error) {
	var (
		e                        depreciation.Entry
		id, assetID              string
		amount, cumulative, book string
		periodDate, createdAt    string
	)
	err := row.Scan(&id, &assetID, &e.Sequence, &amount, &cumulative, &book, &periodDate, &createdAt)
	if err != nil {
		return e, err
	}

	e.ID = depreciation.EntryID(id)
	e.AssetID = depreciation.AssetID(assetID)
	e.Amount = mustDecimal(amount)
	e.Cumulative = mustDecimal(cumulative)
	e.BookValue = mustDecimal(book)
	if e.PeriodDate, err = depreciation.ParseDate(periodDate); err != nil {
		return e, fmt.Errorf("failed to parse period date: %w", err)
	}
	if e.CreatedAt, err = depreciation.ParseDate(createdAt); err != nil {
		return e, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return e, nil
}

// =============================================================================
// TRANSACTIONAL STORE (depreciation.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store depreciation.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &txStore{tx: sqlTx, parent: s}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) SaveAsset(ctx context.Context, a depreciation.Asset) error {
	return ts.parent.saveAsset(ctx, ts.tx, a)
}

func (ts *txStore) GetAsset(ctx context.Context, id depreciation.AssetID) (*depreciation.Asset, error) {
	row := ts.tx.QueryRowContext(ctx,
		`SELECT id, name, acquisition_value, useful_life_months, purchase_date, status, created_at
		 FROM assets WHERE id = ?`, string(id))
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, depreciation.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (ts *txStore) ListAssets(ctx context.Context) ([]depreciation.Asset, error) {
	rows, err := ts.tx.QueryContext(ctx,
		`SELECT id, name, acquisition_value, useful_life_months, purchase_date, status, created_at
		 FROM assets ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []depreciation.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

func (ts *txStore) AppendEntry(ctx context.Context, e depreciation.Entry) error {
	return ts.parent.appendEntry(ctx, ts.tx, e)
}

func (ts *txStore) Entries(ctx context.Context, assetID depreciation.AssetID) ([]depreciation.Entry, error) {
	query := `
		SELECT id, asset_id, sequence, amount, cumulative, book_value, period_date, created_at
		FROM entries
		WHERE asset_id = ?
		ORDER BY sequence ASC
	`
	rows, err := ts.tx.QueryContext(ctx, query, string(assetID))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []depreciation.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (ts *txStore) LastEntry(ctx context.Context, assetID depreciation.AssetID) (*depreciation.Entry, error) {
	query := `
		SELECT id, asset_id, sequence, amount, cumulative, book_value, period_date, created_at
		FROM entries
		WHERE asset_id = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	row := ts.tx.QueryRowContext(ctx, query, string(assetID))
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (ts *txStore) ResetEntries(ctx context.Context, assetID depreciation.AssetID) (int, error) {
	res, err := ts.tx.ExecContext(ctx, "DELETE FROM entries WHERE asset_id = ?", string(assetID))
	if err != nil {
		return 0, fmt.Errorf("failed to reset entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"entries", "assets"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
