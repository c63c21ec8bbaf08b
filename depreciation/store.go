/*
store.go - Persistence interface for the depreciation ledger

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations back it with SQLite (store/sqlite) or memory
  (depreciation/store, for tests and dev).

APPEND-ONLY CONTRACT:
  Entries are appended and never updated. The ONLY delete operation is
  ResetEntries, which removes the whole ledger of one asset for the
  corrective reset-then-regenerate workflow.

UNIQUENESS:
  AppendEntry MUST fail with ErrDuplicatePeriod when an entry for the
  same (asset, sequence) pair exists. The SQLite implementation enforces
  this with a unique index so two concurrent requests cannot both insert
  sequence N+1; application-level checks alone are not enough.

TRANSACTIONS:
  TxStore.WithTx runs a function atomically. The engine wraps every
  single-entry creation in it so the ledger read and the insert are one
  unit from the store's perspective.

SEE ALSO:
  - store/memory.go: In-memory implementation
  - store/sqlite/sqlite.go: Production implementation
*/
package depreciation

import "context"

// =============================================================================
// STORE - Asset registry + append-only entry persistence
// =============================================================================

type Store interface {
	// SaveAsset inserts or updates an asset record.
	SaveAsset(ctx context.Context, a Asset) error

	// GetAsset returns the asset or ErrAssetNotFound.
	GetAsset(ctx context.Context, id AssetID) (*Asset, error)

	// ListAssets returns all assets.
	ListAssets(ctx context.Context) ([]Asset, error)

	// AppendEntry persists one ledger entry. Returns ErrDuplicatePeriod
	// if an entry with the same (asset, sequence) already exists.
	AppendEntry(ctx context.Context, e Entry) error

	// Entries returns an asset's ledger in ascending sequence order.
	Entries(ctx context.Context, assetID AssetID) ([]Entry, error)

	// LastEntry returns the highest-sequence entry, or nil when the
	// ledger is empty.
	LastEntry(ctx context.Context, assetID AssetID) (*Entry, error)

	// ResetEntries deletes every entry for the asset. Used only by the
	// explicit corrective reset; returns the number of rows removed.
	ResetEntries(ctx context.Context, assetID AssetID) (int, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn atomically. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
