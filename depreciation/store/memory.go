// Package store provides an in-memory Store implementation for tests/dev.
package store

import (
	"context"
	"sync"

	"github.com/warp/asset-ledger/depreciation"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	assets  map[depreciation.AssetID]depreciation.Asset
	entries map[depreciation.AssetID][]depreciation.Entry
}

func NewMemory() *Memory {
	return &Memory{
		assets:  make(map[depreciation.AssetID]depreciation.Asset),
		entries: make(map[depreciation.AssetID][]depreciation.Entry),
	}
}

// =============================================================================
// ASSETS
// =============================================================================

func (m *Memory) SaveAsset(_ context.Context, a depreciation.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = a
	return nil
}

func (m *Memory) GetAsset(_ context.Context, id depreciation.AssetID) (*depreciation.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, depreciation.ErrAssetNotFound
	}
	return &a, nil
}

func (m *Memory) ListAssets(_ context.Context) ([]depreciation.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]depreciation.Asset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, a)
	}
	return out, nil
}

// =============================================================================
// ENTRIES
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, e depreciation.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(e)
}

func (m *Memory) appendLocked(e depreciation.Entry) error {
	for _, existing := range m.entries[e.AssetID] {
		if existing.Sequence == e.Sequence {
			return depreciation.ErrDuplicatePeriod
		}
	}
	// Entries arrive in sequence order; the ledger is append-only.
	m.entries[e.AssetID] = append(m.entries[e.AssetID], e)
	return nil
}

func (m *Memory) Entries(_ context.Context, assetID depreciation.AssetID) ([]depreciation.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]depreciation.Entry, len(m.entries[assetID]))
	copy(result, m.entries[assetID])
	return result, nil
}

func (m *Memory) LastEntry(_ context.Context, assetID depreciation.AssetID) (*depreciation.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	es := m.entries[assetID]
	if len(es) == 0 {
		return nil, nil
	}
	last := es[len(es)-1]
	return &last, nil
}

func (m *Memory) ResetEntries(_ context.Context, assetID depreciation.AssetID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.entries[assetID])
	delete(m.entries, assetID)
	return n, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support, simulated with a
// snapshot + rollback on error.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

func (tm *TxMemory) WithTx(ctx context.Context, fn func(depreciation.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	view := &txMemoryView{parent: tm}

	if err := fn(view); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	assetsCopy := make(map[depreciation.AssetID]depreciation.Asset, len(tm.assets))
	for k, v := range tm.assets {
		assetsCopy[k] = v
	}
	entriesCopy := make(map[depreciation.AssetID][]depreciation.Entry, len(tm.entries))
	for k, v := range tm.entries {
		entriesCopy[k] = append([]depreciation.Entry{}, v...)
	}
	return memorySnapshot{assets: assetsCopy, entries: entriesCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.assets = s.assets
	tm.entries = s.entries
}

type memorySnapshot struct {
	assets  map[depreciation.AssetID]depreciation.Asset
	entries map[depreciation.AssetID][]depreciation.Entry
}

// txMemoryView accesses the parent directly; the parent's lock is held
// for the duration of WithTx.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) SaveAsset(_ context.Context, a depreciation.Asset) error {
	tv.parent.assets[a.ID] = a
	return nil
}

func (tv *txMemoryView) GetAsset(_ context.Context, id depreciation.AssetID) (*depreciation.Asset, error) {
	a, ok := tv.parent.assets[id]
	if !ok {
		return nil, depreciation.ErrAssetNotFound
	}
	return &a, nil
}

func (tv *txMemoryView) ListAssets(_ context.Context) ([]depreciation.Asset, error) {
	out := make([]depreciation.Asset, 0, len(tv.parent.assets))
	for _, a := range tv.parent.assets {
		out = append(out, a)
	}
	return out, nil
}

func (tv *txMemoryView) AppendEntry(_ context.Context, e depreciation.Entry) error {
	return tv.parent.appendLocked(e)
}

func (tv *txMemoryView) Entries(_ context.Context, assetID depreciation.AssetID) ([]depreciation.Entry, error) {
	return tv.parent.entries[assetID], nil
}

func (tv *txMemoryView) LastEntry(_ context.Context, assetID depreciation.AssetID) (*depreciation.Entry, error) {
	es := tv.parent.entries[assetID]
	if len(es) == 0 {
		return nil, nil
	}
	last := es[len(es)-1]
	return &last, nil
}

func (tv *txMemoryView) ResetEntries(_ context.Context, assetID depreciation.AssetID) (int, error) {
	n := len(tv.parent.entries[assetID])
	delete(tv.parent.entries, assetID)
	return n, nil
}
