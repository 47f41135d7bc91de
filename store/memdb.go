package store

import (
	"context"
	"sync"

	"github.com/google/btree"
)

// MemDB is a committed, in-memory key value store. Each entry may carry a
// liveness window. Entries are only evicted by Sweep.
type MemDB struct {
	mu sync.RWMutex
	bt *btree.BTree

	// serializes Update calls
	update sync.Mutex
}

var (
	_ CacheableKVStore = (*MemDB)(nil)
	_ Updater          = (*MemDB)(nil)
	_ Sweeper          = (*MemDB)(nil)
)

// NewMemDB returns an empty store.
func NewMemDB() *MemDB {
	return &MemDB{
		bt: btree.New(2),
	}
}

type memItem struct {
	bkey
	value     []byte
	liveUntil uint32
}

func (db *MemDB) get(key []byte) (memItem, bool) {
	res := db.bt.Get(bkey{key})
	if res == nil {
		return memItem{}, false
	}
	return res.(memItem), true
}

// Get returns the stored value or nil.
func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	it, _ := db.get(key)
	return it.value, nil
}

// Has returns true if the key is present.
func (db *MemDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.get(key)
	return ok, nil
}

// LiveUntil returns the liveness window end of the key.
func (db *MemDB) LiveUntil(key []byte) (uint32, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	it, _ := db.get(key)
	return it.liveUntil, nil
}

// Set stores the value, keeping the liveness of an existing key.
func (db *MemDB) Set(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	it, _ := db.get(key)
	db.bt.ReplaceOrInsert(memItem{bkey: bkey{key}, value: value, liveUntil: it.liveUntil})
	return nil
}

// Delete removes the key if present.
func (db *MemDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.bt.Delete(bkey{key})
	return nil
}

// SetLiveUntil updates the liveness of an existing key.
func (db *MemDB) SetLiveUntil(key []byte, ledger uint32) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	it, ok := db.get(key)
	if !ok {
		return nil
	}
	it.liveUntil = ledger
	db.bt.ReplaceOrInsert(it)
	return nil
}

// CacheWrap returns a view whose writes reach this store only on Write.
func (db *MemDB) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(db, NewNonAtomicBatch(db), nil)
}

// Update runs fn on a cache wrap of this store and writes it if fn
// succeeds. Update calls are serialized.
func (db *MemDB) Update(ctx context.Context, fn func(KVStore) error) error {
	db.update.Lock()
	defer db.update.Unlock()

	cache := db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

// Sweep removes all entries whose liveness window ended before ledger.
func (db *MemDB) Sweep(ledger uint32) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var lapsed []btree.Item
	db.bt.Ascend(func(i btree.Item) bool {
		it := i.(memItem)
		if it.liveUntil != 0 && it.liveUntil < ledger {
			lapsed = append(lapsed, it)
		}
		return true
	})
	for _, it := range lapsed {
		db.bt.Delete(it)
	}
	return len(lapsed), nil
}

// Len returns the number of stored entries.
func (db *MemDB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.bt.Len()
}
