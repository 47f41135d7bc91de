package htlc

import "context"

//////////////////////////////////////////////////////////
// Defines all public interfaces for interacting with stores
//
// KVStore is the basic object to use in all code

// ReadOnlyKVStore is a simple interface to query data.
type ReadOnlyKVStore interface {
	// Get returns nil iff key doesn't exist. Panics on nil key.
	Get(key []byte) ([]byte, error)

	// Has checks if a key exists. Panics on nil key.
	Has(key []byte) (bool, error)

	// LiveUntil returns the last ledger at which the key is guaranteed to
	// be retained by the store. Zero is returned for keys without a
	// liveness window (kept until deleted) and for missing keys.
	LiveUntil(key []byte) (uint32, error)
}

// SetDeleter is a minimal interface for writing,
// Unifying KVStore and Batch
type SetDeleter interface {
	// Set sets the key. Panics on nil key. Liveness of an already
	// existing key is not modified.
	Set(key, value []byte) error

	// Delete deletes the key together with its liveness window. Panics on
	// nil key.
	Delete(key []byte) error

	// SetLiveUntil assigns a liveness window to an existing key. It is
	// a no-op for missing keys.
	SetLiveUntil(key []byte, ledger uint32) error
}

// KVStore is a simple interface to get/set data
//
// For simplicity, we require all backing stores to implement this
// interface. They *may* implement other methods as well, but
// at least these are required.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
}

// Batch can write multiple ops atomically to an underlying KVStore
type Batch interface {
	SetDeleter
	Write() error
}

///////////////////////////////////////////////////////////
// Caching conditional execution
//
// These extend KVStore to allow grouping temporary writes
// which may be committed/discarded together.
// Like Postgresql SAVEPOINT / ROLLBACK TO SAVEPOINT
//
// These should be used instead of KVStore for methods that
// need this functionality

/*
  CacheableKVStore is a KVStore that supports CacheWrapping

  CacheWrap() should not return a Committer, since Commit() on
  cache-wraps make no sense.
*/
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap allows us to maintain a scratch-pad of uncommitted data
// that we can view with all queries.
//
// At the end, call Write to use the cached data, or Discard to drop it.
type KVCacheWrap interface {
	// CacheableKVStore allows us to use this Cache recursively
	CacheableKVStore

	// Write syncs with the underlying store.
	Write() error

	// Discard invalidates this CacheWrap and releases all data
	Discard()
}

// Updater is implemented by stores that isolate read-modify-write calls.
//
// Update runs fn on a view of the store that no concurrent Update can
// change. Writes made by fn are committed only if fn returns nil. A store
// may call fn more than once if a concurrent update forced it to start
// over, so fn must not have side effects outside of the given store.
type Updater interface {
	Update(ctx context.Context, fn func(db KVStore) error) error
}

// Update runs fn on an isolated view of db and writes it if fn succeeds.
// Stores implementing Updater provide the view themselves, any other store
// is cache wrapped.
func Update(ctx context.Context, db CacheableKVStore, fn func(db KVStore) error) error {
	if u, ok := db.(Updater); ok {
		return u.Update(ctx, fn)
	}
	cache := db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	return cache.Write()
}

// Sweeper is implemented by stores that garbage collect entries on demand.
type Sweeper interface {
	// Sweep removes all keys with a liveness window that ended before
	// the given ledger and returns how many were removed.
	Sweep(ledger uint32) (int, error)
}
