package store

import "github.com/iov-one/htlc"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = htlc.ReadOnlyKVStore
type SetDeleter = htlc.SetDeleter
type KVStore = htlc.KVStore
type Batch = htlc.Batch
type CacheableKVStore = htlc.CacheableKVStore
type KVCacheWrap = htlc.KVCacheWrap
type Sweeper = htlc.Sweeper
type Updater = htlc.Updater
