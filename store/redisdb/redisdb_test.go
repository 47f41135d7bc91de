package redisdb

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*DB, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)
	db, closeClient := connect(mr)
	cleanup := func() {
		closeClient()
		mr.Close()
	}
	return db, mr, cleanup
}

// connect returns a store with its own client on the given server.
func connect(mr *miniredis.Miniredis) (*DB, func()) {
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return New(client, "htlc/"), func() { client.Close() }
}

func TestRedisSuite(t *testing.T) {
	suite := store.NewTestSuite(func() (store.CacheableKVStore, func()) {
		db, _, cleanup := setupTestRedis(t)
		return db, cleanup
	})
	t.Run("get set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("liveness", suite.Liveness)
	t.Run("sweep", suite.Sweep)
}

func TestLivenessIsIndexedByLedger(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	key := []byte("htlc:x")
	require.NoError(t, db.Set(key, []byte("escrow")))
	require.NoError(t, db.SetLiveUntil(key, 10))

	score, err := mr.ZScore("htlc/live", "htlc:x")
	require.NoError(t, err)
	assert.Equal(t, float64(10), score)
	assert.Zero(t, mr.TTL("htlc/k:htlc:x"))

	// wall time does not evict anything, only a sweep does
	mr.FastForward(10 * 365 * 24 * time.Hour)
	v, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("escrow"), v)

	n, err := db.Sweep(10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = db.Sweep(11)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, mr.Exists("htlc/k:htlc:x"))
	_, err = mr.ZScore("htlc/live", "htlc:x")
	assert.Error(t, err)
}

func TestZeroLivenessLeavesIndex(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	key := []byte("forever")
	require.NoError(t, db.Set(key, []byte("1")))
	require.NoError(t, db.SetLiveUntil(key, 10))
	require.NoError(t, db.SetLiveUntil(key, 0))

	_, err := mr.ZScore("htlc/live", "forever")
	assert.Error(t, err)

	n, err := db.Sweep(1000)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	v, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestDeleteDropsIndexEntry(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	key := []byte("gone")
	require.NoError(t, db.Set(key, []byte("1")))
	require.NoError(t, db.SetLiveUntil(key, 10))
	require.NoError(t, db.Delete(key))

	assert.False(t, mr.Exists("htlc/k:gone"))
	_, err := mr.ZScore("htlc/live", "gone")
	assert.Error(t, err)
}

func TestKeysArePrefixed(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("bank:IOV:a"), []byte{8}))
	require.NoError(t, cache.Write())

	assert.True(t, mr.Exists("htlc/k:bank:IOV:a"))
	assert.Equal(t, string([]byte{8}), mr.HGet("htlc/k:bank:IOV:a", "v"))
}

func TestPing(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, db.Ping(context.Background()))
	mr.Close()
	assert.Error(t, db.Ping(context.Background()))
}

func increment(db store.KVStore, key []byte) error {
	raw, err := db.Get(key)
	if err != nil {
		return err
	}
	n := 0
	if raw != nil {
		if n, err = strconv.Atoi(string(raw)); err != nil {
			return err
		}
	}
	return db.Set(key, []byte(strconv.Itoa(n+1)))
}

func TestUpdateStartsOverOnConflict(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	other, closeOther := connect(mr)
	defer closeOther()

	key := []byte("counter")
	require.NoError(t, db.Set(key, []byte("1")))

	var attempts int
	err := db.Update(context.Background(), func(kv store.KVStore) error {
		attempts++
		if err := increment(kv, key); err != nil {
			return err
		}
		if attempts == 1 {
			// another client changes the key after it was read
			return other.Set(key, []byte("10"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	v, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("11"), v)
}

func TestUpdateFailureWritesNothing(t *testing.T) {
	db, _, cleanup := setupTestRedis(t)
	defer cleanup()

	key := []byte("counter")
	err := db.Update(context.Background(), func(kv store.KVStore) error {
		if err := increment(kv, key); err != nil {
			return err
		}
		return errors.ErrState
	})
	assert.True(t, errors.ErrState.Is(err))

	has, err := db.Has(key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestConcurrentUpdatesFromTwoClients(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	const rounds = 10
	key := []byte("counter")

	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < 2; i++ {
		db, closeClient := connect(mr)
		defer closeClient()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				errs <- db.Update(context.Background(), func(kv store.KVStore) error {
					return increment(kv, key)
				})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, strconv.Itoa(2*rounds), mr.HGet("htlc/k:counter", "v"))
}

func TestUpdateGivesUpOnPersistentConflict(t *testing.T) {
	db, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	other, closeOther := connect(mr)
	defer closeOther()

	key := []byte("counter")
	var attempts int
	err := db.Update(context.Background(), func(kv store.KVStore) error {
		attempts++
		if err := increment(kv, key); err != nil {
			return err
		}
		return other.Set(key, []byte(strconv.Itoa(attempts)))
	})
	assert.True(t, errors.ErrConflict.Is(err))
	assert.Equal(t, maxAttempts, attempts)
}
