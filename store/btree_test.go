package store

import (
	"testing"

	"github.com/iov-one/htlc/htlctest/assert"
)

func memConstructor() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestMemStoreSuite(t *testing.T) {
	suite := NewTestSuite(memConstructor)
	t.Run("get set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("liveness", suite.Liveness)
	t.Run("sweep", suite.Sweep)
}

func TestNestedCacheWrap(t *testing.T) {
	base := NewMemDB()
	k, v := []byte("stacked"), []byte("caches")

	outer := base.CacheWrap()
	inner := outer.CacheWrap()
	assert.Nil(t, inner.Set(k, v))
	assert.Nil(t, inner.SetLiveUntil(k, 42))

	live, err := outer.LiveUntil(k)
	assert.Nil(t, err)
	assert.Equal(t, uint32(0), live)

	assert.Nil(t, inner.Write())
	live, err = outer.LiveUntil(k)
	assert.Nil(t, err)
	assert.Equal(t, uint32(42), live)
	assert.Equal(t, 0, base.Len())

	assert.Nil(t, outer.Write())
	assert.Equal(t, 1, base.Len())
	live, err = base.LiveUntil(k)
	assert.Nil(t, err)
	assert.Equal(t, uint32(42), live)
}

func TestMemDBSweepBoundary(t *testing.T) {
	db := NewMemDB()
	k := []byte("edge")
	assert.Nil(t, db.Set(k, []byte("value")))
	assert.Nil(t, db.SetLiveUntil(k, 5))

	// the entry is still live during its last ledger
	n, err := db.Sweep(5)
	assert.Nil(t, err)
	assert.Equal(t, 0, n)

	n, err = db.Sweep(6)
	assert.Nil(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, db.Len())
}
