package store

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/htlc/htlctest/assert"
)

/**
TestSuite provides many methods that can be called in package-specific test code.
We just customize the store being tested (pass in constructor), the rest of the
logic is generic to the KVStore interface.

This is intended in particular to remove duplication between the memory,
sqlite and redis backends, but can be used for any implementation of KVStore.
*/
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// Model is a key value pair used to express a query and its expected result.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key and value.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// GetSet does basic sanity checks on our cache
//
// Other tests should handle deletes, setting same value
// and general fuzzing
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	// make sure the store is empty at start but returns results
	// that are written to it
	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	err := base.Set(k, v)
	assert.Nil(t, err)
	s.AssertGetHas(t, base, k, v, true)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	s.AssertGetHas(t, cache, k2, nil, false)
	err = cache.Set(k2, v2)
	assert.Nil(t, err)
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	// we can write the cache to the base layer...
	err = cache.Write()
	assert.Nil(t, err)
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	s.AssertGetHas(t, c2, k, v, true)
	s.AssertGetHas(t, c2, k2, v2, true)
	err = c2.Set(k3, v3)
	assert.Nil(t, err)
	c2.Discard()

	// and commit another
	c3 := base.CacheWrap()
	s.AssertGetHas(t, c3, k, v, true)
	s.AssertGetHas(t, c3, k2, v2, true)
	err = c3.Delete(k)
	assert.Nil(t, err)
	err = c3.Write()
	assert.Nil(t, err)

	// make sure it commits proper
	s.AssertGetHas(t, c2, k, nil, false)
	s.AssertGetHas(t, c2, k2, v2, true)
	s.AssertGetHas(t, c2, k3, nil, false)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	// make 10 keys and 20 values....
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model // Key is what we query, Value is what we expect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)},
			childQueries:  []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])},
		},
		"delete and set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[14]), DelOp(ks[5])},
			parentQueries: []Model{Pair(ks[4], vs[4]), Pair(ks[5], nil)},
			childQueries:  []Model{Pair(ks[4], vs[14]), Pair(ks[5], nil)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent, cleanup := s.makeBase()
			defer cleanup()

			for _, op := range tc.parentOps {
				assert.Nil(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				assert.Nil(t, op.Apply(child))
			}

			// now check the parent is unaffected
			for _, q := range tc.parentQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}

			// the child shows changes
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
			}

			// write child to parent and make sure it also shows proper data
			assert.Nil(t, child.Write())
			for _, q := range tc.childQueries {
				s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
			}
		})
	}
}

// Liveness checks that liveness windows are kept by the store and the cache
// layered on top of it.
func (s *TestSuite) Liveness(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("escrow"), []byte("record")

	// missing keys have no liveness and cannot get one
	s.AssertLiveUntil(t, base, k, 0)
	assert.Nil(t, base.SetLiveUntil(k, 77))
	s.AssertLiveUntil(t, base, k, 0)
	s.AssertGetHas(t, base, k, nil, false)

	// new keys are kept until deleted
	assert.Nil(t, base.Set(k, v))
	s.AssertLiveUntil(t, base, k, 0)

	assert.Nil(t, base.SetLiveUntil(k, 100))
	s.AssertLiveUntil(t, base, k, 100)

	// overwrite keeps the window
	assert.Nil(t, base.Set(k, []byte("updated")))
	s.AssertLiveUntil(t, base, k, 100)

	// an extension in a cache is only visible once written
	cache := base.CacheWrap()
	assert.Nil(t, cache.SetLiveUntil(k, 200))
	s.AssertLiveUntil(t, cache, k, 200)
	s.AssertLiveUntil(t, base, k, 100)
	assert.Nil(t, cache.Write())
	s.AssertLiveUntil(t, base, k, 200)

	// a discarded extension is lost
	cache = base.CacheWrap()
	assert.Nil(t, cache.SetLiveUntil(k, 300))
	cache.Discard()
	s.AssertLiveUntil(t, base, k, 200)

	// delete drops the window, so a new value starts without one
	cache = base.CacheWrap()
	assert.Nil(t, cache.Delete(k))
	s.AssertLiveUntil(t, cache, k, 0)
	assert.Nil(t, cache.Set(k, v))
	s.AssertLiveUntil(t, cache, k, 0)
	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertLiveUntil(t, base, k, 0)
}

// Sweep checks that entries with a lapsed liveness window are garbage
// collected while entries without a window or with a running one remain.
func (s *TestSuite) Sweep(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	sweeper, ok := base.(Sweeper)
	if !ok {
		t.Skip("store does not collect garbage on demand")
	}

	forever, lapsed, active := []byte("forever"), []byte("lapsed"), []byte("active")
	for _, k := range [][]byte{forever, lapsed, active} {
		assert.Nil(t, base.Set(k, k))
	}
	assert.Nil(t, base.SetLiveUntil(lapsed, 10))
	assert.Nil(t, base.SetLiveUntil(active, 20))

	n, err := sweeper.Sweep(20)
	assert.Nil(t, err)
	assert.Equal(t, 1, n)

	s.AssertGetHas(t, base, forever, forever, true)
	s.AssertGetHas(t, base, lapsed, nil, false)
	s.AssertGetHas(t, base, active, active, true)
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

func (s *TestSuite) AssertLiveUntil(t testing.TB, kv ReadOnlyKVStore, key []byte, want uint32) {
	t.Helper()
	got, err := kv.LiveUntil(key)
	assert.Nil(t, err)
	assert.Equal(t, want, got)
}

//nolint
func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}

// randKeys returns a slice of count keys, all of a given size
func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(size)
	}
	return res
}
