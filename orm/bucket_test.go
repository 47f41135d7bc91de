package orm

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/htlctest/assert"
	"github.com/iov-one/htlc/store"
)

// counter is a minimal model stored in the test buckets.
type counter struct {
	Count int64 `protobuf:"varint,1,opt,name=count,proto3" json:"count,omitempty"`
}

func (c *counter) Reset()         { *c = counter{} }
func (c *counter) String() string { return proto.CompactTextString(c) }
func (*counter) ProtoMessage()    {}

func (c *counter) Validate() error {
	if c.Count < 0 {
		return errors.ErrInput.New("negative count")
	}
	return nil
}

func TestBucketName(t *testing.T) {
	assert.Panics(t, func() {
		// An invalid bucket name must crash.
		NewBucket("l33t")
	})
	assert.Equal(t, "counters", NewBucket("counters").Name())
}

func TestBucketDBKey(t *testing.T) {
	b := NewBucket("abc")
	k1 := b.DBKey([]byte("ABC"))
	k2 := b.DBKey([]byte("LED"))

	// Consecutive calls must not share the backing array.
	assert.Equal(t, []byte("abc:ABC"), k1)
	assert.Equal(t, []byte("abc:LED"), k2)
}

func TestBucketStore(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters")
	key := []byte("first")

	var c counter
	found, err := b.Get(db, key, &c)
	assert.Nil(t, err)
	assert.Equal(t, false, found)

	assert.Nil(t, b.Save(db, key, &counter{Count: 7}))
	found, err = b.Get(db, key, &c)
	assert.Nil(t, err)
	assert.Equal(t, true, found)
	assert.Equal(t, int64(7), c.Count)

	// The object is saved under the prefixed key.
	raw, err := db.Get([]byte("counters:first"))
	assert.Nil(t, err)
	want, err := proto.Marshal(&counter{Count: 7})
	assert.Nil(t, err)
	assert.Equal(t, want, raw)

	assert.Nil(t, b.Delete(db, key))
	found, err = b.Get(db, key, &c)
	assert.Nil(t, err)
	assert.Equal(t, false, found)
}

func TestBucketCannotSaveInvalid(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters")

	err := b.Save(db, []byte("bad"), &counter{Count: -1})
	assert.IsErr(t, errors.ErrInput, err)

	var c counter
	found, err := b.Get(db, []byte("bad"), &c)
	assert.Nil(t, err)
	assert.Equal(t, false, found)
}

func TestBucketNameCollision(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("counters")
	assert.Nil(t, db.Set(b.DBKey([]byte("garbage")), []byte{0xff, 0xff, 0xff}))

	// Loading data that does not deserialize must fail.
	var c counter
	_, err := b.Get(db, []byte("garbage"), &c)
	assert.IsErr(t, errors.ErrModel, err)
}
