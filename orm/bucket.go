/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* The object key is appended to the bucket prefix.
* Sequences provide monotonic counters for object ids.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
)

const (
	// SeqID is a constant to use to get a default ID sequence
	SeqID = "id"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Bucket is a prefixed subspace of the DB.
//
// This is a generic building block that should generally
// be embedded in a type-safe wrapper to ensure all data
// is the same type.
type Bucket struct {
	name   string
	prefix []byte
}

// NewBucket creates a bucket to store data
func NewBucket(name string) Bucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}

	return Bucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the bucket name.
func (b Bucket) Name() string {
	return b.name
}

// Sequence returns a sequence stored in the bucket namespace.
func (b Bucket) Sequence(name string) Sequence {
	return NewSequence(b.name, name)
}

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b Bucket) DBKey(key []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(key))
	copy(out, b.prefix)
	copy(out[l:], key)
	return out
}

// Get loads one element into dst. It returns false if nothing is stored
// under the key.
func (b Bucket) Get(db htlc.ReadOnlyKVStore, key []byte, dst proto.Message) (bool, error) {
	bz, err := db.Get(b.DBKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot load")
	}
	if bz == nil {
		return false, nil
	}
	if err := proto.Unmarshal(bz, dst); err != nil {
		return false, errors.Wrapf(errors.ErrModel, "cannot unmarshal %s: %s", b.name, err)
	}
	return true, nil
}

// Save validates and writes the element under the key.
func (b Bucket) Save(db htlc.KVStore, key []byte, obj x.Model) error {
	if err := obj.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s", b.name)
	}
	bz, err := proto.Marshal(obj)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %s: %s", b.name, err)
	}
	if err := db.Set(b.DBKey(key), bz); err != nil {
		return errors.Wrap(err, "cannot save")
	}
	return nil
}

// Delete removes the element stored under the key, if any.
func (b Bucket) Delete(db htlc.KVStore, key []byte) error {
	if err := db.Delete(b.DBKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete")
	}
	return nil
}
