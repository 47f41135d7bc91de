package orm

import (
	"encoding/binary"
	"math"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
)

// Sequence maintains a counter, and generates a
// series of keys. Each value returned by NextInt() is greater than the
// last, and so is its encoding under bytes.Compare().
//
// The counter key never gets a liveness window, so a sequence is never
// garbage collected and never restarts.
type Sequence struct {
	id []byte
}

// NewSequence returns a sequence counter. Sequence is using following pattern
// to construct a key:
//    _s.<bucket>:<name>
func NewSequence(bucket, name string) Sequence {
	id := "_s." + bucket + ":" + name
	return Sequence{
		id: []byte(id),
	}
}

// Key returns the database key the counter is stored under.
func (s *Sequence) Key() []byte {
	return s.id
}

// NextInt increments the sequence and returns its state as int.
func (s *Sequence) NextInt(db htlc.KVStore) (uint64, error) {
	return s.increment(db, 1)
}

// Latest returns the recently returned value of the sequence. This method does
// not modify the sequence state. Use NextInt to acquire a sequence
// value that was not given to anyone else.
func (s *Sequence) Latest(db htlc.ReadOnlyKVStore) (uint64, error) {
	raw, err := db.Get(s.id)
	if err != nil {
		return 0, errors.Wrap(err, "cannot read sequence")
	}
	return DecodeSequence(raw)
}

func (s *Sequence) increment(db htlc.KVStore, inc uint64) (uint64, error) {
	val, err := s.Latest(db)
	if err != nil {
		return 0, err
	}
	if val > math.MaxUint64-inc {
		return 0, errors.Wrap(errors.ErrOverflow, "sequence exhausted")
	}
	val += inc
	if err := db.Set(s.id, EncodeSequence(val)); err != nil {
		return 0, errors.Wrap(err, "cannot store sequence")
	}
	return val, nil
}

// DecodeSequence reads an 8 byte big-endian counter. A missing value is
// zero.
func DecodeSequence(bz []byte) (uint64, error) {
	if bz == nil {
		return 0, nil
	}
	if len(bz) != 8 {
		return 0, errors.ErrModel.Newf("sequence of %d bytes", len(bz))
	}
	return binary.BigEndian.Uint64(bz), nil
}

func EncodeSequence(val uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, val)
	return bz
}
