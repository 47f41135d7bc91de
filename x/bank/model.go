package bank

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
	"github.com/iov-one/htlc/x"
)

// BucketName is where we store the balances
const BucketName = "bank"

// Balance is the amount of one asset held by one account.
type Balance struct {
	Amount int64 `protobuf:"varint,1,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *Balance) Reset()         { *m = Balance{} }
func (m *Balance) String() string { return proto.CompactTextString(m) }
func (*Balance) ProtoMessage()    {}

var _ x.Model = (*Balance)(nil)

// Validate requires a positive amount. Empty balances are not stored.
func (m *Balance) Validate() error {
	if m.Amount <= 0 {
		return errors.Wrapf(errors.ErrAmount, "balance %d", m.Amount)
	}
	return nil
}

// Bucket stores balances keyed by asset and account.
type Bucket struct {
	orm.Bucket
}

// NewBucket initializes a Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: orm.NewBucket(BucketName),
	}
}

func balanceKey(asset string, addr htlc.Address) []byte {
	key := make([]byte, 0, len(asset)+1+len(addr))
	key = append(key, asset...)
	key = append(key, ':')
	return append(key, addr...)
}

// Get returns the balance of the account, zero if it holds nothing.
func (b Bucket) Get(db htlc.ReadOnlyKVStore, asset string, addr htlc.Address) (int64, error) {
	var bal Balance
	if _, err := b.Bucket.Get(db, balanceKey(asset, addr), &bal); err != nil {
		return 0, err
	}
	return bal.Amount, nil
}

// Set stores the balance of the account. A zero balance removes the entry.
func (b Bucket) Set(db htlc.KVStore, asset string, addr htlc.Address, amount int64) error {
	key := balanceKey(asset, addr)
	if amount == 0 {
		return b.Bucket.Delete(db, key)
	}
	return b.Bucket.Save(db, key, &Balance{Amount: amount})
}
