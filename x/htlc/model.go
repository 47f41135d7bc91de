package htlc

import (
	"encoding/hex"
	"encoding/json"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/orm"
	"github.com/iov-one/htlc/x"
)

const (
	// BucketName is where we store the escrows
	BucketName = "htlc"

	// EscrowBump is the liveness window, in ledgers, an escrow gets when
	// it is refreshed.
	EscrowBump = 30 * htlc.DayInLedgers

	// EscrowThreshold is the remaining liveness, in ledgers, below which an
	// escrow is refreshed on access.
	EscrowThreshold = EscrowBump - htlc.DayInLedgers
)

// CustodyAddress holds the funds of all pending escrows.
var CustodyAddress = htlc.NewCondition("htlc", "custody", nil).Address()

// Escrow is a deposit locked by a commitment until its expiry.
type Escrow struct {
	ID          uint64        `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Depositor   htlc.Address  `protobuf:"bytes,2,opt,name=depositor,proto3,casttype=github.com/iov-one/htlc.Address" json:"depositor,omitempty"`
	Beneficiary htlc.Address  `protobuf:"bytes,3,opt,name=beneficiary,proto3,casttype=github.com/iov-one/htlc.Address" json:"beneficiary,omitempty"`
	Asset       string        `protobuf:"bytes,4,opt,name=asset,proto3" json:"asset,omitempty"`
	Amount      int64         `protobuf:"varint,5,opt,name=amount,proto3" json:"amount,omitempty"`
	Expiry      htlc.UnixTime `protobuf:"varint,6,opt,name=expiry,proto3,casttype=github.com/iov-one/htlc.UnixTime" json:"expiry,omitempty"`
	Commitment  []byte        `protobuf:"bytes,7,opt,name=commitment,proto3" json:"commitment,omitempty"`
}

func (m *Escrow) Reset()         { *m = Escrow{} }
func (m *Escrow) String() string { return proto.CompactTextString(m) }
func (*Escrow) ProtoMessage()    {}

var _ x.Model = (*Escrow)(nil)

// Validate ensures the Escrow is well formed. The amount is not checked, it
// is up to the gateway moving the funds to accept it or not.
func (m *Escrow) Validate() error {
	if err := m.Depositor.Validate(); err != nil {
		return errors.Wrap(err, "depositor")
	}
	if err := m.Beneficiary.Validate(); err != nil {
		return errors.Wrap(err, "beneficiary")
	}
	if err := x.ValidateTicker(m.Asset); err != nil {
		return errors.Wrap(err, "asset")
	}
	if len(m.Commitment) != CommitmentLength {
		return errors.Wrapf(errors.ErrInput,
			"commitment has to be exactly %d bytes", CommitmentLength)
	}
	if m.Expiry < 0 {
		return errors.Wrap(errors.ErrInput, "expiry before epoch")
	}
	return nil
}

type escrowJSON struct {
	ID          uint64        `json:"id"`
	Depositor   htlc.Address  `json:"depositor"`
	Beneficiary htlc.Address  `json:"beneficiary"`
	Asset       string        `json:"asset"`
	Amount      int64         `json:"amount"`
	Expiry      htlc.UnixTime `json:"expiry"`
	Commitment  string        `json:"commitment"`
}

// MarshalJSON encodes addresses as bech32 strings and the commitment as hex.
func (m *Escrow) MarshalJSON() ([]byte, error) {
	return json.Marshal(escrowJSON{
		ID:          m.ID,
		Depositor:   m.Depositor,
		Beneficiary: m.Beneficiary,
		Asset:       m.Asset,
		Amount:      m.Amount,
		Expiry:      m.Expiry,
		Commitment:  hex.EncodeToString(m.Commitment),
	})
}

func (m *Escrow) UnmarshalJSON(raw []byte) error {
	var e escrowJSON
	if err := json.Unmarshal(raw, &e); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	commitment, err := hex.DecodeString(e.Commitment)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "commitment is not hex")
	}
	*m = Escrow{
		ID:          e.ID,
		Depositor:   e.Depositor,
		Beneficiary: e.Beneficiary,
		Asset:       e.Asset,
		Amount:      e.Amount,
		Expiry:      e.Expiry,
		Commitment:  commitment,
	}
	return nil
}

// Bucket stores escrows under their id. Every write and every read hit
// refreshes the liveness window of the escrow.
type Bucket struct {
	orm.Bucket
	idSeq orm.Sequence
}

// NewBucket initializes a Bucket with default name
func NewBucket() Bucket {
	b := orm.NewBucket(BucketName)
	return Bucket{
		Bucket: b,
		idSeq:  b.Sequence(orm.SeqID),
	}
}

func escrowKey(id uint64) []byte {
	return orm.EncodeSequence(id)
}

// NextID allocates a new escrow id. Ids start at one and are never reused.
func (b Bucket) NextID(db htlc.KVStore) (uint64, error) {
	return b.idSeq.NextInt(db)
}

// LastID returns the most recently allocated id, zero if none was.
func (b Bucket) LastID(db htlc.ReadOnlyKVStore) (uint64, error) {
	return b.idSeq.Latest(db)
}

// Put stores the escrow under its id.
func (b Bucket) Put(db htlc.KVStore, current uint32, e *Escrow) error {
	key := escrowKey(e.ID)
	if err := b.Save(db, key, e); err != nil {
		return err
	}
	return b.extend(db, key, current)
}

// Get returns the escrow stored under id or nil.
func (b Bucket) Get(db htlc.KVStore, current uint32, id uint64) (*Escrow, error) {
	key := escrowKey(id)
	var e Escrow
	ok, err := b.Bucket.Get(db, key, &e)
	if err != nil || !ok {
		return nil, err
	}
	if err := b.extend(db, key, current); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes the escrow stored under id. Missing escrows are ignored.
func (b Bucket) Delete(db htlc.KVStore, id uint64) error {
	return b.Bucket.Delete(db, escrowKey(id))
}

func (b Bucket) extend(db htlc.KVStore, key []byte, current uint32) error {
	err := htlc.ExtendTTL(db, b.DBKey(key), current, EscrowThreshold, EscrowBump)
	return errors.Wrap(err, "extend liveness")
}
