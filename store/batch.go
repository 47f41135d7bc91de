package store

import "fmt"

type opKind int32

const (
	setKind opKind = iota + 1
	delKind
	liveKind
)

// Op is either set, delete or a liveness update
type Op struct {
	kind  opKind
	key   []byte
	value []byte // only for set
	live  uint32 // only for liveness update
}

// Apply performs the operation on the given store
func (o Op) Apply(out SetDeleter) error {
	switch o.kind {
	case setKind:
		return out.Set(o.key, o.value)
	case delKind:
		return out.Delete(o.key)
	case liveKind:
		return out.SetLiveUntil(o.key, o.live)
	default:
		panic(fmt.Sprintf("Unknown kind: %d", o.kind))
	}
}

// SetOp is a helper to create a set operation
func SetOp(key, value []byte) Op {
	return Op{
		kind:  setKind,
		key:   key,
		value: value,
	}
}

// DelOp is a helper to create a del operation
func DelOp(key []byte) Op {
	return Op{
		kind: delKind,
		key:  key,
	}
}

// LiveOp is a helper to create a liveness update operation
func LiveOp(key []byte, ledger uint32) Op {
	return Op{
		kind: liveKind,
		key:  key,
		live: ledger,
	}
}

// NonAtomicBatch just piles up ops and executes them later
// on the underlying store. Can be used when there is no better
// option (for in-memory stores).
//
// NOTE: Never use this for KVStores that are persistent
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch creates an empty batch to be later writen
// to the KVStore
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{
		out: out,
	}
}

// Set adds a set operation to the batch
func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

// Delete adds a delete operation to the batch
func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// SetLiveUntil adds a liveness update to the batch
func (b *NonAtomicBatch) SetLiveUntil(key []byte, ledger uint32) error {
	b.ops = append(b.ops, LiveOp(key, ledger))
	return nil
}

// Write writes all the ops to the underlying store and resets
func (b *NonAtomicBatch) Write() error {
	for _, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}

// Ops returns all operations accumulated so far, in order.
func (b *NonAtomicBatch) Ops() []Op {
	return b.ops
}
