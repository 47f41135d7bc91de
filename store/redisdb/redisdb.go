/*
Package redisdb provides a key value store with liveness windows kept in
Redis.

Every key is a hash under prefix+"k:" holding the value in field "v" and the
liveness window in field "l". Keys with a window are also indexed in the
sorted set prefix+"live", scored by their last ledger, so that Sweep can drop
lapsed keys by ledger. Redis never expires keys on its own.

A cache wrap is written in one MULTI/EXEC transaction. Update additionally
watches every key it reads and starts over when one of them changed before
the transaction was executed.
*/
package redisdb

import (
	"context"
	"strconv"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/redis/go-redis/v9"
)

const (
	valueField = "v"
	liveField  = "l"

	dataSpace = "k:"
	liveIndex = "live"
)

// maxAttempts bounds how often Update starts over on conflicting writes.
const maxAttempts = 16

// liveScript sets the liveness of an existing key only. Zero drops the
// window and removes the key from the index.
//
// KEYS: data key, index. ARGV: ledger, index member.
const liveScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
if ARGV[1] == '0' then
	redis.call('HDEL', KEYS[1], 'l')
	redis.call('ZREM', KEYS[2], ARGV[2])
else
	redis.call('HSET', KEYS[1], 'l', ARGV[1])
	redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
return 1
`

// delScript removes a key together with its index entry.
//
// KEYS: data key, index. ARGV: index member.
const delScript = `
redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`

// sweepScript removes all keys indexed below the given ledger and returns
// their number.
//
// KEYS: index. ARGV: ledger, data key prefix.
const sweepScript = `
local lapsed = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
for _, member in ipairs(lapsed) do
	redis.call('DEL', ARGV[2] .. member)
end
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1])
return #lapsed
`

// DB is a key value store on top of a redis client. All keys are stored
// under the given prefix.
type DB struct {
	kv
	client redis.UniversalClient
}

var (
	_ store.CacheableKVStore = (*DB)(nil)
	_ store.Updater          = (*DB)(nil)
	_ store.Sweeper          = (*DB)(nil)
)

// New returns a store using the given client. The client is not closed by
// the store.
func New(client redis.UniversalClient, prefix string) *DB {
	return &DB{
		kv:     kv{c: client, prefix: prefix},
		client: client,
	}
}

// Ping checks that the server is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "ping: %s", err)
	}
	return nil
}

// CacheWrap returns a view whose writes reach redis in one transaction on
// Write.
func (d *DB) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(d, d.NewBatch(), nil)
}

// NewBatch returns a batch that is written in one MULTI/EXEC block.
func (d *DB) NewBatch() store.Batch {
	return &batch{
		NonAtomicBatch: store.NewNonAtomicBatch(nil),
		db:             d,
	}
}

// Update runs fn on a view that watches every key read through it. The
// writes of fn are executed in one transaction that fails if a watched key
// was changed in the meantime, in which case fn is run again on fresh data.
// ErrConflict is returned when no attempt succeeded.
func (d *DB) Update(ctx context.Context, fn func(store.KVStore) error) error {
	for i := 0; i < maxAttempts; i++ {
		var fnErr error
		err := d.client.Watch(ctx, func(tx *redis.Tx) error {
			ops := store.NewNonAtomicBatch(nil)
			view := store.NewBTreeCacheWrap(watched{
				kv:  kv{c: tx, prefix: d.prefix},
				tx:  tx,
				ctx: ctx,
			}, ops, nil)
			if fnErr = fn(view); fnErr != nil {
				return nil
			}
			return exec(ctx, tx, d.prefix, ops.Ops())
		})
		switch {
		case err == redis.TxFailedErr:
			continue
		case err != nil:
			return errors.Wrapf(errors.ErrDatabase, "update: %s", err)
		}
		return fnErr
	}
	return errors.Wrapf(errors.ErrConflict, "update: %d attempts", maxAttempts)
}

// Sweep removes all entries whose liveness window ended before ledger.
func (d *DB) Sweep(ledger uint32) (int, error) {
	n, err := d.client.Eval(context.Background(), sweepScript,
		[]string{d.prefix + liveIndex}, ledger, d.prefix+dataSpace).Int()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrDatabase, "sweep: %s", err)
	}
	return n, nil
}

type batch struct {
	*store.NonAtomicBatch
	db *DB
}

func (b *batch) Write() error {
	if err := exec(context.Background(), b.db.client, b.db.prefix, b.Ops()); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "exec: %s", err)
	}
	b.NonAtomicBatch = store.NewNonAtomicBatch(nil)
	return nil
}

// exec applies ops in one MULTI/EXEC block.
func exec(ctx context.Context, c redis.Cmdable, prefix string, ops []store.Op) error {
	if len(ops) == 0 {
		return nil
	}
	_, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		out := kv{c: pipe, prefix: prefix}
		for _, op := range ops {
			if err := op.Apply(out); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// watched reads through a transaction and watches every key it reads.
type watched struct {
	kv
	tx  *redis.Tx
	ctx context.Context
}

func (w watched) watch(key []byte) error {
	if err := w.tx.Watch(w.ctx, w.key(key)).Err(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "watch: %s", err)
	}
	return nil
}

func (w watched) Get(key []byte) ([]byte, error) {
	if err := w.watch(key); err != nil {
		return nil, err
	}
	return w.kv.Get(key)
}

func (w watched) Has(key []byte) (bool, error) {
	if err := w.watch(key); err != nil {
		return false, err
	}
	return w.kv.Has(key)
}

func (w watched) LiveUntil(key []byte) (uint32, error) {
	if err := w.watch(key); err != nil {
		return 0, err
	}
	return w.kv.LiveUntil(key)
}

// kv implements the store operations on top of a client, a transaction or
// a pipeline. Within a pipeline only the write operations may be used.
type kv struct {
	c      redis.Cmdable
	prefix string
}

func (s kv) key(key []byte) string {
	return s.prefix + dataSpace + string(key)
}

func (s kv) index() string {
	return s.prefix + liveIndex
}

func (s kv) Get(key []byte) ([]byte, error) {
	val, err := s.c.HGet(context.Background(), s.key(key), valueField).Bytes()
	switch {
	case err == redis.Nil:
		return nil, nil
	case err != nil:
		return nil, errors.Wrapf(errors.ErrDatabase, "get: %s", err)
	}
	if val == nil {
		val = []byte{}
	}
	return val, nil
}

func (s kv) Has(key []byte) (bool, error) {
	n, err := s.c.Exists(context.Background(), s.key(key)).Result()
	if err != nil {
		return false, errors.Wrapf(errors.ErrDatabase, "has: %s", err)
	}
	return n == 1, nil
}

func (s kv) LiveUntil(key []byte) (uint32, error) {
	raw, err := s.c.HGet(context.Background(), s.key(key), liveField).Result()
	switch {
	case err == redis.Nil:
		return 0, nil
	case err != nil:
		return 0, errors.Wrapf(errors.ErrDatabase, "live until: %s", err)
	}
	live, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrModel, "live until %q: %s", raw, err)
	}
	return uint32(live), nil
}

// Set stores the value, keeping the liveness of an existing key.
func (s kv) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if err := s.c.HSet(context.Background(), s.key(key), valueField, value).Err(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set: %s", err)
	}
	return nil
}

func (s kv) Delete(key []byte) error {
	err := s.c.Eval(context.Background(), delScript,
		[]string{s.key(key), s.index()}, string(key)).Err()
	if err != nil && err != redis.Nil {
		return errors.Wrapf(errors.ErrDatabase, "delete: %s", err)
	}
	return nil
}

// SetLiveUntil updates the liveness of an existing key and its index entry.
// Missing keys are ignored.
func (s kv) SetLiveUntil(key []byte, ledger uint32) error {
	err := s.c.Eval(context.Background(), liveScript,
		[]string{s.key(key), s.index()}, ledger, string(key)).Err()
	if err != nil && err != redis.Nil {
		return errors.Wrapf(errors.ErrDatabase, "set live until: %s", err)
	}
	return nil
}
