/*
Package sqlitedb provides a durable key value store with liveness windows,
kept in a single SQLite table.

All writes of a cache wrap are committed in one SQL transaction, so a
failed write leaves the database untouched. Transactions are started with
BEGIN IMMEDIATE, so Update holds the write lock of the file for its whole
duration and is isolated from other connections and processes.
*/
package sqlitedb

import (
	"context"
	"database/sql"

	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        BLOB PRIMARY KEY,
	value      BLOB NOT NULL,
	live_until INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS kv_live_until ON kv(live_until) WHERE live_until != 0;
`

// DB is a key value store backed by a SQLite database file.
type DB struct {
	kv
	db *sql.DB
}

var (
	_ store.CacheableKVStore = (*DB)(nil)
	_ store.Updater          = (*DB)(nil)
	_ store.Sweeper          = (*DB)(nil)
)

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - immediate transactions with a 5-second busy timeout for lock contention
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %q: %s", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "connect %q: %s", path, err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(errors.ErrDatabase, "execute %q: %s", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "apply schema: %s", err)
	}
	return &DB{kv: kv{q: db}, db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// CacheWrap returns a view whose writes reach the database in one
// transaction on Write.
func (d *DB) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(d, d.NewBatch(), nil)
}

// NewBatch returns a batch that is written in one transaction.
func (d *DB) NewBatch() store.Batch {
	return &batch{
		NonAtomicBatch: store.NewNonAtomicBatch(nil),
		db:             d.db,
	}
}

// Update runs fn directly on one transaction and commits it if fn succeeds.
func (d *DB) Update(ctx context.Context, fn func(store.KVStore) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "begin: %s", err)
	}
	defer tx.Rollback()

	if err := fn(kv{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	return nil
}

// Sweep removes all entries whose liveness window ended before ledger.
func (d *DB) Sweep(ledger uint32) (int, error) {
	res, err := d.db.Exec(`DELETE FROM kv WHERE live_until != 0 AND live_until < ?`, ledger)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrDatabase, "sweep: %s", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrapf(errors.ErrDatabase, "sweep: %s", err)
	}
	return int(n), nil
}

// batch collects the operations and replays them inside a transaction.
type batch struct {
	*store.NonAtomicBatch
	db *sql.DB
}

func (b *batch) Write() (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "begin: %s", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	out := kv{q: tx}
	for _, op := range b.Ops() {
		if err := op.Apply(out); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	b.NonAtomicBatch = store.NewNonAtomicBatch(nil)
	return nil
}

// querier is implemented by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// kv implements the store operations on top of a querier.
type kv struct {
	q querier
}

func (s kv) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.q.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrapf(errors.ErrDatabase, "get: %s", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (s kv) Has(key []byte) (bool, error) {
	var one int
	err := s.q.QueryRow(`SELECT 1 FROM kv WHERE key = ?`, key).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, errors.Wrapf(errors.ErrDatabase, "has: %s", err)
	}
	return true, nil
}

func (s kv) LiveUntil(key []byte) (uint32, error) {
	var live int64
	err := s.q.QueryRow(`SELECT live_until FROM kv WHERE key = ?`, key).Scan(&live)
	switch {
	case err == sql.ErrNoRows:
		return 0, nil
	case err != nil:
		return 0, errors.Wrapf(errors.ErrDatabase, "live until: %s", err)
	}
	return uint32(live), nil
}

// Set stores the value, keeping the liveness of an existing key.
func (s kv) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.q.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set: %s", err)
	}
	return nil
}

func (s kv) Delete(key []byte) error {
	if _, err := s.q.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "delete: %s", err)
	}
	return nil
}

// SetLiveUntil updates the liveness of an existing key. Missing keys are
// ignored.
func (s kv) SetLiveUntil(key []byte, ledger uint32) error {
	if _, err := s.q.Exec(`UPDATE kv SET live_until = ? WHERE key = ?`, int64(ledger), key); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "set live until: %s", err)
	}
	return nil
}
