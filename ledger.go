package htlc

import (
	"time"

	"github.com/iov-one/htlc/errors"
)

const (
	// LedgerInterval is the base time unit used to express liveness
	// windows of the stored data.
	LedgerInterval = 5 * time.Second

	// DayInLedgers is the number of ledger intervals in one day.
	DayInLedgers uint32 = uint32(24 * time.Hour / LedgerInterval)
)

// LedgerAt returns the sequence number of the ledger interval that contains
// given moment. Moments before the epoch belong to ledger zero.
func LedgerAt(t time.Time) uint32 {
	unix := t.Unix()
	if unix <= 0 {
		return 0
	}
	return uint32(unix / int64(LedgerInterval/time.Second))
}

// LedgerEnd returns the first moment that is no longer part of the given
// ledger interval.
func LedgerEnd(ledger uint32) time.Time {
	return time.Unix(int64(ledger+1)*int64(LedgerInterval/time.Second), 0)
}

// ExtendTTL refreshes the liveness window of a stored key. When the
// remaining liveness, as seen from the current ledger, is below threshold the
// window is extended to end bump ledgers after the current one. Missing keys
// are ignored.
func ExtendTTL(db KVStore, key []byte, current, threshold, bump uint32) error {
	if threshold > bump {
		return errors.Wrapf(errors.ErrInput, "threshold %d exceeds bump %d", threshold, bump)
	}
	ok, err := db.Has(key)
	if err != nil {
		return errors.Wrap(err, "has")
	}
	if !ok {
		return nil
	}
	live, err := db.LiveUntil(key)
	if err != nil {
		return errors.Wrap(err, "live until")
	}
	if live >= current && live-current >= threshold {
		return nil
	}
	if current > ^uint32(0)-bump {
		return errors.Wrap(errors.ErrOverflow, "liveness window")
	}
	return db.SetLiveUntil(key, current+bump)
}
