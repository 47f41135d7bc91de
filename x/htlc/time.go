package htlc

import (
	"github.com/iov-one/htlc"
)

// IsExpired returns true if given time is in the past as compared to the "now"
// as declared by the clock. Expiration is exclusive, meaning that if current
// time is equal to the expiration time then the escrow is not expired yet.
func IsExpired(clock htlc.Clock, expiry htlc.UnixTime) bool {
	return expiry < htlc.AsUnixTime(clock.Now())
}

// currentLedger returns the ledger the clock is in.
func currentLedger(clock htlc.Clock) uint32 {
	return htlc.LedgerAt(clock.Now())
}
