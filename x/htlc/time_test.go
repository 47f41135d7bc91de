package htlc

import (
	"testing"

	"github.com/iov-one/htlc"
)

func TestIsExpired(t *testing.T) {
	const now htlc.UnixTime = 1000
	clock := htlc.FixedClock(now)

	cases := map[string]struct {
		expiry htlc.UnixTime
		want   bool
	}{
		"in the future":     {expiry: now + 1, want: false},
		"exactly now":       {expiry: now, want: false},
		"one second ago":    {expiry: now - 1, want: true},
		"long in the past":  {expiry: 0, want: true},
		"far in the future": {expiry: now * 1000, want: false},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := IsExpired(clock, tc.expiry); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestCurrentLedger(t *testing.T) {
	if got := currentLedger(htlc.FixedClock(99)); got != 19 {
		t.Fatalf("want ledger 19, got %d", got)
	}
}
