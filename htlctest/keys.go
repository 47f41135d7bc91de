package htlctest

import (
	"testing"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
)

func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}

func NewCondition() htlc.Condition {
	return NewKey().PublicKey().Condition()
}

// ParseAddress takes an address in a human readable format and returns
// its binary representation. This function is a test helper that is using
// htlc.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) htlc.Address {
	t.Helper()

	addr, err := htlc.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
