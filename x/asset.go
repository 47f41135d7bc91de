/*
Package x contains some helper code that is useful for all escrow
extensions. It holds the authentication abstraction and the
persistence and validation interfaces used by the buckets.
*/
package x

import (
	"regexp"

	"github.com/iov-one/htlc/errors"
)

// IsTicker returns true if the given string is a valid asset ticker.
var IsTicker = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,11}$`).MatchString

// ValidateTicker returns an input error for a malformed asset ticker.
func ValidateTicker(ticker string) error {
	if !IsTicker(ticker) {
		return errors.ErrInput.Newf("invalid asset ticker %q", ticker)
	}
	return nil
}
