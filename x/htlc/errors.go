package htlc

import (
	"github.com/iov-one/htlc/errors"
)

// The escrow extension reserves 1001 ~ 1009 error codes. These errors are
// expected outcomes of an escrow call and are returned without wrapping.
var (
	// ErrNotFound is returned when no escrow is stored under an id.
	ErrNotFound = errors.Register(1001, "escrow not found")

	// ErrNotExpiredYet is returned when refunding an escrow that did not
	// expire.
	ErrNotExpiredYet = errors.Register(1002, "escrow not expired yet")

	// ErrAlreadyExpired is returned when claiming an expired escrow.
	ErrAlreadyExpired = errors.Register(1003, "escrow already expired")

	// ErrInvalidSignature is returned when the preimage does not open the
	// hash lock.
	ErrInvalidSignature = errors.Register(1004, "invalid preimage")
)
