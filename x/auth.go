package x

import (
	"context"

	"github.com/iov-one/htlc"
)

// Authenticator is an interface we can use to extract authentication info
// from the context. This should be passed into the constructor of
// controllers, so we can plug in another authentication system,
// rather than hard-coding x/sigs for all extensions.
type Authenticator interface {
	// GetConditions reveals all Conditions fulfilled
	GetConditions(context.Context) []htlc.Condition
	// HasAddress checks if any condition matches this address
	HasAddress(context.Context, htlc.Address) bool
}
