package sigs

import (
	"context"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx context.Context, signers []htlc.Condition) context.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticator reads back the signers verified by Authenticate.
type Authenticator struct{}

var _ x.Authenticator = Authenticator{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticator) GetConditions(ctx context.Context) []htlc.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]htlc.Condition)
	return val
}

// HasAddress returns true if the given address signed the current Context.
func (a Authenticator) HasAddress(ctx context.Context, addr htlc.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
