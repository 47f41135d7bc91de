/*
Package sigs provides basic authentication: ed25519 signatures over a
payload are verified and the signers are stored in the context, where
Authenticator can find them.
*/
package sigs

import (
	"context"
	"crypto/sha512"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 0}

// Credential is a signature of a payload together with the key that
// produced it.
type Credential struct {
	PubKey    crypto.PublicKey `json:"pubkey"`
	Signature []byte           `json:"signature"`
}

// Validate ensures the credential is well formed. It does not verify the
// signature.
func (c *Credential) Validate() error {
	if len(c.PubKey) == 0 {
		return errors.ErrUnauthorized.New("missing public key")
	}
	if len(c.Signature) == 0 {
		return errors.ErrUnauthorized.New("missing signature")
	}
	return nil
}

/*
BuildSignBytes combines the version prefix with the payload before signing

version | payload
4bytes  | serialized request

This is then prehashed with sha512 before fed into
the public key signing/verification step
*/
func BuildSignBytes(payload []byte) []byte {
	output := make([]byte, 0, len(SignCodeV1)+len(payload))
	output = append(output, SignCodeV1...)
	output = append(output, payload...)

	// now, we take the sha512 hash of the result,
	// so we have a constant length output to feed into eddsa
	hashed := sha512.Sum512(output)
	return hashed[:]
}

// Sign creates a credential for the given payload.
func Sign(signer crypto.Signer, payload []byte) (*Credential, error) {
	sig, err := signer.Sign(BuildSignBytes(payload))
	if err != nil {
		return nil, errors.Wrap(err, "cannot sign")
	}
	return &Credential{
		PubKey:    signer.PublicKey(),
		Signature: sig,
	}, nil
}

// VerifyCredential checks one credential against the payload and returns
// the condition of its signer.
func VerifyCredential(cred *Credential, payload []byte) (htlc.Condition, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	if !cred.PubKey.Verify(BuildSignBytes(payload), cred.Signature) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid signature")
	}
	return cred.PubKey.Condition(), nil
}

// Authenticate verifies all credentials, which must be at least one, and
// returns a context carrying their signers. Any invalid credential fails
// the whole call.
func Authenticate(ctx context.Context, payload []byte, creds ...*Credential) (context.Context, error) {
	if len(creds) == 0 {
		return ctx, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	signers := make([]htlc.Condition, 0, len(creds))
	for _, c := range creds {
		signer, err := VerifyCredential(c, payload)
		if err != nil {
			return ctx, err
		}
		signers = append(signers, signer)
	}
	return withSigners(ctx, signers), nil
}
