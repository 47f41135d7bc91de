package crypto

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"golang.org/x/crypto/ed25519"
)

// PublicKey is an ed25519 public key.
type PublicKey []byte

var _ PubKey = PublicKey(nil)

// Verify verifies the signature was created with this message and public key
func (p PublicKey) Verify(message, sig []byte) bool {
	if len(p) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), message, sig)
}

// Condition encodes the public key into a permission. An empty key has no
// condition.
func (p PublicKey) Condition() htlc.Condition {
	if len(p) == 0 {
		return nil
	}
	return htlc.NewCondition(ExtensionName, "ed25519", p)
}

// Address returns the address of the key condition.
func (p PublicKey) Address() htlc.Address {
	return p.Condition().Address()
}

// PrivateKey is an ed25519 private key, seed followed by the public key.
type PrivateKey []byte

var _ Signer = PrivateKey(nil)

// Sign returns a matching signature for this private key
func (p PrivateKey) Sign(message []byte) ([]byte, error) {
	if len(p) != ed25519.PrivateKeySize {
		return nil, errors.ErrInput.Newf("private key of %d bytes", len(p))
	}
	return ed25519.Sign(ed25519.PrivateKey(p), message), nil
}

// PublicKey returns the corresponding PublicKey
func (p PrivateKey) PublicKey() PublicKey {
	if len(p) != ed25519.PrivateKeySize {
		return nil
	}
	return PublicKey(ed25519.PrivateKey(p).Public().(ed25519.PublicKey))
}

// Seed returns the seed the key was derived from.
func (p PrivateKey) Seed() []byte {
	return ed25519.PrivateKey(p).Seed()
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return PrivateKey(priv)
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) PrivateKey {
	return PrivateKey(ed25519.NewKeyFromSeed(seed))
}
