package htlc

import (
	"bytes"
	"crypto/sha256"
)

const (
	// PreimageLength is the only accepted length of a preimage.
	PreimageLength = 112

	// CommitmentLength is the length of a stored commitment.
	CommitmentLength = sha256.Size
)

// HashPreimage returns the commitment that the preimage opens.
func HashPreimage(preimage []byte) []byte {
	h := sha256.Sum256(preimage)
	return h[:]
}

// VerifyPreimage returns true if candidate opens the commitment. A candidate
// of the wrong length is rejected the same way as one with a different digest.
//
// Both the commitment and the digest are fixed width big-endian unsigned
// integers, so comparing their bytes compares their values.
func VerifyPreimage(commitment, candidate []byte) bool {
	if len(candidate) != PreimageLength {
		return false
	}
	return bytes.Equal(HashPreimage(candidate), commitment)
}
