package htlc

import (
	"bytes"
	"testing"
)

func TestVerifyPreimage(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, PreimageLength)
	commitment := HashPreimage(secret)

	wrong := make([]byte, PreimageLength)
	copy(wrong, secret)
	wrong[PreimageLength-1] ^= 0x01

	cases := map[string]struct {
		commitment []byte
		candidate  []byte
		want       bool
	}{
		"matching preimage": {
			commitment: commitment,
			candidate:  secret,
			want:       true,
		},
		"wrong preimage of the right length": {
			commitment: commitment,
			candidate:  wrong,
			want:       false,
		},
		"too short": {
			commitment: HashPreimage(secret[:PreimageLength-1]),
			candidate:  secret[:PreimageLength-1],
			want:       false,
		},
		"too long": {
			commitment: HashPreimage(append(secret, 0)),
			candidate:  append(secret, 0),
			want:       false,
		},
		"empty candidate": {
			commitment: HashPreimage(nil),
			candidate:  nil,
			want:       false,
		},
		"empty commitment": {
			commitment: nil,
			candidate:  secret,
			want:       false,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := VerifyPreimage(tc.commitment, tc.candidate); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHashPreimageWidth(t *testing.T) {
	if n := len(HashPreimage([]byte("short"))); n != CommitmentLength {
		t.Fatalf("commitment of %d bytes", n)
	}
	if n := len(HashPreimage(make([]byte, 4096))); n != CommitmentLength {
		t.Fatalf("commitment of %d bytes", n)
	}
}
