package main

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/crypto"
	"github.com/iov-one/htlc/errors"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ed25519"

	xhtlc "github.com/iov-one/htlc/x/htlc"
)

const defaultKeyPath = "htlc.key"

type keyInfo struct {
	Address htlc.Address `json:"address"`
	PubKey  string       `json:"pubkey"`
}

func newKeyInfo(key crypto.PrivateKey) keyInfo {
	pub := key.PublicKey()
	return keyInfo{
		Address: pub.Address(),
		PubKey:  hex.EncodeToString(pub),
	}
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(opts *RootOptions) *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new private key",
		Long: `Generate a new private key.

When successful a new file containing the hex encoded ed25519 seed is created.
This command fails if the private key file already exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(keyPath); !os.IsNotExist(err) {
				// Do not allow to overwrite already existing private key. User
				// must manually delete it first.
				return errors.Wrapf(errors.ErrState, "private key file %q already exists", keyPath)
			}
			key := crypto.GenPrivKeyEd25519()
			raw := hex.EncodeToString(key.Seed()) + "\n"
			if err := ioutil.WriteFile(keyPath, []byte(raw), 0600); err != nil {
				return errors.Wrapf(errors.ErrInput, "cannot write private key: %s", err)
			}
			return writeJSON(cmd.OutOrStdout(), newKeyInfo(key))
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", defaultKeyPath, "path of the private key file to create")
	return cmd
}

// NewAddressCommand creates the address command.
func NewAddressCommand(opts *RootOptions) *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address of a private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(keyPath)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), newKeyInfo(key))
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", defaultKeyPath, "path of the private key file")
	return cmd
}

// NewHashCommand creates the hash command.
func NewHashCommand(opts *RootOptions) *cobra.Command {
	var preimage string
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the commitment of a preimage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := decodePreimage(preimage)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"commitment": hex.EncodeToString(xhtlc.HashPreimage(raw)),
			})
		},
	}
	cmd.Flags().StringVar(&preimage, "preimage", "", "hex encoded preimage")
	return cmd
}

// readKey loads a private key from a file holding its hex encoded seed.
func readKey(path string) (crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot read private key file: %s", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "private key file is not hex")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(errors.ErrInput, "invalid private key length: %d", len(seed))
	}
	return crypto.PrivKeyEd25519FromSeed(seed), nil
}

func decodePreimage(enc string) ([]byte, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "preimage is not hex")
	}
	if len(raw) != xhtlc.PreimageLength {
		return nil, errors.Wrapf(errors.ErrInput, "preimage has to be exactly %d bytes", xhtlc.PreimageLength)
	}
	return raw, nil
}
