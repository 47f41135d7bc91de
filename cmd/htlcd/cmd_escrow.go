package main

import (
	"encoding/hex"
	"strconv"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/sigs"
	"github.com/spf13/cobra"

	xhtlc "github.com/iov-one/htlc/x/htlc"
)

// settlement is printed after an escrow was claimed or refunded.
type settlement struct {
	Status string        `json:"status"`
	Escrow *xhtlc.Escrow `json:"escrow"`
}

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	KeyPath     string
	Beneficiary string
	Asset       string
	Amount      int64
	Expiry      int64
	Commitment  string
	Preimage    string
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lock funds of the key owner in a new escrow",
		Long: `Lock funds of the key owner in a new escrow.

The escrow is signed with the private key of the depositor. Either the
commitment or the preimage it was derived from must be given.

Example:
  htlcd create --key alice.key --beneficiary htlc1... --asset IOV \
    --amount 300 --expiry 1700000000 --commitment 3f2a...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createEscrow(opts, cmd)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&opts.KeyPath, "key", defaultKeyPath, "private key file of the depositor")
	fl.StringVar(&opts.Beneficiary, "beneficiary", "", "address receiving the funds on claim")
	fl.StringVar(&opts.Asset, "asset", "", "ticker of the locked asset")
	fl.Int64Var(&opts.Amount, "amount", 0, "amount to lock")
	fl.Int64Var(&opts.Expiry, "expiry", 0, "unix time after which the escrow can only be refunded")
	fl.StringVar(&opts.Commitment, "commitment", "", "hex encoded sha256 digest of the preimage")
	fl.StringVar(&opts.Preimage, "preimage", "", "hex encoded preimage to derive the commitment from")

	return cmd
}

func createEscrow(opts *CreateOptions, cmd *cobra.Command) error {
	key, err := readKey(opts.KeyPath)
	if err != nil {
		return err
	}
	beneficiary, err := htlc.ParseAddress(opts.Beneficiary)
	if err != nil {
		return errors.Wrap(err, "beneficiary")
	}

	var commitment []byte
	switch {
	case opts.Preimage != "" && opts.Commitment != "":
		return errors.Wrap(errors.ErrInput, "commitment and preimage are mutually exclusive")
	case opts.Preimage != "":
		preimage, err := decodePreimage(opts.Preimage)
		if err != nil {
			return err
		}
		commitment = xhtlc.HashPreimage(preimage)
	default:
		commitment, err = hex.DecodeString(opts.Commitment)
		if err != nil {
			return errors.Wrap(errors.ErrInput, "commitment is not hex")
		}
	}

	escrow := &xhtlc.Escrow{
		Depositor:   key.PublicKey().Address(),
		Beneficiary: beneficiary,
		Asset:       opts.Asset,
		Amount:      opts.Amount,
		Expiry:      htlc.UnixTime(opts.Expiry),
		Commitment:  commitment,
	}

	payload, err := proto.Marshal(escrow)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot serialize escrow: %s", err)
	}
	cred, err := sigs.Sign(key, payload)
	if err != nil {
		return err
	}
	ctx, err := sigs.Authenticate(opts.context(cmd.Context()), payload, cred)
	if err != nil {
		return err
	}

	return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
		id, err := opts.controller().Create(ctx, db, escrow)
		if err != nil {
			return err
		}
		escrow.ID = id
		return writeJSON(cmd.OutOrStdout(), escrow)
	})
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(opts *RootOptions) *cobra.Command {
	var preimage string
	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Release the escrow funds to the beneficiary by revealing the preimage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			candidate, err := hex.DecodeString(preimage)
			if err != nil {
				return errors.Wrap(errors.ErrInput, "preimage is not hex")
			}
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				e, err := opts.controller().Claim(ctx, db, id, candidate)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), settlement{Status: "claimed", Escrow: e})
			})
		},
	}
	cmd.Flags().StringVar(&preimage, "preimage", "", "hex encoded preimage of the commitment")
	return cmd
}

// NewRefundCommand creates the refund command.
func NewRefundCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <id>",
		Short: "Return the funds of an expired escrow to the depositor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				e, err := opts.controller().Refund(ctx, db, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), settlement{Status: "refunded", Escrow: e})
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print an active escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				e, err := opts.controller().Get(ctx, db, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), e)
			})
		},
	}
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrInput, "invalid escrow id %q", raw)
	}
	return id, nil
}
