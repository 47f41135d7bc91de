package main

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x/bank"
	"github.com/spf13/cobra"
)

type balanceInfo struct {
	Asset   string       `json:"asset"`
	Address htlc.Address `json:"address"`
	Amount  int64        `json:"amount"`
}

// NewMintCommand creates the mint command.
func NewMintCommand(opts *RootOptions) *cobra.Command {
	var (
		asset, to string
		amount    int64
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Issue new funds to an address",
		Long: `Issue new funds to an address.

This is an operator command, the store is expected to be private to the
operator running it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := htlc.ParseAddress(to)
			if err != nil {
				return errors.Wrap(err, "recipient")
			}
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				ctrl := bank.NewController(bank.NewBucket())
				var total int64
				err := htlc.Update(ctx, db, func(db htlc.KVStore) error {
					if err := ctrl.Mint(db, asset, addr, amount); err != nil {
						return err
					}
					var err error
					total, err = ctrl.Balance(db, asset, addr)
					return err
				})
				if err != nil {
					return err
				}
				htlc.GetLogger(ctx).Info("funds minted", "asset", asset, "amount", amount)
				return writeJSON(cmd.OutOrStdout(), balanceInfo{Asset: asset, Address: addr, Amount: total})
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&asset, "asset", "", "ticker of the issued asset")
	fl.StringVar(&to, "to", "", "address receiving the funds")
	fl.Int64Var(&amount, "amount", 0, "amount to issue")
	return cmd
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	var asset, addrFl string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print the balance of an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := htlc.ParseAddress(addrFl)
			if err != nil {
				return errors.Wrap(err, "address")
			}
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				amount, err := bank.NewController(bank.NewBucket()).Balance(db, asset, addr)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), balanceInfo{Asset: asset, Address: addr, Amount: amount})
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&asset, "asset", "", "ticker of the asset")
	fl.StringVar(&addrFl, "addr", "", "address to inspect")
	return cmd
}
