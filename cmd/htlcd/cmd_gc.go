package main

import (
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/spf13/cobra"
)

type gcResult struct {
	Ledger  uint32 `json:"ledger"`
	Removed int    `json:"removed"`
}

// NewGCCommand creates the gc command.
func NewGCCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gc",
		Short: "Remove entries whose liveness window has lapsed",
		Long: `Remove entries whose liveness window has lapsed.

Escrows that were not touched for a long time lose their liveness window
and are removed. Nothing is removed before gc is run, whatever the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := opts.context(cmd.Context())
			return opts.withStore(ctx, func(db htlc.CacheableKVStore) error {
				res := gcResult{Ledger: htlc.LedgerAt(opts.clock().Now())}
				sweeper, ok := db.(htlc.Sweeper)
				if !ok {
					return errors.Wrapf(errors.ErrState, "%s store cannot collect garbage", opts.Config.Store)
				}
				n, err := sweeper.Sweep(res.Ledger)
				if err != nil {
					return err
				}
				res.Removed = n
				htlc.GetLogger(ctx).Info("lapsed entries removed", "ledger", res.Ledger, "count", n)
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}
