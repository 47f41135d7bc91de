package main

import (
	"context"
	"io"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	"github.com/iov-one/htlc/store/redisdb"
	"github.com/iov-one/htlc/store/sqlitedb"
	"github.com/iov-one/htlc/x/bank"
	"github.com/iov-one/htlc/x/sigs"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"

	xhtlc "github.com/iov-one/htlc/x/htlc"
)

// RootOptions holds global flags and the state built from them before any
// command runs.
type RootOptions struct {
	ConfigFile string
	Time       int64

	Config *Config
	Logger log.Logger

	viper *viper.Viper
}

// NewRootCommand creates the root command for the htlcd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{
		viper:  viper.New(),
		Logger: log.NewNopLogger(),
	}

	cmd := &cobra.Command{
		Use:   "htlcd",
		Short: "Hash time locked escrows",
		Long: `Hash time locked escrows.

Funds locked by a depositor are released to the beneficiary when a preimage
of the commitment is revealed before the expiry, and can be returned to the
depositor once the expiry has passed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	fl := cmd.PersistentFlags()
	fl.StringVar(&opts.ConfigFile, "config", "", "path to the configuration file (default ./htlc.yaml)")
	fl.Int64Var(&opts.Time, "time", 0, "unix time to use as the current time instead of the system clock")
	fl.String("store", storeSQLite, "store backend (sqlite|redis|memory)")
	fl.String("sqlite-path", "htlc.db", "path to the sqlite database file")
	fl.String("redis-addr", "localhost:6379", "address of the redis server")
	fl.String("redis-prefix", "htlc/", "prefix of all redis keys")
	fl.String("log-level", "info", "log level (debug|info|error|none)")
	for key, name := range map[string]string{
		"store":        "store",
		"sqlite_path":  "sqlite-path",
		"redis_addr":   "redis-addr",
		"redis_prefix": "redis-prefix",
		"log_level":    "log-level",
	} {
		// Lookup cannot fail for flags defined above.
		_ = opts.viper.BindPFlag(key, fl.Lookup(name))
	}

	cmd.AddCommand(NewKeygenCommand(opts))
	cmd.AddCommand(NewAddressCommand(opts))
	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewMintCommand(opts))
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewClaimCommand(opts))
	cmd.AddCommand(NewRefundCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewGCCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// load reads the configuration and sets up the logger writing to w.
func (o *RootOptions) load(w io.Writer) error {
	c, err := LoadConfig(o.viper, o.ConfigFile)
	if err != nil {
		return err
	}
	o.Config = c

	level, err := log.AllowLevel(c.LogLevel)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "log level: %s", err)
	}
	o.Logger = log.NewFilter(log.NewTMLogger(log.NewSyncWriter(w)), level)
	return nil
}

// clock returns the clock all escrow operations of this invocation use.
func (o *RootOptions) clock() htlc.Clock {
	if o.Time != 0 {
		return htlc.FixedClock(o.Time)
	}
	return htlc.SystemClock{}
}

// context returns ctx carrying the configured logger.
func (o *RootOptions) context(ctx context.Context) context.Context {
	return htlc.WithLogger(ctx, o.Logger.With("module", "htlcd"))
}

// controller wires the escrow controller to the bank and the signature
// authenticator.
func (o *RootOptions) controller() *xhtlc.Controller {
	return xhtlc.NewController(sigs.Authenticator{}, o.clock(), bank.NewController(bank.NewBucket()))
}

// openStore opens the configured store. The returned function releases it.
func (o *RootOptions) openStore(ctx context.Context) (htlc.CacheableKVStore, func() error, error) {
	c := o.Config
	switch c.Store {
	case storeMemory:
		return store.NewMemDB(), func() error { return nil }, nil
	case storeSQLite:
		db, err := sqlitedb.Open(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case storeRedis:
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		db := redisdb.New(client, c.RedisPrefix)
		if err := db.Ping(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return db, client.Close, nil
	default:
		return nil, nil, errors.Wrapf(errors.ErrInput, "unknown store %q", c.Store)
	}
}

// withStore runs fn with an open store and closes it afterwards.
func (o *RootOptions) withStore(ctx context.Context, fn func(db htlc.CacheableKVStore) error) (err error) {
	db, closeFn, err := o.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = errors.Wrapf(errors.ErrDatabase, "close: %s", cerr)
		}
	}()
	return fn(db)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of this program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), htlc.Version()+"\n")
			return err
		},
	}
}
