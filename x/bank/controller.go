package bank

import (
	"math"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
)

// Controller is the functionality needed by
// the escrow extension to move assets around.
type Controller interface {
	Transfer(db htlc.KVStore, asset string, src, dst htlc.Address, amount int64) error
	Mint(db htlc.KVStore, asset string, dst htlc.Address, amount int64) error
	Balance(db htlc.ReadOnlyKVStore, asset string, addr htlc.Address) (int64, error)
}

// BaseController is a simple implementation of controller
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a basic controller implementation
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount of asset held by addr.
func (c BaseController) Balance(db htlc.ReadOnlyKVStore, asset string, addr htlc.Address) (int64, error) {
	if err := x.ValidateTicker(asset); err != nil {
		return 0, err
	}
	if err := addr.Validate(); err != nil {
		return 0, errors.Wrap(err, "address")
	}
	return c.bucket.Get(db, asset, addr)
}

// Transfer moves the given amount from src to dst.
// A negative amount is rejected, a zero amount moves nothing.
// If src doesn't have sufficient funds, it fails.
func (c BaseController) Transfer(db htlc.KVStore, asset string, src, dst htlc.Address, amount int64) error {
	if amount < 0 {
		return errors.Wrapf(errors.ErrAmount, "negative transfer: %d", amount)
	}
	if err := x.ValidateTicker(asset); err != nil {
		return err
	}
	if err := src.Validate(); err != nil {
		return errors.Wrap(err, "src")
	}
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "dst")
	}
	if amount == 0 {
		return nil
	}

	have, err := c.bucket.Get(db, asset, src)
	if err != nil {
		return err
	}
	if have < amount {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %d %s, need %d", src, have, asset, amount)
	}
	if err := c.bucket.Set(db, asset, src, have-amount); err != nil {
		return err
	}
	return c.credit(db, asset, dst, amount)
}

// Mint attempts to add the given amount of asset to
// the destination address. Fails if it overflows the account.
func (c BaseController) Mint(db htlc.KVStore, asset string, dst htlc.Address, amount int64) error {
	if amount < 0 {
		return errors.Wrapf(errors.ErrAmount, "negative mint: %d", amount)
	}
	if err := x.ValidateTicker(asset); err != nil {
		return err
	}
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "dst")
	}
	if amount == 0 {
		return nil
	}
	return c.credit(db, asset, dst, amount)
}

func (c BaseController) credit(db htlc.KVStore, asset string, dst htlc.Address, amount int64) error {
	have, err := c.bucket.Get(db, asset, dst)
	if err != nil {
		return err
	}
	if have > math.MaxInt64-amount {
		return errors.Wrapf(errors.ErrOverflow, "%s balance of %s", dst, asset)
	}
	return c.bucket.Set(db, asset, dst, have+amount)
}
