package htlc

import (
	"context"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/x"
)

// Gateway moves funds between accounts. A failed transfer aborts the whole
// escrow call.
type Gateway interface {
	Transfer(db htlc.KVStore, asset string, src, dst htlc.Address, amount int64) error
}

// Controller runs the escrow lifecycle. Every call works on an isolated view
// of the given store that is written only if the call succeeds, so the
// escrow change and the transfers it causes are committed together. Each
// call reads the clock once.
type Controller struct {
	auth    x.Authenticator
	clock   htlc.Clock
	gateway Gateway
	bucket  Bucket
}

// NewController returns a controller authenticating depositors with auth,
// reading the time from clock and moving funds through gateway.
func NewController(auth x.Authenticator, clock htlc.Clock, gateway Gateway) *Controller {
	return &Controller{
		auth:    auth,
		clock:   clock,
		gateway: gateway,
		bucket:  NewBucket(),
	}
}

// CreateEscrow locks amount of asset owned by depositor until expiry. The
// funds go to beneficiary if a preimage of commitment is revealed before the
// expiry and back to depositor afterwards. It returns the id of the new
// escrow.
func (c *Controller) CreateEscrow(
	ctx context.Context,
	db htlc.CacheableKVStore,
	depositor, beneficiary htlc.Address,
	asset string,
	amount int64,
	expiry htlc.UnixTime,
	commitment []byte,
) (uint64, error) {
	return c.Create(ctx, db, &Escrow{
		Depositor:   depositor,
		Beneficiary: beneficiary,
		Asset:       asset,
		Amount:      amount,
		Expiry:      expiry,
		Commitment:  commitment,
	})
}

// Create stores a copy of the given escrow under a newly allocated id, which
// is returned. The ID of the given escrow is ignored. The depositor must
// authorize the call.
func (c *Controller) Create(ctx context.Context, db htlc.CacheableKVStore, e *Escrow) (uint64, error) {
	if e == nil {
		return 0, errors.Wrap(errors.ErrEmpty, "escrow")
	}
	escrow := *e
	escrow.ID = 0
	clock := c.now()

	err := c.atomic(ctx, db, func(db htlc.KVStore) error {
		if !c.auth.HasAddress(ctx, escrow.Depositor) {
			return errors.Wrap(errors.ErrUnauthorized, "depositor signature required")
		}
		if err := escrow.Validate(); err != nil {
			return err
		}
		if err := c.gateway.Transfer(db, escrow.Asset, escrow.Depositor, CustodyAddress, escrow.Amount); err != nil {
			return errors.Wrap(err, "deposit")
		}
		id, err := c.bucket.NextID(db)
		if err != nil {
			return err
		}
		escrow.ID = id
		return c.bucket.Put(db, currentLedger(clock), &escrow)
	})
	if err != nil {
		htlc.GetLogger(ctx).Debug("escrow rejected", "op", "create", "err", err)
		return 0, err
	}
	htlc.GetLogger(ctx).Info("escrow created",
		"id", escrow.ID, "asset", escrow.Asset, "amount", escrow.Amount)
	return escrow.ID, nil
}

// Claim releases the escrow funds to the beneficiary and returns the settled
// escrow. The candidate must open the hash lock and the escrow must not be
// expired. Anyone can claim.
func (c *Controller) Claim(ctx context.Context, db htlc.CacheableKVStore, id uint64, candidate []byte) (*Escrow, error) {
	clock := c.now()
	var escrow *Escrow
	err := c.atomic(ctx, db, func(db htlc.KVStore) error {
		e, err := c.bucket.Get(db, currentLedger(clock), id)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotFound
		}
		if IsExpired(clock, e.Expiry) {
			return ErrAlreadyExpired
		}
		if !VerifyPreimage(e.Commitment, candidate) {
			return ErrInvalidSignature
		}
		if err := c.bucket.Delete(db, id); err != nil {
			return err
		}
		if err := c.gateway.Transfer(db, e.Asset, CustodyAddress, e.Beneficiary, e.Amount); err != nil {
			return errors.Wrap(err, "release")
		}
		escrow = e
		return nil
	})
	if err != nil {
		htlc.GetLogger(ctx).Debug("escrow rejected", "op", "claim", "id", id, "err", err)
		return nil, err
	}
	htlc.GetLogger(ctx).Info("escrow claimed",
		"id", id, "asset", escrow.Asset, "amount", escrow.Amount)
	return escrow, nil
}

// Refund returns the funds of an expired escrow to the depositor and returns
// the settled escrow. Anyone can refund.
func (c *Controller) Refund(ctx context.Context, db htlc.CacheableKVStore, id uint64) (*Escrow, error) {
	clock := c.now()
	var escrow *Escrow
	err := c.atomic(ctx, db, func(db htlc.KVStore) error {
		e, err := c.bucket.Get(db, currentLedger(clock), id)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotFound
		}
		if !IsExpired(clock, e.Expiry) {
			return ErrNotExpiredYet
		}
		if err := c.bucket.Delete(db, id); err != nil {
			return err
		}
		if err := c.gateway.Transfer(db, e.Asset, CustodyAddress, e.Depositor, e.Amount); err != nil {
			return errors.Wrap(err, "refund")
		}
		escrow = e
		return nil
	})
	if err != nil {
		htlc.GetLogger(ctx).Debug("escrow rejected", "op", "refund", "id", id, "err", err)
		return nil, err
	}
	htlc.GetLogger(ctx).Info("escrow refunded",
		"id", id, "asset", escrow.Asset, "amount", escrow.Amount)
	return escrow, nil
}

// Get returns the escrow stored under id, or ErrNotFound. A hit refreshes
// the escrow liveness window.
func (c *Controller) Get(ctx context.Context, db htlc.CacheableKVStore, id uint64) (*Escrow, error) {
	clock := c.now()
	var escrow *Escrow
	err := c.atomic(ctx, db, func(db htlc.KVStore) error {
		e, err := c.bucket.Get(db, currentLedger(clock), id)
		if err != nil {
			return err
		}
		if e == nil {
			return ErrNotFound
		}
		escrow = e
		return nil
	})
	return escrow, err
}

// now pins the controller clock for the duration of one call.
func (c *Controller) now() htlc.Clock {
	return htlc.FixedClock(htlc.AsUnixTime(c.clock.Now()))
}

// atomic runs fn on an isolated view of db that is written only if fn
// succeeds. A panic is returned as ErrPanic.
func (c *Controller) atomic(ctx context.Context, db htlc.CacheableKVStore, fn func(htlc.KVStore) error) error {
	return htlc.Update(ctx, db, recovered(fn))
}

// recovered returns fn with panics turned into ErrPanic.
func recovered(fn func(htlc.KVStore) error) func(htlc.KVStore) error {
	return func(db htlc.KVStore) (err error) {
		defer errors.Recover(&err)
		return fn(db)
	}
}
