package htlc

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/htlctest"
	"github.com/iov-one/htlc/store/redisdb"
	"github.com/iov-one/htlc/store/sqlitedb"
	"github.com/iov-one/htlc/x/bank"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldGateway stops the first transfer until released.
type heldGateway struct {
	Gateway
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newHeldGateway(next Gateway) *heldGateway {
	return &heldGateway{
		Gateway: next,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *heldGateway) Transfer(db htlc.KVStore, asset string, src, dst htlc.Address, amount int64) error {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.Gateway.Transfer(db, asset, src, dst, amount)
}

// assertSingleClaim claims the same escrow through two store handles, the
// first of which is held inside its transfer while the second one runs.
func assertSingleClaim(t *testing.T, first, second htlc.CacheableKVStore) {
	t.Helper()
	ctx := context.Background()
	depositor := htlctest.NewCondition()
	beneficiary := htlctest.NewCondition().Address()
	secret := make([]byte, PreimageLength)
	clock := htlctest.NewClock(10)
	funds := bank.NewController(bank.NewBucket())
	auth := &htlctest.Auth{Signer: depositor}

	require.NoError(t, funds.Mint(second, asset, depositor.Address(), 1000))
	ctrl := NewController(auth, clock, funds)
	id, err := ctrl.CreateEscrow(ctx, second, depositor.Address(), beneficiary,
		asset, 100, 1000, HashPreimage(secret))
	require.NoError(t, err)
	_, err = ctrl.CreateEscrow(ctx, second, depositor.Address(), beneficiary,
		asset, 200, 1000, HashPreimage(secret))
	require.NoError(t, err)

	held := newHeldGateway(funds)
	slow := NewController(auth, clock, held)

	slowErr := make(chan error, 1)
	go func() {
		_, err := slow.Claim(ctx, first, id, secret)
		slowErr <- err
	}()
	<-held.entered

	fastErr := make(chan error, 1)
	go func() {
		_, err := ctrl.Claim(ctx, second, id, secret)
		fastErr <- err
	}()

	// a store that locks keeps the second claim waiting
	var errs []error
	select {
	case err := <-fastErr:
		errs = append(errs, err)
		close(held.release)
		errs = append(errs, <-slowErr)
	case <-time.After(100 * time.Millisecond):
		close(held.release)
		errs = append(errs, <-slowErr, <-fastErr)
	}

	var claimed, missing int
	for _, err := range errs {
		switch {
		case err == nil:
			claimed++
		case ErrNotFound.Is(err):
			missing++
		default:
			t.Fatalf("unexpected error: %+v", err)
		}
	}
	assert.Equal(t, 1, claimed)
	assert.Equal(t, 1, missing)

	paid, err := funds.Balance(second, asset, beneficiary)
	require.NoError(t, err)
	assert.Equal(t, int64(100), paid)
	custody, err := funds.Balance(second, asset, CustodyAddress)
	require.NoError(t, err)
	assert.Equal(t, int64(200), custody)
}

func TestConcurrentClaimOnSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "htlc.db")
	first, err := sqlitedb.Open(path)
	require.NoError(t, err)
	defer first.Close()
	second, err := sqlitedb.Open(path)
	require.NoError(t, err)
	defer second.Close()

	assertSingleClaim(t, first, second)
}

func TestConcurrentClaimOnRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()

	var handles []htlc.CacheableKVStore
	for i := 0; i < 2; i++ {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		handles = append(handles, redisdb.New(client, "htlc/"))
	}

	assertSingleClaim(t, handles[0], handles[1])
}
