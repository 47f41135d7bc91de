package htlc_test

import (
	"testing"
	"time"

	"github.com/iov-one/htlc"
	"github.com/iov-one/htlc/errors"
	"github.com/iov-one/htlc/store"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLedgerUnits(t *testing.T) {
	Convey("a day spans 17280 ledgers", t, func() {
		So(htlc.DayInLedgers, ShouldEqual, uint32(17280))
	})

	Convey("ledger of a moment", t, func() {
		So(htlc.LedgerAt(time.Unix(0, 0)), ShouldEqual, uint32(0))
		So(htlc.LedgerAt(time.Unix(-100, 0)), ShouldEqual, uint32(0))
		So(htlc.LedgerAt(time.Unix(4, 0)), ShouldEqual, uint32(0))
		So(htlc.LedgerAt(time.Unix(5, 0)), ShouldEqual, uint32(1))
		So(htlc.LedgerAt(time.Unix(86400, 0)), ShouldEqual, htlc.DayInLedgers)
	})

	Convey("ledger end is the start of the next ledger", t, func() {
		So(htlc.LedgerEnd(0).Unix(), ShouldEqual, int64(5))
		So(htlc.LedgerAt(htlc.LedgerEnd(41)), ShouldEqual, uint32(42))
	})
}

func TestExtendTTL(t *testing.T) {
	const (
		bump      = 30 * htlc.DayInLedgers
		threshold = bump - htlc.DayInLedgers
	)
	key := []byte("escrow")

	Convey("Given a stored key without liveness", t, func() {
		db := store.MemStore()
		So(db.Set(key, []byte("value")), ShouldBeNil)

		Convey("extending assigns a full window", func() {
			So(htlc.ExtendTTL(db, key, 100, threshold, bump), ShouldBeNil)
			live, err := db.LiveUntil(key)
			So(err, ShouldBeNil)
			So(live, ShouldEqual, 100+bump)
		})

		Convey("a window above the threshold is kept", func() {
			So(htlc.ExtendTTL(db, key, 100, threshold, bump), ShouldBeNil)
			So(htlc.ExtendTTL(db, key, 100+htlc.DayInLedgers/2, threshold, bump), ShouldBeNil)
			live, err := db.LiveUntil(key)
			So(err, ShouldBeNil)
			So(live, ShouldEqual, 100+bump)
		})

		Convey("a window below the threshold is bumped", func() {
			So(htlc.ExtendTTL(db, key, 100, threshold, bump), ShouldBeNil)
			now := uint32(100 + 2*htlc.DayInLedgers)
			So(htlc.ExtendTTL(db, key, now, threshold, bump), ShouldBeNil)
			live, err := db.LiveUntil(key)
			So(err, ShouldBeNil)
			So(live, ShouldEqual, now+bump)
		})

		Convey("a lapsed window is renewed", func() {
			So(db.SetLiveUntil(key, 10), ShouldBeNil)
			So(htlc.ExtendTTL(db, key, 50, threshold, bump), ShouldBeNil)
			live, err := db.LiveUntil(key)
			So(err, ShouldBeNil)
			So(live, ShouldEqual, 50+bump)
		})

		Convey("threshold above bump is rejected", func() {
			err := htlc.ExtendTTL(db, key, 100, bump+1, bump)
			So(errors.ErrInput.Is(err), ShouldBeTrue)
		})

		Convey("overflowing window is rejected", func() {
			err := htlc.ExtendTTL(db, key, ^uint32(0)-1, threshold, bump)
			So(errors.ErrOverflow.Is(err), ShouldBeTrue)
		})
	})

	Convey("Given a missing key", t, func() {
		db := store.MemStore()

		Convey("extending is a no-op", func() {
			So(htlc.ExtendTTL(db, key, 100, threshold, bump), ShouldBeNil)
			ok, err := db.Has(key)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
