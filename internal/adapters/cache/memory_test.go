package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/lobbyrisk/internal/adapters/cache"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store with a controllable clock", t, func() {
		ctx := context.Background()
		clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		store := cache.NewMemoryStore(ctx, cache.WithMemoryClock(clock.Now), cache.WithSweepInterval(time.Hour))
		defer func() { _ = store.Close() }()

		Convey("When a value is stored", func() {
			So(store.Set(ctx, "k", []byte("v1"), time.Minute), ShouldBeNil)

			Convey("Then it is readable before expiry", func() {
				v, found, err := store.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(found, ShouldBeTrue)
				So(string(v), ShouldEqual, "v1")
			})

			Convey("Then it is gone once the ttl elapses", func() {
				clock.Advance(time.Minute)
				_, found, err := store.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(found, ShouldBeFalse)
				So(store.Sweep(), ShouldEqual, 1)
				So(store.Len(), ShouldEqual, 0)
			})

			Convey("Then overwriting resets the expiry", func() {
				clock.Advance(50 * time.Second)
				So(store.Set(ctx, "k", []byte("v2"), time.Minute), ShouldBeNil)
				clock.Advance(50 * time.Second)
				v, found, _ := store.Get(ctx, "k")
				So(found, ShouldBeTrue)
				So(string(v), ShouldEqual, "v2")
			})
		})

		Convey("When the key was never written", func() {
			_, found, err := store.Get(ctx, "missing")
			So(err, ShouldBeNil)
			So(found, ShouldBeFalse)
		})

		Convey("When the store is closed", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
			So(store.Set(ctx, "k", []byte("v"), time.Minute), ShouldEqual, cache.ErrClosed)
		})
	})
}
