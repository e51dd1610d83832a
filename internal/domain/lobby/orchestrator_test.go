package lobby_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/lobbyrisk/internal/domain/lobby"
	"github.com/okian/lobbyrisk/internal/domain/model"
	"github.com/okian/lobbyrisk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

var errStopped = fmt.Errorf("pool stopped: %w", lobby.ErrUnavailable)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]float64
	calls   [][]string
}

func (c *fakeCache) BatchGet(_ context.Context, ids []model.Identity) map[model.Identity]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]string(nil), ids...))
	out := make(map[model.Identity]float64)
	for _, id := range ids {
		if s, ok := c.entries[id]; ok {
			out[id] = s
		}
	}
	return out
}

type fakePool struct {
	mu        sync.Mutex
	submitted []string
	scores    map[string]float64
	failures  map[string]error
	stopped   bool
	hold      chan struct{}
	count     atomic.Int32
}

func (p *fakePool) Submit(_ context.Context, id model.Identity) (<-chan model.TaskResult, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, errStopped
	}
	p.submitted = append(p.submitted, id)
	p.mu.Unlock()
	p.count.Add(1)

	reply := make(chan model.TaskResult, 1)
	go func() {
		if p.hold != nil {
			<-p.hold
		}
		if err, ok := p.failures[id]; ok {
			reply <- model.TaskResult{Identity: id, Err: err}
			return
		}
		reply <- model.TaskResult{Identity: id, RiskScore: p.scores[id]}
	}()
	return reply, nil
}

func TestOrchestrator_Validation(t *testing.T) {
	Convey("Given an orchestrator", t, func() {
		cache := &fakeCache{}
		pool := &fakePool{}
		o := lobby.NewOrchestrator(cache, pool, lobby.WithMaxBatchSize(3))
		ctx := context.Background()

		Convey("When the batch is empty", func() {
			_, err := o.Resolve(ctx, nil)

			Convey("Then it is rejected before any work", func() {
				So(errors.Is(err, lobby.ErrInvalidRequest), ShouldBeTrue)
				So(cache.calls, ShouldBeEmpty)
				So(pool.count.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the batch has a blank identity", func() {
			_, err := o.Resolve(ctx, []string{"a", "  "})
			So(errors.Is(err, lobby.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When the batch exceeds the size limit", func() {
			_, err := o.Resolve(ctx, []string{"a", "b", "c", "d"})
			So(errors.Is(err, lobby.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When duplicates keep the batch within the limit", func() {
			cache.entries = map[string]float64{"a": 1, "b": 2, "c": 3}
			res, err := o.Resolve(ctx, []string{"a", "b", "c", "a", "b"})
			So(err, ShouldBeNil)
			So(len(res.Profiles), ShouldEqual, 3)
		})
	})
}

func TestOrchestrator_Resolve(t *testing.T) {
	Convey("Given an orchestrator over a partially warm cache", t, func() {
		cache := &fakeCache{entries: map[string]float64{"cached": 99.9}}
		pool := &fakePool{
			scores:   map[string]float64{"fresh": 0, "other": 0},
			failures: map[string]error{"broken": errors.New("fetch timeout")},
		}
		o := lobby.NewOrchestrator(cache, pool)
		ctx := context.Background()

		Convey("When every identity is cached", func() {
			res, err := o.Resolve(ctx, []string{"cached"})

			Convey("Then no task is dispatched", func() {
				So(err, ShouldBeNil)
				So(pool.count.Load(), ShouldEqual, 0)
				So(res.Profiles, ShouldResemble, map[string]float64{"cached": 99.9})
				So(res.LobbyRisk, ShouldEqual, 99.9)
			})
		})

		Convey("When cached and fresh identities are mixed", func() {
			res, err := o.Resolve(ctx, []string{"cached", "fresh", "other"})

			Convey("Then only misses are dispatched and all scores are aggregated", func() {
				So(err, ShouldBeNil)
				So(pool.count.Load(), ShouldEqual, 2)
				So(pool.submitted, ShouldNotContain, "cached")
				So(res.Profiles, ShouldResemble, map[string]float64{"cached": 99.9, "fresh": 0, "other": 0})
				So(res.LobbyRisk, ShouldEqual, 88.91)
			})
		})

		Convey("When a task fails", func() {
			res, err := o.Resolve(ctx, []string{"cached", "broken"})

			Convey("Then the identity is omitted and listed as failed", func() {
				So(err, ShouldBeNil)
				So(res.Profiles, ShouldNotContainKey, "broken")
				So(res.Failed, ShouldResemble, []string{"broken"})
				So(res.LobbyRisk, ShouldEqual, 99.9)
			})
		})

		Convey("When every task fails", func() {
			res, err := o.Resolve(ctx, []string{"broken"})

			Convey("Then the empty lobby risk is reported", func() {
				So(err, ShouldBeNil)
				So(res.Profiles, ShouldBeEmpty)
				So(res.LobbyRisk, ShouldEqual, 100)
			})
		})

		Convey("When an identity repeats within the batch", func() {
			_, err := o.Resolve(ctx, []string{"fresh", "fresh", "fresh"})

			Convey("Then it is looked up and dispatched once", func() {
				So(err, ShouldBeNil)
				So(pool.count.Load(), ShouldEqual, 1)
				So(cache.calls[len(cache.calls)-1], ShouldResemble, []string{"fresh"})
			})
		})

		Convey("When the dispatcher has been stopped", func() {
			pool.stopped = true
			_, err := o.Resolve(ctx, []string{"fresh"})

			Convey("Then the batch is unavailable", func() {
				So(errors.Is(err, lobby.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestOrchestrator_Concurrency(t *testing.T) {
	Convey("Given overlapping batches for the same uncached identity", t, func() {
		cache := &fakeCache{}
		pool := &fakePool{scores: map[string]float64{"shared": 40}, hold: make(chan struct{})}
		o := lobby.NewOrchestrator(cache, pool)

		var wg sync.WaitGroup
		results := make([]model.LobbyResult, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = o.Resolve(context.Background(), []string{"shared"})
			}(i)
		}
		time.Sleep(100 * time.Millisecond)
		close(pool.hold)
		wg.Wait()

		Convey("Then a single task serves both batches", func() {
			So(pool.count.Load(), ShouldEqual, 1)
			So(results[0].Profiles["shared"], ShouldEqual, 40)
			So(results[1].Profiles["shared"], ShouldEqual, 40)
		})
	})

	Convey("Given a batch deadline shorter than a straggling task", t, func() {
		cache := &fakeCache{entries: map[string]float64{"cached": 10}}
		hold := make(chan struct{})
		pool := &fakePool{scores: map[string]float64{"slow": 90}, hold: hold}
		o := lobby.NewOrchestrator(cache, pool, lobby.WithBatchTimeout(50*time.Millisecond))

		res, err := o.Resolve(context.Background(), []string{"cached", "slow"})
		close(hold)

		Convey("Then the straggler is abandoned and the rest is returned", func() {
			So(err, ShouldBeNil)
			So(res.Profiles, ShouldResemble, map[string]float64{"cached": 10})
			So(res.Failed, ShouldResemble, []string{"slow"})
			So(res.LobbyRisk, ShouldEqual, 10)
		})
	})
}
