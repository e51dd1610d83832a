package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/lobbyrisk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func task(id string) Task {
	return Task{Identity: id, Reply: make(chan model.TaskResult, 1)}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a queue with capacity two", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))
		ctx := context.Background()

		So(q.Len(ctx), ShouldEqual, 0)
		So(q.Cap(), ShouldEqual, 2)

		Convey("When tasks are enqueued", func() {
			So(q.Enqueue(ctx, task("a")), ShouldBeNil)
			So(q.Enqueue(ctx, task("b")), ShouldBeNil)

			Convey("Then they are dequeued in order with an enqueue time", func() {
				So(q.Len(ctx), ShouldEqual, 2)
				ch := q.Dequeue(ctx)
				first := <-ch
				second := <-ch
				So(first.Identity, ShouldEqual, "a")
				So(second.Identity, ShouldEqual, "b")
				So(first.Enqueued.IsZero(), ShouldBeFalse)
			})

			Convey("Then a third enqueue blocks until the caller gives up", func() {
				waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
				defer cancel()
				err := q.Enqueue(waitCtx, task("c"))
				So(errors.Is(err, ErrCanceled), ShouldBeTrue)
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})

			Convey("Then a third enqueue proceeds once a slot frees", func() {
				done := make(chan error, 1)
				go func() { done <- q.Enqueue(ctx, task("c")) }()
				time.Sleep(20 * time.Millisecond)
				<-q.Dequeue(ctx)
				So(<-done, ShouldBeNil)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("Then a blocked enqueue is released by Close", func() {
				done := make(chan error, 1)
				go func() { done <- q.Enqueue(ctx, task("c")) }()
				time.Sleep(20 * time.Millisecond)
				So(q.Close(), ShouldBeNil)
				So(<-done, ShouldEqual, ErrClosed)
			})
		})

		Convey("When the queue is closed with tasks pending", func() {
			So(q.Enqueue(ctx, task("a")), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)

			Convey("Then consumers drain the pending task before the channel closes", func() {
				ch := q.Dequeue(ctx)
				got, ok := <-ch
				So(ok, ShouldBeTrue)
				So(got.Identity, ShouldEqual, "a")
				_, ok = <-ch
				So(ok, ShouldBeFalse)
			})

			Convey("Then new tasks are rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, task("b")), ShouldEqual, ErrClosed)
			})
		})
	})
}
