package queue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/notfound/ballog/internal/adapters/mq/queue"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with capacity two", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueuing within capacity", func() {
			So(q.Enqueue(ctx, queue.Job{TeamID: 1}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{TeamID: 2}), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("And a third job is refused, not blocked", func() {
				So(q.Enqueue(ctx, queue.Job{TeamID: 3}), ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})

		Convey("When dequeuing", func() {
			q.Enqueue(ctx, queue.Job{TeamID: 7})

			jobs := q.Dequeue(ctx)
			select {
			case job := <-jobs:
				So(job.TeamID, ShouldEqual, int64(7))
			case <-time.After(time.Second):
				t.Fatal("no job received")
			}
		})

		Convey("When the queue is closed", func() {
			q.Enqueue(ctx, queue.Job{TeamID: 9})
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue is refused", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Job{TeamID: 10}), ShouldBeFalse)
			})

			Convey("And buffered jobs drain before the channel closes", func() {
				jobs := q.Dequeue(ctx)

				job, ok := <-jobs
				So(ok, ShouldBeTrue)
				So(job.TeamID, ShouldEqual, int64(9))

				_, ok = <-jobs
				So(ok, ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
